package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"solardash/internal/model"
	"solardash/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductRequest struct {
	SKU         string `json:"sku" binding:"required"`
	Name        string `json:"name" binding:"required"`
	ProductType string `json:"product_type" binding:"required,oneof=PANEL INVERTER BATTERY"`
	Brand       string `json:"brand"`
	PowerW      int    `json:"power_w"`
	SystemType  string `json:"system_type"`
	GridType    string `json:"grid_type"`
	UnitPrice   string `json:"unit_price" binding:"required"`
	SupplierID  string `json:"supplier_id"`
}

type UpdateProductRequest struct {
	Name       *string `json:"name"`
	Brand      *string `json:"brand"`
	PowerW     *int    `json:"power_w"`
	SystemType *string `json:"system_type"`
	GridType   *string `json:"grid_type"`
	UnitPrice  *string `json:"unit_price"`
	IsActive   *bool   `json:"is_active"`
}

type ProductResponse struct {
	ID          uuid.UUID `json:"id"`
	SKU         string    `json:"sku"`
	Name        string    `json:"name"`
	ProductType string    `json:"product_type"`
	Brand       string    `json:"brand"`
	PowerW      int       `json:"power_w"`
	SystemType  string    `json:"system_type"`
	GridType    string    `json:"grid_type"`
	UnitPrice   string    `json:"unit_price"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// --- Interface ---

type CatalogService interface {
	GetProducts(ctx context.Context, productType, search string, page, limit int) ([]ProductResponse, int64, error)
	GetProduct(ctx context.Context, id string) (ProductResponse, error)
	CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error)
	UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error)
	DeleteProduct(ctx context.Context, id string) error
}

type catalogService struct {
	productRepo repository.ProductRepository
}

func NewCatalogService(productRepo repository.ProductRepository) CatalogService {
	return &catalogService{productRepo: productRepo}
}

// --- Validation helpers ---

var validSystemTypes = map[string]bool{
	model.SystemTypeOnGrid:  true,
	model.SystemTypeOffGrid: true,
	model.SystemTypeHybrid:  true,
}

var validGridTypes = map[string]bool{
	model.GridTypeMonophasic: true,
	model.GridTypeTriphasic:  true,
}

// validateTypedFields checks the product-type specific constraints.
// Inverters must declare both system and grid type so substitution
// filtering can match them against a quotation.
func validateTypedFields(productType, systemType, gridType string) error {
	switch productType {
	case model.ProductTypeInverter:
		if !validSystemTypes[systemType] {
			return fmt.Errorf("inverter system_type must be one of: ON_GRID, OFF_GRID, HYBRID")
		}
		if !validGridTypes[gridType] {
			return fmt.Errorf("inverter grid_type must be one of: MONOPHASIC, TRIPHASIC")
		}
	case model.ProductTypeBattery:
		if systemType != "" && !validSystemTypes[systemType] {
			return fmt.Errorf("battery system_type must be one of: ON_GRID, OFF_GRID, HYBRID")
		}
	}
	return nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	price, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("invalid unit_price: %w", err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("unit_price cannot be negative")
	}
	return price, nil
}

// --- Operations ---

func (s *catalogService) GetProducts(ctx context.Context, productType, search string, page, limit int) ([]ProductResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	products, total, err := s.productRepo.List(ctx, productType, page, limit, search)
	if err != nil {
		return nil, 0, err
	}

	res := make([]ProductResponse, 0, len(products))
	for _, p := range products {
		res = append(res, toProductResponse(p))
	}

	return res, total, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id string) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, errors.New("product not found")
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *catalogService) CreateProduct(ctx context.Context, req CreateProductRequest) (ProductResponse, error) {
	if err := validateTypedFields(req.ProductType, req.SystemType, req.GridType); err != nil {
		return ProductResponse{}, err
	}
	price, err := parsePrice(req.UnitPrice)
	if err != nil {
		return ProductResponse{}, err
	}

	product := model.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		ProductType: req.ProductType,
		Brand:       req.Brand,
		PowerW:      req.PowerW,
		SystemType:  req.SystemType,
		GridType:    req.GridType,
		UnitPrice:   price,
		IsActive:    true,
	}
	if req.SupplierID != "" {
		sid, err := uuid.Parse(req.SupplierID)
		if err != nil {
			return ProductResponse{}, fmt.Errorf("invalid supplier_id: %w", err)
		}
		product.SupplierID = &sid
	}

	if err := s.productRepo.Create(ctx, &product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to create product: %w", err)
	}

	return toProductResponse(product), nil
}

func (s *catalogService) UpdateProduct(ctx context.Context, id string, req UpdateProductRequest) (ProductResponse, error) {
	productID, err := uuid.Parse(id)
	if err != nil {
		return ProductResponse{}, fmt.Errorf("invalid product id: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ProductResponse{}, errors.New("product not found")
		}
		return ProductResponse{}, fmt.Errorf("database error: %w", err)
	}

	if req.Name != nil {
		if *req.Name == "" {
			return ProductResponse{}, fmt.Errorf("name cannot be empty")
		}
		product.Name = *req.Name
	}
	if req.Brand != nil {
		product.Brand = *req.Brand
	}
	if req.PowerW != nil {
		product.PowerW = *req.PowerW
	}
	if req.SystemType != nil {
		product.SystemType = *req.SystemType
	}
	if req.GridType != nil {
		product.GridType = *req.GridType
	}
	if err := validateTypedFields(product.ProductType, product.SystemType, product.GridType); err != nil {
		return ProductResponse{}, err
	}
	if req.UnitPrice != nil {
		price, err := parsePrice(*req.UnitPrice)
		if err != nil {
			return ProductResponse{}, err
		}
		product.UnitPrice = price
	}
	if req.IsActive != nil {
		product.IsActive = *req.IsActive
	}

	if err := s.productRepo.Update(ctx, product); err != nil {
		return ProductResponse{}, fmt.Errorf("failed to update product: %w", err)
	}

	return toProductResponse(*product), nil
}

func (s *catalogService) DeleteProduct(ctx context.Context, id string) error {
	productID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid product id: %w", err)
	}

	if _, err := s.productRepo.FindByID(ctx, productID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("product not found")
		}
		return fmt.Errorf("database error: %w", err)
	}

	return s.productRepo.Delete(ctx, productID)
}

// --- Response mappers ---

func toProductResponse(p model.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		SKU:         p.SKU,
		Name:        p.Name,
		ProductType: p.ProductType,
		Brand:       p.Brand,
		PowerW:      p.PowerW,
		SystemType:  p.SystemType,
		GridType:    p.GridType,
		UnitPrice:   p.UnitPrice.StringFixed(4),
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}
}
