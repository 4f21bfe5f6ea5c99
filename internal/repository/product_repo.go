package repository

import (
	"context"

	"solardash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// SubstituteFilter narrows catalog products to valid substitution
// candidates for one quotation.
type SubstituteFilter struct {
	ProductType string
	SystemType  string
	GridType    string
}

type ProductRepository interface {
	Create(ctx context.Context, product *model.Product) error
	Update(ctx context.Context, product *model.Product) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error)
	FindBySKU(ctx context.Context, sku string) (*model.Product, error)
	List(ctx context.Context, productType string, page, limit int, search string) ([]model.Product, int64, error)
	ListSubstitutes(ctx context.Context, filter SubstituteFilter) ([]model.Product, error)
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Create(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Create(product).Error
}

func (r *productRepository) Update(ctx context.Context, product *model.Product) error {
	return GetDB(ctx, r.db).Save(product).Error
}

func (r *productRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Product{}).Error
}

func (r *productRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).First(&product, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) FindBySKU(ctx context.Context, sku string) (*model.Product, error) {
	var product model.Product
	if err := GetDB(ctx, r.db).Where("sku = ?", sku).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) List(ctx context.Context, productType string, page, limit int, search string) ([]model.Product, int64, error) {
	var products []model.Product
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Product{})
	if productType != "" {
		db = db.Where("product_type = ?", productType)
	}
	if search != "" {
		db = db.Where("name ILIKE ? OR sku ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Order("created_at desc").Offset(offset).Limit(limit).Find(&products).Error; err != nil {
		return nil, 0, err
	}

	return products, total, nil
}

// ListSubstitutes returns active products of the requested type.
// Inverters are narrowed to the quotation's system and grid type; the
// on-grid battery exclusion is enforced by the caller before it gets
// here.
func (r *productRepository) ListSubstitutes(ctx context.Context, filter SubstituteFilter) ([]model.Product, error) {
	var products []model.Product

	db := GetDB(ctx, r.db).
		Where("product_type = ?", filter.ProductType).
		Where("is_active = ?", true)
	if filter.ProductType == model.ProductTypeInverter {
		db = db.Where("system_type = ?", filter.SystemType).
			Where("grid_type = ?", filter.GridType)
	}

	if err := db.Order("name asc").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
