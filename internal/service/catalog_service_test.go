package service

import (
	"context"
	"testing"

	"solardash/internal/model"
	"solardash/internal/repository"
)

func newCatalogService(t *testing.T) CatalogService {
	db := setupTestDB(t, t.Name())
	return NewCatalogService(repository.NewProductRepository(db))
}

func TestCreateInverterRequiresSystemAndGridType(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	_, err := svc.CreateProduct(ctx, CreateProductRequest{
		SKU:         "INV-100",
		Name:        "Hybrid inverter 5kW",
		ProductType: model.ProductTypeInverter,
		UnitPrice:   "1200",
	})
	if err == nil {
		t.Fatal("expected error for inverter without system_type")
	}

	_, err = svc.CreateProduct(ctx, CreateProductRequest{
		SKU:         "INV-100",
		Name:        "Hybrid inverter 5kW",
		ProductType: model.ProductTypeInverter,
		SystemType:  model.SystemTypeHybrid,
		GridType:    "BIPHASIC",
		UnitPrice:   "1200",
	})
	if err == nil {
		t.Fatal("expected error for inverter with unknown grid_type")
	}

	created, err := svc.CreateProduct(ctx, CreateProductRequest{
		SKU:         "INV-100",
		Name:        "Hybrid inverter 5kW",
		ProductType: model.ProductTypeInverter,
		SystemType:  model.SystemTypeHybrid,
		GridType:    model.GridTypeMonophasic,
		UnitPrice:   "1200",
	})
	if err != nil {
		t.Fatalf("create inverter: %v", err)
	}
	if created.UnitPrice != "1200.0000" {
		t.Fatalf("unit price = %s, want 1200.0000", created.UnitPrice)
	}
}

func TestCreatePanelIgnoresGridConstraints(t *testing.T) {
	svc := newCatalogService(t)

	created, err := svc.CreateProduct(context.Background(), CreateProductRequest{
		SKU:         "PAN-550",
		Name:        "Mono panel 550W",
		ProductType: model.ProductTypePanel,
		PowerW:      550,
		UnitPrice:   "95.5",
	})
	if err != nil {
		t.Fatalf("create panel: %v", err)
	}
	if !created.IsActive {
		t.Fatal("new products should be active")
	}
}

func TestUpdateProductRevalidatesTypedFields(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductRequest{
		SKU:         "INV-200",
		Name:        "On-grid inverter",
		ProductType: model.ProductTypeInverter,
		SystemType:  model.SystemTypeOnGrid,
		GridType:    model.GridTypeTriphasic,
		UnitPrice:   "900",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	bad := "SIDEWAYS"
	if _, err := svc.UpdateProduct(ctx, created.ID.String(), UpdateProductRequest{SystemType: &bad}); err == nil {
		t.Fatal("expected error for invalid system_type on update")
	}

	price := "-5"
	if _, err := svc.UpdateProduct(ctx, created.ID.String(), UpdateProductRequest{UnitPrice: &price}); err == nil {
		t.Fatal("expected error for negative unit_price")
	}

	hybrid := model.SystemTypeHybrid
	updated, err := svc.UpdateProduct(ctx, created.ID.String(), UpdateProductRequest{SystemType: &hybrid})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.SystemType != model.SystemTypeHybrid {
		t.Fatalf("system type = %s, want HYBRID", updated.SystemType)
	}
}

func TestDeleteProductSoftDeletes(t *testing.T) {
	svc := newCatalogService(t)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductRequest{
		SKU:         "BAT-10",
		Name:        "Battery 10kWh",
		ProductType: model.ProductTypeBattery,
		SystemType:  model.SystemTypeHybrid,
		UnitPrice:   "4500",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := svc.DeleteProduct(ctx, created.ID.String()); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.GetProduct(ctx, created.ID.String()); err == nil {
		t.Fatal("expected deleted product to be gone")
	}
}
