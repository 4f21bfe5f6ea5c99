package repository

import (
	"context"

	"solardash/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type QuotationListFilter struct {
	Status   string
	ClientID string
	Search   string // partial match on project name
	Page     int
	Limit    int
}

type QuotationRepository interface {
	Create(ctx context.Context, quotation *model.Quotation) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Quotation, error)
	List(ctx context.Context, filter QuotationListFilter) ([]model.Quotation, int64, error)
	Save(ctx context.Context, quotation *model.Quotation) error
	ReplaceLines(ctx context.Context, quotationID uuid.UUID, productLines []model.QuotationProductLine, itemLines []model.QuotationItemLine) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type quotationRepository struct {
	db *gorm.DB
}

func NewQuotationRepository(db *gorm.DB) QuotationRepository {
	return &quotationRepository{db: db}
}

func (r *quotationRepository) Create(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Create(quotation).Error
}

func (r *quotationRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := GetDB(ctx, r.db).First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) FindByIDWithLines(ctx context.Context, id uuid.UUID) (*model.Quotation, error) {
	var quotation model.Quotation
	if err := GetDB(ctx, r.db).
		Preload("ProductLines").
		Preload("ItemLines").
		Preload("Client").
		First(&quotation, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &quotation, nil
}

func (r *quotationRepository) List(ctx context.Context, filter QuotationListFilter) ([]model.Quotation, int64, error) {
	var quotations []model.Quotation
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Quotation{})
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ClientID != "" {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Search != "" {
		query = query.Where("project_name ILIKE ?", "%"+filter.Search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (filter.Page - 1) * filter.Limit
	fetchQuery := db.Preload("Client")
	if filter.Status != "" {
		fetchQuery = fetchQuery.Where("status = ?", filter.Status)
	}
	if filter.ClientID != "" {
		fetchQuery = fetchQuery.Where("client_id = ?", filter.ClientID)
	}
	if filter.Search != "" {
		fetchQuery = fetchQuery.Where("project_name ILIKE ?", "%"+filter.Search+"%")
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&quotations).Error; err != nil {
		return nil, 0, err
	}

	return quotations, total, nil
}

func (r *quotationRepository) Save(ctx context.Context, quotation *model.Quotation) error {
	return GetDB(ctx, r.db).Omit("ProductLines", "ItemLines").Save(quotation).Error
}

// ReplaceLines swaps a quotation's full line set. The save contract is
// all-or-nothing, so the old lines are dropped and the submitted set
// inserted inside the caller's transaction.
func (r *quotationRepository) ReplaceLines(ctx context.Context, quotationID uuid.UUID, productLines []model.QuotationProductLine, itemLines []model.QuotationItemLine) error {
	db := GetDB(ctx, r.db)
	if err := db.Where("quotation_id = ?", quotationID).Delete(&model.QuotationProductLine{}).Error; err != nil {
		return err
	}
	if err := db.Where("quotation_id = ?", quotationID).Delete(&model.QuotationItemLine{}).Error; err != nil {
		return err
	}
	if len(productLines) > 0 {
		if err := db.Create(&productLines).Error; err != nil {
			return err
		}
	}
	if len(itemLines) > 0 {
		if err := db.Create(&itemLines).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *quotationRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Quotation{}).Where("id = ?", id).Update("status", status).Error
}

func (r *quotationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Quotation{}).Error
}
