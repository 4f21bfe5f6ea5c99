package repository

import (
	"context"

	"solardash/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProjectRepository interface {
	Create(ctx context.Context, project *model.Project) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error)
	FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*model.Project, error)
	List(ctx context.Context, status string, page, limit int) ([]model.Project, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountByStatus(ctx context.Context, status string) (int64, error)
	CreateExpense(ctx context.Context, expense *model.ProjectExpense) error
	DeleteExpense(ctx context.Context, id uuid.UUID) error
	ListExpenses(ctx context.Context, projectID uuid.UUID) ([]model.ProjectExpense, error)
	SumExpenses(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error)
}

type projectRepository struct {
	db *gorm.DB
}

func NewProjectRepository(db *gorm.DB) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, project *model.Project) error {
	return GetDB(ctx, r.db).Create(project).Error
}

func (r *projectRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).
		Preload("Expenses").
		Preload("Client").
		Preload("Quotation").
		First(&project, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) FindByQuotationID(ctx context.Context, quotationID uuid.UUID) (*model.Project, error) {
	var project model.Project
	if err := GetDB(ctx, r.db).First(&project, "quotation_id = ?", quotationID).Error; err != nil {
		return nil, err
	}
	return &project, nil
}

func (r *projectRepository) List(ctx context.Context, status string, page, limit int) ([]model.Project, int64, error) {
	var projects []model.Project
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Project{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Preload("Client").Preload("Expenses")
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	return projects, total, nil
}

func (r *projectRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Project{}).Where("id = ?", id).Update("status", status).Error
}

func (r *projectRepository) CountByStatus(ctx context.Context, status string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Project{}).Where("status = ?", status).Count(&count).Error
	return count, err
}

func (r *projectRepository) CreateExpense(ctx context.Context, expense *model.ProjectExpense) error {
	return GetDB(ctx, r.db).Create(expense).Error
}

func (r *projectRepository) DeleteExpense(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.ProjectExpense{}).Error
}

func (r *projectRepository) ListExpenses(ctx context.Context, projectID uuid.UUID) ([]model.ProjectExpense, error) {
	var expenses []model.ProjectExpense
	if err := GetDB(ctx, r.db).
		Where("project_id = ?", projectID).
		Order("created_at DESC").
		Find(&expenses).Error; err != nil {
		return nil, err
	}
	return expenses, nil
}

func (r *projectRepository) SumExpenses(ctx context.Context, projectID uuid.UUID) (decimal.Decimal, error) {
	var raw struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.ProjectExpense{}).
		Select("COALESCE(SUM(amount), 0) AS total").
		Where("project_id = ?", projectID).
		Scan(&raw).Error
	return raw.Total, err
}
