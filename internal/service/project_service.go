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

type CreateExpenseRequest struct {
	CostCenter  string `json:"cost_center" binding:"required,oneof=EQUIPMENT INSTALLATION LOGISTICS PERMITS OTHER"`
	Description string `json:"description"`
	Amount      string `json:"amount" binding:"required"`
}

type ExpenseResponse struct {
	ID          uuid.UUID `json:"id"`
	ProjectID   uuid.UUID `json:"project_id"`
	CostCenter  string    `json:"cost_center"`
	Description string    `json:"description"`
	Amount      string    `json:"amount"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProjectResponse struct {
	ID            uuid.UUID         `json:"id"`
	ProjectCode   string            `json:"project_code"`
	Name          string            `json:"name"`
	Status        string            `json:"status"`
	QuotationID   uuid.UUID         `json:"quotation_id"`
	ClientID      *uuid.UUID        `json:"client_id"`
	ClientName    string            `json:"client_name,omitempty"`
	ContractValue string            `json:"contract_value"`
	TotalExpenses string            `json:"total_expenses"`
	Margin        string            `json:"margin"` // contract value minus booked expenses
	Note          string            `json:"note"`
	Expenses      []ExpenseResponse `json:"expenses"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// --- Interface ---

type ProjectService interface {
	GetProject(ctx context.Context, id string) (ProjectResponse, error)
	GetProjects(ctx context.Context, status string, page, limit int) ([]ProjectResponse, int64, error)
	UpdateStatus(ctx context.Context, id, status string) (ProjectResponse, error)
	AddExpense(ctx context.Context, id string, req CreateExpenseRequest) (ProjectResponse, error)
	RemoveExpense(ctx context.Context, id, expenseID string) (ProjectResponse, error)
}

type projectService struct {
	projectRepo repository.ProjectRepository
}

func NewProjectService(projectRepo repository.ProjectRepository) ProjectService {
	return &projectService{projectRepo: projectRepo}
}

// --- Implementation ---

var projectTransitions = map[string][]string{
	model.ProjectStatusInProgress: {model.ProjectStatusCompleted, model.ProjectStatusCancelled},
}

func (s *projectService) GetProject(ctx context.Context, id string) (ProjectResponse, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return ProjectResponse{}, err
	}
	return toProjectResponse(*project), nil
}

func (s *projectService) GetProjects(ctx context.Context, status string, page, limit int) ([]ProjectResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	projects, total, err := s.projectRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch projects: %w", err)
	}

	res := make([]ProjectResponse, 0, len(projects))
	for _, p := range projects {
		res = append(res, toProjectResponse(p))
	}
	return res, total, nil
}

func (s *projectService) UpdateStatus(ctx context.Context, id, status string) (ProjectResponse, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return ProjectResponse{}, err
	}

	allowed := false
	for _, next := range projectTransitions[project.Status] {
		if next == status {
			allowed = true
			break
		}
	}
	if !allowed {
		return ProjectResponse{}, fmt.Errorf("cannot move a %s project to %s", project.Status, status)
	}

	if err := s.projectRepo.UpdateStatus(ctx, project.ID, status); err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to update project status: %w", err)
	}
	project.Status = status
	return toProjectResponse(*project), nil
}

func (s *projectService) AddExpense(ctx context.Context, id string, req CreateExpenseRequest) (ProjectResponse, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return ProjectResponse{}, err
	}
	if project.Status != model.ProjectStatusInProgress {
		return ProjectResponse{}, fmt.Errorf("expenses can only be booked on in-progress projects")
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("invalid amount: %w", err)
	}
	if !amount.IsPositive() {
		return ProjectResponse{}, fmt.Errorf("amount must be greater than zero")
	}

	booked, err := s.projectRepo.SumExpenses(ctx, project.ID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to sum expenses: %w", err)
	}
	if booked.Add(amount).GreaterThan(project.ContractValue) {
		return ProjectResponse{}, fmt.Errorf("booked expenses cannot exceed the contract value of %s", project.ContractValue.StringFixed(4))
	}

	expense := &model.ProjectExpense{
		ProjectID:   project.ID,
		CostCenter:  req.CostCenter,
		Description: req.Description,
		Amount:      amount,
	}
	if err := s.projectRepo.CreateExpense(ctx, expense); err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to create expense: %w", err)
	}

	reloaded, err := s.projectRepo.FindByID(ctx, project.ID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to reload project: %w", err)
	}
	return toProjectResponse(*reloaded), nil
}

func (s *projectService) RemoveExpense(ctx context.Context, id, expenseID string) (ProjectResponse, error) {
	project, err := s.findProject(ctx, id)
	if err != nil {
		return ProjectResponse{}, err
	}
	eid, err := uuid.Parse(expenseID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("invalid expense id: %w", err)
	}

	expenses, err := s.projectRepo.ListExpenses(ctx, project.ID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to fetch expenses: %w", err)
	}
	found := false
	for _, e := range expenses {
		if e.ID == eid {
			found = true
			break
		}
	}
	if !found {
		return ProjectResponse{}, errors.New("expense not found on this project")
	}

	if err := s.projectRepo.DeleteExpense(ctx, eid); err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to delete expense: %w", err)
	}

	reloaded, err := s.projectRepo.FindByID(ctx, project.ID)
	if err != nil {
		return ProjectResponse{}, fmt.Errorf("failed to reload project: %w", err)
	}
	return toProjectResponse(*reloaded), nil
}

// --- Helpers ---

func (s *projectService) findProject(ctx context.Context, id string) (*model.Project, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid project id: %w", err)
	}
	project, err := s.projectRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.New("project not found")
		}
		return nil, fmt.Errorf("database error: %w", err)
	}
	return project, nil
}

func toProjectResponse(p model.Project) ProjectResponse {
	expenses := make([]ExpenseResponse, 0, len(p.Expenses))
	totalExpenses := decimal.Zero
	for _, e := range p.Expenses {
		totalExpenses = totalExpenses.Add(e.Amount)
		expenses = append(expenses, ExpenseResponse{
			ID:          e.ID,
			ProjectID:   e.ProjectID,
			CostCenter:  e.CostCenter,
			Description: e.Description,
			Amount:      e.Amount.StringFixed(4),
			CreatedAt:   e.CreatedAt,
		})
	}

	res := ProjectResponse{
		ID:            p.ID,
		ProjectCode:   p.ProjectCode,
		Name:          p.Name,
		Status:        p.Status,
		QuotationID:   p.QuotationID,
		ClientID:      p.ClientID,
		ContractValue: p.ContractValue.StringFixed(4),
		TotalExpenses: totalExpenses.StringFixed(4),
		Margin:        p.ContractValue.Sub(totalExpenses).StringFixed(4),
		Note:          p.Note,
		Expenses:      expenses,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if p.Client != nil {
		res.ClientName = p.Client.Name
	}
	return res
}
