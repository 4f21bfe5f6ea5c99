package service

import (
	"context"
	"testing"

	"solardash/internal/model"
	"solardash/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type projectFixture struct {
	db  *gorm.DB
	svc ProjectService
}

func newProjectFixture(t *testing.T) *projectFixture {
	db := setupTestDB(t, t.Name())
	return &projectFixture{db: db, svc: NewProjectService(repository.NewProjectRepository(db))}
}

func (f *projectFixture) seedProject(t *testing.T, contractValue string) model.Project {
	project := model.Project{
		ProjectCode:   "PRJ-2026-" + uuid.NewString()[:8],
		Name:          "Rooftop installation",
		Status:        model.ProjectStatusInProgress,
		QuotationID:   uuid.New(),
		ContractValue: decimal.RequireFromString(contractValue),
	}
	if err := f.db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return project
}

func TestAddExpenseAndMargin(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "10000")

	res, err := f.svc.AddExpense(ctx, project.ID.String(), CreateExpenseRequest{
		CostCenter: "EQUIPMENT",
		Amount:     "2500",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	if res.TotalExpenses != "2500.0000" {
		t.Fatalf("total expenses = %s, want 2500.0000", res.TotalExpenses)
	}
	if res.Margin != "7500.0000" {
		t.Fatalf("margin = %s, want 7500.0000", res.Margin)
	}
}

func TestAddExpenseCannotExceedContractValue(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "1000")

	if _, err := f.svc.AddExpense(ctx, project.ID.String(), CreateExpenseRequest{
		CostCenter: "LOGISTICS",
		Amount:     "800",
	}); err != nil {
		t.Fatalf("first expense: %v", err)
	}

	_, err := f.svc.AddExpense(ctx, project.ID.String(), CreateExpenseRequest{
		CostCenter: "LOGISTICS",
		Amount:     "300",
	})
	if err == nil {
		t.Fatal("expected error when booked expenses would exceed the contract value")
	}
}

func TestRemoveExpenseChecksOwnership(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	first := f.seedProject(t, "5000")
	second := f.seedProject(t, "5000")

	res, err := f.svc.AddExpense(ctx, first.ID.String(), CreateExpenseRequest{
		CostCenter: "PERMITS",
		Amount:     "100",
	})
	if err != nil {
		t.Fatalf("add expense: %v", err)
	}
	expenseID := res.Expenses[0].ID.String()

	if _, err := f.svc.RemoveExpense(ctx, second.ID.String(), expenseID); err == nil {
		t.Fatal("expected error removing an expense through another project")
	}

	removed, err := f.svc.RemoveExpense(ctx, first.ID.String(), expenseID)
	if err != nil {
		t.Fatalf("remove expense: %v", err)
	}
	if len(removed.Expenses) != 0 {
		t.Fatalf("expenses remaining = %d, want 0", len(removed.Expenses))
	}
}

func TestProjectStatusTransitions(t *testing.T) {
	f := newProjectFixture(t)
	ctx := context.Background()
	project := f.seedProject(t, "5000")

	res, err := f.svc.UpdateStatus(ctx, project.ID.String(), model.ProjectStatusCompleted)
	if err != nil {
		t.Fatalf("complete project: %v", err)
	}
	if res.Status != model.ProjectStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", res.Status)
	}

	// Completed projects are terminal
	if _, err := f.svc.UpdateStatus(ctx, project.ID.String(), model.ProjectStatusCancelled); err == nil {
		t.Fatal("expected error moving a completed project")
	}

	// Expenses require an in-progress project
	if _, err := f.svc.AddExpense(ctx, project.ID.String(), CreateExpenseRequest{
		CostCenter: "OTHER",
		Amount:     "10",
	}); err == nil {
		t.Fatal("expected error booking an expense on a completed project")
	}
}
