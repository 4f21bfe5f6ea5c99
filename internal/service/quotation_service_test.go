package service

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"solardash/internal/model"
	"solardash/internal/repository"
	"solardash/internal/session"

	"github.com/shopspring/decimal"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T, name string) *gorm.DB {
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&model.User{}, &model.RefreshToken{},
		&model.Client{}, &model.ClientAddress{},
		&model.Product{},
		&model.Quotation{}, &model.QuotationProductLine{}, &model.QuotationItemLine{},
		&model.Project{}, &model.ProjectExpense{},
		&model.Invoice{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

type quotationFixture struct {
	db       *gorm.DB
	svc      QuotationService
	sessions *session.Manager
	products repository.ProductRepository
	projects repository.ProjectRepository
}

func newQuotationFixture(t *testing.T) *quotationFixture {
	db := setupTestDB(t, t.Name())
	products := repository.NewProductRepository(db)
	projects := repository.NewProjectRepository(db)
	sessions := session.NewManager()
	svc := NewQuotationService(
		repository.NewQuotationRepository(db),
		products,
		projects,
		repository.NewTransactionManager(db),
		sessions,
		nil,
	)
	return &quotationFixture{db: db, svc: svc, sessions: sessions, products: products, projects: projects}
}

func (f *quotationFixture) seedPanel(t *testing.T, sku, price string) model.Product {
	product := model.Product{
		SKU:         sku,
		Name:        "Solar panel " + sku,
		ProductType: model.ProductTypePanel,
		PowerW:      550,
		UnitPrice:   decimal.RequireFromString(price),
		IsActive:    true,
	}
	if err := f.products.Create(context.Background(), &product); err != nil {
		t.Fatalf("seed panel: %v", err)
	}
	return product
}

func (f *quotationFixture) seedInverter(t *testing.T, sku, systemType, gridType, price string) model.Product {
	product := model.Product{
		SKU:         sku,
		Name:        "Inverter " + sku,
		ProductType: model.ProductTypeInverter,
		SystemType:  systemType,
		GridType:    gridType,
		UnitPrice:   decimal.RequireFromString(price),
		IsActive:    true,
	}
	if err := f.products.Create(context.Background(), &product); err != nil {
		t.Fatalf("seed inverter: %v", err)
	}
	return product
}

func (f *quotationFixture) createDraft(t *testing.T) QuotationResponse {
	res, err := f.svc.CreateQuotation(context.Background(), CreateQuotationRequest{
		ProjectName: "Finca El Roble 45 kWp",
		SystemType:  model.SystemTypeOnGrid,
		GridType:    model.GridTypeTriphasic,
		PowerKWP:    "45.5",
		PanelCount:  84,
	})
	if err != nil {
		t.Fatalf("create quotation: %v", err)
	}
	return res
}

func TestQuotationLifecycle(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	panel := f.seedPanel(t, "PNL-550", "1000")
	draft := f.createDraft(t)

	res, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID:        panel.ID.String(),
		Quantity:         10,
		ProfitPercentage: "0.25",
	})
	if err != nil {
		t.Fatalf("add product line: %v", err)
	}
	if !res.Dirty {
		t.Fatal("expected session to be dirty after adding a line")
	}
	if got := res.Breakdown.Subtotal; got != "12500.0000" {
		t.Fatalf("subtotal = %s, want 12500.0000", got)
	}

	saved, err := f.svc.SaveQuotation(ctx, draft.ID.String())
	if err != nil {
		t.Fatalf("save quotation: %v", err)
	}
	if saved.Dirty {
		t.Fatal("expected dirty flag to clear after save")
	}
	if got := saved.Breakdown.TotalValue; got != "16527.1641" {
		t.Fatalf("total after save = %s, want 16527.1641", got)
	}

	// A fresh service with no cached session must see the persisted state.
	fresh := NewQuotationService(
		repository.NewQuotationRepository(f.db), f.products, f.projects,
		repository.NewTransactionManager(f.db), session.NewManager(), nil,
	)
	reloaded, err := fresh.GetQuotation(ctx, draft.ID.String())
	if err != nil {
		t.Fatalf("reload quotation: %v", err)
	}
	if got := reloaded.Breakdown.TotalValue; got != "16527.1641" {
		t.Fatalf("persisted total = %s, want 16527.1641", got)
	}
	if len(reloaded.ProductLines) != 1 {
		t.Fatalf("persisted product lines = %d, want 1", len(reloaded.ProductLines))
	}
	if got := reloaded.ProductLines[0].PartialValue; got != "10000.0000" {
		t.Fatalf("persisted partial value = %s, want 10000.0000", got)
	}
}

func TestCancelRestoresSavedState(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	panel := f.seedPanel(t, "PNL-450", "1000")
	draft := f.createDraft(t)

	if _, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID: panel.ID.String(), Quantity: 10, ProfitPercentage: "0.25",
	}); err != nil {
		t.Fatalf("add product line: %v", err)
	}
	saved, err := f.svc.SaveQuotation(ctx, draft.ID.String())
	if err != nil {
		t.Fatalf("save quotation: %v", err)
	}

	edited, err := f.svc.EditField(ctx, draft.ID.String(), EditFieldRequest{
		Target: "product_line",
		LineID: saved.ProductLines[0].ID.String(),
		Field:  "quantity",
		Value:  "20",
	})
	if err != nil {
		t.Fatalf("edit quantity: %v", err)
	}
	if edited.Breakdown.Subtotal == saved.Breakdown.Subtotal {
		t.Fatal("expected subtotal to change after quantity edit")
	}

	cancelled, err := f.svc.CancelEdits(ctx, draft.ID.String())
	if err != nil {
		t.Fatalf("cancel edits: %v", err)
	}
	if cancelled.Dirty {
		t.Fatal("expected dirty flag to clear after cancel")
	}
	if got := cancelled.Breakdown.Subtotal; got != saved.Breakdown.Subtotal {
		t.Fatalf("subtotal after cancel = %s, want %s", got, saved.Breakdown.Subtotal)
	}
}

func TestPersistRejectsTamperedBreakdown(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	panel := f.seedPanel(t, "PNL-600", "1000")
	draft := f.createDraft(t)
	if _, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID: panel.ID.String(), Quantity: 10, ProfitPercentage: "0.25",
	}); err != nil {
		t.Fatalf("add product line: %v", err)
	}

	sess, err := f.sessions.Acquire(draft.ID, func() (session.Snapshot, error) {
		t.Fatal("session should already exist")
		return session.Snapshot{}, nil
	})
	if err != nil {
		t.Fatalf("acquire session: %v", err)
	}
	payload := session.BuildSavePayload(sess.Working())
	payload.Breakdown.TotalValue = payload.Breakdown.TotalValue.Add(decimal.NewFromInt(1))

	store := f.svc.(session.Store)
	if _, err := store.Persist(ctx, payload); err == nil {
		t.Fatal("expected tampered breakdown to be rejected")
	} else {
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := verr.Fields["breakdown"]; !ok {
			t.Fatalf("expected breakdown field error, got %v", verr.Fields)
		}
	}
}

func TestStatusWorkflowSpawnsProject(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	panel := f.seedPanel(t, "PNL-700", "1000")
	draft := f.createDraft(t)
	if _, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID: panel.ID.String(), Quantity: 10, ProfitPercentage: "0.25",
	}); err != nil {
		t.Fatalf("add product line: %v", err)
	}
	if _, err := f.svc.SaveQuotation(ctx, draft.ID.String()); err != nil {
		t.Fatalf("save quotation: %v", err)
	}

	// DRAFT cannot jump straight to APPROVED.
	if _, err := f.svc.UpdateStatus(ctx, draft.ID.String(), model.QuotationStatusApproved); err == nil {
		t.Fatal("expected DRAFT -> APPROVED to be rejected")
	}

	if _, err := f.svc.UpdateStatus(ctx, draft.ID.String(), model.QuotationStatusSent); err != nil {
		t.Fatalf("send quotation: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, draft.ID.String(), model.QuotationStatusApproved); err != nil {
		t.Fatalf("approve quotation: %v", err)
	}

	project, err := f.projects.FindByQuotationID(ctx, draft.ID)
	if err != nil {
		t.Fatalf("expected approval to spawn a project: %v", err)
	}
	if !project.ContractValue.Equal(decimal.RequireFromString("16527.1640625")) {
		t.Fatalf("contract value = %s, want 16527.1640625", project.ContractValue)
	}
	if project.Status != model.ProjectStatusInProgress {
		t.Fatalf("project status = %s, want IN_PROGRESS", project.Status)
	}

	// An approved quotation is frozen.
	_, err = f.svc.EditField(ctx, draft.ID.String(), EditFieldRequest{
		Target: "basic", Field: "project_name", Value: "new name",
	})
	if !errors.Is(err, ErrQuotationNotEditable) {
		t.Fatalf("expected ErrQuotationNotEditable, got %v", err)
	}
}

func TestDirtyQuotationCannotBeSent(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	panel := f.seedPanel(t, "PNL-800", "1000")
	draft := f.createDraft(t)
	if _, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID: panel.ID.String(), Quantity: 10, ProfitPercentage: "0.25",
	}); err != nil {
		t.Fatalf("add product line: %v", err)
	}

	if _, err := f.svc.UpdateStatus(ctx, draft.ID.String(), model.QuotationStatusSent); err == nil {
		t.Fatal("expected sending a dirty quotation to be rejected")
	}

	if _, err := f.svc.SaveQuotation(ctx, draft.ID.String()); err != nil {
		t.Fatalf("save quotation: %v", err)
	}
	if _, err := f.svc.UpdateStatus(ctx, draft.ID.String(), model.QuotationStatusSent); err != nil {
		t.Fatalf("send after save: %v", err)
	}
}

func TestListSubstitutesFiltersInverters(t *testing.T) {
	f := newQuotationFixture(t)
	ctx := context.Background()

	current := f.seedInverter(t, "INV-A", model.SystemTypeOnGrid, model.GridTypeTriphasic, "2000")
	match := f.seedInverter(t, "INV-B", model.SystemTypeOnGrid, model.GridTypeTriphasic, "1800")
	f.seedInverter(t, "INV-C", model.SystemTypeOffGrid, model.GridTypeTriphasic, "1700")
	f.seedInverter(t, "INV-D", model.SystemTypeOnGrid, model.GridTypeMonophasic, "1600")

	draft := f.createDraft(t)
	res, err := f.svc.AddProductLine(ctx, draft.ID.String(), AddProductLineRequest{
		ProductID: current.ID.String(), Quantity: 1, ProfitPercentage: "0.2",
	})
	if err != nil {
		t.Fatalf("add inverter line: %v", err)
	}

	candidates, err := f.svc.ListSubstitutes(ctx, draft.ID.String(), res.ProductLines[0].ID.String())
	if err != nil {
		t.Fatalf("list substitutes: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("substitute candidates = %d, want 1", len(candidates))
	}
	if candidates[0].ID != match.ID {
		t.Fatalf("candidate = %s, want %s", candidates[0].SKU, match.SKU)
	}
}
