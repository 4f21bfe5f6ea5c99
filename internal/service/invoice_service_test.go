package service

import (
	"context"
	"strings"
	"testing"

	"solardash/internal/model"
	"solardash/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type invoiceFixture struct {
	db  *gorm.DB
	svc InvoiceService
}

func newInvoiceFixture(t *testing.T) *invoiceFixture {
	db := setupTestDB(t, t.Name())
	svc := NewInvoiceService(
		repository.NewInvoiceRepository(db),
		repository.NewProjectRepository(db),
		repository.NewClientRepository(db),
		repository.NewTransactionManager(db),
	)
	return &invoiceFixture{db: db, svc: svc}
}

func (f *invoiceFixture) seedClientAndProject(t *testing.T) (model.Client, model.Project) {
	client := model.Client{
		Name:        "Andes Retail",
		Type:        model.ClientTypeCommercial,
		CompanyName: "Andes Retail S.A.",
		TaxCode:     "900123456-7",
		Addresses: []model.ClientAddress{
			{AddressType: model.AddressTypeBilling, FullAddress: "Calle 10 #5-51, Bogota"},
			{AddressType: model.AddressTypeInstallation, FullAddress: "Km 4 via La Calera"},
		},
	}
	if err := f.db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}

	project := model.Project{
		ProjectCode:   "PRJ-2026-" + uuid.NewString()[:8],
		Name:          "Andes rooftop",
		Status:        model.ProjectStatusInProgress,
		QuotationID:   uuid.New(),
		ClientID:      &client.ID,
		ContractValue: decimal.RequireFromString("20000"),
	}
	if err := f.db.Create(&project).Error; err != nil {
		t.Fatalf("seed project: %v", err)
	}
	return client, project
}

func (f *invoiceFixture) seedUser(t *testing.T) model.User {
	user := model.User{
		Username: "approver",
		Email:    "approver@example.com",
		Phone:    "3000000000",
		Password: "irrelevant",
		Role:     model.RoleManager,
	}
	if err := f.db.Create(&user).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func TestCreateInvoiceFreezesClientFields(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	client, project := f.seedClientAndProject(t)

	invoice, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: project.ID.String(),
		Subtotal:  "10000",
		IVARate:   "0.19",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	if invoice.CompanyName != client.CompanyName {
		t.Fatalf("company name = %q, want %q", invoice.CompanyName, client.CompanyName)
	}
	if invoice.TaxCode != client.TaxCode {
		t.Fatalf("tax code = %q, want %q", invoice.TaxCode, client.TaxCode)
	}
	if invoice.BillingAddress != "Calle 10 #5-51, Bogota" {
		t.Fatalf("billing address = %q, want the BILLING address", invoice.BillingAddress)
	}
	if invoice.IVAAmount != "1900.0000" {
		t.Fatalf("iva amount = %s, want 1900.0000", invoice.IVAAmount)
	}
	if invoice.TotalAmount != "11900.0000" {
		t.Fatalf("total = %s, want 11900.0000", invoice.TotalAmount)
	}
	if !strings.HasPrefix(invoice.InvoiceNo, "INV-") {
		t.Fatalf("invoice number %q missing prefix", invoice.InvoiceNo)
	}

	// Changing the client afterwards must not touch the issued invoice
	client.CompanyName = "Renamed S.A.S."
	if err := f.db.Save(&client).Error; err != nil {
		t.Fatalf("rename client: %v", err)
	}
	reloaded, err := f.svc.GetInvoice(ctx, invoice.ID)
	if err != nil {
		t.Fatalf("get invoice: %v", err)
	}
	if reloaded.CompanyName != "Andes Retail S.A." {
		t.Fatalf("company name changed after client edit: %q", reloaded.CompanyName)
	}
}

func TestApproveInvoiceRejectsDoubleApproval(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	_, project := f.seedClientAndProject(t)
	user := f.seedUser(t)

	invoice, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: project.ID.String(),
		Subtotal:  "5000",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	approved, err := f.svc.ApproveInvoice(ctx, invoice.ID, user.ID.String())
	if err != nil {
		t.Fatalf("approve: %v", err)
	}
	if approved.ApprovalStatus != model.ApprovalApproved {
		t.Fatalf("status = %s, want APPROVED", approved.ApprovalStatus)
	}
	if approved.ApprovedBy == nil || *approved.ApprovedBy != user.ID.String() {
		t.Fatal("approver not recorded")
	}

	if _, err := f.svc.RejectInvoice(ctx, invoice.ID, user.ID.String()); err == nil {
		t.Fatal("expected error rejecting an already approved invoice")
	}
}

func TestUpdateInvoiceOnlyWhilePending(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	_, project := f.seedClientAndProject(t)
	user := f.seedUser(t)

	invoice, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: project.ID.String(),
		Subtotal:  "5000",
	})
	if err != nil {
		t.Fatalf("create invoice: %v", err)
	}

	name := "Corrected Name S.A."
	updated, err := f.svc.UpdateInvoice(ctx, invoice.ID, UpdateInvoiceRequest{CompanyName: &name})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.CompanyName != name {
		t.Fatalf("company name = %q, want %q", updated.CompanyName, name)
	}

	if _, err := f.svc.ApproveInvoice(ctx, invoice.ID, user.ID.String()); err != nil {
		t.Fatalf("approve: %v", err)
	}
	if _, err := f.svc.UpdateInvoice(ctx, invoice.ID, UpdateInvoiceRequest{CompanyName: &name}); err == nil {
		t.Fatal("expected error editing an approved invoice")
	}
}

func TestCreateInvoiceValidatesAmounts(t *testing.T) {
	f := newInvoiceFixture(t)
	ctx := context.Background()
	_, project := f.seedClientAndProject(t)

	if _, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: project.ID.String(),
		Subtotal:  "0",
	}); err == nil {
		t.Fatal("expected error for zero subtotal")
	}

	if _, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: project.ID.String(),
		Subtotal:  "100",
		IVARate:   "1.5",
	}); err == nil {
		t.Fatal("expected error for iva_rate above 1")
	}

	if _, err := f.svc.CreateInvoice(ctx, CreateInvoiceRequest{
		ProjectID: uuid.NewString(),
		Subtotal:  "100",
	}); err == nil {
		t.Fatal("expected error for unknown project")
	}
}
