package service

import (
	"context"
	"fmt"
	"time"

	"solardash/internal/model"
	"solardash/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type CreateInvoiceRequest struct {
	ProjectID string `json:"project_id" binding:"required"`
	Subtotal  string `json:"subtotal" binding:"required"`
	IVARate   string `json:"iva_rate"` // Optional, defaults to 0
	Note      string `json:"note"`
}

type InvoiceFilter struct {
	ApprovalStatus string // PENDING, APPROVED, REJECTED or empty for all
	ProjectID      string
	Page           int
	Limit          int
}

type InvoiceResponse struct {
	ID             string  `json:"id"`
	InvoiceNo      string  `json:"invoice_no"`
	ProjectID      string  `json:"project_id"`
	ProjectCode    string  `json:"project_code,omitempty"`
	Subtotal       string  `json:"subtotal"`
	IVARate        string  `json:"iva_rate"`
	IVAAmount      string  `json:"iva_amount"`
	TotalAmount    string  `json:"total_amount"`
	ApprovalStatus string  `json:"approval_status"`
	ApprovedBy     *string `json:"approved_by"`
	ApprovedAt     *string `json:"approved_at"`
	Note           string  `json:"note"`
	ClientID       *string `json:"client_id"`
	CompanyName    string  `json:"company_name"`
	TaxCode        string  `json:"tax_code"`
	BillingAddress string  `json:"billing_address"`
	CreatedAt      string  `json:"created_at"`
}

// UpdateInvoiceRequest allows editing client hard-copy fields on PENDING invoices
type UpdateInvoiceRequest struct {
	CompanyName    *string `json:"company_name"`
	TaxCode        *string `json:"tax_code"`
	BillingAddress *string `json:"billing_address"`
	Note           *string `json:"note"`
}

// --- Interface ---

type InvoiceService interface {
	CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error)
	GetInvoice(ctx context.Context, id string) (InvoiceResponse, error)
	ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error)
	ApproveInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error)
	RejectInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error)
	UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error)
}

type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	projectRepo repository.ProjectRepository
	clientRepo  repository.ClientRepository
	txManager   repository.TransactionManager
}

func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	projectRepo repository.ProjectRepository,
	clientRepo repository.ClientRepository,
	txManager repository.TransactionManager,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		projectRepo: projectRepo,
		clientRepo:  clientRepo,
		txManager:   txManager,
	}
}

// --- Implementation ---

func (s *invoiceService) CreateInvoice(ctx context.Context, req CreateInvoiceRequest) (InvoiceResponse, error) {
	subtotal, err := decimal.NewFromString(req.Subtotal)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid subtotal: %w", err)
	}
	if !subtotal.IsPositive() {
		return InvoiceResponse{}, fmt.Errorf("subtotal must be greater than zero")
	}

	ivaRate := decimal.Zero
	if req.IVARate != "" {
		ivaRate, err = decimal.NewFromString(req.IVARate)
		if err != nil {
			return InvoiceResponse{}, fmt.Errorf("invalid iva_rate: %w", err)
		}
		if ivaRate.IsNegative() || ivaRate.GreaterThan(decimal.NewFromInt(1)) {
			return InvoiceResponse{}, fmt.Errorf("iva_rate must be between 0 and 1")
		}
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid project_id: %w", err)
	}
	project, err := s.projectRepo.FindByID(ctx, projectID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("referenced project not found: %w", err)
	}

	ivaAmount := subtotal.Mul(ivaRate)
	totalAmount := subtotal.Add(ivaAmount)

	invoiceNo, err := s.generateInvoiceNo(ctx)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to generate invoice number: %w", err)
	}

	invoice := model.Invoice{
		InvoiceNo:      invoiceNo,
		ProjectID:      projectID,
		Subtotal:       subtotal,
		IVARate:        ivaRate,
		IVAAmount:      ivaAmount,
		TotalAmount:    totalAmount,
		ApprovalStatus: model.ApprovalPending,
		Note:           req.Note,
	}

	// Freeze the client hard-copy fields from the project's client
	if project.ClientID != nil {
		client, clientErr := s.clientRepo.FindByID(ctx, *project.ClientID)
		if clientErr == nil {
			invoice.ClientID = project.ClientID
			invoice.CompanyName = client.CompanyName
			if invoice.CompanyName == "" {
				invoice.CompanyName = client.Name
			}
			invoice.TaxCode = client.TaxCode
			for _, addr := range client.Addresses {
				if addr.AddressType == model.AddressTypeBilling {
					invoice.BillingAddress = addr.FullAddress
					break
				}
			}
		}
	}

	if err := s.invoiceRepo.Create(ctx, &invoice); err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to create invoice: %w", err)
	}

	reloaded, err := s.invoiceRepo.FindByIDWithProject(ctx, invoice.ID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}

	return toInvoiceResponse(*reloaded), nil
}

func (s *invoiceService) GetInvoice(ctx context.Context, id string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByIDWithProject(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}

	return toInvoiceResponse(*invoice), nil
}

func (s *invoiceService) ListInvoices(ctx context.Context, filter InvoiceFilter) ([]InvoiceResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	repoFilter := repository.InvoiceListFilter{
		ApprovalStatus: filter.ApprovalStatus,
		Page:           filter.Page,
		Limit:          filter.Limit,
	}
	if filter.ProjectID != "" {
		pid, err := uuid.Parse(filter.ProjectID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid project_id: %w", err)
		}
		repoFilter.ProjectID = &pid
	}

	invoices, total, err := s.invoiceRepo.List(ctx, repoFilter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch invoices: %w", err)
	}

	result := make([]InvoiceResponse, 0, len(invoices))
	for _, inv := range invoices {
		result = append(result, toInvoiceResponse(inv))
	}
	return result, total, nil
}

func (s *invoiceService) ApproveInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error) {
	return s.updateApproval(ctx, id, userID, model.ApprovalApproved)
}

func (s *invoiceService) RejectInvoice(ctx context.Context, id string, userID string) (InvoiceResponse, error) {
	return s.updateApproval(ctx, id, userID, model.ApprovalRejected)
}

func (s *invoiceService) updateApproval(ctx context.Context, id string, userID string, status string) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	approverID, err := uuid.Parse(userID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid user id: %w", err)
	}

	var invoice *model.Invoice
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		invoice, findErr = s.invoiceRepo.FindByID(txCtx, invoiceID)
		if findErr != nil {
			return fmt.Errorf("invoice not found: %w", findErr)
		}

		if invoice.ApprovalStatus != model.ApprovalPending {
			return fmt.Errorf("invoice is already %s", invoice.ApprovalStatus)
		}

		now := time.Now()
		invoice.ApprovalStatus = status
		invoice.ApprovedBy = &approverID
		invoice.ApprovedAt = &now

		if updateErr := s.invoiceRepo.UpdateApproval(txCtx, invoice); updateErr != nil {
			return fmt.Errorf("failed to update invoice: %w", updateErr)
		}

		return nil
	})

	if err != nil {
		return InvoiceResponse{}, err
	}

	reloaded, err := s.invoiceRepo.FindByIDWithProject(ctx, invoice.ID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}

	return toInvoiceResponse(*reloaded), nil
}

// UpdateInvoice allows editing client hard-copy fields on a PENDING invoice before issuing
func (s *invoiceService) UpdateInvoice(ctx context.Context, id string, req UpdateInvoiceRequest) (InvoiceResponse, error) {
	invoiceID, err := uuid.Parse(id)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invalid invoice id: %w", err)
	}

	invoice, err := s.invoiceRepo.FindByID(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("invoice not found: %w", err)
	}

	if invoice.ApprovalStatus != model.ApprovalPending {
		return InvoiceResponse{}, fmt.Errorf("cannot edit invoice with status %s", invoice.ApprovalStatus)
	}

	if req.CompanyName != nil {
		invoice.CompanyName = *req.CompanyName
	}
	if req.TaxCode != nil {
		invoice.TaxCode = *req.TaxCode
	}
	if req.BillingAddress != nil {
		invoice.BillingAddress = *req.BillingAddress
	}
	if req.Note != nil {
		invoice.Note = *req.Note
	}

	if err := s.invoiceRepo.Update(ctx, invoice); err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to update invoice: %w", err)
	}

	reloaded, err := s.invoiceRepo.FindByIDWithProject(ctx, invoiceID)
	if err != nil {
		return InvoiceResponse{}, fmt.Errorf("failed to reload invoice: %w", err)
	}

	return toInvoiceResponse(*reloaded), nil
}

func (s *invoiceService) generateInvoiceNo(ctx context.Context) (string, error) {
	today := time.Now().Format("20060102")
	prefix := "INV-" + today + "-"

	count, err := s.invoiceRepo.CountByPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("%s%05d", prefix, count+1), nil
}

// --- Mapping ---

func toInvoiceResponse(inv model.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:             inv.ID.String(),
		InvoiceNo:      inv.InvoiceNo,
		ProjectID:      inv.ProjectID.String(),
		Subtotal:       inv.Subtotal.StringFixed(4),
		IVARate:        inv.IVARate.StringFixed(4),
		IVAAmount:      inv.IVAAmount.StringFixed(4),
		TotalAmount:    inv.TotalAmount.StringFixed(4),
		ApprovalStatus: inv.ApprovalStatus,
		Note:           inv.Note,
		CompanyName:    inv.CompanyName,
		TaxCode:        inv.TaxCode,
		BillingAddress: inv.BillingAddress,
		CreatedAt:      inv.CreatedAt.Format(time.RFC3339),
	}

	if inv.Project != nil {
		resp.ProjectCode = inv.Project.ProjectCode
	}
	if inv.ClientID != nil {
		s := inv.ClientID.String()
		resp.ClientID = &s
	}
	if inv.ApprovedBy != nil {
		s := inv.ApprovedBy.String()
		resp.ApprovedBy = &s
	}
	if inv.ApprovedAt != nil {
		s := inv.ApprovedAt.Format(time.RFC3339)
		resp.ApprovedAt = &s
	}

	return resp
}
