package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"solardash/internal/model"
	"solardash/internal/pricing"
	"solardash/internal/repository"
	"solardash/internal/session"
	ws "solardash/internal/websocket"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ValidationError carries server-side validation failures keyed by
// field, each with one or more messages. Handlers render it as a 422.
type ValidationError struct {
	Fields map[string][]string `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msgs := range e.Fields {
		parts = append(parts, fmt.Sprintf("%s: %s", field, strings.Join(msgs, "; ")))
	}
	return "validation failed: " + strings.Join(parts, ", ")
}

func newValidationError(field, message string) *ValidationError {
	return &ValidationError{Fields: map[string][]string{field: {message}}}
}

// ErrQuotationNotEditable is returned for edit or save attempts on a
// quotation that has left DRAFT.
var ErrQuotationNotEditable = errors.New("only draft quotations can be edited")

// --- DTOs ---

type CreateQuotationRequest struct {
	ProjectName string `json:"project_name" binding:"required"`
	ClientID    string `json:"client_id"`
	SystemType  string `json:"system_type" binding:"required,oneof=ON_GRID OFF_GRID HYBRID"`
	GridType    string `json:"grid_type" binding:"required,oneof=MONOPHASIC TRIPHASIC"`
	PowerKWP    string `json:"power_kwp" binding:"required"`
	PanelCount  int    `json:"panel_count" binding:"required,gt=0"`
}

type EditFieldRequest struct {
	Target string `json:"target" binding:"required,oneof=product_line item_line percentage basic"`
	LineID string `json:"line_id"`
	Field  string `json:"field" binding:"required"`
	Value  string `json:"value"`
}

type AddProductLineRequest struct {
	ProductID        string `json:"product_id" binding:"required"`
	Quantity         int    `json:"quantity" binding:"required,gt=0"`
	ProfitPercentage string `json:"profit_percentage" binding:"required"`
}

type AddItemLineRequest struct {
	Description      string `json:"description" binding:"required"`
	ItemType         string `json:"item_type" binding:"required,oneof=MATERIAL LABOR PERMIT"`
	Unit             string `json:"unit" binding:"required"`
	Quantity         string `json:"quantity" binding:"required"`
	UnitPrice        string `json:"unit_price" binding:"required"`
	ProfitPercentage string `json:"profit_percentage" binding:"required"`
}

type SubstituteProductRequest struct {
	ProductID string `json:"product_id" binding:"required"`
}

type ProductLineResponse struct {
	ID               uuid.UUID `json:"id"`
	ProductID        uuid.UUID `json:"product_id"`
	ProductType      string    `json:"product_type"`
	Quantity         int       `json:"quantity"`
	UnitPrice        string    `json:"unit_price"`
	ProfitPercentage string    `json:"profit_percentage"`
	PartialValue     string    `json:"partial_value"`
	Profit           string    `json:"profit"`
	TotalValue       string    `json:"total_value"`
}

type ItemLineResponse struct {
	ID               uuid.UUID `json:"id"`
	Description      string    `json:"description"`
	ItemType         string    `json:"item_type"`
	Quantity         string    `json:"quantity"`
	Unit             string    `json:"unit"`
	UnitPrice        string    `json:"unit_price"`
	ProfitPercentage string    `json:"profit_percentage"`
	PartialValue     string    `json:"partial_value"`
	Profit           string    `json:"profit"`
	TotalValue       string    `json:"total_value"`
}

type PercentagesResponse struct {
	CommercialManagement string `json:"commercial_management"`
	Administration       string `json:"administration"`
	Contingency          string `json:"contingency"`
	Profit               string `json:"profit"`
	ProfitIVA            string `json:"profit_iva"`
	Withholding          string `json:"withholding"`
}

type BreakdownResponse struct {
	Subtotal                   string `json:"subtotal"`
	CommercialManagementAmount string `json:"commercial_management_amount"`
	Subtotal2                  string `json:"subtotal2"`
	AdministrationAmount       string `json:"administration_amount"`
	ContingencyAmount          string `json:"contingency_amount"`
	ProfitAmount               string `json:"profit_amount"`
	ProfitIVAAmount            string `json:"profit_iva_amount"`
	Subtotal3                  string `json:"subtotal3"`
	WithholdingAmount          string `json:"withholding_amount"`
	TotalValue                 string `json:"total_value"`
}

type QuotationResponse struct {
	ID           uuid.UUID             `json:"id"`
	ProjectName  string                `json:"project_name"`
	ClientID     *uuid.UUID            `json:"client_id"`
	SystemType   string                `json:"system_type"`
	GridType     string                `json:"grid_type"`
	PowerKWP     string                `json:"power_kwp"`
	PanelCount   int                   `json:"panel_count"`
	Status       string                `json:"status"`
	Dirty        bool                  `json:"dirty"`
	ProductLines []ProductLineResponse `json:"product_lines"`
	ItemLines    []ItemLineResponse    `json:"item_lines"`
	Percentages  PercentagesResponse   `json:"percentages"`
	Breakdown    BreakdownResponse     `json:"breakdown"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

type QuotationSummaryResponse struct {
	ID          uuid.UUID  `json:"id"`
	ProjectName string     `json:"project_name"`
	ClientID    *uuid.UUID `json:"client_id"`
	ClientName  string     `json:"client_name,omitempty"`
	SystemType  string     `json:"system_type"`
	GridType    string     `json:"grid_type"`
	PowerKWP    string     `json:"power_kwp"`
	Status      string     `json:"status"`
	TotalValue  string     `json:"total_value"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type SubstituteCandidateResponse struct {
	ID         uuid.UUID `json:"id"`
	SKU        string    `json:"sku"`
	Name       string    `json:"name"`
	Brand      string    `json:"brand"`
	PowerW     int       `json:"power_w"`
	SystemType string    `json:"system_type"`
	GridType   string    `json:"grid_type"`
	UnitPrice  string    `json:"unit_price"`
}

// Websocket payload
type QuotationEvent struct {
	Event string                 `json:"event"`
	Data  map[string]interface{} `json:"data"`
}

// --- Interface ---

type QuotationService interface {
	CreateQuotation(ctx context.Context, req CreateQuotationRequest) (QuotationResponse, error)
	GetQuotation(ctx context.Context, id string) (QuotationResponse, error)
	GetQuotations(ctx context.Context, status, clientID, search string, page, limit int) ([]QuotationSummaryResponse, int64, error)
	EditField(ctx context.Context, id string, req EditFieldRequest) (QuotationResponse, error)
	AddProductLine(ctx context.Context, id string, req AddProductLineRequest) (QuotationResponse, error)
	AddItemLine(ctx context.Context, id string, req AddItemLineRequest) (QuotationResponse, error)
	RemoveLine(ctx context.Context, id, lineID string) (QuotationResponse, error)
	SubstituteProduct(ctx context.Context, id, lineID string, req SubstituteProductRequest) (QuotationResponse, error)
	ListSubstitutes(ctx context.Context, id, lineID string) ([]SubstituteCandidateResponse, error)
	SaveQuotation(ctx context.Context, id string) (QuotationResponse, error)
	CancelEdits(ctx context.Context, id string) (QuotationResponse, error)
	UpdateStatus(ctx context.Context, id, status string) (QuotationResponse, error)
	DeleteQuotation(ctx context.Context, id string) error
}

type quotationService struct {
	quotationRepo repository.QuotationRepository
	productRepo   repository.ProductRepository
	projectRepo   repository.ProjectRepository
	txManager     repository.TransactionManager
	sessions      *session.Manager
	hub           *ws.Hub
}

func NewQuotationService(
	quotationRepo repository.QuotationRepository,
	productRepo repository.ProductRepository,
	projectRepo repository.ProjectRepository,
	txManager repository.TransactionManager,
	sessions *session.Manager,
	hub *ws.Hub,
) QuotationService {
	return &quotationService{
		quotationRepo: quotationRepo,
		productRepo:   productRepo,
		projectRepo:   projectRepo,
		txManager:     txManager,
		sessions:      sessions,
		hub:           hub,
	}
}

// --- Creation and reads ---

func (s *quotationService) CreateQuotation(ctx context.Context, req CreateQuotationRequest) (QuotationResponse, error) {
	power, err := decimal.NewFromString(req.PowerKWP)
	if err != nil {
		return QuotationResponse{}, newValidationError("power_kwp", "not a valid number")
	}
	if power.LessThanOrEqual(decimal.NewFromFloat(0.1)) {
		return QuotationResponse{}, newValidationError("power_kwp", "power must be greater than 0.1 kWp")
	}
	if len(req.ProjectName) > 200 {
		return QuotationResponse{}, newValidationError("project_name", "project name must be at most 200 characters")
	}

	pcts := pricing.DefaultPercentages()
	quotation := &model.Quotation{
		ProjectName:             req.ProjectName,
		SystemType:              req.SystemType,
		GridType:                req.GridType,
		PowerKWP:                power,
		PanelCount:              req.PanelCount,
		Status:                  model.QuotationStatusDraft,
		CommercialManagementPct: pcts.CommercialManagement,
		AdministrationPct:       pcts.Administration,
		ContingencyPct:          pcts.Contingency,
		ProfitPct:               pcts.Profit,
		ProfitIVAPct:            pcts.ProfitIVA,
		WithholdingPct:          pcts.Withholding,
	}
	if req.ClientID != "" {
		cid, err := uuid.Parse(req.ClientID)
		if err != nil {
			return QuotationResponse{}, newValidationError("client_id", "not a valid id")
		}
		quotation.ClientID = &cid
	}

	if err := s.quotationRepo.Create(ctx, quotation); err != nil {
		return QuotationResponse{}, fmt.Errorf("failed to create quotation: %w", err)
	}

	sess := session.New(toSnapshot(quotation))
	return s.respond(quotation, sess), nil
}

func (s *quotationService) GetQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	quotation, sess, err := s.acquire(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

func (s *quotationService) GetQuotations(ctx context.Context, status, clientID, search string, page, limit int) ([]QuotationSummaryResponse, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	quotations, total, err := s.quotationRepo.List(ctx, repository.QuotationListFilter{
		Status:   status,
		ClientID: clientID,
		Search:   search,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch quotations: %w", err)
	}

	res := make([]QuotationSummaryResponse, 0, len(quotations))
	for _, q := range quotations {
		summary := QuotationSummaryResponse{
			ID:          q.ID,
			ProjectName: q.ProjectName,
			ClientID:    q.ClientID,
			SystemType:  q.SystemType,
			GridType:    q.GridType,
			PowerKWP:    q.PowerKWP.StringFixed(2),
			Status:      q.Status,
			TotalValue:  q.TotalValue.StringFixed(4),
			CreatedAt:   q.CreatedAt,
			UpdatedAt:   q.UpdatedAt,
		}
		if q.Client != nil {
			summary.ClientName = q.Client.Name
		}
		res = append(res, summary)
	}

	return res, total, nil
}

// --- Edit session operations ---

func (s *quotationService) EditField(ctx context.Context, id string, req EditFieldRequest) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}

	var edit func(session.Snapshot) (session.Snapshot, error)
	switch req.Target {
	case "product_line":
		lineID, err := uuid.Parse(req.LineID)
		if err != nil {
			return QuotationResponse{}, newValidationError("line_id", "not a valid id")
		}
		edit = func(snap session.Snapshot) (session.Snapshot, error) {
			return session.EditProductLineField(snap, lineID, req.Field, req.Value)
		}
	case "item_line":
		lineID, err := uuid.Parse(req.LineID)
		if err != nil {
			return QuotationResponse{}, newValidationError("line_id", "not a valid id")
		}
		edit = func(snap session.Snapshot) (session.Snapshot, error) {
			return session.EditItemLineField(snap, lineID, req.Field, req.Value)
		}
	case "percentage":
		edit = func(snap session.Snapshot) (session.Snapshot, error) {
			return session.EditPercentage(snap, req.Field, req.Value)
		}
	case "basic":
		edit = func(snap session.Snapshot) (session.Snapshot, error) {
			return session.EditBasicField(snap, req.Field, req.Value)
		}
	default:
		return QuotationResponse{}, newValidationError("target", "unknown edit target")
	}

	if _, err := sess.Apply(edit); err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

func (s *quotationService) AddProductLine(ctx context.Context, id string, req AddProductLineRequest) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}

	candidate, err := s.catalogProduct(ctx, req.ProductID)
	if err != nil {
		return QuotationResponse{}, err
	}
	pct, err := decimal.NewFromString(req.ProfitPercentage)
	if err != nil {
		return QuotationResponse{}, newValidationError("profit_percentage", "not a valid number")
	}
	if pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return QuotationResponse{}, newValidationError("profit_percentage", "must be between 0 and 1")
	}

	if _, err := sess.Apply(func(snap session.Snapshot) (session.Snapshot, error) {
		return session.AddProductLine(snap, candidate, req.Quantity, pct)
	}); err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

func (s *quotationService) AddItemLine(ctx context.Context, id string, req AddItemLineRequest) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}

	qty, err := decimal.NewFromString(req.Quantity)
	if err != nil || !qty.IsPositive() {
		return QuotationResponse{}, newValidationError("quantity", "must be a number greater than zero")
	}
	price, err := decimal.NewFromString(req.UnitPrice)
	if err != nil || price.IsNegative() {
		return QuotationResponse{}, newValidationError("unit_price", "must be a non-negative number")
	}
	pct, err := decimal.NewFromString(req.ProfitPercentage)
	if err != nil || pct.IsNegative() || pct.GreaterThan(decimal.NewFromInt(1)) {
		return QuotationResponse{}, newValidationError("profit_percentage", "must be between 0 and 1")
	}

	if _, err := sess.Apply(func(snap session.Snapshot) (session.Snapshot, error) {
		return session.AddItemLine(snap, req.Description, req.ItemType, req.Unit, qty, price, pct)
	}); err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

func (s *quotationService) RemoveLine(ctx context.Context, id, lineID string) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return QuotationResponse{}, newValidationError("line_id", "not a valid id")
	}

	if _, err := sess.Apply(func(snap session.Snapshot) (session.Snapshot, error) {
		return session.RemoveLine(snap, lid)
	}); err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

func (s *quotationService) SubstituteProduct(ctx context.Context, id, lineID string, req SubstituteProductRequest) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return QuotationResponse{}, newValidationError("line_id", "not a valid id")
	}
	candidate, err := s.catalogProduct(ctx, req.ProductID)
	if err != nil {
		return QuotationResponse{}, err
	}

	if _, err := sess.Apply(func(snap session.Snapshot) (session.Snapshot, error) {
		return session.SubstituteProduct(snap, lid, candidate)
	}); err != nil {
		return QuotationResponse{}, err
	}
	return s.respond(quotation, sess), nil
}

// ListSubstitutes returns the catalog products a line could be swapped
// to: active, same product type, inverters narrowed to the quotation's
// system and grid type. Batteries are filtered out entirely when the
// quotation is on-grid.
func (s *quotationService) ListSubstitutes(ctx context.Context, id, lineID string) ([]SubstituteCandidateResponse, error) {
	_, sess, err := s.acquire(ctx, id)
	if err != nil {
		return nil, err
	}
	lid, err := uuid.Parse(lineID)
	if err != nil {
		return nil, newValidationError("line_id", "not a valid id")
	}

	snap := sess.Working()
	var line *session.ProductLine
	for i := range snap.ProductLines {
		if snap.ProductLines[i].ID == lid {
			line = &snap.ProductLines[i]
			break
		}
	}
	if line == nil {
		return nil, newValidationError("line_id", "product line not found")
	}
	if line.ProductType == model.ProductTypeBattery && snap.SystemType == model.SystemTypeOnGrid {
		return []SubstituteCandidateResponse{}, nil
	}

	filter := repository.SubstituteFilter{ProductType: line.ProductType}
	if line.ProductType == model.ProductTypeInverter {
		filter.SystemType = snap.SystemType
		filter.GridType = snap.GridType
	}

	products, err := s.productRepo.ListSubstitutes(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch substitutes: %w", err)
	}

	res := make([]SubstituteCandidateResponse, 0, len(products))
	for _, p := range products {
		if p.ID == line.ProductID {
			continue
		}
		res = append(res, SubstituteCandidateResponse{
			ID:         p.ID,
			SKU:        p.SKU,
			Name:       p.Name,
			Brand:      p.Brand,
			PowerW:     p.PowerW,
			SystemType: p.SystemType,
			GridType:   p.GridType,
			UnitPrice:  p.UnitPrice.StringFixed(4),
		})
	}
	return res, nil
}

// --- Save and cancel ---

func (s *quotationService) SaveQuotation(ctx context.Context, id string) (QuotationResponse, error) {
	quotation, sess, err := s.acquireEditable(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}

	canonical, err := sess.Save(ctx, s)
	if err != nil {
		return QuotationResponse{}, err
	}

	s.broadcast("quotation_saved", map[string]interface{}{
		"quotation_id": canonical.QuotationID.String(),
		"total_value":  canonical.Breakdown.TotalValue.StringFixed(4),
	})
	return s.respond(quotation, sess), nil
}

func (s *quotationService) CancelEdits(ctx context.Context, id string) (QuotationResponse, error) {
	quotation, sess, err := s.acquire(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	sess.Cancel()
	return s.respond(quotation, sess), nil
}

// Persist implements session.Store. The submitted payload is never
// trusted: lines and percentages are recomputed from raw fields and the
// submitted breakdown must match the recomputation exactly, otherwise
// the save is rejected as a validation failure.
func (s *quotationService) Persist(ctx context.Context, payload session.SavePayload) (session.Snapshot, error) {
	recomputed, err := session.PayloadSnapshot(payload).Recompute()
	if err != nil {
		return session.Snapshot{}, newValidationError("lines", err.Error())
	}
	if !recomputed.Breakdown.Equal(session.SubmittedBreakdown(payload)) {
		return session.Snapshot{}, newValidationError("breakdown", "submitted breakdown does not match recomputation")
	}
	if err := validateSnapshot(recomputed); err != nil {
		return session.Snapshot{}, err
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		quotation, err := s.quotationRepo.FindByID(txCtx, payload.QuotationID)
		if err != nil {
			return fmt.Errorf("quotation not found: %w", err)
		}
		if quotation.Status != model.QuotationStatusDraft {
			return ErrQuotationNotEditable
		}

		applySnapshot(quotation, recomputed)
		if err := s.quotationRepo.Save(txCtx, quotation); err != nil {
			return fmt.Errorf("failed to save quotation: %w", err)
		}
		if err := s.quotationRepo.ReplaceLines(txCtx, quotation.ID,
			toProductLineModels(quotation.ID, recomputed.ProductLines),
			toItemLineModels(quotation.ID, recomputed.ItemLines)); err != nil {
			return fmt.Errorf("failed to replace quotation lines: %w", err)
		}
		return nil
	})
	if err != nil {
		return session.Snapshot{}, err
	}

	return recomputed, nil
}

// validateSnapshot re-runs the structural invariants server-side so a
// hand-crafted payload cannot bypass the editors.
func validateSnapshot(snap session.Snapshot) error {
	if snap.ProjectName == "" || len(snap.ProjectName) > 200 {
		return newValidationError("project_name", "must be 1-200 characters")
	}
	if snap.LineCount() == 0 {
		return newValidationError("lines", "a quotation needs at least one line")
	}
	for _, l := range snap.ProductLines {
		if l.ProductType == model.ProductTypeBattery && snap.SystemType == model.SystemTypeOnGrid {
			return newValidationError("product_lines", "batteries are not allowed on on-grid systems")
		}
	}
	return nil
}

// --- Status workflow ---

var quotationTransitions = map[string][]string{
	model.QuotationStatusDraft: {model.QuotationStatusSent},
	model.QuotationStatusSent:  {model.QuotationStatusApproved, model.QuotationStatusRejected},
}

func transitionAllowed(from, to string) bool {
	for _, allowed := range quotationTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// UpdateStatus moves the quotation through its workflow. Sending a
// dirty quotation is refused so what the client approved is what was
// stored. Approval spawns a project with the contract value frozen from
// the quotation total.
func (s *quotationService) UpdateStatus(ctx context.Context, id, status string) (QuotationResponse, error) {
	quotation, sess, err := s.acquire(ctx, id)
	if err != nil {
		return QuotationResponse{}, err
	}
	if !transitionAllowed(quotation.Status, status) {
		return QuotationResponse{}, newValidationError("status",
			fmt.Sprintf("cannot move a %s quotation to %s", quotation.Status, status))
	}
	if status == model.QuotationStatusSent && sess.Dirty() {
		return QuotationResponse{}, newValidationError("status", "save or cancel pending edits before sending")
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.quotationRepo.UpdateStatus(txCtx, quotation.ID, status); err != nil {
			return fmt.Errorf("failed to update status: %w", err)
		}
		if status == model.QuotationStatusApproved {
			if existing, findErr := s.projectRepo.FindByQuotationID(txCtx, quotation.ID); findErr == nil && existing != nil {
				return nil
			}
			project := &model.Project{
				ProjectCode:   projectCode(quotation.ID),
				Name:          quotation.ProjectName,
				Status:        model.ProjectStatusInProgress,
				QuotationID:   quotation.ID,
				ClientID:      quotation.ClientID,
				ContractValue: quotation.TotalValue,
			}
			if err := s.projectRepo.Create(txCtx, project); err != nil {
				return fmt.Errorf("failed to create project: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return QuotationResponse{}, err
	}

	quotation.Status = status
	s.broadcast("quotation_status_changed", map[string]interface{}{
		"quotation_id": quotation.ID.String(),
		"status":       status,
	})
	return s.respond(quotation, sess), nil
}

func (s *quotationService) DeleteQuotation(ctx context.Context, id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return newValidationError("id", "not a valid id")
	}
	quotation, err := s.quotationRepo.FindByID(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return errors.New("quotation not found")
		}
		return fmt.Errorf("database error: %w", err)
	}
	if quotation.Status != model.QuotationStatusDraft {
		return newValidationError("status", "only draft quotations can be deleted")
	}
	if err := s.quotationRepo.Delete(ctx, uid); err != nil {
		return fmt.Errorf("failed to delete quotation: %w", err)
	}
	s.sessions.Drop(uid)
	return nil
}

// --- Helpers ---

func (s *quotationService) acquire(ctx context.Context, id string) (*model.Quotation, *session.Session, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, nil, newValidationError("id", "not a valid id")
	}
	quotation, err := s.quotationRepo.FindByIDWithLines(ctx, uid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, errors.New("quotation not found")
		}
		return nil, nil, fmt.Errorf("database error: %w", err)
	}
	sess, err := s.sessions.Acquire(uid, func() (session.Snapshot, error) {
		return toSnapshot(quotation), nil
	})
	if err != nil {
		return nil, nil, err
	}
	return quotation, sess, nil
}

func (s *quotationService) acquireEditable(ctx context.Context, id string) (*model.Quotation, *session.Session, error) {
	quotation, sess, err := s.acquire(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if quotation.Status != model.QuotationStatusDraft {
		return nil, nil, ErrQuotationNotEditable
	}
	return quotation, sess, nil
}

func (s *quotationService) catalogProduct(ctx context.Context, id string) (session.CatalogProduct, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return session.CatalogProduct{}, newValidationError("product_id", "not a valid id")
	}
	product, err := s.productRepo.FindByID(ctx, pid)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return session.CatalogProduct{}, newValidationError("product_id", "product not found")
		}
		return session.CatalogProduct{}, fmt.Errorf("database error: %w", err)
	}
	if !product.IsActive {
		return session.CatalogProduct{}, newValidationError("product_id", "product is inactive")
	}
	return session.CatalogProduct{
		ID:          product.ID,
		ProductType: product.ProductType,
		SystemType:  product.SystemType,
		GridType:    product.GridType,
		UnitPrice:   product.UnitPrice,
	}, nil
}

func (s *quotationService) broadcast(event string, data map[string]interface{}) {
	if s.hub == nil {
		return
	}
	msg, err := json.Marshal(QuotationEvent{Event: event, Data: data})
	if err != nil {
		return
	}
	s.hub.Broadcast <- msg
}

func (s *quotationService) respond(q *model.Quotation, sess *session.Session) QuotationResponse {
	snap := sess.Working()
	res := QuotationResponse{
		ID:          q.ID,
		ProjectName: snap.ProjectName,
		ClientID:    q.ClientID,
		SystemType:  snap.SystemType,
		GridType:    snap.GridType,
		PowerKWP:    snap.PowerKWP.StringFixed(2),
		PanelCount:  snap.PanelCount,
		Status:      q.Status,
		Dirty:       sess.Dirty(),
		Percentages: PercentagesResponse{
			CommercialManagement: snap.Percentages.CommercialManagement.StringFixed(4),
			Administration:       snap.Percentages.Administration.StringFixed(4),
			Contingency:          snap.Percentages.Contingency.StringFixed(4),
			Profit:               snap.Percentages.Profit.StringFixed(4),
			ProfitIVA:            snap.Percentages.ProfitIVA.StringFixed(4),
			Withholding:          snap.Percentages.Withholding.StringFixed(4),
		},
		Breakdown: BreakdownResponse{
			Subtotal:                   snap.Breakdown.Subtotal.StringFixed(4),
			CommercialManagementAmount: snap.Breakdown.CommercialManagementAmount.StringFixed(4),
			Subtotal2:                  snap.Breakdown.Subtotal2.StringFixed(4),
			AdministrationAmount:       snap.Breakdown.AdministrationAmount.StringFixed(4),
			ContingencyAmount:          snap.Breakdown.ContingencyAmount.StringFixed(4),
			ProfitAmount:               snap.Breakdown.ProfitAmount.StringFixed(4),
			ProfitIVAAmount:            snap.Breakdown.ProfitIVAAmount.StringFixed(4),
			Subtotal3:                  snap.Breakdown.Subtotal3.StringFixed(4),
			WithholdingAmount:          snap.Breakdown.WithholdingAmount.StringFixed(4),
			TotalValue:                 snap.Breakdown.TotalValue.StringFixed(4),
		},
		CreatedAt: q.CreatedAt,
		UpdatedAt: q.UpdatedAt,
	}

	res.ProductLines = make([]ProductLineResponse, 0, len(snap.ProductLines))
	for _, l := range snap.ProductLines {
		res.ProductLines = append(res.ProductLines, ProductLineResponse{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductType:      l.ProductType,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice.StringFixed(4),
			ProfitPercentage: l.ProfitPercentage.StringFixed(4),
			PartialValue:     l.Totals.PartialValue.StringFixed(4),
			Profit:           l.Totals.Profit.StringFixed(4),
			TotalValue:       l.Totals.TotalValue.StringFixed(4),
		})
	}
	res.ItemLines = make([]ItemLineResponse, 0, len(snap.ItemLines))
	for _, l := range snap.ItemLines {
		res.ItemLines = append(res.ItemLines, ItemLineResponse{
			ID:               l.ID,
			Description:      l.Description,
			ItemType:         l.ItemType,
			Quantity:         l.Quantity.StringFixed(4),
			Unit:             l.Unit,
			UnitPrice:        l.UnitPrice.StringFixed(4),
			ProfitPercentage: l.ProfitPercentage.StringFixed(4),
			PartialValue:     l.Totals.PartialValue.StringFixed(4),
			Profit:           l.Totals.Profit.StringFixed(4),
			TotalValue:       l.Totals.TotalValue.StringFixed(4),
		})
	}
	return res
}

func projectCode(quotationID uuid.UUID) string {
	short := strings.ToUpper(strings.ReplaceAll(quotationID.String(), "-", ""))[:8]
	return fmt.Sprintf("PRJ-%d-%s", time.Now().Year(), short)
}

// --- Snapshot mapping ---

func toSnapshot(q *model.Quotation) session.Snapshot {
	snap := session.Snapshot{
		QuotationID: q.ID,
		ProjectName: q.ProjectName,
		SystemType:  q.SystemType,
		GridType:    q.GridType,
		PowerKWP:    q.PowerKWP,
		PanelCount:  q.PanelCount,
		Percentages: pricing.Percentages{
			CommercialManagement: q.CommercialManagementPct,
			Administration:       q.AdministrationPct,
			Contingency:          q.ContingencyPct,
			Profit:               q.ProfitPct,
			ProfitIVA:            q.ProfitIVAPct,
			Withholding:          q.WithholdingPct,
		},
		Breakdown: pricing.Breakdown{
			Subtotal:                   q.Subtotal,
			CommercialManagementAmount: q.CommercialManagementAmount,
			Subtotal2:                  q.Subtotal2,
			AdministrationAmount:       q.AdministrationAmount,
			ContingencyAmount:          q.ContingencyAmount,
			ProfitAmount:               q.ProfitAmount,
			ProfitIVAAmount:            q.ProfitIVAAmount,
			Subtotal3:                  q.Subtotal3,
			WithholdingAmount:          q.WithholdingAmount,
			TotalValue:                 q.TotalValue,
		},
	}
	for _, l := range q.ProductLines {
		snap.ProductLines = append(snap.ProductLines, session.ProductLine{
			ID:               l.ID,
			ProductID:        l.ProductID,
			ProductType:      l.ProductType,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			Totals: pricing.LineTotals{
				PartialValue: l.PartialValue,
				Profit:       l.Profit,
				TotalValue:   l.TotalValue,
			},
		})
	}
	for _, l := range q.ItemLines {
		snap.ItemLines = append(snap.ItemLines, session.ItemLine{
			ID:               l.ID,
			Description:      l.Description,
			ItemType:         l.ItemType,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			Totals: pricing.LineTotals{
				PartialValue: l.PartialValue,
				Profit:       l.Profit,
				TotalValue:   l.TotalValue,
			},
		})
	}
	return snap
}

func applySnapshot(q *model.Quotation, snap session.Snapshot) {
	q.ProjectName = snap.ProjectName
	q.SystemType = snap.SystemType
	q.GridType = snap.GridType
	q.PowerKWP = snap.PowerKWP
	q.PanelCount = snap.PanelCount
	q.CommercialManagementPct = snap.Percentages.CommercialManagement
	q.AdministrationPct = snap.Percentages.Administration
	q.ContingencyPct = snap.Percentages.Contingency
	q.ProfitPct = snap.Percentages.Profit
	q.ProfitIVAPct = snap.Percentages.ProfitIVA
	q.WithholdingPct = snap.Percentages.Withholding
	q.Subtotal = snap.Breakdown.Subtotal
	q.CommercialManagementAmount = snap.Breakdown.CommercialManagementAmount
	q.Subtotal2 = snap.Breakdown.Subtotal2
	q.AdministrationAmount = snap.Breakdown.AdministrationAmount
	q.ContingencyAmount = snap.Breakdown.ContingencyAmount
	q.ProfitAmount = snap.Breakdown.ProfitAmount
	q.ProfitIVAAmount = snap.Breakdown.ProfitIVAAmount
	q.Subtotal3 = snap.Breakdown.Subtotal3
	q.WithholdingAmount = snap.Breakdown.WithholdingAmount
	q.TotalValue = snap.Breakdown.TotalValue
}

func toProductLineModels(quotationID uuid.UUID, lines []session.ProductLine) []model.QuotationProductLine {
	out := make([]model.QuotationProductLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.QuotationProductLine{
			ID:               l.ID,
			QuotationID:      quotationID,
			ProductID:        l.ProductID,
			ProductType:      l.ProductType,
			Quantity:         l.Quantity,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			PartialValue:     l.Totals.PartialValue,
			Profit:           l.Totals.Profit,
			TotalValue:       l.Totals.TotalValue,
		})
	}
	return out
}

func toItemLineModels(quotationID uuid.UUID, lines []session.ItemLine) []model.QuotationItemLine {
	out := make([]model.QuotationItemLine, 0, len(lines))
	for _, l := range lines {
		out = append(out, model.QuotationItemLine{
			ID:               l.ID,
			QuotationID:      quotationID,
			Description:      l.Description,
			ItemType:         l.ItemType,
			Quantity:         l.Quantity,
			Unit:             l.Unit,
			UnitPrice:        l.UnitPrice,
			ProfitPercentage: l.ProfitPercentage,
			PartialValue:     l.Totals.PartialValue,
			Profit:           l.Totals.Profit,
			TotalValue:       l.Totals.TotalValue,
		})
	}
	return out
}
