package invoicing

import (
	"context"
	"errors"
	"time"

	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/invoicely/backend/internal/infrastructure/telemetry"
)

// EstimateService handles estimate (quote) operations
type EstimateService struct {
	estimateRepo invoicing.EstimateRepository
	customerRepo invoicing.CustomerRepository
	now          func() time.Time
}

// NewEstimateService creates a new EstimateService
func NewEstimateService(estimateRepo invoicing.EstimateRepository, customerRepo invoicing.CustomerRepository) *EstimateService {
	return &EstimateService{
		estimateRepo: estimateRepo,
		customerRepo: customerRepo,
		now:          time.Now,
	}
}

// List returns the user's estimates newest first
func (s *EstimateService) List(ctx context.Context, userID string, req ListInvoicesRequest) ([]EstimateResponse, error) {
	estimates, err := s.estimateRepo.ListForUser(ctx, userID, shared.NewPage(req.Limit, req.Offset))
	if err != nil {
		return nil, err
	}
	now := s.now()
	responses := make([]EstimateResponse, len(estimates))
	for i := range estimates {
		responses[i] = ToEstimateResponse(&estimates[i], now)
	}
	return responses, nil
}

// Get retrieves one estimate with its items and customer
func (s *EstimateService) Get(ctx context.Context, userID, estimateID string) (*EstimateResponse, error) {
	id, err := invoicing.ParseID(estimateID)
	if err != nil {
		return nil, err
	}
	est, err := s.estimateRepo.FindByIDForUser(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	response := ToEstimateResponse(est, s.now())
	return &response, nil
}

// NextNumber returns the number the user's next estimate would be given
func (s *EstimateService) NextNumber(ctx context.Context, userID string) (*NextEstimateNumberResponse, error) {
	numbers, err := s.estimateRepo.NumbersForUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &NextEstimateNumberResponse{Number: invoicing.NextEstimateNumber(numbers)}, nil
}

// Create stores a draft estimate for one of the user's customers
func (s *EstimateService) Create(ctx context.Context, userID string, req CreateEstimateRequest) (_ *EstimateResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "estimate", "create", telemetry.SpanAttrUserID, userID)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	customerID, err := invoicing.ParseID(req.CustomerID)
	if err != nil {
		return nil, err
	}
	customer, err := s.customerRepo.FindByIDForUser(ctx, userID, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, shared.NewValidationError("Invalid customer ID or customer does not belong to user")
	}
	if err != nil {
		return nil, err
	}

	issueDate, err := parseDate("issue date", req.IssueDate)
	if err != nil {
		return nil, err
	}
	validUntil, err := parseDate("valid until date", req.ValidUntil)
	if err != nil {
		return nil, err
	}

	number := req.Number
	if number == "" {
		next, err := s.NextNumber(ctx, userID)
		if err != nil {
			return nil, err
		}
		number = next.Number
	}

	lines := make([]invoicing.EstimateLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = invoicing.EstimateLine{
			ItemName:    item.ItemName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
		}
	}
	est, err := invoicing.NewEstimate(userID, customer.ID, number, issueDate, validUntil, lines)
	if err != nil {
		return nil, err
	}
	est.SetCurrency(req.Currency)
	est.SetText(req.Notes, req.Terms)

	if err := s.estimateRepo.Create(ctx, est); err != nil {
		return nil, err
	}
	est.Customer = customer
	telemetry.SetAttributes(span, "estimate.id", est.ID.String())

	response := ToEstimateResponse(est, s.now())
	return &response, nil
}

// Delete removes an estimate
func (s *EstimateService) Delete(ctx context.Context, userID, estimateID string) error {
	id, err := invoicing.ParseID(estimateID)
	if err != nil {
		return err
	}
	return s.estimateRepo.Delete(ctx, userID, id)
}
