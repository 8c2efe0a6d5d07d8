package invoicing

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EstimateStatus represents the lifecycle state of an estimate
type EstimateStatus string

const (
	EstimateStatusDraft    EstimateStatus = "DRAFT"
	EstimateStatusSent     EstimateStatus = "SENT"
	EstimateStatusAccepted EstimateStatus = "ACCEPTED"
	EstimateStatusDeclined EstimateStatus = "DECLINED"
	EstimateStatusExpired  EstimateStatus = "EXPIRED"
)

const (
	// EstimateNumberPrefix starts every generated estimate number
	EstimateNumberPrefix = "EST-"
	// DefaultEstimateValidity applies when an estimate has no valid-until date
	DefaultEstimateValidity = 30 * 24 * time.Hour
	// DefaultEstimateTerms are printed when an estimate carries no terms
	DefaultEstimateTerms = "This estimate is valid for 30 days from the issue date. Prices are subject to change after expiration."
)

// EstimateItem is a single quoted line
type EstimateItem struct {
	ID          uuid.UUID
	EstimateID  uuid.UUID
	ItemName    string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
	Total       decimal.Decimal
	Position    int
}

// EstimateLine describes a line when creating an estimate
type EstimateLine struct {
	ItemName    string
	Description string
	Quantity    decimal.Decimal
	UnitPrice   decimal.Decimal
}

// Estimate is a priced quote sent to a customer before invoicing
type Estimate struct {
	shared.BaseEntity
	UserID     string
	CustomerID uuid.UUID
	Number     string
	Status     EstimateStatus
	IssueDate  time.Time
	ValidUntil time.Time
	Currency   string
	Total      decimal.Decimal
	Notes      string
	Terms      string

	Items    []EstimateItem
	Customer *Customer
}

// NewEstimate builds a draft estimate. A zero validUntil defaults to 30 days
// after the issue date and empty terms default to DefaultEstimateTerms.
func NewEstimate(userID string, customerID uuid.UUID, number string, issueDate, validUntil time.Time, lines []EstimateLine) (*Estimate, error) {
	if userID == "" {
		return nil, shared.NewDomainError("INVALID_USER", "User is required")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer is required")
	}
	number = strings.TrimSpace(number)
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Estimate number is required")
	}
	if len(lines) == 0 {
		return nil, shared.NewDomainError("INVALID_ITEMS", "Estimate must have at least one item")
	}
	if issueDate.IsZero() {
		issueDate = time.Now()
	}
	if validUntil.IsZero() {
		validUntil = issueDate.Add(DefaultEstimateValidity)
	}
	if validUntil.Before(issueDate) {
		return nil, shared.NewDomainError("INVALID_VALID_UNTIL", "Valid until date cannot be before issue date")
	}

	est := &Estimate{
		BaseEntity: shared.NewBaseEntity(),
		UserID:     userID,
		CustomerID: customerID,
		Number:     number,
		Status:     EstimateStatusDraft,
		IssueDate:  issueDate,
		ValidUntil: validUntil,
		Currency:   DefaultCurrency,
		Terms:      DefaultEstimateTerms,
	}

	total := decimal.Zero
	for i, line := range lines {
		item, err := newEstimateItem(est.ID, i, line)
		if err != nil {
			return nil, err
		}
		total = total.Add(item.Total)
		est.Items = append(est.Items, item)
	}
	est.Total = total
	return est, nil
}

func newEstimateItem(estimateID uuid.UUID, position int, line EstimateLine) (EstimateItem, error) {
	description := strings.TrimSpace(line.Description)
	if description == "" {
		return EstimateItem{}, shared.NewDomainError("INVALID_ITEMS",
			fmt.Sprintf("Item %d: description is required", position+1))
	}
	if !line.Quantity.IsPositive() {
		return EstimateItem{}, shared.NewDomainError("INVALID_ITEMS",
			fmt.Sprintf("Item %d: quantity must be positive", position+1))
	}
	if line.UnitPrice.IsNegative() {
		return EstimateItem{}, shared.NewDomainError("INVALID_RATE",
			fmt.Sprintf("Item %d: unit price cannot be negative", position+1))
	}
	return EstimateItem{
		ID:          uuid.New(),
		EstimateID:  estimateID,
		ItemName:    strings.TrimSpace(line.ItemName),
		Description: description,
		Quantity:    line.Quantity,
		UnitPrice:   line.UnitPrice,
		Total:       line.Quantity.Mul(line.UnitPrice),
		Position:    position,
	}, nil
}

// SetCurrency sets an ISO currency code, falling back to USD
func (e *Estimate) SetCurrency(code string) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		code = DefaultCurrency
	}
	e.Currency = code
	e.Touch()
}

// SetText sets notes and terms. Blank terms keep the default wording.
func (e *Estimate) SetText(notes, terms string) {
	e.Notes = strings.TrimSpace(notes)
	if terms = strings.TrimSpace(terms); terms != "" {
		e.Terms = terms
	}
	e.Touch()
}

// IsExpired reports whether the estimate is past its valid-until date at now
func (e *Estimate) IsExpired(now time.Time) bool {
	return now.After(e.ValidUntil)
}

// NextEstimateNumber returns the number following the highest EST-NNNN in
// numbers. Numbers in other formats are ignored.
func NextEstimateNumber(numbers []string) string {
	highest := 0
	for _, n := range numbers {
		digits, ok := strings.CutPrefix(strings.TrimSpace(n), EstimateNumberPrefix)
		if !ok {
			continue
		}
		if v, err := strconv.Atoi(digits); err == nil && v > highest {
			highest = v
		}
	}
	return fmt.Sprintf("%s%04d", EstimateNumberPrefix, highest+1)
}
