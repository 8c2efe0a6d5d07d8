package invoicing

import (
	"time"

	"github.com/google/uuid"
	"github.com/invoicely/backend/internal/domain/invoicing"
	"github.com/shopspring/decimal"
)

// =============================================================================
// Invoice DTOs
// =============================================================================

// ListInvoicesRequest pages through a user's invoices
type ListInvoicesRequest struct {
	Limit  int `form:"limit" binding:"omitempty,min=0"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// InvoiceItemRequest is one line of a new invoice
type InvoiceItemRequest struct {
	Description string          `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	Rate        decimal.Decimal `json:"rate"`
	Amount      decimal.Decimal `json:"amount"`
}

// CreateInvoiceRequest represents a request to create an invoice.
// The customer is resolved from CustomerID, or from CustomerName/CustomerEmail.
type CreateInvoiceRequest struct {
	CustomerID          string               `json:"customerId"`
	CustomerName        string               `json:"customerName" binding:"max=200"`
	CustomerEmail       string               `json:"customerEmail" binding:"omitempty,email,max=200"`
	InvoiceNumber       string               `json:"invoiceNumber" binding:"max=50"`
	InvoiceDate         string               `json:"invoiceDate"`
	DueDate             string               `json:"dueDate"`
	Currency            string               `json:"currency" binding:"omitempty,len=3"`
	Status              string               `json:"status"`
	TaxAmount           decimal.Decimal      `json:"taxAmount"`
	TaxInclusive        bool                 `json:"taxInclusive"`
	PONumber            string               `json:"poNumber" binding:"max=100"`
	Notes               string               `json:"notes"`
	Terms               string               `json:"terms"`
	PaymentInstructions string               `json:"paymentInstructions"`
	Items               []InvoiceItemRequest `json:"items" binding:"dive"`
}

// UpdateInvoiceRequest represents a partial update of an invoice header.
// Nil fields are left unchanged.
type UpdateInvoiceRequest struct {
	Status              *string `json:"status"`
	InvoiceDate         *string `json:"invoiceDate"`
	DueDate             *string `json:"dueDate"`
	Currency            *string `json:"currency" binding:"omitempty,len=3"`
	PONumber            *string `json:"poNumber" binding:"omitempty,max=100"`
	Notes               *string `json:"notes"`
	Terms               *string `json:"terms"`
	PaymentInstructions *string `json:"paymentInstructions"`
}

// RecordPaymentRequest represents a payment received against an invoice
type RecordPaymentRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate string          `json:"paymentDate"`
	Method      string          `json:"method"`
}

// InvoiceItemResponse represents an invoice line in API responses
type InvoiceItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// PaymentResponse represents a recorded payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID       `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	PaymentDate time.Time       `json:"paymentDate"`
	Method      string          `json:"method"`
}

// InvoiceResponse represents an invoice in API responses
type InvoiceResponse struct {
	ID                  uuid.UUID             `json:"id"`
	Number              string                `json:"number"`
	Status              string                `json:"status"`
	IssueDate           time.Time             `json:"issueDate"`
	DueDate             time.Time             `json:"dueDate"`
	Currency            string                `json:"currency"`
	Subtotal            decimal.Decimal       `json:"subtotal"`
	TaxAmount           decimal.Decimal       `json:"taxAmount"`
	TaxInclusive        bool                  `json:"taxInclusive"`
	Total               decimal.Decimal       `json:"total"`
	AmountPaid          decimal.Decimal       `json:"amountPaid"`
	BalanceDue          decimal.Decimal       `json:"balanceDue"`
	PONumber            string                `json:"poNumber,omitempty"`
	Notes               string                `json:"notes,omitempty"`
	Terms               string                `json:"terms,omitempty"`
	PaymentInstructions string                `json:"paymentInstructions,omitempty"`
	PDFURL              string                `json:"pdfUrl,omitempty"`
	SentTo              string                `json:"sentTo,omitempty"`
	CCEmails            []string              `json:"ccEmails,omitempty"`
	SentAt              *time.Time            `json:"sentAt,omitempty"`
	LastEmailSentAt     *time.Time            `json:"lastEmailSentAt,omitempty"`
	EmailCount          int                   `json:"emailCount"`
	CustomerID          uuid.UUID             `json:"customerId"`
	Customer            *CustomerResponse     `json:"customer,omitempty"`
	Items               []InvoiceItemResponse `json:"items"`
	Payments            []PaymentResponse     `json:"payments"`
	CreatedAt           time.Time             `json:"createdAt"`
	UpdatedAt           time.Time             `json:"updatedAt"`
}

// SendInvoiceRequest emails an invoice PDF. CCEmails is a comma separated list.
type SendInvoiceRequest struct {
	RecipientEmail string `json:"recipientEmail" binding:"required,email,max=255"`
	CCEmails       string `json:"ccEmails" binding:"max=1000"`
	Message        string `json:"message" binding:"max=5000"`
}

// SendInvoiceResponse reports a completed delivery
type SendInvoiceResponse struct {
	Message       string   `json:"message"`
	SentTo        string   `json:"sentTo"`
	CCEmails      []string `json:"ccEmails,omitempty"`
	StatusUpdated bool     `json:"statusUpdated"`
	EmailCount    int      `json:"emailCount"`
	// PDFCached is false when the attachment was rendered for this email
	PDFCached bool `json:"pdfCached"`
}

// PDFFile is a stored invoice PDF ready to be served
type PDFFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ToInvoiceResponse converts a domain invoice to a response DTO
func ToInvoiceResponse(inv *invoicing.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		ID:                  inv.ID,
		Number:              inv.Number,
		Status:              string(inv.Status),
		IssueDate:           inv.IssueDate,
		DueDate:             inv.DueDate,
		Currency:            inv.Currency,
		Subtotal:            inv.Subtotal,
		TaxAmount:           inv.TaxAmount,
		TaxInclusive:        inv.TaxInclusive,
		Total:               inv.Total,
		AmountPaid:          inv.AmountPaid(),
		BalanceDue:          inv.BalanceDue(),
		PONumber:            inv.PONumber,
		Notes:               inv.Notes,
		Terms:               inv.Terms,
		PaymentInstructions: inv.PaymentInstructions,
		PDFURL:              inv.PDFURL,
		SentTo:              inv.SentTo,
		CCEmails:            inv.CCEmails,
		SentAt:              inv.SentAt,
		LastEmailSentAt:     inv.LastEmailSentAt,
		EmailCount:          inv.EmailCount,
		CustomerID:          inv.CustomerID,
		Items:               make([]InvoiceItemResponse, 0, len(inv.Items)),
		Payments:            make([]PaymentResponse, 0, len(inv.Payments)),
		CreatedAt:           inv.CreatedAt,
		UpdatedAt:           inv.UpdatedAt,
	}
	if inv.Customer != nil {
		customer := ToCustomerResponse(inv.Customer)
		resp.Customer = &customer
	}
	for _, item := range inv.Items {
		resp.Items = append(resp.Items, InvoiceItemResponse{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	for _, p := range inv.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:          p.ID,
			Amount:      p.Amount,
			PaymentDate: p.PaymentDate,
			Method:      string(p.Method),
		})
	}
	return resp
}

// ToInvoiceResponses converts a slice of domain invoices
func ToInvoiceResponses(invoices []invoicing.Invoice) []InvoiceResponse {
	responses := make([]InvoiceResponse, len(invoices))
	for i := range invoices {
		responses[i] = ToInvoiceResponse(&invoices[i])
	}
	return responses
}

// =============================================================================
// Customer DTOs
// =============================================================================

// CustomerRequest represents a request to create or replace a customer
type CustomerRequest struct {
	DisplayName       string `json:"displayName" binding:"required,min=1,max=200"`
	FirstName         string `json:"firstName" binding:"max=100"`
	LastName          string `json:"lastName" binding:"max=100"`
	BusinessName      string `json:"businessName" binding:"max=200"`
	Email             string `json:"email" binding:"omitempty,email,max=200"`
	Phone             string `json:"phone" binding:"max=50"`
	Address           string `json:"address" binding:"max=500"`
	City              string `json:"city" binding:"max=100"`
	State             string `json:"state" binding:"max=100"`
	ZipCode           string `json:"zipCode" binding:"max=20"`
	Country           string `json:"country" binding:"max=100"`
	BusinessRegNumber string `json:"businessRegNumber" binding:"max=50"`
}

func (r CustomerRequest) profile() invoicing.CustomerProfile {
	return invoicing.CustomerProfile{
		DisplayName:       r.DisplayName,
		FirstName:         r.FirstName,
		LastName:          r.LastName,
		BusinessName:      r.BusinessName,
		Email:             r.Email,
		Phone:             r.Phone,
		Address:           r.Address,
		City:              r.City,
		State:             r.State,
		ZipCode:           r.ZipCode,
		Country:           r.Country,
		BusinessRegNumber: r.BusinessRegNumber,
	}
}

// CustomerResponse represents a customer in API responses
type CustomerResponse struct {
	ID                uuid.UUID `json:"id"`
	DisplayName       string    `json:"displayName"`
	FirstName         string    `json:"firstName,omitempty"`
	LastName          string    `json:"lastName,omitempty"`
	BusinessName      string    `json:"businessName,omitempty"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone,omitempty"`
	Address           string    `json:"address,omitempty"`
	City              string    `json:"city,omitempty"`
	State             string    `json:"state,omitempty"`
	ZipCode           string    `json:"zipCode,omitempty"`
	Country           string    `json:"country,omitempty"`
	BusinessRegNumber string    `json:"businessRegNumber,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
	UpdatedAt         time.Time `json:"updatedAt"`
}

// ToCustomerResponse converts a domain customer to a response DTO
func ToCustomerResponse(c *invoicing.Customer) CustomerResponse {
	return CustomerResponse{
		ID:                c.ID,
		DisplayName:       c.DisplayName,
		FirstName:         c.FirstName,
		LastName:          c.LastName,
		BusinessName:      c.BusinessName,
		Email:             c.Email,
		Phone:             c.Phone,
		Address:           c.Address,
		City:              c.City,
		State:             c.State,
		ZipCode:           c.ZipCode,
		Country:           c.Country,
		BusinessRegNumber: c.BusinessRegNumber,
		CreatedAt:         c.CreatedAt,
		UpdatedAt:         c.UpdatedAt,
	}
}

// =============================================================================
// Estimate DTOs
// =============================================================================

// EstimateItemRequest is one quoted line
type EstimateItemRequest struct {
	ItemName    string          `json:"itemName" binding:"max=200"`
	Description string          `json:"description" binding:"max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
}

// CreateEstimateRequest represents a request to create an estimate. An empty
// Number is assigned the next EST-NNNN number.
type CreateEstimateRequest struct {
	CustomerID string                `json:"customerId" binding:"required"`
	Number     string                `json:"estimateNumber" binding:"max=50"`
	IssueDate  string                `json:"issueDate"`
	ValidUntil string                `json:"validUntil"`
	Currency   string                `json:"currency" binding:"omitempty,len=3"`
	Notes      string                `json:"notes" binding:"max=5000"`
	Terms      string                `json:"terms" binding:"max=5000"`
	Items      []EstimateItemRequest `json:"items" binding:"required,min=1,dive"`
}

// EstimateItemResponse represents an estimate line in API responses
type EstimateItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	ItemName    string          `json:"itemName,omitempty"`
	Description string          `json:"description"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	Total       decimal.Decimal `json:"total"`
}

// EstimateResponse represents an estimate in API responses
type EstimateResponse struct {
	ID         uuid.UUID              `json:"id"`
	Number     string                 `json:"estimateNumber"`
	Status     string                 `json:"status"`
	IssueDate  time.Time              `json:"issueDate"`
	ValidUntil time.Time              `json:"validUntil"`
	Expired    bool                   `json:"expired"`
	Currency   string                 `json:"currency"`
	Total      decimal.Decimal        `json:"total"`
	Notes      string                 `json:"notes,omitempty"`
	Terms      string                 `json:"terms"`
	CustomerID uuid.UUID              `json:"customerId"`
	Customer   *CustomerResponse      `json:"customer,omitempty"`
	Items      []EstimateItemResponse `json:"items"`
	CreatedAt  time.Time              `json:"createdAt"`
	UpdatedAt  time.Time              `json:"updatedAt"`
}

// NextEstimateNumberResponse carries the number a new estimate would get
type NextEstimateNumberResponse struct {
	Number string `json:"estimateNumber"`
}

// ToEstimateResponse converts a domain estimate to a response DTO
func ToEstimateResponse(est *invoicing.Estimate, now time.Time) EstimateResponse {
	resp := EstimateResponse{
		ID:         est.ID,
		Number:     est.Number,
		Status:     string(est.Status),
		IssueDate:  est.IssueDate,
		ValidUntil: est.ValidUntil,
		Expired:    est.IsExpired(now),
		Currency:   est.Currency,
		Total:      est.Total,
		Notes:      est.Notes,
		Terms:      est.Terms,
		CustomerID: est.CustomerID,
		Items:      make([]EstimateItemResponse, 0, len(est.Items)),
		CreatedAt:  est.CreatedAt,
		UpdatedAt:  est.UpdatedAt,
	}
	if est.Customer != nil {
		customer := ToCustomerResponse(est.Customer)
		resp.Customer = &customer
	}
	for _, item := range est.Items {
		resp.Items = append(resp.Items, EstimateItemResponse{
			ID:          item.ID,
			ItemName:    item.ItemName,
			Description: item.Description,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Total:       item.Total,
		})
	}
	return resp
}

// =============================================================================
// User DTOs
// =============================================================================

// Identity is the authenticated principal taken from the bearer token
type Identity struct {
	ID    string
	Email string
	Name  string
}

// LogoUpload is an image file posted by the user
type LogoUpload struct {
	Data        []byte
	ContentType string
	FileName    string
}

// SetLogoRequest points the user's logo at an existing URL
type SetLogoRequest struct {
	LogoURL string `json:"logoUrl" binding:"required,url"`
}

// UserResponse represents the signed-in user's profile
type UserResponse struct {
	ID                 string    `json:"id"`
	Email              string    `json:"email"`
	Username           string    `json:"username"`
	DisplayName        string    `json:"displayName"`
	BusinessName       string    `json:"businessName,omitempty"`
	Country            string    `json:"country"`
	Currency           string    `json:"currency"`
	LogoURL            string    `json:"logoUrl,omitempty"`
	InvoiceColorScheme string    `json:"invoiceColorScheme"`
	CreatedAt          time.Time `json:"createdAt"`
}

// LogoResponse describes the user's current logos
type LogoResponse struct {
	LogoURL   string `json:"logoUrl"`
	AILogoURL string `json:"aiLogoUrl,omitempty"`
}

// ToUserResponse converts a domain user to a response DTO
func ToUserResponse(u *invoicing.User) UserResponse {
	return UserResponse{
		ID:                 u.ID,
		Email:              u.Email,
		Username:           u.Username,
		DisplayName:        u.DisplayName,
		BusinessName:       u.BusinessName,
		Country:            u.Country,
		Currency:           u.Currency,
		LogoURL:            u.LogoURL,
		InvoiceColorScheme: u.InvoiceColorScheme,
		CreatedAt:          u.CreatedAt,
	}
}

func toLogoResponse(u *invoicing.User) LogoResponse {
	return LogoResponse{LogoURL: u.LogoURL, AILogoURL: u.AILogoURL}
}
