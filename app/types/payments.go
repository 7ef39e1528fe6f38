package types

import (
	"errors"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
	"github.com/vibast-solutions/ms-go-payment-links/app/entity"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

var minAmount = decimal.RequireFromString("0.50")

// CreatePaymentLinkRequest carries the payment amount in major
// currency units; GetAmountCents converts it for the service layer.
type CreatePaymentLinkRequest struct {
	Email  string          `json:"email"`
	Amount decimal.Decimal `json:"amount"`
}

func NewCreatePaymentLinkRequestFromContext(ctx echo.Context) (*CreatePaymentLinkRequest, error) {
	var body CreatePaymentLinkRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}

	body.Email = strings.ToLower(strings.TrimSpace(body.Email))

	return &body, nil
}

func (r *CreatePaymentLinkRequest) Validate() error {
	if strings.TrimSpace(r.Email) == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("email is invalid")
	}
	if r.Amount.LessThan(minAmount) {
		return errors.New("amount must be at least 0.50")
	}
	if !r.Amount.Equal(r.Amount.Round(2)) {
		return errors.New("amount must have at most two decimal places")
	}
	return nil
}

func (r *CreatePaymentLinkRequest) GetEmail() string {
	return r.Email
}

func (r *CreatePaymentLinkRequest) GetAmountCents() int64 {
	return r.Amount.Mul(decimal.NewFromInt(100)).IntPart()
}

type GetPaymentRequest struct {
	ID string
}

func NewGetPaymentRequestFromContext(ctx echo.Context) (*GetPaymentRequest, error) {
	return &GetPaymentRequest{ID: strings.TrimSpace(ctx.Param("id"))}, nil
}

func (r *GetPaymentRequest) Validate() error {
	if r.ID == "" {
		return errors.New("invalid payment id")
	}
	return nil
}

func (r *GetPaymentRequest) GetID() string { return r.ID }

type HistoryRequest struct {
	Email     string
	Status    string
	StartDate *time.Time
	EndDate   *time.Time
	Limit     int32
}

func NewHistoryRequestFromContext(ctx echo.Context) (*HistoryRequest, error) {
	req := &HistoryRequest{
		Email:  strings.ToLower(strings.TrimSpace(ctx.Param("email"))),
		Status: strings.TrimSpace(ctx.QueryParam("status")),
	}

	if raw := strings.TrimSpace(ctx.QueryParam("start_date")); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		req.StartDate = &parsed
	}
	if raw := strings.TrimSpace(ctx.QueryParam("end_date")); raw != "" {
		parsed, err := parseDate(raw)
		if err != nil {
			return nil, err
		}
		req.EndDate = &parsed
	}
	if raw := strings.TrimSpace(ctx.QueryParam("limit")); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 32)
		if err != nil {
			return nil, err
		}
		req.Limit = int32(limit)
	}

	return req, nil
}

func (r *HistoryRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	switch r.Status {
	case "", entity.StatusPending, entity.StatusPaid, entity.StatusExpired:
	default:
		return errors.New("invalid status filter")
	}
	if r.Limit < 0 || r.Limit > 500 {
		return errors.New("limit must be between 0 and 500")
	}
	return nil
}

func (r *HistoryRequest) GetEmail() string { return r.Email }

func (r *HistoryRequest) GetStatus() string { return r.Status }

func (r *HistoryRequest) GetStartDate() *time.Time { return r.StartDate }

func (r *HistoryRequest) GetEndDate() *time.Time { return r.EndDate }

func (r *HistoryRequest) GetLimit() int32 { return r.Limit }

type ProviderEventRequest struct {
	Provider  string
	Signature string
	Payload   []byte
}

func NewProviderEventRequestFromContext(ctx echo.Context) (*ProviderEventRequest, error) {
	signature := strings.TrimSpace(ctx.Request().Header.Get("Stripe-Signature"))
	if signature == "" {
		signature = strings.TrimSpace(ctx.Request().Header.Get("X-Provider-Signature"))
	}

	payload, err := io.ReadAll(ctx.Request().Body)
	if err != nil {
		return nil, err
	}

	return &ProviderEventRequest{
		Provider:  strings.ToLower(strings.TrimSpace(ctx.Param("provider"))),
		Signature: signature,
		Payload:   payload,
	}, nil
}

func (r *ProviderEventRequest) Validate() error {
	if r.Provider == "" {
		return errors.New("provider is required")
	}
	if len(r.Payload) == 0 {
		return errors.New("event payload is empty")
	}
	return nil
}

func (r *ProviderEventRequest) GetProvider() string { return r.Provider }

func (r *ProviderEventRequest) GetSignature() string { return r.Signature }

func (r *ProviderEventRequest) GetPayload() []byte { return r.Payload }

type GetOrCreatePayerRequest struct {
	Email string `json:"email"`
}

func NewGetOrCreatePayerRequestFromContext(ctx echo.Context) (*GetOrCreatePayerRequest, error) {
	var body GetOrCreatePayerRequest
	if err := ctx.Bind(&body); err != nil {
		return nil, err
	}
	body.Email = strings.ToLower(strings.TrimSpace(body.Email))
	return &body, nil
}

func (r *GetOrCreatePayerRequest) Validate() error {
	if r.Email == "" {
		return errors.New("email is required")
	}
	if !strings.Contains(r.Email, "@") {
		return errors.New("email is invalid")
	}
	return nil
}

func (r *GetOrCreatePayerRequest) GetEmail() string { return r.Email }

type PaymentCreatedResponse struct {
	ID          string `json:"id"`
	PaymentLink string `json:"payment_link"`
	Amount      string `json:"amount"`
	ExpiresAt   string `json:"expires_at"`
}

type PaymentResponse struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Amount    string  `json:"amount"`
	Status    string  `json:"status"`
	CreatedAt string  `json:"created_at"`
	ExpiresAt string  `json:"expires_at"`
	PaidAt    *string `json:"paid_at"`
}

type PaymentHistoryResponse struct {
	Payments []*PaymentResponse `json:"payments"`
}

type PayerResponse struct {
	ID        uint64 `json:"id"`
	Email     string `json:"email"`
	CreatedAt string `json:"created_at"`
}

func parseDate(raw string) (time.Time, error) {
	if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
		return parsed, nil
	}
	return time.Parse("2006-01-02", raw)
}
