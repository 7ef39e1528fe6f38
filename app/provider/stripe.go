package provider

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const stripeCurrency = "usd"

type StripeConfig struct {
	SecretKey                 string
	WebhookSecret             string
	APIBaseURL                string
	ProductID                 string
	PaymentRedirectURL        string
	SignatureToleranceSeconds int64
	HTTPTimeout               time.Duration
}

type StripeProvider struct {
	cfg    StripeConfig
	client *http.Client
}

func NewStripeProvider(cfg StripeConfig) *StripeProvider {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	tolerance := cfg.SignatureToleranceSeconds
	if tolerance <= 0 {
		tolerance = 300
	}
	cfg.SignatureToleranceSeconds = tolerance
	if strings.TrimSpace(cfg.APIBaseURL) == "" {
		cfg.APIBaseURL = "https://api.stripe.com"
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")

	return &StripeProvider{
		cfg:    cfg,
		client: &http.Client{Timeout: timeout},
	}
}

func (p *StripeProvider) Name() string {
	return "stripe"
}

func (p *StripeProvider) EnsureCustomer(ctx context.Context, email string) (string, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return "", errors.New("stripe secret key is not configured")
	}

	values := url.Values{}
	values.Set("email", email)

	body, err := p.postForm(ctx, "/v1/customers", values)
	if err != nil {
		return "", err
	}

	var payload struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", err
	}
	customerID := strings.TrimSpace(payload.ID)
	if customerID == "" {
		return "", errors.New("stripe customer id missing")
	}

	return customerID, nil
}

func (p *StripeProvider) CreatePaymentLink(ctx context.Context, input *LinkInput) (*LinkOutput, error) {
	if strings.TrimSpace(p.cfg.SecretKey) == "" {
		return nil, errors.New("stripe secret key is not configured")
	}

	productID := strings.TrimSpace(p.cfg.ProductID)
	if productID == "" {
		created, err := p.createProduct(ctx)
		if err != nil {
			return nil, err
		}
		productID = created
	}

	priceID, err := p.createPrice(ctx, productID, input.AmountCents)
	if err != nil {
		return nil, err
	}

	invoiceID, err := p.createFinalizedInvoice(ctx, input)
	if err != nil {
		return nil, err
	}

	linkValues := url.Values{}
	linkValues.Set("line_items[0][price]", priceID)
	linkValues.Set("line_items[0][quantity]", "1")
	linkValues.Set("metadata[payment_id]", input.PaymentID)
	linkValues.Set("metadata[payer_email]", input.PayerEmail)
	linkValues.Set("metadata[invoice_id]", invoiceID)
	if redirect := strings.TrimSpace(p.cfg.PaymentRedirectURL); redirect != "" {
		linkValues.Set("after_completion[type]", "redirect")
		linkValues.Set("after_completion[redirect][url]", redirect+"?id="+url.QueryEscape(input.PaymentID))
	}

	linkResp, err := p.postForm(ctx, "/v1/payment_links", linkValues)
	if err != nil {
		return nil, err
	}

	var link struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := json.Unmarshal(linkResp, &link); err != nil {
		return nil, err
	}
	if strings.TrimSpace(link.ID) == "" || strings.TrimSpace(link.URL) == "" {
		return nil, errors.New("stripe payment link incomplete")
	}

	return &LinkOutput{
		LinkID:    strings.TrimSpace(link.ID),
		LinkURL:   strings.TrimSpace(link.URL),
		InvoiceID: invoiceID,
	}, nil
}

// FetchInvoiceDocument polls the invoice until its rendered PDF is
// available, then downloads it. Exhausting the attempts returns
// ErrDocumentTimeout.
func (p *StripeProvider) FetchInvoiceDocument(ctx context.Context, invoiceID string, maxAttempts int, delay time.Duration) (*InvoiceDocument, error) {
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		invoice, err := p.retrieveInvoice(ctx, invoiceID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(invoice.InvoicePDF) == "" {
			continue
		}

		pdf, err := p.download(ctx, invoice.InvoicePDF)
		if err != nil {
			return nil, err
		}

		return &InvoiceDocument{
			InvoiceID: invoiceID,
			Number:    strings.TrimSpace(invoice.Number),
			PDFURL:    strings.TrimSpace(invoice.InvoicePDF),
			HostedURL: strings.TrimSpace(invoice.HostedInvoiceURL),
			PDF:       pdf,
		}, nil
	}

	return nil, ErrDocumentTimeout
}

func (p *StripeProvider) MarkInvoicePaidOutOfBand(ctx context.Context, invoiceID string) error {
	values := url.Values{}
	values.Set("paid_out_of_band", "true")

	_, err := p.postForm(ctx, "/v1/invoices/"+url.PathEscape(invoiceID)+"/pay", values)
	return err
}

func (p *StripeProvider) DeactivateLink(ctx context.Context, linkID string) error {
	values := url.Values{}
	values.Set("active", "false")

	_, err := p.postForm(ctx, "/v1/payment_links/"+url.PathEscape(linkID), values)
	return err
}

func (p *StripeProvider) VerifyAndParseEvent(_ context.Context, payload []byte, signature string) (*Event, error) {
	if strings.TrimSpace(p.cfg.WebhookSecret) == "" {
		return nil, errors.New("stripe webhook secret is not configured")
	}
	if !verifyStripeSignature(payload, signature, p.cfg.WebhookSecret, p.cfg.SignatureToleranceSeconds) {
		return nil, ErrSignatureInvalid
	}

	var event struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object struct {
				Metadata map[string]string `json:"metadata"`
			} `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, err
	}

	result := &Event{
		ProviderEventID: strings.TrimSpace(event.ID),
		EventType:       strings.TrimSpace(event.Type),
		PaymentID:       strings.TrimSpace(event.Data.Object.Metadata["payment_id"]),
	}

	switch event.Type {
	case "checkout.session.completed", "payment_link.completed":
		result.Kind = EventKindLinkCompleted
	case "invoice.paid":
		result.Kind = EventKindInvoicePaid
	default:
		result.Kind = EventKindNone
	}

	return result, nil
}

func (p *StripeProvider) createProduct(ctx context.Context) (string, error) {
	values := url.Values{}
	values.Set("name", "Payment Request")

	body, err := p.postForm(ctx, "/v1/products", values)
	if err != nil {
		return "", err
	}

	var product struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &product); err != nil {
		return "", err
	}
	productID := strings.TrimSpace(product.ID)
	if productID == "" {
		return "", errors.New("stripe product id missing")
	}

	return productID, nil
}

func (p *StripeProvider) createPrice(ctx context.Context, productID string, amountCents int64) (string, error) {
	values := url.Values{}
	values.Set("currency", stripeCurrency)
	values.Set("unit_amount", strconv.FormatInt(amountCents, 10))
	values.Set("product", productID)

	body, err := p.postForm(ctx, "/v1/prices", values)
	if err != nil {
		return "", err
	}

	var price struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &price); err != nil {
		return "", err
	}
	priceID := strings.TrimSpace(price.ID)
	if priceID == "" {
		return "", errors.New("stripe price id missing")
	}

	return priceID, nil
}

func (p *StripeProvider) createFinalizedInvoice(ctx context.Context, input *LinkInput) (string, error) {
	dueDate := time.Now().UTC().AddDate(0, 0, input.DueInDays).Unix()

	invoiceValues := url.Values{}
	invoiceValues.Set("customer", input.CustomerID)
	invoiceValues.Set("auto_advance", "false")
	invoiceValues.Set("pending_invoice_items_behavior", "exclude")
	invoiceValues.Set("collection_method", "send_invoice")
	invoiceValues.Set("due_date", strconv.FormatInt(dueDate, 10))
	invoiceValues.Set("footer", fmt.Sprintf("This invoice is valid for %d days.", input.DueInDays))
	invoiceValues.Set("metadata[payment_id]", input.PaymentID)

	invoiceResp, err := p.postForm(ctx, "/v1/invoices", invoiceValues)
	if err != nil {
		return "", err
	}
	var invoice struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(invoiceResp, &invoice); err != nil {
		return "", err
	}
	invoiceID := strings.TrimSpace(invoice.ID)
	if invoiceID == "" {
		return "", errors.New("stripe invoice id missing")
	}

	itemValues := url.Values{}
	itemValues.Set("customer", input.CustomerID)
	itemValues.Set("invoice", invoiceID)
	itemValues.Set("amount", strconv.FormatInt(input.AmountCents, 10))
	itemValues.Set("currency", stripeCurrency)
	itemValues.Set("description", "Invoice for one-time payment via payment link")

	if _, err := p.postForm(ctx, "/v1/invoiceitems", itemValues); err != nil {
		return "", err
	}

	if _, err := p.postForm(ctx, "/v1/invoices/"+url.PathEscape(invoiceID)+"/finalize", url.Values{}); err != nil {
		return "", err
	}

	return invoiceID, nil
}

type stripeInvoice struct {
	ID               string `json:"id"`
	Number           string `json:"number"`
	InvoicePDF       string `json:"invoice_pdf"`
	HostedInvoiceURL string `json:"hosted_invoice_url"`
}

func (p *StripeProvider) retrieveInvoice(ctx context.Context, invoiceID string) (*stripeInvoice, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.cfg.APIBaseURL+"/v1/invoices/"+url.PathEscape(invoiceID), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe get invoice failed: status=%d body=%s", resp.StatusCode, string(body))
	}

	invoice := &stripeInvoice{}
	if err := json.Unmarshal(body, invoice); err != nil {
		return nil, err
	}

	return invoice, nil
}

func (p *StripeProvider) download(ctx context.Context, fileURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, err
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe file download failed: status=%d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

func (p *StripeProvider) postForm(ctx context.Context, path string, values url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.cfg.APIBaseURL+path, strings.NewReader(values.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+p.cfg.SecretKey)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("stripe request failed: path=%s status=%d body=%s", path, resp.StatusCode, string(body))
	}

	return body, nil
}

func verifyStripeSignature(payload []byte, signatureHeader string, webhookSecret string, toleranceSeconds int64) bool {
	signatureHeader = strings.TrimSpace(signatureHeader)
	if signatureHeader == "" || strings.TrimSpace(webhookSecret) == "" {
		return false
	}

	parts := strings.Split(signatureHeader, ",")
	var ts string
	v1 := make([]string, 0, 1)
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if strings.HasPrefix(part, "t=") {
			ts = strings.TrimSpace(strings.TrimPrefix(part, "t="))
		}
		if strings.HasPrefix(part, "v1=") {
			v1 = append(v1, strings.TrimSpace(strings.TrimPrefix(part, "v1=")))
		}
	}
	if ts == "" || len(v1) == 0 {
		return false
	}

	tsUnix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return false
	}
	now := time.Now().Unix()
	if now-tsUnix > toleranceSeconds || tsUnix-now > toleranceSeconds {
		return false
	}

	signedPayload := []byte(ts + "." + string(payload))
	mac := hmac.New(sha256.New, []byte(webhookSecret))
	_, _ = mac.Write(signedPayload)
	expected := mac.Sum(nil)

	for _, sig := range v1 {
		candidate, err := hex.DecodeString(sig)
		if err != nil {
			continue
		}
		if hmac.Equal(candidate, expected) {
			return true
		}
	}

	return false
}
