//go:build e2e
// +build e2e

package e2e

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/vibast-solutions/ms-go-payment-links/app/types"
)

const defaultHTTPBase = "http://localhost:48080"

type httpClient struct {
	baseURL string
	client  *http.Client
}

func newHTTPClient(baseURL string) *httpClient {
	return &httpClient{
		baseURL: baseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

func (c *httpClient) doJSON(t *testing.T, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("json marshal failed: %v", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		t.Fatalf("new request failed: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("X-Request-ID", fmt.Sprintf("e2e-http-%d", time.Now().UnixNano()))

	resp, err := c.client.Do(req)
	if err != nil {
		t.Fatalf("http request failed: %v", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read response failed: %v", err)
	}

	return resp, bodyBytes
}

func waitForHTTP(baseURL string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	client := &http.Client{Timeout: 2 * time.Second}
	for time.Now().Before(deadline) {
		resp, err := client.Get(baseURL + "/health")
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}
		time.Sleep(500 * time.Millisecond)
	}
	return fmt.Errorf("http service not ready at %s", baseURL)
}

func TestPaymentLinksE2E(t *testing.T) {
	httpBase := os.Getenv("PAYMENT_LINKS_HTTP_URL")
	if httpBase == "" {
		httpBase = defaultHTTPBase
	}

	if err := waitForHTTP(httpBase, 30*time.Second); err != nil {
		t.Fatalf("http not ready: %v", err)
	}

	client := newHTTPClient(httpBase)

	t.Run("HTTPMissingRequestID", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, httpBase+"/payments", bytes.NewBufferString(`{}`))
		if err != nil {
			t.Fatalf("new request failed: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for missing x-request-id, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPValidationCreate", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments", map[string]any{})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for invalid create request, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPCreateBelowMinimum", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payments", map[string]any{
			"email":  "e2e@example.com",
			"amount": "0.25",
		})
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for sub-minimum amount, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPGetNotFound", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/payments/00000000-0000-0000-0000-000000000000", nil)
		if resp.StatusCode != http.StatusNotFound {
			t.Fatalf("expected 404, got %d body=%s", resp.StatusCode, string(body))
		}
	})

	t.Run("HTTPHistoryEmpty", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodGet, "/payments/history/nobody@example.com", nil)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.PaymentHistoryResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal history failed: %v body=%s", err, string(body))
		}
	})

	t.Run("HTTPGetOrCreatePayer", func(t *testing.T) {
		resp, body := client.doJSON(t, http.MethodPost, "/payers/get-or-create", map[string]any{
			"email": "e2e@example.com",
		})
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("expected 200, got %d body=%s", resp.StatusCode, string(body))
		}
		var payload types.PayerResponse
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Fatalf("unmarshal payer failed: %v body=%s", err, string(body))
		}
		if payload.Email != "e2e@example.com" {
			t.Fatalf("unexpected payer email %q", payload.Email)
		}
	})

	t.Run("HTTPWebhookBadSignature", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, httpBase+"/webhooks/providers/stripe", bytes.NewBufferString(`{"id":"evt_e2e"}`))
		if err != nil {
			t.Fatalf("new request failed: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Stripe-Signature", "t=1,v1=bad")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for bad signature, got %d", resp.StatusCode)
		}
	})

	t.Run("HTTPWebhookUnknownProvider", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodPost, httpBase+"/webhooks/providers/paypal", bytes.NewBufferString(`{"id":"evt_e2e"}`))
		if err != nil {
			t.Fatalf("new request failed: %v", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-Provider-Signature", "sig")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for unknown provider, got %d", resp.StatusCode)
		}
	})
}
