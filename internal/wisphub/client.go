// Package wisphub talks to the WispHub CRM API: customer lookup, pending
// debt queries, payment registration and invoice settlement.
package wisphub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	maxRetries     = 3
	backoffBase    = 2 * time.Second
	requestTimeout = 30 * time.Second
)

// Customer is a WispHub client record.
type Customer struct {
	ID    int    `json:"id"`
	Name  string `json:"nombre"`
	Phone string `json:"celular"`
}

// Invoice is a pending WispHub invoice.
type Invoice struct {
	ID    int             `json:"id"`
	Total decimal.Decimal `json:"total"`
}

// DebtSnapshot is a read-only view of a customer's outstanding debt,
// fetched once per reconciliation run and never cached.
type DebtSnapshot struct {
	HasDebt         bool
	AmountDue       decimal.Decimal
	InvoiceID       int // first pending invoice, 0 when none
	PendingInvoices []Invoice
}

// Payment carries the details submitted when registering a payment.
type Payment struct {
	Amount        decimal.Decimal
	Date          string
	Method        string
	OperationCode string
	CustomerPhone string
}

// Client is a WispHub API client with retrying requests.
type Client struct {
	baseURL string
	token   string
	client  *http.Client
	backoff time.Duration
}

// NewClient creates a new WispHub client.
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		client:  &http.Client{Timeout: requestTimeout},
		backoff: backoffBase,
	}
}

// request performs an API call with up to maxRetries attempts and
// exponential backoff between them. Retries are owned here; callers see
// either a response body or an error after attempts are exhausted.
func (c *Client) request(ctx context.Context, method, endpoint string, query url.Values, payload any) ([]byte, error) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("marshaling payload: %w", err)
		}
	}

	reqURL := c.baseURL + endpoint
	if len(query) > 0 {
		reqURL += "?" + query.Encode()
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		slog.Info("WispHub request", "method", method, "endpoint", endpoint, "attempt", attempt)

		data, err := c.do(ctx, method, reqURL, body)
		if err == nil {
			return data, nil
		}
		lastErr = err
		slog.Warn("WispHub attempt failed", "endpoint", endpoint, "attempt", attempt, "error", err)

		if attempt < maxRetries {
			select {
			case <-time.After(c.backoff * time.Duration(1<<(attempt-1))):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	slog.Error("WispHub request failed after retries", "endpoint", endpoint, "attempts", maxRetries)
	return nil, fmt.Errorf("wisphub %s %s: %w", method, endpoint, lastErr)
}

func (c *Client) do(ctx context.Context, method, reqURL string, body []byte) ([]byte, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reader)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Authorization", "Token "+c.token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}

type customerList struct {
	Results []Customer `json:"results"`
}

// FindByPhone looks up a customer by phone number. A miss is (nil, nil).
func (c *Client) FindByPhone(ctx context.Context, phone string) (*Customer, error) {
	return c.findCustomer(ctx, url.Values{"celular": {phone}})
}

// FindByName looks up a customer by name. A miss is (nil, nil).
func (c *Client) FindByName(ctx context.Context, name string) (*Customer, error) {
	return c.findCustomer(ctx, url.Values{"search": {name}})
}

// FindByCode fetches a customer directly by their client code. A miss is
// (nil, nil).
func (c *Client) FindByCode(ctx context.Context, code string) (*Customer, error) {
	data, err := c.request(ctx, http.MethodGet, fmt.Sprintf("/api/clientes/%s/", code), nil, nil)
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := json.Unmarshal(data, &customer); err != nil {
		return nil, fmt.Errorf("decoding customer: %w", err)
	}
	if customer.ID == 0 {
		return nil, nil
	}

	slog.Info("Customer found", "id", customer.ID, "name", customer.Name)
	return &customer, nil
}

func (c *Client) findCustomer(ctx context.Context, query url.Values) (*Customer, error) {
	data, err := c.request(ctx, http.MethodGet, "/api/clientes/", query, nil)
	if err != nil {
		return nil, err
	}

	var list customerList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding customer list: %w", err)
	}
	if len(list.Results) == 0 {
		return nil, nil
	}

	customer := list.Results[0]
	slog.Info("Customer found", "id", customer.ID, "name", customer.Name)
	return &customer, nil
}

type invoiceList struct {
	Results []Invoice `json:"results"`
}

// OutstandingDebt sums the customer's pending invoices. The first pending
// invoice is the one later marked paid on a successful registration.
func (c *Client) OutstandingDebt(ctx context.Context, customerID int) (*DebtSnapshot, error) {
	endpoint := fmt.Sprintf("/api/clientes/%d/facturas/", customerID)
	data, err := c.request(ctx, http.MethodGet, endpoint, url.Values{"estado": {"pendiente"}}, nil)
	if err != nil {
		return nil, err
	}

	var list invoiceList
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, fmt.Errorf("decoding invoice list: %w", err)
	}
	if len(list.Results) == 0 {
		slog.Info("No pending invoices", "customer", customerID)
		return &DebtSnapshot{AmountDue: decimal.Zero}, nil
	}

	total := decimal.Zero
	for _, invoice := range list.Results {
		total = total.Add(invoice.Total)
	}
	total = total.Round(2)

	slog.Info("Customer has pending debt",
		"customer", customerID,
		"amount", total.StringFixed(2),
		"invoice", list.Results[0].ID,
	)
	return &DebtSnapshot{
		HasDebt:         true,
		AmountDue:       total,
		InvoiceID:       list.Results[0].ID,
		PendingInvoices: list.Results,
	}, nil
}

// RegisterPayment submits a payment for the customer. A nil error means the
// payment was accepted by WispHub.
func (c *Client) RegisterPayment(ctx context.Context, customerID int, p Payment) error {
	payload := map[string]any{
		"cliente":          customerID,
		"monto":            p.Amount,
		"fecha_pago":       p.Date,
		"medio_pago":       p.Method,
		"codigo_operacion": p.OperationCode,
		"observacion": fmt.Sprintf("Pago automatico - %s - Op: %s - Tel: %s",
			p.Method, p.OperationCode, p.CustomerPhone),
	}

	if _, err := c.request(ctx, http.MethodPost, "/api/pagos/", nil, payload); err != nil {
		return err
	}

	slog.Info("Payment registered", "customer", customerID, "operation", p.OperationCode)
	return nil
}

// MarkInvoicePaid flips an invoice to paid.
func (c *Client) MarkInvoicePaid(ctx context.Context, invoiceID int) error {
	endpoint := fmt.Sprintf("/api/facturas/%d/", invoiceID)
	payload := map[string]string{"estado": "pagada"}

	if _, err := c.request(ctx, http.MethodPatch, endpoint, nil, payload); err != nil {
		return err
	}

	slog.Info("Invoice marked as paid", "invoice", invoiceID)
	return nil
}
