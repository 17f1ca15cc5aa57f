package reconcile

import (
	"github.com/shopspring/decimal"

	"github.com/wisperu/payment-bot/internal/extraction"
)

// Action is the terminal decision of a reconciliation run. The six values
// and the outcome field names are the stable contract consumed by
// logging/automation callers.
type Action string

const (
	ActionRequestNewImage    Action = "request_new_image"
	ActionDuplicateReceipt   Action = "duplicate_receipt"
	ActionCustomerNotFound   Action = "customer_not_found"
	ActionAmountMismatch     Action = "amount_mismatch"
	ActionRegistrationFailed Action = "registration_failed"
	ActionRegisterPayment    Action = "register_payment"
)

// Outcome is the structured result returned to the caller. It is ephemeral:
// logged and handed to automation, never persisted as its own entity.
type Outcome struct {
	Action        Action           `json:"action"`
	PaymentValid  bool             `json:"payment_valid"`
	CustomerFound bool             `json:"customer_found"`
	DebtAmount    decimal.Decimal  `json:"debt_amount"`
	PaymentMethod *string          `json:"payment_method,omitempty"`
	Bank          *string          `json:"bank,omitempty"`
	Amount        *decimal.Decimal `json:"amount,omitempty"`
	Currency      string           `json:"currency"`
	OperationCode *string          `json:"operation_code,omitempty"`
	Date          *string          `json:"date,omitempty"`
	Time          *string          `json:"time,omitempty"`
	PayerName     *string          `json:"payer_name,omitempty"`
}

// newOutcome echoes the receipt fields into the outcome document.
func newOutcome(rec *extraction.ReceiptRecord, action Action) *Outcome {
	return &Outcome{
		Action:        action,
		DebtAmount:    decimal.Zero,
		PaymentMethod: rec.PaymentMethod,
		Bank:          rec.Bank,
		Amount:        rec.Amount,
		Currency:      rec.Currency,
		OperationCode: rec.OperationCode,
		Date:          rec.Date,
		Time:          rec.Time,
		PayerName:     rec.PayerName,
	}
}
