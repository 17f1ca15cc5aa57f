// Package reconcile decides what happens to a parsed receipt: duplicate
// detection, customer resolution, debt comparison and payment registration,
// in a fixed order with one terminal outcome per run.
package reconcile

import (
	"context"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wisperu/payment-bot/internal/extraction"
	"github.com/wisperu/payment-bot/internal/transaction"
	"github.com/wisperu/payment-bot/internal/wisphub"
)

// mismatchTolerance is the maximum difference between the extracted amount
// and the outstanding debt before the payment is rejected as a mismatch.
var mismatchTolerance = decimal.RequireFromString("0.50")

// TransactionStore records processed receipts and answers duplicate checks.
type TransactionStore interface {
	HasOperationCode(code string) (bool, error)
	SaveTransaction(tx *transaction.Transaction) error
}

// CustomerDirectory resolves customers. A miss is (nil, nil), not an error.
type CustomerDirectory interface {
	FindByPhone(ctx context.Context, phone string) (*wisphub.Customer, error)
	FindByName(ctx context.Context, name string) (*wisphub.Customer, error)
}

// DebtLedger is the system of record for invoices and payments.
type DebtLedger interface {
	OutstandingDebt(ctx context.Context, customerID int) (*wisphub.DebtSnapshot, error)
	RegisterPayment(ctx context.Context, customerID int, p wisphub.Payment) error
	MarkInvoicePaid(ctx context.Context, invoiceID int) error
}

// Notifier sends the customer-facing reply. Failures are logged and never
// change an outcome already decided.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Archive moves the receipt image to its final directory.
type Archive interface {
	MoveToProcessed(ref string) error
	MoveToError(ref string) error
}

// TimeSource provides the current time.
type TimeSource interface {
	Now() time.Time
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Engine runs the reconciliation sequence. It holds no mutable state across
// runs; all shared state lives behind the injected collaborators.
type Engine struct {
	store      TransactionStore
	directory  CustomerDirectory
	ledger     DebtLedger
	notifier   Notifier
	archive    Archive
	timeSource TimeSource
}

// NewEngine creates an Engine with the default time source.
func NewEngine(store TransactionStore, directory CustomerDirectory, ledger DebtLedger, notifier Notifier, archive Archive) *Engine {
	return NewEngineWithDeps(store, directory, ledger, notifier, archive, &defaultTimeSource{})
}

// NewEngineWithDeps creates an Engine with a custom time source for testing.
func NewEngineWithDeps(store TransactionStore, directory CustomerDirectory, ledger DebtLedger, notifier Notifier, archive Archive, timeSource TimeSource) *Engine {
	return &Engine{
		store:      store,
		directory:  directory,
		ledger:     ledger,
		notifier:   notifier,
		archive:    archive,
		timeSource: timeSource,
	}
}

// Reconcile runs the sequence for one receipt. The first terminal condition
// halts the run and fixes the outcome; no step is retried here and no
// rollback occurs across steps. Every input resolves to exactly one outcome.
func (e *Engine) Reconcile(ctx context.Context, rec *extraction.ReceiptRecord, senderPhone, imageRef string) *Outcome {
	// Step 1: not a payment receipt at all.
	if !rec.Valid {
		slog.Warn("Invalid receipt", "phone", senderPhone)
		e.moveToError(imageRef)
		e.notify(ctx, senderPhone, msgInvalidReceipt)
		return newOutcome(rec, ActionRequestNewImage)
	}

	// Step 2: a receipt, but too blurry to trust.
	if !rec.Legible {
		slog.Warn("Unreadable image", "phone", senderPhone)
		e.moveToError(imageRef)
		e.notify(ctx, senderPhone, msgUnreadableImage)
		return newOutcome(rec, ActionRequestNewImage)
	}

	// Step 3: duplicate check, keyed solely on the operation code. A receipt
	// with no detected code can never be flagged duplicate; that gap is a
	// known limitation, not something to patch here.
	if rec.OperationCode != nil {
		seen, err := e.store.HasOperationCode(*rec.OperationCode)
		if err != nil {
			slog.Error("Duplicate check failed", "phone", senderPhone, "error", err)
		} else if seen {
			slog.Warn("Duplicate transaction", "phone", senderPhone, "operation", *rec.OperationCode)
			e.moveToError(imageRef)
			e.notify(ctx, senderPhone, msgDuplicateReceipt)
			return newOutcome(rec, ActionDuplicateReceipt)
		}
	}

	// Step 4: resolve the customer, by sender phone first, then by the
	// extracted payer name.
	customer := e.resolveCustomer(ctx, senderPhone, rec.PayerName)
	if customer == nil {
		slog.Warn("Customer not found", "phone", senderPhone)
		e.moveToError(imageRef)
		e.notify(ctx, senderPhone, msgCustomerNotFound)
		return newOutcome(rec, ActionCustomerNotFound)
	}
	slog.Info("Customer resolved", "phone", senderPhone, "customer", customer.ID, "name", customer.Name)

	// Step 5: outstanding debt, zero if none. A ledger read error degrades
	// to a zero-debt snapshot so the payment can still be registered.
	debt, err := e.ledger.OutstandingDebt(ctx, customer.ID)
	if err != nil {
		slog.Error("Debt query failed", "phone", senderPhone, "customer", customer.ID, "error", err)
		debt = &wisphub.DebtSnapshot{AmountDue: decimal.Zero}
	}

	amount := decimal.Zero
	if rec.Amount != nil {
		amount = *rec.Amount
	}

	// Step 6: compare amounts when there is a debt to compare against.
	if debt.AmountDue.IsPositive() && amount.Sub(debt.AmountDue).Abs().GreaterThan(mismatchTolerance) {
		slog.Warn("Amount mismatch",
			"phone", senderPhone,
			"extracted", amount.StringFixed(2),
			"debt", debt.AmountDue.StringFixed(2),
		)
		e.notify(ctx, senderPhone, msgAmountMismatch(debt.AmountDue, amount))
		e.saveTransaction(rec, senderPhone, imageRef, transaction.StatusAmountMismatch)
		e.moveToError(imageRef)

		outcome := newOutcome(rec, ActionAmountMismatch)
		outcome.CustomerFound = true
		outcome.DebtAmount = debt.AmountDue
		return outcome
	}

	// Step 7: register the payment.
	payment := wisphub.Payment{
		Amount:        amount,
		Date:          stringValue(rec.Date),
		Method:        stringValue(rec.PaymentMethod),
		OperationCode: stringValue(rec.OperationCode),
		CustomerPhone: senderPhone,
	}
	if err := e.ledger.RegisterPayment(ctx, customer.ID, payment); err != nil {
		slog.Error("Payment registration failed", "phone", senderPhone, "customer", customer.ID, "error", err)
		e.notify(ctx, senderPhone, msgRegistrationError)

		outcome := newOutcome(rec, ActionRegistrationFailed)
		outcome.CustomerFound = true
		outcome.DebtAmount = debt.AmountDue
		return outcome
	}

	// Best-effort invoice settlement; a failure here is logged only.
	if debt.InvoiceID != 0 {
		if err := e.ledger.MarkInvoicePaid(ctx, debt.InvoiceID); err != nil {
			slog.Error("Failed to mark invoice paid", "invoice", debt.InvoiceID, "error", err)
		}
	}

	e.saveTransaction(rec, senderPhone, imageRef, transaction.StatusRegistered)
	e.moveToProcessed(imageRef)
	e.notify(ctx, senderPhone, msgPaymentSuccess(amount, payment.OperationCode))

	slog.Info("Payment processed", "phone", senderPhone, "operation", payment.OperationCode)

	outcome := newOutcome(rec, ActionRegisterPayment)
	outcome.PaymentValid = true
	outcome.CustomerFound = true
	outcome.DebtAmount = debt.AmountDue
	return outcome
}

func (e *Engine) resolveCustomer(ctx context.Context, phone string, payerName *string) *wisphub.Customer {
	customer, err := e.directory.FindByPhone(ctx, phone)
	if err != nil {
		slog.Error("Customer lookup by phone failed", "phone", phone, "error", err)
	}
	if customer != nil {
		return customer
	}

	if payerName == nil {
		return nil
	}
	customer, err = e.directory.FindByName(ctx, *payerName)
	if err != nil {
		slog.Error("Customer lookup by name failed", "name", *payerName, "error", err)
	}
	return customer
}

func (e *Engine) saveTransaction(rec *extraction.ReceiptRecord, senderPhone, imageRef string, status transaction.Status) {
	amount := decimal.Zero
	if rec.Amount != nil {
		amount = *rec.Amount
	}

	tx := &transaction.Transaction{
		OperationCode: stringValue(rec.OperationCode),
		PaymentMethod: stringValue(rec.PaymentMethod),
		Bank:          stringValue(rec.Bank),
		Amount:        amount,
		Currency:      rec.Currency,
		PayerName:     stringValue(rec.PayerName),
		CustomerPhone: senderPhone,
		PaymentDate:   stringValue(rec.Date),
		PaymentTime:   stringValue(rec.Time),
		RegisteredAt:  e.timeSource.Now(),
		ImageFile:     imageRef,
		Status:        status,
	}
	if err := e.store.SaveTransaction(tx); err != nil {
		slog.Error("Failed to save transaction", "operation", tx.OperationCode, "error", err)
	}
}

func (e *Engine) notify(ctx context.Context, phone, text string) {
	if err := e.notifier.Send(ctx, phone, text); err != nil {
		slog.Error("Failed to send notification", "phone", phone, "error", err)
	}
}

func (e *Engine) moveToError(ref string) {
	if err := e.archive.MoveToError(ref); err != nil {
		slog.Error("Failed to archive image", "ref", ref, "error", err)
	}
}

func (e *Engine) moveToProcessed(ref string) {
	if err := e.archive.MoveToProcessed(ref); err != nil {
		slog.Error("Failed to archive image", "ref", ref, "error", err)
	}
}

func stringValue(s *string) string {
	if s != nil {
		return *s
	}
	return ""
}
