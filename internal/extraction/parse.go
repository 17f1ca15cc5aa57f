package extraction

import (
	"log/slog"
	"strings"
	"unicode/utf8"
)

// rawTextLimit caps how much recognized text is kept on the record.
const rawTextLimit = 500

// Parse turns recognized receipt text into a ReceiptRecord. It never fails:
// fields that match no pattern are simply absent. Text shorter than the
// recognition threshold short-circuits to an invalid, illegible record
// without attempting extraction.
func Parse(text string) *ReceiptRecord {
	trimmed := strings.TrimSpace(text)
	length := utf8.RuneCountInString(trimmed)

	if length < minTextLength {
		slog.Warn("Recognized text too short to parse", "length", length)
		return &ReceiptRecord{
			Valid:      false,
			Legible:    false,
			Confidence: ConfidenceNone,
			Currency:   CurrencyPEN,
			RawText:    excerpt(text),
		}
	}

	bank := detectBank(text)
	amount, currency := extractAmount(text)
	code := extractOperationCode(text)
	date := extractDate(text)
	timeOfDay := extractTime(text)
	phone := extractPhone(text)
	lastFour := extractLastFour(text)
	payer, receiver := extractNames(text)

	confidence, valid, legible := Classify(bank != nil, amount != nil, code != nil, length)

	var method *string
	if bank != nil {
		m := PaymentMethodFor(*bank)
		method = &m
	}

	record := &ReceiptRecord{
		Valid:          valid,
		Legible:        legible,
		Confidence:     confidence,
		PaymentMethod:  method,
		Bank:           bank,
		Amount:         amount,
		Currency:       currency,
		OperationCode:  code,
		Date:           date,
		Time:           timeOfDay,
		PayerName:      payer,
		ReceiverName:   receiver,
		PayerPhone:     phone,
		LastFourDigits: lastFour,
		RawText:        excerpt(text),
	}

	slog.Info("Parsed receipt text",
		"bank", stringOr(bank, ""),
		"amount", amountString(record),
		"operation", stringOr(code, ""),
		"confidence", confidence,
	)
	return record
}

func excerpt(text string) string {
	runes := []rune(text)
	if len(runes) > rawTextLimit {
		return string(runes[:rawTextLimit])
	}
	return text
}

func stringOr(s *string, fallback string) string {
	if s != nil {
		return *s
	}
	return fallback
}

func amountString(r *ReceiptRecord) string {
	if r.Amount == nil {
		return ""
	}
	return r.Amount.StringFixed(2)
}
