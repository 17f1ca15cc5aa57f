package scanning

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/wisperu/payment-bot/internal/extraction"
)

// receiptJSON mirrors the schema the vision prompt asks for. All fields are
// pointers because the model answers null for anything it cannot read.
type receiptJSON struct {
	Valid          bool         `json:"es_recibo_valido"`
	Legible        bool         `json:"imagen_legible"`
	PaymentMethod  *string      `json:"medio_pago"`
	Bank           *string      `json:"banco"`
	PayerName      *string      `json:"nombre_pagador"`
	ReceiverName   *string      `json:"nombre_receptor"`
	Amount         *json.Number `json:"monto"`
	Currency       *string      `json:"moneda"`
	Date           *string      `json:"fecha"`
	Time           *string      `json:"hora"`
	OperationCode  *string      `json:"codigo_operacion"`
	LastFourDigits *string      `json:"ultimos_4_digitos"`
	PayerPhone     *string      `json:"celular_emisor"`
}

// parseReceiptRecord parses a vision model's JSON answer into a normalized
// record. Models wrap answers in markdown fences or preamble often enough
// that the JSON object is located by its braces rather than decoded whole.
func parseReceiptRecord(text string) (*extraction.ReceiptRecord, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSpace(text)

	startIdx := strings.Index(text, "{")
	if startIdx == -1 {
		return nil, fmt.Errorf("no JSON object found in response")
	}
	endIdx := strings.LastIndex(text, "}")
	if endIdx == -1 || endIdx < startIdx {
		return nil, fmt.Errorf("invalid JSON object in response")
	}
	text = text[startIdx : endIdx+1]

	var data receiptJSON
	if err := json.Unmarshal([]byte(text), &data); err != nil {
		return nil, fmt.Errorf("unmarshaling json: %w", err)
	}

	rec := &extraction.ReceiptRecord{
		Legible:        data.Legible,
		Currency:       extraction.CurrencyPEN,
		Bank:           cleanString(data.Bank),
		OperationCode:  cleanString(data.OperationCode),
		PayerName:      cleanString(data.PayerName),
		ReceiverName:   cleanString(data.ReceiverName),
		PayerPhone:     cleanString(data.PayerPhone),
		LastFourDigits: cleanString(data.LastFourDigits),
	}

	if c := cleanString(data.Currency); c != nil && strings.EqualFold(*c, extraction.CurrencyUSD) {
		rec.Currency = extraction.CurrencyUSD
	}

	if data.Amount != nil {
		if amount, err := decimal.NewFromString(data.Amount.String()); err == nil && extraction.AmountInRange(amount) {
			rec.Amount = &amount
		}
	}

	rec.Date = normalizeDate(cleanString(data.Date))
	rec.Time = normalizeTime(cleanString(data.Time))

	if method := cleanString(data.PaymentMethod); method != nil {
		rec.PaymentMethod = method
	} else if rec.Bank != nil {
		m := extraction.PaymentMethodFor(*rec.Bank)
		rec.PaymentMethod = &m
	}

	rec.Confidence, rec.Valid, _ = extraction.Classify(
		rec.Bank != nil,
		rec.Amount != nil,
		rec.OperationCode != nil,
		len(text),
	)
	// The model judges validity and legibility from the image itself; the
	// anchor count can only lower that judgment, never raise it.
	rec.Valid = rec.Valid && data.Valid
	if !data.Valid {
		rec.Legible = false
		rec.Confidence = extraction.ConfidenceNone
	}

	return rec, nil
}

// cleanString trims a model-supplied string and drops empty or literal
// "null" answers.
func cleanString(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" || strings.EqualFold(trimmed, "null") {
		return nil
	}
	return &trimmed
}

// normalizeDate coerces the model's date to YYYY-MM-DD, trying a few common
// deviations before giving up. An unparseable date is dropped rather than
// guessed.
func normalizeDate(date *string) *string {
	if date == nil {
		return nil
	}
	formats := []string{"2006-01-02", "2006/01/02", "02/01/2006", "02-01-2006"}
	for _, format := range formats {
		if d, err := time.Parse(format, *date); err == nil {
			normalized := d.Format("2006-01-02")
			return &normalized
		}
	}
	return nil
}

// normalizeTime coerces the model's time to HH:MM:SS, zero-padding hours and
// appending seconds when missing.
func normalizeTime(t *string) *string {
	if t == nil {
		return nil
	}
	for _, format := range []string{"15:04:05", "15:04"} {
		if parsed, err := time.Parse(format, *t); err == nil {
			normalized := parsed.Format("15:04:05")
			return &normalized
		}
	}
	return nil
}
