package extraction

import "github.com/shopspring/decimal"

// Confidence classifies how much of a receipt the extractor could read.
type Confidence string

const (
	ConfidenceNone   Confidence = "none"
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Currency codes recognized on Peruvian receipts.
const (
	CurrencyPEN = "PEN"
	CurrencyUSD = "USD"
)

// ReceiptRecord is the structured result of parsing one receipt image.
// Absent fields are nil; a record is built once per image and never mutated.
type ReceiptRecord struct {
	Valid          bool             `json:"es_recibo_valido"`
	Legible        bool             `json:"imagen_legible"`
	Confidence     Confidence       `json:"confidence"`
	PaymentMethod  *string          `json:"medio_pago,omitempty"`
	Bank           *string          `json:"banco,omitempty"`
	Amount         *decimal.Decimal `json:"monto,omitempty"`
	Currency       string           `json:"moneda"`
	OperationCode  *string          `json:"codigo_operacion,omitempty"`
	Date           *string          `json:"fecha,omitempty"` // YYYY-MM-DD
	Time           *string          `json:"hora,omitempty"`  // HH:MM:SS
	PayerName      *string          `json:"nombre_pagador,omitempty"`
	ReceiverName   *string          `json:"nombre_receptor,omitempty"`
	PayerPhone     *string          `json:"celular_emisor,omitempty"`
	LastFourDigits *string          `json:"ultimos_4_digitos,omitempty"`
	RawText        string           `json:"raw_text"`
}

// PaymentMethodFor maps a detected bank/provider to the payment method
// WispHub expects: wallet apps keep their name, cards are "Tarjeta",
// anything else is a bank transfer.
func PaymentMethodFor(bank string) string {
	switch bank {
	case "Yape", "Plin":
		return bank
	case "Tarjeta":
		return "Tarjeta"
	default:
		return "Transferencia"
	}
}
