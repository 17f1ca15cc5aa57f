package transaction

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status marks how a transaction left the reconciliation run.
type Status string

const (
	StatusRegistered     Status = "registrado"
	StatusAmountMismatch Status = "monto_incorrecto"
)

// Transaction is the append-only audit record for a processed receipt.
// It is immutable after insert; the operation code is the sole
// deduplication key.
type Transaction struct {
	ID            string          `json:"id"`
	OperationCode string          `json:"codigo_operacion"`
	PaymentMethod string          `json:"medio_pago"`
	Bank          string          `json:"banco"`
	Amount        decimal.Decimal `json:"monto"`
	Currency      string          `json:"moneda"`
	PayerName     string          `json:"nombre_pagador"`
	CustomerPhone string          `json:"telefono_cliente"`
	PaymentDate   string          `json:"fecha_pago"`
	PaymentTime   string          `json:"hora_pago"`
	RegisteredAt  time.Time       `json:"fecha_registro"`
	ImageFile     string          `json:"imagen_archivo"`
	Status        Status          `json:"estado"`
}
