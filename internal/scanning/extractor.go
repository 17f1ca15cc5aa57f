package scanning

import "github.com/wisperu/payment-bot/internal/extraction"

// Extractor reads a payment receipt image and produces a structured record.
type Extractor interface {
	// Extract analyzes a receipt image and returns the extracted fields.
	Extract(imageData []byte, contentType string) (*extraction.ReceiptRecord, error)
	// Close releases any resources held by the extractor
	Close() error
}

// receiptPrompt is the shared prompt used by all vision providers. The model
// must answer with the exact JSON schema below; parseReceiptRecord depends
// on these field names.
const receiptPrompt = `Eres un experto en analisis de comprobantes de pago del Peru.
Analiza esta imagen de un comprobante/boucher de pago y extrae los datos.

Medios de pago que debes reconocer:
- Yape (app morada, logo verde/morado)
- Plin (logo azul/celeste)
- BCP (Banco de Credito, app/web naranja)
- Interbank (app/web verde)
- BBVA (app/web azul)
- Scotiabank (app/web roja)
- BanBif
- Banco de la Nacion
- Tarjeta de credito o debito
- Transferencia bancaria
- Otro

Responde UNICAMENTE con un JSON valido (sin markdown, sin texto adicional):

{
  "es_recibo_valido": true,
  "imagen_legible": true,
  "medio_pago": "Yape|Plin|BCP|Interbank|BBVA|Scotiabank|BanBif|Banco de la Nacion|Tarjeta|Transferencia|Otro",
  "banco": "nombre del banco o app",
  "nombre_pagador": "nombre completo del que paga",
  "nombre_receptor": "nombre completo del que recibe",
  "monto": 0.00,
  "moneda": "PEN|USD",
  "fecha": "YYYY-MM-DD",
  "hora": "HH:MM:SS",
  "codigo_operacion": "numero de operacion o codigo de transaccion",
  "ultimos_4_digitos": "ultimos 4 digitos de cuenta o tarjeta",
  "celular_emisor": "numero de celular del que paga"
}

Reglas estrictas:
- Si la imagen NO es un comprobante de pago: "es_recibo_valido": false y todos los demas campos null.
- Si la imagen es borrosa o no se pueden leer los datos clave (monto y codigo): "imagen_legible": false.
- El monto DEBE ser un numero decimal (ejemplo: 50.00, no "S/ 50.00").
- La moneda es "PEN" para soles (S/) y "USD" para dolares ($).
- La fecha DEBE estar en formato YYYY-MM-DD.
- La hora DEBE estar en formato HH:MM:SS (24h). Si no hay hora, usa null.
- El codigo_operacion es el numero de operacion, referencia o ID de transaccion.
- Si un campo no es visible o no existe en la imagen, usa null.
- NUNCA inventes datos. Si no lo ves claramente, usa null.`
