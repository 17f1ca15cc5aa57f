package reconcile

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// WhatsApp replies sent to the customer for each terminal state.
const (
	msgInvalidReceipt = "La imagen enviada no parece ser un comprobante de pago valido.\n" +
		"Por favor envia una foto clara de tu boucher de pago."

	msgUnreadableImage = "No se pudo validar tu comprobante\n" +
		"Por favor envia una imagen mas clara donde se vea el monto y codigo de operacion"

	msgDuplicateReceipt = "El comprobante enviado ya fue utilizado o no es valido\n" +
		"Si crees que es un error comunicarte con soporte"

	msgCustomerNotFound = "No pudimos encontrar tu cuenta asociada a este numero.\n" +
		"Por favor comunicarte con soporte para verificar tu pago."

	msgRegistrationError = "Hubo un error al registrar tu pago.\n" +
		"Nuestro equipo lo revisara manualmente. Disculpa las molestias."
)

func msgAmountMismatch(debt, sent decimal.Decimal) string {
	return fmt.Sprintf("Detectamos tu comprobante pero el monto no coincide con tu deuda\n"+
		"Deuda actual S/ %s\n"+
		"Monto enviado S/ %s\n"+
		"Por favor revisa o comunicarte con soporte",
		debt.StringFixed(2), sent.StringFixed(2))
}

func msgPaymentSuccess(amount decimal.Decimal, code string) string {
	if code == "" {
		code = "N/A"
	}
	return fmt.Sprintf("Tu pago fue verificado correctamente\n"+
		"Monto recibido S/ %s\n"+
		"Operacion %s\n"+
		"Tu servicio fue reactivado\n"+
		"Gracias por tu pago",
		amount.StringFixed(2), code)
}
