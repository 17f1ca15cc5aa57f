package scanning

import (
	"fmt"

	"github.com/wisperu/payment-bot/internal/extraction"
)

// TextRecognizer turns a receipt image into raw text. Implementations wrap
// an OCR engine; the structured interpretation of that text lives in the
// extraction package.
type TextRecognizer interface {
	RecognizeText(imageData []byte, contentType string) (string, error)
}

// OCR implements the Extractor interface on top of a TextRecognizer. It is
// the offline alternative to the vision extractors: the recognizer reads the
// pixels and the pattern engine interprets the text.
type OCR struct {
	recognizer TextRecognizer
}

// NewOCR creates a new OCR Extractor instance
func NewOCR(recognizer TextRecognizer) *OCR {
	return &OCR{recognizer: recognizer}
}

// Extract runs text recognition on the image and parses the result
func (o *OCR) Extract(imageData []byte, contentType string) (*extraction.ReceiptRecord, error) {
	finalImageData, mimeType, _, err := prepareImageData(imageData, contentType)
	if err != nil {
		return nil, err
	}

	text, err := o.recognizer.RecognizeText(finalImageData, mimeType)
	if err != nil {
		return nil, fmt.Errorf("recognizing text: %w", err)
	}

	return extraction.Parse(text), nil
}

// Close releases no resources; the recognizer's lifecycle is the caller's
func (o *OCR) Close() error {
	return nil
}
