package bot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/wisperu/payment-bot/internal/extraction"
	"github.com/wisperu/payment-bot/internal/reconcile"
	"github.com/wisperu/payment-bot/internal/scanning"
	"github.com/wisperu/payment-bot/internal/whatsapp"
)

// Conversational replies for anything that is not a receipt image.
const (
	msgGreeting = "Hola! Soy el asistente de pagos.\n" +
		"Envia una foto de tu boucher de pago y lo verificare automaticamente."

	msgUnsupported = "Solo puedo procesar imagenes de comprobantes de pago. " +
		"Por favor envia una foto de tu recibo."

	msgDownloadFailed = "No se pudo descargar la imagen. Intenta enviarla nuevamente."
)

// MediaDownloader fetches received media by ID.
type MediaDownloader interface {
	DownloadMedia(ctx context.Context, mediaID string) ([]byte, string, error)
}

// PendingStore keeps downloaded receipt images until reconciliation files
// them away.
type PendingStore interface {
	SavePending(filename string, data []byte) (string, error)
}

// Reconciler runs the payment decision procedure for one extracted receipt.
type Reconciler interface {
	Reconcile(ctx context.Context, rec *extraction.ReceiptRecord, senderPhone, imageRef string) *reconcile.Outcome
}

// Notifier sends a text message back to a customer.
type Notifier interface {
	Send(ctx context.Context, phone, text string) error
}

// Service ties the WhatsApp side to the extraction and reconciliation
// pipeline: download, archive, extract, reconcile.
type Service struct {
	downloader MediaDownloader
	extractor  scanning.Extractor
	pending    PendingStore
	reconciler Reconciler
	notifier   Notifier
}

// NewService creates a new Service
func NewService(downloader MediaDownloader, extractor scanning.Extractor, pending PendingStore, reconciler Reconciler, notifier Notifier) *Service {
	return &Service{
		downloader: downloader,
		extractor:  extractor,
		pending:    pending,
		reconciler: reconciler,
		notifier:   notifier,
	}
}

// HandleImage processes one receipt image end to end and returns the
// reconciliation outcome.
func (s *Service) HandleImage(ctx context.Context, phone, mediaID string) (*reconcile.Outcome, error) {
	data, contentType, err := s.downloader.DownloadMedia(ctx, mediaID)
	if err != nil {
		slog.Error("Failed to download media", "phone", phone, "media_id", mediaID, "error", err)
		s.send(ctx, phone, msgDownloadFailed)
		return nil, fmt.Errorf("downloading media %s: %w", mediaID, err)
	}

	filename := mediaID + whatsapp.FileExtension(contentType)
	ref, err := s.pending.SavePending(filename, data)
	if err != nil {
		return nil, fmt.Errorf("saving image: %w", err)
	}

	rec, err := s.extractor.Extract(data, contentType)
	if err != nil {
		// An extractor failure is handled like an unreadable receipt so the
		// customer still gets an answer instead of silence.
		slog.Error("Extraction failed", "phone", phone, "media_id", mediaID, "error", err)
		rec = &extraction.ReceiptRecord{Valid: false, Legible: false, Confidence: extraction.ConfidenceNone}
	}

	outcome := s.reconciler.Reconcile(ctx, rec, phone, ref)
	slog.Info("Receipt handled", "phone", phone, "action", outcome.Action, "valid", outcome.PaymentValid)
	return outcome, nil
}

// HandleText answers a plain text message with usage instructions.
func (s *Service) HandleText(ctx context.Context, phone string) {
	s.send(ctx, phone, msgGreeting)
}

// HandleUnsupported answers message types the bot cannot process.
func (s *Service) HandleUnsupported(ctx context.Context, phone string) {
	s.send(ctx, phone, msgUnsupported)
}

func (s *Service) send(ctx context.Context, phone, text string) {
	if err := s.notifier.Send(ctx, phone, text); err != nil {
		slog.Error("Failed to send message", "phone", phone, "error", err)
	}
}
