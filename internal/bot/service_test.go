package bot

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/wisperu/payment-bot/internal/extraction"
	"github.com/wisperu/payment-bot/internal/reconcile"
)

func TestBot(t *testing.T) {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))

	RegisterFailHandler(Fail)
	RunSpecs(t, "Bot Suite")
}

// mockDownloader is a mock implementation of MediaDownloader
type mockDownloader struct {
	data        []byte
	contentType string
	err         error
}

func (m *mockDownloader) DownloadMedia(_ context.Context, _ string) ([]byte, string, error) {
	if m.err != nil {
		return nil, "", m.err
	}
	return m.data, m.contentType, nil
}

// mockExtractor is a mock implementation of scanning.Extractor
type mockExtractor struct {
	rec *extraction.ReceiptRecord
	err error
}

func (m *mockExtractor) Extract(_ []byte, _ string) (*extraction.ReceiptRecord, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.rec, nil
}

func (m *mockExtractor) Close() error { return nil }

// mockPending is a mock implementation of PendingStore
type mockPending struct {
	saved map[string][]byte
	err   error
}

func newMockPending() *mockPending {
	return &mockPending{saved: make(map[string][]byte)}
}

func (m *mockPending) SavePending(filename string, data []byte) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.saved[filename] = data
	return filename, nil
}

// mockReconciler is a mock implementation of Reconciler
type mockReconciler struct {
	outcome *reconcile.Outcome
	rec     *extraction.ReceiptRecord
	phone   string
	ref     string
	calls   int
}

func (m *mockReconciler) Reconcile(_ context.Context, rec *extraction.ReceiptRecord, phone, ref string) *reconcile.Outcome {
	m.calls++
	m.rec = rec
	m.phone = phone
	m.ref = ref
	return m.outcome
}

// mockNotifier is a mock implementation of Notifier
type mockNotifier struct {
	sent []string
	err  error
}

func (m *mockNotifier) Send(_ context.Context, _ string, text string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, text)
	return nil
}

var _ = Describe("Service", func() {
	var (
		downloader *mockDownloader
		extractor  *mockExtractor
		pending    *mockPending
		reconciler *mockReconciler
		notifier   *mockNotifier
		service    *Service
	)

	BeforeEach(func() {
		downloader = &mockDownloader{data: []byte("image-bytes"), contentType: "image/jpeg"}
		extractor = &mockExtractor{rec: &extraction.ReceiptRecord{Valid: true, Legible: true}}
		pending = newMockPending()
		reconciler = &mockReconciler{outcome: &reconcile.Outcome{Action: reconcile.ActionRegisterPayment}}
		notifier = &mockNotifier{}
		service = NewService(downloader, extractor, pending, reconciler, notifier)
	})

	Describe("HandleImage", func() {
		It("downloads, archives, extracts and reconciles", func() {
			outcome, err := service.HandleImage(context.Background(), "51987654321", "media-1")
			Expect(err).NotTo(HaveOccurred())
			Expect(outcome.Action).To(Equal(reconcile.ActionRegisterPayment))

			Expect(pending.saved).To(HaveKey("media-1.jpg"))
			Expect(reconciler.calls).To(Equal(1))
			Expect(reconciler.phone).To(Equal("51987654321"))
			Expect(reconciler.ref).To(Equal("media-1.jpg"))
			Expect(reconciler.rec.Valid).To(BeTrue())
		})

		It("names the saved file after the media and the content type", func() {
			downloader.contentType = "image/png"
			_, err := service.HandleImage(context.Background(), "51987654321", "media-2")
			Expect(err).NotTo(HaveOccurred())
			Expect(pending.saved).To(HaveKey("media-2.png"))
		})

		When("the download fails", func() {
			BeforeEach(func() {
				downloader.err = errors.New("network error")
			})

			It("notifies the customer and returns the error", func() {
				_, err := service.HandleImage(context.Background(), "51987654321", "media-1")
				Expect(err).To(HaveOccurred())
				Expect(notifier.sent).To(ContainElement(msgDownloadFailed))
				Expect(reconciler.calls).To(BeZero())
			})
		})

		When("the archive write fails", func() {
			BeforeEach(func() {
				pending.err = errors.New("disk full")
			})

			It("returns the error without reconciling", func() {
				_, err := service.HandleImage(context.Background(), "51987654321", "media-1")
				Expect(err).To(HaveOccurred())
				Expect(reconciler.calls).To(BeZero())
			})
		})

		When("extraction fails", func() {
			BeforeEach(func() {
				extractor.err = errors.New("vision api down")
			})

			It("reconciles an invalid record so the customer still gets an answer", func() {
				_, err := service.HandleImage(context.Background(), "51987654321", "media-1")
				Expect(err).NotTo(HaveOccurred())
				Expect(reconciler.calls).To(Equal(1))
				Expect(reconciler.rec.Valid).To(BeFalse())
				Expect(reconciler.rec.Legible).To(BeFalse())
			})
		})
	})

	Describe("HandleText", func() {
		It("answers with usage instructions", func() {
			service.HandleText(context.Background(), "51987654321")
			Expect(notifier.sent).To(ContainElement(msgGreeting))
		})
	})

	Describe("HandleUnsupported", func() {
		It("explains only images are processed", func() {
			service.HandleUnsupported(context.Background(), "51987654321")
			Expect(notifier.sent).To(ContainElement(msgUnsupported))
		})
	})
})
