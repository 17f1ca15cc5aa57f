package bot

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/onsi/gomega/ghttp"

	"github.com/wisperu/payment-bot/internal/extraction"
	"github.com/wisperu/payment-bot/internal/reconcile"
)

var _ = Describe("Server", func() {
	var (
		downloader  *mockDownloader
		extractor   *mockExtractor
		pending     *mockPending
		reconciler  *mockReconciler
		notifier    *mockNotifier
		service     *Service
		server      *Server
		ghttpServer *ghttp.Server
	)

	BeforeEach(func() {
		downloader = &mockDownloader{data: []byte("image-bytes"), contentType: "image/jpeg"}
		extractor = &mockExtractor{rec: &extraction.ReceiptRecord{Valid: true, Legible: true}}
		pending = newMockPending()
		reconciler = &mockReconciler{outcome: &reconcile.Outcome{Action: reconcile.ActionRegisterPayment}}
		notifier = &mockNotifier{}
		service = NewService(downloader, extractor, pending, reconciler, notifier)
		server = NewServerWithMux(service, "secret-token", http.NewServeMux())

		ghttpServer = ghttp.NewServer()
		ghttpServer.AppendHandlers(server.ServeHTTP)
	})

	AfterEach(func() {
		ghttpServer.Close()
	})

	Describe("GET /webhook", func() {
		When("the verification token matches", func() {
			It("echoes the challenge", func() {
				resp, err := http.Get(ghttpServer.URL() + "/webhook?hub.mode=subscribe&hub.verify_token=secret-token&hub.challenge=12345")
				Expect(err).NotTo(HaveOccurred())
				defer resp.Body.Close()

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				body, err := io.ReadAll(resp.Body)
				Expect(err).NotTo(HaveOccurred())
				Expect(string(body)).To(Equal("12345"))
			})
		})

		When("the token does not match", func() {
			It("answers forbidden", func() {
				resp, err := http.Get(ghttpServer.URL() + "/webhook?hub.mode=subscribe&hub.verify_token=wrong&hub.challenge=12345")
				Expect(err).NotTo(HaveOccurred())
				resp.Body.Close()
				Expect(resp.StatusCode).To(Equal(http.StatusForbidden))
			})
		})
	})

	Describe("POST /webhook", func() {
		post := func(payload string) (*http.Response, map[string]any) {
			resp, err := http.Post(ghttpServer.URL()+"/webhook", "application/json", bytes.NewBufferString(payload))
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			var decoded map[string]any
			Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
			return resp, decoded
		}

		When("an image message arrives", func() {
			It("processes the receipt and returns the outcome", func() {
				resp, decoded := post(`{
					"entry": [{"changes": [{"value": {"messages": [{
						"from": "51987654321",
						"type": "image",
						"image": {"id": "media-1"}
					}]}}]}]
				}`)

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decoded["status"]).To(Equal("processed"))
				Expect(reconciler.calls).To(Equal(1))

				result := decoded["result"].(map[string]any)
				Expect(result["action"]).To(Equal("register_payment"))
			})
		})

		When("the image download fails", func() {
			BeforeEach(func() {
				downloader.err = io.ErrUnexpectedEOF
			})

			It("reports download_failed but still answers 200", func() {
				resp, decoded := post(`{
					"entry": [{"changes": [{"value": {"messages": [{
						"from": "51987654321",
						"type": "image",
						"image": {"id": "media-1"}
					}]}}]}]
				}`)

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decoded["status"]).To(Equal("download_failed"))
			})
		})

		When("a text message arrives", func() {
			It("sends the greeting", func() {
				resp, decoded := post(`{
					"entry": [{"changes": [{"value": {"messages": [{
						"from": "51987654321",
						"type": "text",
						"text": {"body": "hola"}
					}]}}]}]
				}`)

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decoded["status"]).To(Equal("ok"))
				Expect(notifier.sent).To(ContainElement(msgGreeting))
			})
		})

		When("an unsupported message type arrives", func() {
			It("explains only images are processed", func() {
				resp, decoded := post(`{
					"entry": [{"changes": [{"value": {"messages": [{
						"from": "51987654321",
						"type": "audio"
					}]}}]}]
				}`)

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decoded["status"]).To(Equal("ok"))
				Expect(notifier.sent).To(ContainElement(msgUnsupported))
			})
		})

		When("the notification is a status update", func() {
			It("acknowledges without processing", func() {
				resp, decoded := post(`{"entry": [{"changes": [{"value": {"statuses": [{"status": "delivered"}]}}]}]}`)

				Expect(resp.StatusCode).To(Equal(http.StatusOK))
				Expect(decoded["status"]).To(Equal("no_message"))
				Expect(reconciler.calls).To(BeZero())
			})
		})

		When("the body is not JSON", func() {
			It("answers bad request", func() {
				resp, _ := post(`not json`)
				Expect(resp.StatusCode).To(Equal(http.StatusBadRequest))
			})
		})
	})

	Describe("GET /health", func() {
		It("reports the service is up", func() {
			resp, err := http.Get(ghttpServer.URL() + "/health")
			Expect(err).NotTo(HaveOccurred())
			defer resp.Body.Close()

			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			var decoded map[string]string
			Expect(json.NewDecoder(resp.Body).Decode(&decoded)).To(Succeed())
			Expect(decoded["status"]).To(Equal("ok"))
			Expect(decoded["service"]).To(Equal("payment-bot"))
		})
	})
})
