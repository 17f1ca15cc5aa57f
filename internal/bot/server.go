package bot

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"github.com/wisperu/payment-bot/internal/whatsapp"
)

// Server exposes the WhatsApp webhook and health endpoints.
type Server struct {
	service     *Service
	verifyToken string
	mux         *http.ServeMux
}

// NewServer creates a new Server with default mux
func NewServer(service *Service, verifyToken string) *Server {
	return NewServerWithMux(service, verifyToken, http.NewServeMux())
}

// NewServerWithMux creates a new Server with a custom mux for testing
func NewServerWithMux(service *Service, verifyToken string, mux *http.ServeMux) *Server {
	s := &Server{
		service:     service,
		verifyToken: verifyToken,
		mux:         mux,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /webhook", s.handleVerify)
	s.mux.HandleFunc("POST /webhook", s.handleWebhook)
	s.mux.HandleFunc("GET /health", s.handleHealth)
}

// handleVerify answers Meta's subscription handshake.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	challenge, ok := whatsapp.VerifySubscription(
		query.Get("hub.mode"),
		query.Get("hub.verify_token"),
		query.Get("hub.challenge"),
		s.verifyToken,
	)
	if !ok {
		slog.Warn("Webhook verification failed")
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	slog.Info("Webhook verified successfully")
	w.Write([]byte(challenge))
}

// handleWebhook receives incoming WhatsApp notifications. Meta retries
// deliveries on non-2xx answers, so parse problems after a well-formed body
// still answer 200.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Error reading body", http.StatusBadRequest)
		return
	}

	message, err := whatsapp.ParsePayload(body)
	if err != nil {
		slog.Error("Error parsing webhook payload", "error", err)
		writeJSON(w, map[string]string{"error": "invalid payload"}, http.StatusBadRequest)
		return
	}
	if message == nil {
		writeJSON(w, map[string]string{"status": "no_message"}, http.StatusOK)
		return
	}

	ctx := r.Context()
	switch message.Type {
	case whatsapp.MessageTypeImage:
		outcome, err := s.service.HandleImage(ctx, message.Phone, message.MediaID)
		if err != nil {
			writeJSON(w, map[string]string{"status": "download_failed"}, http.StatusOK)
			return
		}
		writeJSON(w, map[string]any{"status": "processed", "result": outcome}, http.StatusOK)

	case whatsapp.MessageTypeText:
		s.service.HandleText(ctx, message.Phone)
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)

	default:
		s.service.HandleUnsupported(ctx, message.Phone)
		writeJSON(w, map[string]string{"status": "ok"}, http.StatusOK)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok", "service": "payment-bot"}, http.StatusOK)
}

func writeJSON(w http.ResponseWriter, v any, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// Start starts the HTTP server
func (s *Server) Start(addr string) error {
	slog.Info("Starting server", "address", addr)
	return http.ListenAndServe(addr, s.mux)
}

// ServeHTTP implements http.Handler for testing
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}
