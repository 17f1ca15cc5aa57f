package main

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/peterbourgon/ff/v4"
	"github.com/peterbourgon/ff/v4/ffhelp"

	"github.com/wisperu/payment-bot/internal/archive"
	"github.com/wisperu/payment-bot/internal/bot"
	"github.com/wisperu/payment-bot/internal/reconcile"
	"github.com/wisperu/payment-bot/internal/scanning"
	"github.com/wisperu/payment-bot/internal/transaction"
	"github.com/wisperu/payment-bot/internal/whatsapp"
	"github.com/wisperu/payment-bot/internal/wisphub"
)

//go:embed VERSION.txt
var versionFile string

var version = strings.TrimSpace(versionFile)

func main() {
	// Check for version flag before parsing other flags
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" || arg == "-v" {
			fmt.Println(version)
			os.Exit(0)
		}
	}

	// Local development keeps credentials in a .env file; absence is fine.
	if err := godotenv.Load(); err == nil {
		slog.Info("Loaded environment from .env")
	}

	fs := ff.NewFlagSet("payment-bot")
	var (
		port          = fs.IntLong("port", 5000, "HTTP server port")
		dbPath        = fs.StringLong("db", "payment-bot.db", "Database file path")
		archivePath   = fs.StringLong("archive", "./receipts", "Receipt image archive directory")
		extractorType = fs.StringLong("extractor", "gemini", "Extractor type: 'gemini' or 'ollama'")
		geminiKey     = fs.StringLong("gemini-key", "", "Google Gemini API key (or set GEMINI_API_KEY env var)")
		geminiModel   = fs.StringLong("gemini-model", "gemini-2.5-pro", "Google Gemini model name")
		ollamaURL     = fs.StringLong("ollama-url", "http://localhost:11434", "Ollama API base URL")
		ollamaModel   = fs.StringLong("ollama-model", "llava", "Ollama model name (e.g., llava, llava-phi3, bakllava, qwen2-vl)")
		wisphubURL    = fs.StringLong("wisphub-url", "https://api.wisphub.net", "WispHub API base URL")
		wisphubToken  = fs.StringLong("wisphub-token", "", "WispHub API token")
		graphURL      = fs.StringLong("whatsapp-graph-url", "", "Meta Graph API base URL (default production)")
		phoneNumberID = fs.StringLong("whatsapp-phone-id", "", "WhatsApp business phone number ID")
		whatsappToken = fs.StringLong("whatsapp-token", "", "WhatsApp Cloud API access token")
		verifyToken   = fs.StringLong("whatsapp-verify-token", "", "Webhook verification token")
		showVersion   = fs.BoolLong("version", "Show version information")
	)

	if err := ff.Parse(fs, os.Args[1:],
		ff.WithEnvVarPrefix("PAYMENT_BOT"),
	); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", ffhelp.Flags(fs))
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	// Check version flag after parsing
	if *showVersion {
		fmt.Println(version)
		os.Exit(0)
	}

	if *wisphubToken == "" {
		slog.Error("WispHub token is required. Set --wisphub-token flag or PAYMENT_BOT_WISPHUB_TOKEN environment variable")
		os.Exit(1)
	}
	if *whatsappToken == "" || *phoneNumberID == "" {
		slog.Error("WhatsApp credentials are required. Set --whatsapp-token and --whatsapp-phone-id")
		os.Exit(1)
	}

	// Initialize database
	slog.Info("Initializing database...")
	db, err := transaction.NewBoltDB(*dbPath)
	if err != nil {
		slog.Error("Failed to initialize database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Initialize extractor based on type
	var extractor scanning.Extractor
	switch *extractorType {
	case "gemini":
		// Get Gemini API key from flag or environment
		apiKey := *geminiKey
		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}
		if apiKey == "" {
			slog.Error("Gemini API key is required. Set --gemini-key flag or GEMINI_API_KEY environment variable")
			os.Exit(1)
		}
		slog.Info("Initializing Gemini extractor...", "model", *geminiModel)
		extractor, err = scanning.NewGemini(apiKey, *geminiModel)
		if err != nil {
			slog.Error("Failed to initialize Gemini", "error", err)
			os.Exit(1)
		}
	case "ollama":
		slog.Info("Initializing Ollama extractor...", "url", *ollamaURL, "model", *ollamaModel)
		extractor, err = scanning.NewOllama(*ollamaURL, *ollamaModel)
		if err != nil {
			slog.Error("Failed to initialize Ollama", "error", err)
			os.Exit(1)
		}
	default:
		slog.Error("Invalid extractor type", "type", *extractorType, "valid", "gemini or ollama")
		os.Exit(1)
	}
	defer extractor.Close()

	// Initialize the image archive
	slog.Info("Initializing receipt archive...", "path", *archivePath)
	images, err := archive.NewLocal(*archivePath)
	if err != nil {
		slog.Error("Failed to initialize archive", "error", err)
		os.Exit(1)
	}

	wisphubClient := wisphub.NewClient(*wisphubURL, *wisphubToken)
	whatsappClient := whatsapp.NewClient(*graphURL, *phoneNumberID, *whatsappToken)

	engine := reconcile.NewEngine(db, wisphubClient, wisphubClient, whatsappClient, images)
	service := bot.NewService(whatsappClient, extractor, images, engine, whatsappClient)
	server := bot.NewServer(service, *verifyToken)

	// Start server in goroutine
	addr := fmt.Sprintf(":%d", *port)
	go func() {
		if err := server.Start(addr); err != nil {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	slog.Info("Server started", "address", fmt.Sprintf("http://localhost%s", addr))

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("Shutting down...")
}
