// Command assistant runs the WhatsApp AI assistant: an HTTP webhook that
// receives Twilio messages, drives a tool-calling conversation engine and
// sends the replies back.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/go-chi/httplog/v2"

	"github.com/GonzaGomezDev/whatsapp-ai-assistant/checkpoint/sqlite"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/config"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/core"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/engine"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/history"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/logging"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/model"
	anthropicmodel "github.com/GonzaGomezDev/whatsapp-ai-assistant/model/anthropic"
	openaimodel "github.com/GonzaGomezDev/whatsapp-ai-assistant/model/openai"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/notify"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tool"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/tools"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/transcribe"
	"github.com/GonzaGomezDev/whatsapp-ai-assistant/webhook"
)

const defaultInstructions = `You are a personal assistant reachable over WhatsApp.
Today's date is %s.
Answer concisely, use your tools when they help, and reply in the language the user writes in.`

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(os.Stdout, cfg.LogLevel, cfg.LogFormat)

	checkpoints, err := sqlite.New(cfg.DatabasePath, logger)
	if err != nil {
		return fmt.Errorf("opening checkpoint store: %w", err)
	}
	defer checkpoints.Close()

	messages, err := history.NewSQLiteStoreFromDB(checkpoints.DB(), logger)
	if err != nil {
		return fmt.Errorf("opening history store: %w", err)
	}

	registry := buildRegistry(cfg, logger)
	m, err := buildModel(cfg)
	if err != nil {
		return err
	}
	logger.Info("model configured", "provider", m.Info().Provider, "name", m.Info().Name)

	instructions := cfg.Instructions
	if instructions == "" {
		instructions = fmt.Sprintf(defaultInstructions, time.Now().Format("2006-01-02"))
	}

	loader := history.NewLoader(messages)
	eng := engine.New(m, registry, checkpoints, engine.Options{
		Instructions:  instructions,
		MaxToolCycles: cfg.MaxToolCycles,
		TurnTimeout:   cfg.TurnTimeout,
		HistoryLimit:  cfg.HistoryLimit,
		History: func(ctx context.Context, threadID string, limit int) ([]core.Message, error) {
			// History is keyed by the user's address on one side; the bot's
			// address varies per channel, so match any counterparty.
			return loader.Recent(ctx, threadID, "", limit)
		},
		Logger: logger,
	})

	var transcriber transcribe.Transcriber
	if cfg.OpenAIAPIKey != "" {
		transcriber = transcribe.NewWhisperTranscriber(cfg.OpenAIAPIKey, logger)
	}

	handler := webhook.NewHandler(webhook.Options{
		Runner:           eng,
		Notifier:         notify.NewTwilioNotifier(cfg.TwilioAccountSID, cfg.TwilioAuthToken, logger),
		History:          messages,
		Transcriber:      transcriber,
		TwilioAccountSID: cfg.TwilioAccountSID,
		TwilioAuthToken:  cfg.TwilioAuthToken,
		Logger:           logger,
		HTTPLogger: httplog.NewLogger("assistant", httplog.Options{
			LogLevel: logging.ParseLevel(cfg.LogLevel),
			JSON:     cfg.LogFormat == "json",
			Concise:  true,
		}),
	})

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-stop:
		logger.Info("shutting down", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

func buildModel(cfg *config.Config) (model.Model, error) {
	switch cfg.ModelProvider {
	case config.ProviderOpenAI:
		return openaimodel.NewModel(func(o *openaimodel.Options) {
			o.APIKey = cfg.OpenAIAPIKey
			if cfg.ModelName != "" {
				o.Model = cfg.ModelName
			}
		}), nil
	case config.ProviderAnthropic:
		return anthropicmodel.NewModel(func(o *anthropicmodel.Options) {
			o.APIKey = cfg.AnthropicAPIKey
			if cfg.ModelName != "" {
				o.Model = anthropic.Model(cfg.ModelName)
			}
		}), nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.ModelProvider)
	}
}

func buildRegistry(cfg *config.Config, logger logging.Logger) *tool.Registry {
	registry := tool.NewRegistry()

	if cfg.GoogleCalendarToken != "" {
		calendar := tools.NewGoogleCalendarClient(cfg.GoogleCalendarID, cfg.GoogleCalendarToken, logger)
		registry.MustRegister(
			tools.NewCreateCalendarEventTool(calendar),
			tools.NewGetCalendarEventsTool(calendar),
			tools.NewDeleteCalendarEventTool(calendar),
		)
	} else {
		logger.Warn("GOOGLE_CALENDAR_TOKEN not set, calendar tools disabled")
	}

	if cfg.TavilyAPIKey != "" {
		registry.MustRegister(tools.NewWebSearchTool(tools.NewTavilyClient(cfg.TavilyAPIKey, logger)))
	} else {
		logger.Warn("TAVILY_API_KEY not set, web search disabled")
	}

	return registry
}
