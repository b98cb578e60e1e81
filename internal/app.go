// Package internal provides the App struct that wires all components of the
// Confluence Assistant together and initializes the CLI layer.
package internal

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/valter-silva-au/confluence-assistant/internal/bridge"
	"github.com/valter-silva-au/confluence-assistant/internal/cli"
	"github.com/valter-silva-au/confluence-assistant/internal/config"
	"github.com/valter-silva-au/confluence-assistant/internal/intent"
	"github.com/valter-silva-au/confluence-assistant/internal/llm"
	"github.com/valter-silva-au/confluence-assistant/internal/observability"
	"github.com/valter-silva-au/confluence-assistant/internal/orchestrator"
	"github.com/valter-silva-au/confluence-assistant/internal/storage"
)

// App holds all service dependencies for the Confluence Assistant.
type App struct {
	BasePath string
	Config   *config.Config
	Logger   *zap.Logger

	// Transport and model services
	Bridge     *bridge.Client
	Completer  *llm.GeminiCompleter
	Parser     *intent.Parser
	Summarizer *llm.Summarizer

	// Core
	Orchestrator *orchestrator.Orchestrator

	// Persistence
	EventLog    observability.EventLog
	Transcripts storage.TranscriptStore
}

// NewApp creates and wires all components. The bridge subprocess is not
// started here; commands that need it open it through cli.OpenBridge.
// basePath is the directory where the event log and transcripts live.
func NewApp(ctx context.Context, cfg *config.Config, basePath string) (*App, error) {
	app := &App{BasePath: basePath, Config: cfg}

	// --- Logging ---
	logCfg := zap.NewProductionConfig()
	if cfg.Debug {
		logCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
	}
	logger, err := logCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("initializing logger: %w", err)
	}
	app.Logger = logger

	// --- Observability ---
	eventLogPath := filepath.Join(basePath, ".cfa_events.jsonl")
	app.EventLog, err = observability.NewJSONLEventLog(eventLogPath)
	if err != nil {
		// Non-fatal: disable request events if the log can't be created.
		logger.Warn("event log disabled", zap.Error(err))
		app.EventLog = nil
	}

	// --- Transcript store ---
	app.Transcripts = storage.NewTranscriptStore(basePath)
	_ = app.Transcripts.Load() // Non-fatal: empty store on first use.

	// --- Model services ---
	app.Completer, err = llm.NewGeminiCompleter(ctx, cfg.GoogleAPIKey, cfg.GeminiModel)
	if err != nil {
		return nil, fmt.Errorf("initializing model client: %w", err)
	}
	app.Parser = intent.NewParser(app.Completer, app.Completer.Model(), logger)
	app.Summarizer = llm.NewSummarizer(app.Completer, cfg.MaxContentLength)

	// --- Bridge transport ---
	app.Bridge = bridge.NewClient(cfg.BridgeCommand(), logger)

	// --- Core ---
	app.Orchestrator = orchestrator.New(app.Parser, app.Bridge, app.Summarizer, logger, app.EventLog)

	// --- Wire CLI package-level variables ---
	cli.Cfg = cfg
	cli.Handler = app.Orchestrator
	cli.Bridge = app.Bridge
	cli.OpenBridge = app.Bridge.Open
	cli.EventLog = app.EventLog
	cli.Transcripts = app.Transcripts
	cli.ParserStats = app.Parser.Stats

	return app, nil
}

// Close releases resources held by the App: the bridge subprocess and the
// event log file handle. Safe to call when either was never opened.
func (a *App) Close() error {
	var firstErr error
	if a.Bridge != nil {
		if err := a.Bridge.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.EventLog != nil {
		if err := a.EventLog.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if a.Logger != nil {
		_ = a.Logger.Sync()
	}
	return firstErr
}

// ResolveBasePath determines the directory for assistant data. It honors
// CFA_HOME, then falls back to ~/.cfa, then the current directory.
func ResolveBasePath() string {
	if home := os.Getenv("CFA_HOME"); home != "" {
		return home
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".cfa")
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return cwd
}
