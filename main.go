// ghosttext is a language server that provides inline code suggestions
// from the Beacon completion service, with right-context aware merging
// and session-level usage telemetry.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"ghosttext/engine"
	"ghosttext/logger"
	"ghosttext/lsp"
	"ghosttext/provider"
	"ghosttext/session"
	"ghosttext/telemetry"
)

func main() {
	if err := rootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCommand() *cobra.Command {
	var (
		port     int
		logFile  string
		logLevel string
		stateDir string

		providerType string
		apiURL       string
		apiKey       string
		timeoutMs    int
		staticPath   string

		maxResults        int
		includeReferences bool
		includeImports    bool
		workspaceID       string
	)

	cmd := &cobra.Command{
		Use:   "ghosttext [flags]",
		Short: "Start the ghosttext completion language server",
		Long: `Start a language server that serves inline code suggestions.

Transport modes:
  (default)    Use stdin/stdout for LSP communication
  --port N     Listen for an LSP client on TCP port N`,
		Args: cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return run(serverConfig{
				port:              port,
				logFile:           logFile,
				logLevel:          logLevel,
				stateDir:          stateDir,
				providerType:      provider.Type(providerType),
				apiURL:            apiURL,
				apiKey:            apiKey,
				timeoutMs:         timeoutMs,
				staticPath:        staticPath,
				maxResults:        maxResults,
				includeReferences: includeReferences,
				includeImports:    includeImports,
				workspaceID:       workspaceID,
			})
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&port, "port", 0, "TCP port for LSP server (default is stdio)")
	flags.StringVar(&logFile, "log-file", "", "log file path (default stateDir/ghosttext.log, stderr if no state dir)")
	flags.StringVar(&logLevel, "log-level", "info", "log level: trace, debug, info, warn, error")
	flags.StringVar(&stateDir, "state-dir", defaultStateDir(), "directory for persistent state (device id, logs)")
	flags.StringVar(&providerType, "provider", string(provider.TypeBeacon), "suggestion provider: beacon or static")
	flags.StringVar(&apiURL, "api-url", "", "Beacon API base URL (default production endpoint)")
	flags.StringVar(&apiKey, "api-key", os.Getenv("GHOSTTEXT_API_KEY"), "Beacon API key (or GHOSTTEXT_API_KEY)")
	flags.IntVar(&timeoutMs, "timeout-ms", 2000, "completion request timeout in milliseconds")
	flags.StringVar(&staticPath, "static-suggestions", "", "suggestions file for the static provider")
	flags.IntVar(&maxResults, "max-results", 5, "maximum suggestions per request")
	flags.BoolVar(&includeReferences, "include-references", false, "include suggestions that carry code references")
	flags.BoolVar(&includeImports, "include-imports", false, "include missing-import hints with suggestions")
	flags.StringVar(&workspaceID, "workspace-id", "", "workspace identifier sent with requests")

	return cmd
}

type serverConfig struct {
	port     int
	logFile  string
	logLevel string
	stateDir string

	providerType provider.Type
	apiURL       string
	apiKey       string
	timeoutMs    int
	staticPath   string

	maxResults        int
	includeReferences bool
	includeImports    bool
	workspaceID       string
}

func run(cfg serverConfig) error {
	if err := setupLogger(cfg); err != nil {
		return err
	}

	deviceID := loadOrCreateDeviceID(cfg.stateDir)

	prov, err := provider.New(cfg.providerType, &provider.Config{
		APIURL:     cfg.apiURL,
		APIKey:     cfg.apiKey,
		TimeoutMs:  cfg.timeoutMs,
		DeviceID:   deviceID,
		StaticPath: cfg.staticPath,
	})
	if err != nil {
		return fmt.Errorf("failed to create provider: %w", err)
	}

	// The beacon provider doubles as the telemetry sink; other providers
	// run without telemetry.
	var sender telemetry.Sender = telemetry.NopSender{}
	if s, ok := prov.(telemetry.Sender); ok {
		sender = s
	}

	docs := lsp.NewDocumentStore()
	tracker := telemetry.NewCodeDiffTracker(sender, docs.Text)

	eng := engine.New(prov, session.NewManager(), sender, tracker, engine.Config{
		CompletionTimeout:                    time.Duration(cfg.timeoutMs) * time.Millisecond,
		MaxResults:                           cfg.maxResults,
		IncludeSuggestionsWithCodeReferences: cfg.includeReferences,
		IncludeImportsWithSuggestions:        cfg.includeImports,
		WorkspaceID:                          cfg.workspaceID,
	})

	trackerCtx, stopTracker := context.WithCancel(context.Background())
	defer stopTracker()
	go tracker.Run(trackerCtx, time.Minute)

	srv := lsp.New(eng, docs)

	if cfg.port > 0 {
		addr := fmt.Sprintf("localhost:%d", cfg.port)
		logger.Info("ghosttext listening on %s", addr)
		return srv.RunTCP(addr)
	}
	logger.Info("ghosttext serving on stdio")
	return srv.RunStdio()
}

// setupLogger installs the process logger. With stdio transport, stdout
// belongs to the protocol, so file logging is the default whenever a
// state dir exists.
func setupLogger(cfg serverConfig) error {
	level := logger.ParseLevel(cfg.logLevel)

	path := cfg.logFile
	if path == "" && cfg.stateDir != "" {
		if err := os.MkdirAll(cfg.stateDir, 0755); err != nil {
			return fmt.Errorf("failed to create state dir: %w", err)
		}
		path = filepath.Join(cfg.stateDir, "ghosttext.log")
	}
	if path == "" {
		logger.New(os.Stderr, level)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logger.New(f, level)
	return nil
}

func defaultStateDir() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "ghosttext")
}
