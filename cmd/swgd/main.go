package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/haukened/swgd/internal/swg/common/clock"
	"github.com/haukened/swgd/internal/swg/common/log"
	"github.com/haukened/swgd/internal/swg/config"
	"github.com/haukened/swgd/internal/swg/gateways/classifier"
	"github.com/haukened/swgd/internal/swg/gateways/proxy"
	"github.com/haukened/swgd/internal/swg/repos/audit"
	auditbolt "github.com/haukened/swgd/internal/swg/repos/audit/bolt"
	"github.com/haukened/swgd/internal/swg/repos/blockpage"
	"github.com/haukened/swgd/internal/swg/repos/categorystore"
	"github.com/haukened/swgd/internal/swg/repos/policystore"
	"github.com/haukened/swgd/internal/swg/services/engine"
)

const (
	version = "0.1.0-dev"
	appName = "swgd"
)

// Application holds all the components of the gateway.
type Application struct {
	config    *config.AppConfig
	transport engine.Transport
	engine    *engine.Engine
	audit     audit.Log
}

func main() {
	// Load configuration from environment
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Configuration error: %v\n", err)
		os.Exit(1)
	}

	// Configure global logging
	if err := log.Configure(cfg.Env, cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "Logging configuration error: %v\n", err)
		os.Exit(1)
	}

	log.Info(map[string]any{
		"version":     version,
		"env":         cfg.Env,
		"log_level":   cfg.LogLevel,
		"port":        cfg.Port,
		"cache_file":  cfg.CacheFile,
		"policy_file": cfg.PolicyFile,
		"model":       cfg.Model,
	}, "Starting swgd")

	app, err := buildApplication(cfg)
	if err != nil {
		log.Fatal(map[string]any{"error": err}, "Failed to build application")
	}

	// Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig := <-sigChan
		log.Info(map[string]any{"signal": sig.String()}, "Shutdown signal received")
		cancel()
	}()

	if err := app.Run(ctx); err != nil {
		log.Fatal(map[string]any{"error": err}, "Gateway failed")
	}

	log.Info(nil, "swgd stopped gracefully")
}

// repositories holds all repository implementations.
type repositories struct {
	categories *categorystore.Store
	policies   *policystore.Store
	blockPage  *blockpage.Page
	audit      audit.Log
}

// buildApplication constructs all components and wires them together.
func buildApplication(cfg *config.AppConfig) (*Application, error) {
	clk := clock.RealClock{}
	logger := log.GetLogger()

	repos, err := buildRepositories(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build repositories: %w", err)
	}

	gemini, err := classifier.New(classifier.Options{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.ClassifierTimeout,
		Clock:   clk,
		Logger:  logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build classifier: %w", err)
	}

	engineService := engine.New(engine.Options{
		Categories: repos.categories,
		Policies:   repos.policies,
		Classifier: gemini,
		BlockPage:  repos.blockPage,
		Audit:      repos.audit,
		Clock:      clk,
		Logger:     logger,
	})

	// Backfill policy entries for any categories restored from disk so no
	// orphan category exists at decision time.
	if err := engineService.Reconcile(); err != nil {
		return nil, fmt.Errorf("failed to reconcile policy store: %w", err)
	}

	transport, err := buildTransport(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build transport: %w", err)
	}

	return &Application{
		config:    cfg,
		transport: transport,
		engine:    engineService,
		audit:     repos.audit,
	}, nil
}

// buildRepositories creates and configures all repository implementations.
func buildRepositories(cfg *config.AppConfig, logger log.Logger) (*repositories, error) {
	categories, err := categorystore.New(categorystore.Options{
		Path:   cfg.CacheFile,
		Strict: cfg.StrictCache,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load category cache: %w", err)
	}
	log.Info(map[string]any{
		"path":    cfg.CacheFile,
		"entries": categories.Len(),
	}, "Category cache loaded")

	policies, err := policystore.New(policystore.Options{
		Path:   cfg.PolicyFile,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load policy file: %w", err)
	}
	log.Info(map[string]any{
		"path":    cfg.PolicyFile,
		"entries": policies.Len(),
		"blocked": policies.Blocked(),
	}, "Policy file loaded")

	page := blockpage.Load(cfg.BlockPageFile, logger)

	var auditLog audit.Log = audit.NopLog{}
	if cfg.AuditDB != "" {
		auditLog, err = auditbolt.New(cfg.AuditDB)
		if err != nil {
			return nil, fmt.Errorf("failed to open audit database: %w", err)
		}
		log.Info(map[string]any{"path": cfg.AuditDB}, "Decision audit log enabled")
	}

	return &repositories{
		categories: categories,
		policies:   policies,
		blockPage:  page,
		audit:      auditLog,
	}, nil
}

// buildTransport creates the interception proxy front end.
func buildTransport(cfg *config.AppConfig, logger log.Logger) (engine.Transport, error) {
	var caCert, caKey []byte
	if cfg.CACertFile != "" {
		var err error
		caCert, err = os.ReadFile(cfg.CACertFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA certificate: %w", err)
		}
		caKey, err = os.ReadFile(cfg.CAKeyFile)
		if err != nil {
			return nil, fmt.Errorf("reading CA key: %w", err)
		}
	}

	return proxy.New(proxy.Options{
		Addr:   fmt.Sprintf(":%d", cfg.Port),
		CACert: caCert,
		CAKey:  caKey,
		Logger: logger,
	})
}

// Run starts the gateway and blocks until the context is cancelled.
func (app *Application) Run(ctx context.Context) error {
	if err := app.transport.Start(ctx, app.engine); err != nil {
		return fmt.Errorf("failed to start interception proxy: %w", err)
	}

	log.Info(map[string]any{
		"address": app.transport.Address(),
	}, "Gateway started")

	<-ctx.Done()

	log.Info(nil, "Shutdown initiated")

	if err := app.transport.Stop(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error during transport shutdown")
	}
	if err := app.audit.Close(); err != nil {
		log.Warn(map[string]any{"error": err}, "Error closing audit log")
	}
	return nil
}
