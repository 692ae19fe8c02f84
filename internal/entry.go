// Package internal provides the main application initialization and runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/starford/foldertags/internal/api"
	"github.com/starford/foldertags/internal/events"
	"github.com/starford/foldertags/internal/index"
	"github.com/starford/foldertags/internal/intake"
	"github.com/starford/foldertags/internal/mcpserver"
	"github.com/starford/foldertags/internal/prompt"
	"github.com/starford/foldertags/internal/reconcile"
	"github.com/starford/foldertags/internal/sse"
	"github.com/starford/foldertags/internal/storage"
	"github.com/starford/foldertags/internal/tagservice"
	"github.com/starford/foldertags/internal/tagstore"
)

// runtime holds the collaborators every command needs.
type runtime struct {
	cfg    *Config
	logger *slog.Logger
	store  *storage.FS
	db     *index.DB
	blob   tagstore.Blob
}

func setup(opts []Option) (*runtime, error) {
	app := &application{logOutput: os.Stdout}

	for _, opt := range opts {
		opt(app)
	}

	if app.config == nil {
		return nil, fmt.Errorf("config is required")
	}

	cfg := app.config

	// Initialize structured JSON logger.
	logger := slog.New(slog.NewJSONHandler(app.logOutput, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("vault_path", cfg.Vault.Path),
		slog.String("sqlite_path", cfg.SQLite.Path),
		slog.String("state_backend", cfg.State.Backend),
		slog.String("prompter", cfg.Reconcile.Prompter),
		slog.String("log_level", cfg.App.LogLevel.String()))

	// Ensure vault directory exists.
	if err := os.MkdirAll(cfg.Vault.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create vault dir: %w", err)
	}

	// Initialize storage.
	store, err := storage.NewFS(cfg.Vault.Path)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	// Initialize SQLite index.
	db, err := index.Open(cfg.SQLite.Path)
	if err != nil {
		return nil, fmt.Errorf("init index: %w", err)
	}

	rt := &runtime{cfg: cfg, logger: logger, store: store, db: db}
	switch cfg.State.Backend {
	case StateBackendFile:
		rt.blob = tagstore.FileBlob{Path: cfg.State.Path}
	default:
		rt.blob = db.StateBlob(cfg.State.Path)
	}
	return rt, nil
}

func (rt *runtime) service(ctx context.Context, opts ...tagservice.Option) *tagservice.Service {
	return tagservice.New(ctx, rt.store, rt.blob, rt.cfg.Tagging.Settings(), rt.logger, opts...)
}

// Service opens the vault and returns the tagging service for one-shot
// commands. The returned close function releases the index.
func Service(ctx context.Context, opts ...Option) (*tagservice.Service, func() error, error) {
	rt, err := setup(opts)
	if err != nil {
		return nil, nil, err
	}
	return rt.service(ctx), rt.db.Close, nil
}

// RunMCP serves the tagging tools over MCP stdio until stdin closes.
func RunMCP(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	if _, err := index.Sync(ctx, rt.db, rt.store, rt.logger); err != nil {
		rt.logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}
	return mcpserver.New(rt.service(ctx), rt.db).ServeStdio()
}

// Run starts the application with the given options.
func Run(ctx context.Context, opts ...Option) error {
	rt, err := setup(opts)
	if err != nil {
		return err
	}
	defer rt.db.Close()

	cfg, logger := rt.cfg, rt.logger

	// Run initial sync. It emits no events, so nothing is reconciled or
	// queued for intake while the vault loads.
	if _, err := index.Sync(ctx, rt.db, rt.store, logger); err != nil {
		logger.Warn("initial sync failed", slog.String("error", err.Error()))
	}

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	// Prompts are either queued for HTTP clients or answered by policy.
	var prompter prompt.Prompter
	var prompts api.PromptQueue
	if cfg.Reconcile.Prompter == PrompterPolicy {
		prompter = prompt.Policy{Prefer: []string{cfg.Tagging.DefaultOutcome, string(reconcile.KeepAll)}}
	} else {
		q := prompt.NewQueue(cfg.Reconcile.PromptTimeout, broker.Notify)
		prompter, prompts = q, q
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Engine, reconciliation loop and intake queue.
	var loop *reconcile.Loop
	svc := rt.service(gCtx, tagservice.WithDispatch(func(ctx context.Context, ev events.Event) {
		broker.PublishVaultEvent(ev)
		loop.Submit(ctx, ev)
	}))

	queue := intake.New(cfg.Intake.Capacity, logger)
	ctrl := reconcile.NewController(rt.store, svc, prompter, reconcile.Hooks{
		FolderCreated: func(folder string) { queue.Push(folder) },
		Applied:       broker.NoteTagged,
	}, logger)
	loop = reconcile.NewLoop(ctrl, cfg.Reconcile.MoveDebounce, logger, broker.Notice)

	grace := time.AfterFunc(cfg.Intake.StartupGrace, queue.Ready)
	defer grace.Stop()

	// Build API router.
	apiRouter := api.NewRouter(svc, rt.db, prompts, cfg.Auth.AuthEnabled(), cfg.Auth.Token, broker)

	// Build chi router.
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints (unauthenticated).
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !queue.IsReady() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"status":"loading"}`))
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	// Mount API routes under /api.
	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	logger.Info("Server starting...", slog.String("http_address", cfg.App.HTTP.Address()))

	// Reconciliation loop.
	g.Go(func() error {
		return loop.Run(gCtx)
	})

	// New-folder intake.
	g.Go(func() error {
		return queue.Run(gCtx, cfg.Intake.Interval, intake.PromptHandler(prompter, svc, logger))
	})

	// Start file watcher; events go to SSE clients and the loop.
	g.Go(func() error {
		return index.Watch(gCtx, rt.db, rt.store, rt.store.Root(), logger, func(ev events.Event) {
			broker.PublishVaultEvent(ev)
			loop.Submit(gCtx, ev)
		})
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return context.Canceled
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}
