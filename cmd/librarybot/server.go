package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/quinta-thw/librarymanager-ist4070/internal/api"
	"github.com/quinta-thw/librarymanager-ist4070/internal/catalog"
	"github.com/quinta-thw/librarymanager-ist4070/internal/composer"
	"github.com/quinta-thw/librarymanager-ist4070/internal/config"
	"github.com/quinta-thw/librarymanager-ist4070/internal/dialogue"
	"github.com/quinta-thw/librarymanager-ist4070/internal/ingest"
	"github.com/quinta-thw/librarymanager-ist4070/internal/intent"
	"github.com/quinta-thw/librarymanager-ist4070/internal/proxy"
	"github.com/quinta-thw/librarymanager-ist4070/internal/responder"
	"github.com/quinta-thw/librarymanager-ist4070/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and MCP over stdio when enabled) in the foreground",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return runServer(ctx, cfg)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show server and external service status",
	RunE: func(cmd *cobra.Command, args []string) error {
		return showStatus(cmd.Context())
	},
}

func setupLogging(level string) {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: l})))
}

// catalogBackend is a catalog that can be listed and written by imports.
type catalogBackend interface {
	catalog.Source
	ingest.CatalogWriter
}

// transcriptArchive is a dialogue.Archive that can also be read back.
type transcriptArchive interface {
	dialogue.Archive
	api.TranscriptArchive
}

// services holds everything serve wires together.
type services struct {
	store    *storage.Store
	books    catalogBackend
	view     *catalog.View
	archive  transcriptArchive
	sessions *dialogue.Manager
	closers  []func()
}

func (rt *services) Close() {
	for i := len(rt.closers) - 1; i >= 0; i-- {
		rt.closers[i]()
	}
}

// newGeneratorFactory builds external generators against the configured
// OpenAI-compatible endpoint.
func newGeneratorFactory(cfg config.LLMConfig) dialogue.GeneratorFactory {
	return func(credential, model string) (dialogue.ExternalGenerator, error) {
		if model == "" {
			model = cfg.Model
		}
		client := proxy.NewClientWithBaseURL(credential, cfg.BaseURL)
		client.SetTimeout(cfg.Timeout)
		return composer.NewGenerator(client, model).WithSampling(cfg.MaxTokens, cfg.Temperature), nil
	}
}

func openCatalog(ctx context.Context, cfg config.Config, store *storage.Store) (catalogBackend, func(), error) {
	var books catalogBackend
	closeFn := func() {}
	switch cfg.Catalog.Source {
	case config.SourceMemory:
		books = catalog.NewMemory()
	case config.SourcePostgres:
		pg, err := storage.OpenPostgresCatalog(ctx, cfg.Catalog.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		books, closeFn = pg, pg.Close
	default:
		books = store
	}

	if cfg.Catalog.SeedFile == "" {
		return books, closeFn, nil
	}
	existing, err := books.List(ctx)
	if err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("reading catalog: %w", err)
	}
	if len(existing) > 0 {
		slog.Info("catalog already populated, seed file skipped", "books", len(existing))
		return books, closeFn, nil
	}
	seed, err := catalog.LoadFile(cfg.Catalog.SeedFile)
	if err != nil {
		closeFn()
		return nil, nil, err
	}
	if err := books.PutBooks(ctx, seed); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("seeding catalog: %w", err)
	}
	slog.Info("catalog seeded", "file", cfg.Catalog.SeedFile, "books", len(seed))
	return books, closeFn, nil
}

func openArchive(ctx context.Context, cfg config.Config, store *storage.Store) (transcriptArchive, func(), error) {
	switch cfg.Dialogue.Archive {
	case config.ArchiveNone:
		return nil, func() {}, nil
	case config.ArchiveRedis:
		a := storage.NewRedisArchive(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB, cfg.Redis.TTL)
		if err := a.Ping(ctx); err != nil {
			a.Close()
			return nil, nil, fmt.Errorf("connecting to redis at %s: %w", cfg.Redis.Addr, err)
		}
		return a, func() { a.Close() }, nil
	default:
		return store, func() {}, nil
	}
}

func buildServices(ctx context.Context, cfg config.Config) (*services, error) {
	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening storage: %w", err)
	}
	rt := &services{store: store}
	rt.closers = append(rt.closers, func() {
		if err := store.Close(); err != nil {
			slog.Warn("closing storage", "error", err)
		}
	})

	books, closeBooks, err := openCatalog(ctx, cfg, store)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.books = books
	rt.closers = append(rt.closers, closeBooks)
	rt.view = catalog.NewView(books, cfg.Catalog.CacheTTL)

	archive, closeArchive, err := openArchive(ctx, cfg, store)
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.archive = archive
	rt.closers = append(rt.closers, closeArchive)

	patterns, err := intent.LoadPatterns(cfg.Intent.PatternsFile)
	if err != nil {
		rt.Close()
		return nil, err
	}
	classifier := intent.New(patterns)

	opts := dialogue.Options{
		Classifier:    classifier,
		Responder:     responder.New(classifier, nil),
		Factory:       newGeneratorFactory(cfg.LLM),
		MaxTranscript: cfg.Dialogue.MaxTranscript,
	}
	if archive != nil {
		opts.Archive = archive
	}
	rt.sessions = dialogue.NewManager(rt.view, opts)

	if cfg.LLM.APIKey != "" {
		if err := rt.sessions.Configure(cfg.LLM.APIKey, cfg.LLM.Model); err != nil {
			rt.Close()
			return nil, fmt.Errorf("configuring external service: %w", err)
		}
	}
	return rt, nil
}

func (rt *services) apiDeps(token string) api.Deps {
	deps := api.Deps{
		Sessions: rt.sessions,
		Catalog:  rt.view,
		Imports:  rt.store,
		Token:    token,
	}
	if rt.archive != nil {
		deps.Archive = rt.archive
	}
	return deps
}

func runServer(ctx context.Context, cfg config.Config) error {
	setupLogging(cfg.Log.Level)
	if err := cfg.Validate(); err != nil {
		return err
	}
	slog.Info("starting librarybot", "version", version, "catalog", cfg.Catalog.Source, "archive", cfg.Dialogue.Archive)

	rt, err := buildServices(ctx, cfg)
	if err != nil {
		return err
	}
	defer rt.Close()

	if cfg.Server.APIToken == "" {
		slog.Warn("no API token set, management routes are unauthenticated")
	}
	deps := rt.apiDeps(cfg.Server.APIToken)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(deps),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	worker := ingest.NewWorker(rt.store, rt.books, rt.view.Invalidate, 500*time.Millisecond)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		worker.Run(gctx)
		return nil
	})
	g.Go(func() error {
		slog.Info("librarybot listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if cfg.MCP.Enabled {
		stdioSrv := server.NewStdioServer(api.NewMCPServer(deps))
		g.Go(func() error {
			if err := stdioSrv.Listen(gctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("MCP stdio server error", "error", err)
			}
			return nil
		})
		slog.Info("MCP server started (stdio transport)")
	}

	return g.Wait()
}

func showStatus(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		printError("config error: %v", err)
		return nil
	}

	client, err := newAPIClient()
	if err != nil {
		return err
	}
	client.httpClient.Timeout = 2 * time.Second

	resp, err := client.get(ctx, "/health")
	if err != nil {
		printStatus("Server", "stopped")
	} else {
		resp.Body.Close()
		if resp.StatusCode == http.StatusOK {
			printStatus("Server", "running on port %d", cfg.Server.Port)
		} else {
			printStatus("Server", "error (HTTP %d)", resp.StatusCode)
		}
	}

	if err == nil {
		if resp, err := client.get(ctx, "/v1/ai"); err == nil {
			var gs dialogue.GlobalStatus
			if decodeJSON(resp, &gs) == nil {
				if gs.Configured {
					printStatus("AI", "configured (model %s)", gs.Model)
				} else {
					printStatus("AI", "local mode")
				}
				printStatus("Sessions", "%d", gs.Sessions)
			}
		}
	}

	printStatus("Catalog", "%s", cfg.Catalog.Source)
	printStatus("Archive", "%s", cfg.Dialogue.Archive)
	printStatus("Data dir", "%s", cfg.Storage.DataDir)

	if cfg.LLM.APIKey == "" {
		printStatus("LLM endpoint", "%s (no API key)", cfg.LLM.BaseURL)
		return nil
	}
	llm := proxy.NewClientWithBaseURL(cfg.LLM.APIKey, cfg.LLM.BaseURL)
	llm.SetTimeout(5 * time.Second)
	models, err := llm.ListModels(ctx)
	if err != nil {
		printStatus("LLM endpoint", "%s (unreachable: %v)", cfg.LLM.BaseURL, err)
		return nil
	}
	printStatus("LLM endpoint", "%s (%d models)", cfg.LLM.BaseURL, len(models))
	return nil
}
