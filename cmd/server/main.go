package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/rajankumarrkr/sukoon/internal/api"
	"github.com/rajankumarrkr/sukoon/internal/config"
	"github.com/rajankumarrkr/sukoon/internal/crypto"
	"github.com/rajankumarrkr/sukoon/internal/database"
	"github.com/rajankumarrkr/sukoon/internal/logger"
	"github.com/rajankumarrkr/sukoon/internal/metrics"
	"github.com/rajankumarrkr/sukoon/internal/models"
	"github.com/rajankumarrkr/sukoon/internal/notify"
	"github.com/rajankumarrkr/sukoon/internal/signaling"
	"github.com/rajankumarrkr/sukoon/internal/websocket"
)

const shutdownTimeout = 10 * time.Second

func main() {
	overrides, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "sukoon-server: %v\n", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, overrides); err != nil {
		logger.Errorf("Server exited: %v", err)
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

func parseFlags(args []string) (config.Overrides, error) {
	fs := flag.NewFlagSet("sukoon-server", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	addr := fs.String("addr", "", "HTTP listen address (default :$PORT)")
	dbPath := fs.String("db", "", "SQLite database path")
	debug := fs.Bool("debug", false, "Enable debug logging")
	callTimeout := fs.Duration("call-timeout", config.DefaultCallTimeout, "How long a call rings before it is missed")
	socketAuth := fs.Bool("socket-auth", false, "Require a JWT on realtime connections")
	showHelp := fs.Bool("help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return config.Overrides{}, err
	}
	if *showHelp {
		fs.SetOutput(os.Stdout)
		fs.PrintDefaults()
		return config.Overrides{}, flag.ErrHelp
	}

	// Only explicitly set flags override the environment.
	var o config.Overrides
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "addr":
			o.Addr = addr
		case "db":
			o.DatabasePath = dbPath
		case "debug":
			o.Debug = debug
		case "call-timeout":
			o.CallTimeout = callTimeout
		case "socket-auth":
			o.SocketAuth = socketAuth
		}
	})
	return o, nil
}

func run(ctx context.Context, overrides config.Overrides) error {
	cfg, err := config.Load(overrides)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	level, err := logger.ParseLevel(cfg.LogLevel)
	if err != nil {
		logger.Warnf("%v; using info", err)
	}
	logger.SetLevel(level)
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	logger.Infof("Opening database: %s", cfg.DatabasePath)
	db, err := database.Open(cfg.DatabasePath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	queries := models.New(db.DB)

	jwtManager, err := crypto.NewJWTManager(cfg.JWTSecret)
	if err != nil {
		return fmt.Errorf("create JWT manager: %w", err)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	conns := websocket.NewConnTable()
	registry := signaling.NewRegistry()
	relay := signaling.NewRelay(registry, conns, m)
	notifier := notify.New(queries, queries, relay, notify.Options{Metrics: m})
	defer notifier.Close()

	svc := signaling.NewService(registry, relay, notifier, signaling.Options{
		CallTimeout: cfg.CallTimeout,
		Metrics:     m,
	})

	hub := websocket.NewHub(svc, conns, websocket.HubOptions{
		Verifier:    jwtManager,
		RequireAuth: cfg.SocketAuth,
	})
	socketIOServer := websocket.NewSocketIOServer(hub, cfg.AllowedOrigins)
	simpleServer := websocket.NewSimpleServer(hub, originAllowed(cfg.AllowedOrigins))

	router := api.NewRouter(api.RouterDeps{
		AllowedOrigins: cfg.AllowedOrigins,
		Verifier:       jwtManager,
		Notifications:  queries,
		Profiles:       queries,
		Calls:          svc,
		SocketIOPath:   websocket.SocketIOPath,
		SocketIO:       socketIOServer.Handler(),
		SimplePath:     websocket.SimplePath,
		Simple:         simpleServer.HandleWebSocket,
		Metrics:        promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Infof("Sukoon server listening on %s (call timeout %s, socket auth %t)",
			cfg.Addr, cfg.CallTimeout, cfg.SocketAuth)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("Shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		_ = socketIOServer.Close()
		conns.CloseAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func originAllowed(origins []string) func(string) bool {
	allowed := make(map[string]struct{}, len(origins))
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		allowed[o] = struct{}{}
	}
	return func(origin string) bool {
		_, ok := allowed[origin]
		return ok
	}
}
