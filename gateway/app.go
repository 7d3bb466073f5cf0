package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/alovak/crypto-pos-gateway/gateway/iso8583"
	"github.com/alovak/crypto-pos-gateway/gateway/models"
	"github.com/alovak/crypto-pos-gateway/internal/middleware"
	"github.com/alovak/crypto-pos-gateway/internal/payout"
	"github.com/alovak/crypto-pos-gateway/internal/wallets"
	"github.com/go-chi/chi/v5"
	"golang.org/x/exp/slog"
	_ "github.com/lib/pq"
)

// App is the main application, it contains all the components of the
// gateway service and is responsible for starting and stopping them.
type App struct {
	srv               *http.Server
	wg                *sync.WaitGroup
	Addr              string
	ISO8583ServerAddr string
	logger            *slog.Logger
	iso8583Server     io.Closer
	config            *Config
}

func NewApp(logger *slog.Logger, config *Config) *App {
	logger = logger.With(slog.String("app", "gateway"))

	if config == nil {
		config = DefaultConfig()
	}

	return &App{
		wg:     &sync.WaitGroup{},
		logger: logger,
		config: config,
	}
}

func (a *App) Start() error {
	a.logger.Info("starting app...")

	router := chi.NewRouter()
	router.Use(middleware.NewStructuredLogger(a.logger))

	// Choose repository backend: default to pg for runtime; allow mem only
	// when explicitly enabled for tests
	var repository *Repository
	backend := getenv("REPO_BACKEND", "pg")
	allowMem := getenv("ALLOW_MEM_BACKEND_FOR_TESTS", "false") == "true"
	switch backend {
	case "pg":
		dsn := getenv("DB_DSN", "")
		if dsn == "" {
			return fmt.Errorf("DB_DSN is required for pg backend")
		}
		db, err := sql.Open("postgres", dsn)
		if err != nil {
			return fmt.Errorf("open postgres: %w", err)
		}
		db.SetMaxIdleConns(5)
		db.SetMaxOpenConns(10)
		if err := db.Ping(); err != nil {
			return fmt.Errorf("ping postgres: %w", err)
		}
		repository = NewPGRepository(db)
	case "mem":
		if !allowMem {
			return fmt.Errorf("mem repository is disabled at runtime; set ALLOW_MEM_BACKEND_FOR_TESTS=true only in tests")
		}
		repository = NewRepository()
	default:
		return fmt.Errorf("unsupported REPO_BACKEND=%s", backend)
	}

	signer := payout.NewDemoSigner([]byte(getenv("PAYOUT_SIGN_KEY", a.config.PayoutSignKey)))
	registry := wallets.NewRegistry(a.config.Wallets)
	dispatcher := payout.NewDispatcher(map[models.Network]payout.Client{
		models.NetworkERC20: payout.NewEthereumClient(signer),
		models.NetworkTRC20: payout.NewTronClient(signer),
	}, registry, a.config.PayoutTimeout, a.logger)

	processor := NewProcessor(dispatcher, repository, a.config, a.logger)

	iso8583Server := iso8583.NewServer(a.logger, a.config.ISO8583Addr, processor, a.config.TerminalID, a.config.MerchantID)
	err := iso8583Server.Start()
	if err != nil {
		return fmt.Errorf("starting iso8583 server: %w", err)
	}
	a.ISO8583ServerAddr = iso8583Server.Addr
	a.iso8583Server = iso8583Server

	api := NewAPI(processor, repository)
	api.AppendRoutes(router)

	// Health endpoints
	router.Get("/-/live", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	router.Get("/-/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := repository.Ping(ctx); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})

	l, err := net.Listen("tcp", a.config.HTTPAddr)
	if err != nil {
		return fmt.Errorf("listening tcp port: %w", err)
	}

	a.Addr = l.Addr().String()

	a.srv = &http.Server{
		Handler: router,
	}

	a.wg.Add(1)
	go func() {
		a.logger.Info("http server started", slog.String("addr", a.Addr))

		if err := a.srv.Serve(l); err != nil {
			if err != http.ErrServerClosed {
				a.logger.Error("starting http server", "err", err)
			}

			a.logger.Info("http server stopped")
		}

		a.wg.Done()
	}()

	return nil
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func (a *App) Shutdown() {
	a.logger.Info("shutting down app...")

	a.srv.Shutdown(context.Background())

	err := a.iso8583Server.Close()
	if err != nil {
		a.logger.Error("closing iso8583 server", "err", err)
	}

	a.wg.Wait()

	a.logger.Info("app stopped")
}
