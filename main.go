package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gorilla/mux"

	"SeedLab/internal/auth"
	"SeedLab/internal/calc/batch"
	"SeedLab/internal/calc/formulation"
	"SeedLab/internal/calc/recommend"
	"SeedLab/internal/calc/report"
	"SeedLab/internal/calc/stock"
	"SeedLab/internal/config"
	"SeedLab/internal/export"
	"SeedLab/internal/importer"
	"SeedLab/internal/lab"
	"SeedLab/internal/logging"
	"SeedLab/internal/middleware"
	"SeedLab/internal/predict"
	"SeedLab/internal/profile"
	"SeedLab/internal/repo"
)

var wg sync.WaitGroup

// deps are the stores and settings the router is built from.
type deps struct {
	Users     repo.Repository
	Lab       repo.LabRepository
	Predictor predict.Predictor
	TokenKey  []byte
	Secure    bool
	Limiter   *middleware.IPRateLimiter
	Ping      func(context.Context) error
}

func HandleList(r *mux.Router, d deps) {
	authEnv := &auth.Authenv{JWTkey: d.TokenKey, Repo: d.Users, Secure: d.Secure}
	profileH := &profile.ProfileHandler{Repo: d.Users}

	r.HandleFunc("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if d.Ping != nil {
			if err := d.Ping(req.Context()); err != nil {
				http.Error(w, "database unavailable", http.StatusServiceUnavailable)
				return
			}
		}
		w.Write([]byte("ok"))
	}).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(d.Limiter.Middleware)

	api.HandleFunc("/login", authEnv.AuthHandler).Methods("POST")
	api.HandleFunc("/register", authEnv.RegisterHandler).Methods("POST")
	api.HandleFunc("/logout", authEnv.LogoutHandler).Methods("POST")

	secureApi := api.PathPrefix("/user").Subrouter()
	secureApi.Use(authEnv.AuthMiddleware)

	secureApi.HandleFunc("/profile", profileH.GetProfile).Methods("GET")
	secureApi.HandleFunc("/profile", profileH.UpdateProfile).Methods("PATCH", "PUT")
	secureApi.HandleFunc("/profile/{id:[0-9]+}", profileH.GetProfile).Methods("GET")

	formulationH := &formulation.Handler{Predictor: d.Predictor}
	batchH := &batch.Handler{}
	recommendH := &recommend.Handler{}
	stockH := &stock.Handler{}
	reportH := &report.Handler{}
	predictH := &predict.Handler{Predictor: d.Predictor}

	secureApi.HandleFunc("/tools/formulation/calc", formulationH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/batch/calc", batchH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/batch/scale-up", batchH.ScaleUp).Methods("POST")
	secureApi.HandleFunc("/tools/recommend/max-solids", recommendH.MaxSolids).Methods("POST")
	secureApi.HandleFunc("/tools/stock/calc", stockH.Calc).Methods("POST")
	secureApi.HandleFunc("/tools/report/pdf", reportH.Generate).Methods("POST")
	secureApi.HandleFunc("/predict", predictH.Predict).Methods("POST")

	labH := &lab.Handler{Repo: d.Lab, Predictor: d.Predictor}
	labH.Register(secureApi)

	importH := &importer.Handler{Importer: &importer.Importer{Repo: d.Lab}}
	exportH := &export.Handler{Repo: d.Lab}
	secureApi.HandleFunc("/import/{category}", importH.Import).Methods("POST")
	secureApi.HandleFunc("/import/{category}/template", importH.Template).Methods("GET")
	secureApi.HandleFunc("/export", exportH.Download).Methods("GET")
}

func newHandler(r *mux.Router, allowOrigin string) http.Handler {
	var h http.Handler = r
	h = middleware.CORS(allowOrigin)(h)
	h = middleware.Logging(h)
	h = middleware.Recovery(h)
	return middleware.RequestID(h)
}

func main() {
	if err := run(); err != nil {
		slog.Error("fatal", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.ParseLevel(cfg.LogLevel))
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := auth.InitDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repo.EnsureSchema(ctx, db); err != nil {
		return err
	}

	predictor, err := predict.Load(cfg.ModelPath)
	if err != nil {
		return fmt.Errorf("load model: %w", err)
	}

	r := mux.NewRouter()
	HandleList(r, dbDeps(db, cfg, predictor))

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      newHandler(r, cfg.AllowOrigin),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	wg.Add(1)
	go func() {
		defer wg.Done()
		slog.Info("server starting", "addr", cfg.Addr, "tls", cfg.TLS())
		if cfg.TLS() {
			errCh <- server.ListenAndServeTLS(cfg.TLSCert, cfg.TLSKey)
		} else {
			errCh <- server.ListenAndServe()
		}
	}()

	select {
	case <-ctx.Done():
		slog.Info("shutdown signal received")
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	wg.Wait()
	slog.Info("server stopped")
	return nil
}

func dbDeps(db *sql.DB, cfg config.Config, p predict.Predictor) deps {
	return deps{
		Users:     repo.NewPostgresUserDB(db),
		Lab:       repo.NewPostgresLabDB(db),
		Predictor: p,
		TokenKey:  []byte(cfg.TokenKey),
		Secure:    cfg.TLS(),
		Limiter:   middleware.NewIPRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, cfg.TrustedProxies...),
		Ping:      db.PingContext,
	}
}
