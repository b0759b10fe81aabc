package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/wealthwise/wealthwise/internal/ai"
	"github.com/wealthwise/wealthwise/internal/api/handlers"
	"github.com/wealthwise/wealthwise/internal/api/middleware"
	"github.com/wealthwise/wealthwise/internal/blobstore"
	"github.com/wealthwise/wealthwise/internal/config"
	"github.com/wealthwise/wealthwise/internal/gateway"
	"github.com/wealthwise/wealthwise/internal/identity"
	"github.com/wealthwise/wealthwise/internal/logger"
	"github.com/wealthwise/wealthwise/internal/session"
	"github.com/wealthwise/wealthwise/internal/store/memory"
)

func main() {
	_ = godotenv.Load()

	var port = flag.String("port", "", "HTTP server port (overrides PORT env)")
	flag.Parse()

	log := logger.New()

	cfg := config.Load()
	if *port != "" {
		cfg.Port = *port
	}
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - avatar uploads will be disabled")
	}

	// Wire the core: store, identity, session, gateway, bindings.
	st := memory.New()
	defer st.Close()

	provider := identity.NewMemoryProvider(cfg.JWTSecret, cfg.SessionTTL)

	sess := session.New(provider, st, log, nil)
	sess.Start()
	defer sess.Stop()

	gw := gateway.New(st, log)
	registry := handlers.NewRegistry(st, log)
	defer registry.Close()

	model := ai.NewGeminiModel(cfg.GeminiModel)
	blobs := blobstore.NewGCS(cfg.GCSBucket)

	// Handlers.
	authHandler := handlers.NewAuthHandler(sess, provider, log)
	transactionsHandler := handlers.NewTransactionsHandler(registry, gw, log)
	budgetsHandler := handlers.NewBudgetsHandler(registry, gw, log)
	billsHandler := handlers.NewBillsHandler(registry, gw, log)
	goalsHandler := handlers.NewGoalsHandler(registry, gw, log)
	profileHandler := handlers.NewProfileHandler(registry, gw, blobs, log)
	dashboardHandler := handlers.NewDashboardHandler(registry, log)
	achievementsHandler := handlers.NewAchievementsHandler(registry, log)
	scanHandler := handlers.NewScanHandler(model, log)
	insightsHandler := handlers.NewInsightsHandler(registry, model, log)

	mux := http.NewServeMux()

	// Auth endpoints (no bearer token required).
	mux.HandleFunc("/api/auth/signup", postOnly(authHandler.Signup))
	mux.HandleFunc("/api/auth/login", postOnly(authHandler.Login))
	mux.HandleFunc("/api/auth/logout", postOnly(authHandler.Logout))

	// Data endpoints behind bearer auth.
	api := http.NewServeMux()

	api.HandleFunc("/api/transactions", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			transactionsHandler.List(w, r)
		case http.MethodPost:
			transactionsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	api.HandleFunc("/api/transactions/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Transaction ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			transactionsHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/budgets", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			budgetsHandler.List(w, r)
		case http.MethodPost:
			budgetsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	api.HandleFunc("/api/budgets/", func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimPrefix(r.URL.Path, "/api/budgets/")
		if id == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Budget ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			budgetsHandler.Delete(w, r, id)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/bills", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			billsHandler.List(w, r)
		case http.MethodPost:
			billsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	api.HandleFunc("/api/bills/reset-paid", postOnly(billsHandler.ResetPaid))
	api.HandleFunc("/api/bills/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/bills/")
		if id, found := strings.CutSuffix(rest, "/toggle-paid"); found {
			if r.Method == http.MethodPost {
				billsHandler.TogglePaid(w, r, id)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Bill ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			billsHandler.Delete(w, r, rest)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/goals", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			goalsHandler.List(w, r)
		case http.MethodPost:
			goalsHandler.Create(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	api.HandleFunc("/api/goals/", func(w http.ResponseWriter, r *http.Request) {
		rest := strings.TrimPrefix(r.URL.Path, "/api/goals/")
		if id, found := strings.CutSuffix(rest, "/contribute"); found {
			if r.Method == http.MethodPost {
				goalsHandler.Contribute(w, r, id)
			} else {
				middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			}
			return
		}
		if rest == "" {
			middleware.WriteError(w, http.StatusBadRequest, "Goal ID is required")
			return
		}
		if r.Method == http.MethodDelete {
			goalsHandler.Delete(w, r, rest)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	api.HandleFunc("/api/profile", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			profileHandler.Get(w, r)
		case http.MethodPut:
			profileHandler.Update(w, r)
		default:
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})
	api.HandleFunc("/api/profile/avatar", postOnly(profileHandler.UploadAvatar))

	api.HandleFunc("/api/dashboard", getOnly(dashboardHandler.Get))
	api.HandleFunc("/api/achievements", getOnly(achievementsHandler.Get))
	api.HandleFunc("/api/scan", postOnly(scanHandler.Scan))
	api.HandleFunc("/api/insights", postOnly(insightsHandler.Analyze))

	mux.Handle("/api/", middleware.Auth(provider)(api))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Middleware chain, outermost first.
	var handler http.Handler = mux
	handler = middleware.Logger(log)(handler)
	handler = middleware.CORS(cfg.AllowedOrigin)(handler)
	handler = middleware.Recovery(log)(handler)
	handler = middleware.RequestID(handler)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

func postOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}

func getOnly(h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
			return
		}
		h(w, r)
	}
}
