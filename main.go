package main

import (
	"crypto/tls"
	"encoding/json"
	stdlog "log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/username/ledgerlink/backend/src/banking"
	"github.com/username/ledgerlink/backend/src/config"
	"github.com/username/ledgerlink/backend/src/database"
	"github.com/username/ledgerlink/backend/src/handlers"
	"github.com/username/ledgerlink/backend/src/jobstore"
	"github.com/username/ledgerlink/backend/src/ledger"
	"github.com/username/ledgerlink/backend/src/logger"
	"github.com/username/ledgerlink/backend/src/processors"
	"github.com/username/ledgerlink/backend/src/services"
)

func proxyHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Forwarded-Proto") == "https" {
			r.URL.Scheme = "https"
			r.TLS = &tls.ConnectionState{}
		}
		next.ServeHTTP(w, r)
	})
}

var limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), 30)

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded", "path", r.URL.Path)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)

	logger.L.Info("LedgerLink importer backend starting...", "version", config.Cfg.Version)

	if ns, err := uuid.Parse(config.Cfg.ImporterNamespace); err == nil {
		banking.SetIDNamespace(ns)
	} else {
		logger.L.Warn("IMPORTER_NAMESPACE is not a valid UUID, keeping the default", "value", config.Cfg.ImporterNamespace)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	database.RunMigrations(config.Cfg.DatabasePath)

	sessionCache := cache.New(30*time.Minute, 10*time.Minute)

	credentials := banking.NewCredentials(banking.CredentialSource{
		AppID:      config.Cfg.BankingAppID,
		PrivateKey: config.Cfg.BankingPrivateKey,
	})
	tokenProvider := banking.NewTokenProvider(credentials)
	bankingClient := banking.NewClient(config.Cfg.BankingURL, tokenProvider,
		config.Cfg.ConnectionTimeout, config.Cfg.Version)
	ledgerClient := ledger.NewClient(config.Cfg.LedgerURL, config.Cfg.LedgerToken,
		config.Cfg.ConnectionTimeout, config.Cfg.Version)

	repository := jobstore.NewSQLiteRepository(database.DB)

	linkService := services.NewLinkService(bankingClient, repository, config.Cfg.CallbackBaseURL)
	collector := services.NewAccountCollector(bankingClient, sessionCache, config.Cfg.UseCache)
	validator := services.NewAuthenticationValidator(tokenProvider)

	transactionProcessor := processors.NewTransactionProcessor(bankingClient, ledgerClient)
	routineManager := services.NewRoutineManager(collector, transactionProcessor, ledgerClient, repository)

	jobHandler := handlers.NewJobHandler(repository)
	selectionHandler := handlers.NewSelectionHandler(bankingClient, repository)
	linkHandler := handlers.NewLinkHandler(linkService, repository)
	convertHandler := handlers.NewConvertHandler(routineManager, repository)
	credentialsHandler := handlers.NewCredentialsHandler(validator)

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(handlers.ContextualLoggerMiddleware)
	r.Use(proxyHeadersMiddleware)
	r.Use(rateLimitMiddleware)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"message": "LedgerLink importer is running"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/validate", credentialsHandler.HandleValidate)
		r.Get("/callback", linkHandler.HandleCallback)

		r.Route("/import", func(r chi.Router) {
			r.Post("/", jobHandler.HandleCreateJob)
			r.Route("/{jobID}", func(r chi.Router) {
				r.Get("/", jobHandler.HandleGetJob)
				r.Get("/banks", selectionHandler.HandleListBanks)
				r.Post("/bank", selectionHandler.HandleSelectBank)
				r.Post("/accounts", selectionHandler.HandleBindAccounts)
				r.Post("/authorize", linkHandler.HandleAuthorize)
				r.Post("/convert", convertHandler.HandleConvert)
			})
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
			return
		}
		http.NotFound(w, r)
	})

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		stdlog.Fatalf("Failed to start server: %v", err)
	}
}
