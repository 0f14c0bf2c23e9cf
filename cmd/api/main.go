package main

import (
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/fkhayef/splitledger/docs"
	"github.com/fkhayef/splitledger/internal/config"
	"github.com/fkhayef/splitledger/internal/expense"
	expensesplit "github.com/fkhayef/splitledger/internal/expense/split"
	"github.com/fkhayef/splitledger/internal/person"
	"github.com/fkhayef/splitledger/internal/settlement"
	"github.com/fkhayef/splitledger/internal/storage"
	"github.com/fkhayef/splitledger/internal/storage/postgres"
	"github.com/fkhayef/splitledger/internal/storage/sqlite"
	"github.com/fkhayef/splitledger/pkg/logging"
	mw "github.com/fkhayef/splitledger/pkg/middleware"
)

// @title           Splitledger API
// @version         1.0
// @description     Shared expense tracking with exact-cent splits and minimal settlement plans.
// @BasePath        /api/v1
func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		slog.Info("No .env file found, using environment variables")
	}

	logging.Setup()

	cfg := config.Load()

	store, err := newStore(cfg)
	if err != nil {
		slog.Error("Failed to initialize storage", "backend", cfg.StorageBackend, "error", err)
		os.Exit(1)
	}
	defer store.Close()

	slog.Info("Storage initialized", "backend", cfg.StorageBackend)

	// Split Strategy Factory (Factory Pattern)
	splitFactory := expensesplit.NewFactory()

	// Person feature
	personService := person.NewService(store)
	personHandler := person.NewHandler(personService)

	// Expense feature (with split factory injected)
	expenseService := expense.NewService(store, splitFactory)
	expenseHandler := expense.NewHandler(expenseService)

	// Settlement feature
	settlementService := settlement.NewService(store)
	settlementHandler := settlement.NewHandler(settlementService)

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(mw.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	// API routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Mount("/people", personHandler.Routes())
		r.Mount("/expenses", expenseHandler.Routes())
		r.Mount("/balances", settlementHandler.BalanceRoutes())
		r.Mount("/settlements", settlementHandler.Routes())
	})

	slog.Info("Server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("Server failed", "error", err)
		os.Exit(1)
	}
}

// newStore selects the storage backend from configuration.
func newStore(cfg *config.Config) (storage.Store, error) {
	switch cfg.StorageBackend {
	case "sqlite":
		return sqlite.New(cfg.SQLitePath)
	default:
		return postgres.New(cfg.DatabaseURL)
	}
}
