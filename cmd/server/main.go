// Package main is the entry point for the Titanium portfolio dashboard.
// It wires the two-database architecture together:
// - ledger.db: the immutable financial record (trades, income, targets, alerts)
// - client_data.db: TTL'd cache of external market data (quotes, fundamentals, FX)
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/titaniumapp/titanium/internal/clientdata"
	"github.com/titaniumapp/titanium/internal/clients/exchangerate"
	"github.com/titaniumapp/titanium/internal/clients/yahoo"
	"github.com/titaniumapp/titanium/internal/config"
	"github.com/titaniumapp/titanium/internal/database"
	"github.com/titaniumapp/titanium/internal/domain"
	"github.com/titaniumapp/titanium/internal/modules/accounts"
	accountshandlers "github.com/titaniumapp/titanium/internal/modules/accounts/handlers"
	"github.com/titaniumapp/titanium/internal/modules/alerts"
	alertshandlers "github.com/titaniumapp/titanium/internal/modules/alerts/handlers"
	"github.com/titaniumapp/titanium/internal/modules/charts"
	chartshandlers "github.com/titaniumapp/titanium/internal/modules/charts/handlers"
	"github.com/titaniumapp/titanium/internal/modules/dividends"
	dividendshandlers "github.com/titaniumapp/titanium/internal/modules/dividends/handlers"
	"github.com/titaniumapp/titanium/internal/modules/impexp"
	impexphandlers "github.com/titaniumapp/titanium/internal/modules/impexp/handlers"
	"github.com/titaniumapp/titanium/internal/modules/ledger"
	ledgerhandlers "github.com/titaniumapp/titanium/internal/modules/ledger/handlers"
	"github.com/titaniumapp/titanium/internal/modules/portfolio"
	portfoliohandlers "github.com/titaniumapp/titanium/internal/modules/portfolio/handlers"
	"github.com/titaniumapp/titanium/internal/modules/valuation"
	valuationhandlers "github.com/titaniumapp/titanium/internal/modules/valuation/handlers"
	"github.com/titaniumapp/titanium/internal/reliability"
	"github.com/titaniumapp/titanium/internal/scheduler"
	"github.com/titaniumapp/titanium/internal/server"
	"github.com/titaniumapp/titanium/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fallbackLog := logger.New(logger.Config{Level: "info", Pretty: true})
		fallbackLog.Fatal().Err(err).Msg("Failed to load configuration")
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: true,
	})

	log.Info().Msg("Starting Titanium")

	// Databases
	ledgerDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "ledger.db"),
		Profile: database.ProfileLedger,
		Name:    "ledger",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open ledger database")
	}
	defer ledgerDB.Close()

	cacheDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open client_data database")
	}
	defer cacheDB.Close()

	if err := ledgerDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate ledger database")
	}
	if err := cacheDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to migrate client_data database")
	}

	// External data clients, all reads go through the TTL cache
	cacheRepo := clientdata.NewRepository(cacheDB.Conn())
	yahooClient := yahoo.NewClient(cacheRepo, yahoo.TTLs{
		Quote:        cfg.QuoteTTL,
		Fundamentals: cfg.FundamentalsTTL,
		History:      cfg.HistoryTTL,
	}, log)
	fxClient := exchangerate.NewClient(cacheRepo, cfg.FxRateTTL, log)

	// Repositories
	accountsRepo := accounts.NewRepository(ledgerDB.Conn(), log)
	transactionRepo := ledger.NewTransactionRepository(ledgerDB.Conn(), log)
	incomeRepo := ledger.NewIncomeRepository(ledgerDB.Conn(), log)
	targetRepo := ledger.NewTargetRepository(ledgerDB.Conn(), log)
	alertsRepo := alerts.NewRepository(ledgerDB.Conn(), log)

	// Services
	clock := domain.SystemClock{}
	portfolioService := portfolio.NewService(
		transactionRepo, targetRepo, yahooClient, fxClient,
		clock, cfg.BaseCurrency, cfg.USDFallbackRate, log,
	)
	valuationService := valuation.NewService(portfolioService, yahooClient, yahooClient, log)
	dividendsService := dividends.NewService(portfolioService, yahooClient, yahooClient, incomeRepo, log)
	chartsService := charts.NewService(yahooClient, yahooClient, portfolioService, log)
	importer := impexp.NewImporter(transactionRepo, clock, log)
	exporter := impexp.NewExporter(portfolioService, log)

	// Backups: local always, S3 upload only when configured
	var s3Client *reliability.S3Client
	if cfg.Backup.S3Enabled() {
		s3Client, err = reliability.NewS3Client(
			cfg.Backup.Region, cfg.Backup.Endpoint,
			cfg.Backup.AccessKey, cfg.Backup.SecretKey,
			cfg.Backup.Bucket, log,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create S3 client")
		}
		log.Info().Str("bucket", cfg.Backup.Bucket).Msg("S3 backup uploads enabled")
	}
	backupService := reliability.NewBackupService(map[string]*database.DB{
		"ledger":      ledgerDB,
		"client_data": cacheDB,
	}, cfg.DataDir, s3Client, log)

	// Background jobs
	sched := scheduler.New(log)
	if err := sched.AddJob("0 0 3 * * *", clientdata.NewCleanupJob(cacheRepo, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register cleanup job")
	}
	if err := sched.AddJob("0 */10 * * * *", scheduler.NewQuotePrewarmJob(accountsRepo, portfolioService, yahooClient, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register prewarm job")
	}
	if err := sched.AddJob("0 0 4 * * *", reliability.NewBackupJob(backupService, log)); err != nil {
		log.Fatal().Err(err).Msg("Failed to register backup job")
	}
	sched.Start()
	defer sched.Stop()

	srv := server.New(server.Config{
		Log:      log,
		Config:   cfg,
		LedgerDB: ledgerDB,
		CacheDB:  cacheDB,
		Backups:  backupService,
		Handlers: server.Handlers{
			Accounts:  accountshandlers.NewHandler(accountsRepo, log),
			Ledger:    ledgerhandlers.NewHandler(transactionRepo, incomeRepo, targetRepo, log),
			Portfolio: portfoliohandlers.NewHandler(portfolioService, log),
			Valuation: valuationhandlers.NewHandler(valuationService, log),
			Dividends: dividendshandlers.NewHandler(dividendsService, log),
			Alerts:    alertshandlers.NewHandler(alertsRepo, log),
			ImpExp:    impexphandlers.NewHandler(importer, exporter, log),
			Charts:    chartshandlers.NewHandler(chartsService, log),
		},
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown error")
	}

	log.Info().Msg("Shutdown complete")
}
