package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/wardstone/newswire/internal/annotate"
	"github.com/wardstone/newswire/internal/broadcast"
	"github.com/wardstone/newswire/internal/clientdata"
	"github.com/wardstone/newswire/internal/clients/feeds"
	"github.com/wardstone/newswire/internal/clients/llm"
	"github.com/wardstone/newswire/internal/clients/macro"
	"github.com/wardstone/newswire/internal/clients/marketdata"
	"github.com/wardstone/newswire/internal/clients/predictions"
	"github.com/wardstone/newswire/internal/config"
	"github.com/wardstone/newswire/internal/database"
	"github.com/wardstone/newswire/internal/events"
	"github.com/wardstone/newswire/internal/news"
	"github.com/wardstone/newswire/internal/poller"
	"github.com/wardstone/newswire/internal/scheduler"
	"github.com/wardstone/newswire/internal/server"
	"github.com/wardstone/newswire/internal/snapshots"
	"github.com/wardstone/newswire/pkg/logger"
)

const historyDepth = 120 // observations kept per symbol for momentum

func main() {
	cfg, err := config.Load()
	if err != nil {
		println("Failed to load configuration:", err.Error())
		os.Exit(1)
	}

	log := logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Pretty: cfg.DevMode,
	})
	logger.SetGlobalLogger(log)

	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Fatal panic, shutting down")
			os.Exit(1)
		}
	}()

	log.Info().Msg("Starting Newswire")

	// Client-data cache database
	clientDB, err := database.New(database.Config{
		Path:    filepath.Join(cfg.DataDir, "client_data.db"),
		Profile: database.ProfileCache,
		Name:    "client_data",
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize client data database")
	}
	defer clientDB.Close()

	if err := clientDB.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Str("path", clientDB.Path()).Msg("Client data database ready")

	repo := clientdata.NewRepository(clientDB.Conn())

	// Event bus and core state
	bus := events.NewBus(log)
	ledger := news.NewLedger(cfg.DedupCapacity)
	store := news.NewCardStore(cfg.CardHistorySize)

	marketCache := snapshots.NewCache()
	macroCache := snapshots.NewCache()
	fxCache := snapshots.NewCache()
	commodityCache := snapshots.NewCache()
	predictionCache := snapshots.NewPredictionCache()
	history := snapshots.NewHistory(historyDepth)
	view := snapshots.NewView(history, marketCache, commodityCache, fxCache, macroCache)

	// External clients
	quoteClient := marketdata.NewClient(cfg.MarketDataBaseURL, log)
	macroClient := macro.NewClient(cfg.MacroBaseURL, log)
	predictionClient := predictions.NewClient(cfg.PredictionsBaseURL, log)
	feedClient := feeds.NewClient(cfg, log)
	llmClient := llm.NewClient(cfg.AnthropicAPIKey, cfg.AnthropicModel, log)
	if llmClient == nil {
		log.Warn().Msg("No Anthropic API key configured, analysis endpoint disabled")
	}

	// Annotation and pipeline
	engine := annotate.NewEngine(view, log)
	pipeline := news.NewPipeline(ledger, cfg.CardMaxAge, engine, bus, log)

	// Fan-out hub (subscribes to the bus before anything publishes)
	hub := broadcast.NewHub(store, marketCache, macroCache, fxCache, commodityCache, predictionCache, bus, log)

	// Feed pollers
	feedList, err := cfg.LoadFeeds()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load feed table")
	}
	breakingPool := poller.NewPool("breaking_poll", config.GroupBreaking, feedList, cfg, feedClient, pipeline, log)
	periodicPool := poller.NewPool("periodic_poll", config.GroupPeriodic, feedList, cfg, feedClient, pipeline, log)

	// Snapshot refreshers
	marketRefresher := snapshots.NewMarketRefresher(quoteClient, marketCache, history, repo, bus, log)
	fxRefresher := snapshots.NewFXRefresher(quoteClient, fxCache, history, repo, bus, log)
	commodityRefresher := snapshots.NewCommodityRefresher(quoteClient, commodityCache, history, repo, bus, log)
	macroRefresher := snapshots.NewMacroRefresher(macroClient, macroCache, repo, bus, log)
	predictionRefresher := snapshots.NewPredictionRefresher(predictionClient, predictionCache, repo, bus, log)

	// Scheduler
	sched := scheduler.New(log)

	jobs := []struct {
		spec string
		job  scheduler.Job
	}{
		{cfg.BreakingPollSpec, breakingPool},
		{cfg.PeriodicPollSpec, periodicPool},
		{cfg.MarketRefreshSpec, marketRefresher},
		{cfg.MacroRefreshSpec, macroRefresher},
		{cfg.FXRefreshSpec, fxRefresher},
		{cfg.CommodityRefreshSpec, commodityRefresher},
		{cfg.PredictionRefreshSpec, predictionRefresher},
		{cfg.CacheCleanupSpec, clientdata.NewCleanupJob(repo, log)},
		{cfg.CacheCleanupSpec, database.NewMaintenanceJob(clientDB, log)},
	}
	for _, j := range jobs {
		if err := sched.AddJob(j.spec, j.job); err != nil {
			log.Fatal().Err(err).Str("job", j.job.Name()).Msg("Failed to register job")
		}
	}

	// Subscriber refresh commands trigger an immediate breaking cycle.
	bus.Subscribe(events.RefreshRequested, func(event *events.Event) {
		go func() {
			_ = sched.RunNow(breakingPool)
			_ = sched.RunNow(marketRefresher)
		}()
	})

	// Prime the snapshots and the first poll cycle before serving.
	go func() {
		_ = sched.RunNow(marketRefresher)
		_ = sched.RunNow(macroRefresher)
		_ = sched.RunNow(fxRefresher)
		_ = sched.RunNow(commodityRefresher)
		_ = sched.RunNow(predictionRefresher)
		_ = sched.RunNow(breakingPool)
		_ = sched.RunNow(periodicPool)
	}()

	sched.Start()
	defer sched.Stop()

	// HTTP server
	srv := server.New(server.Config{
		Log:         log,
		Cfg:         cfg,
		Hub:         hub,
		Bus:         bus,
		Ledger:      ledger,
		Store:       store,
		Market:      marketCache,
		Macro:       macroCache,
		FX:          fxCache,
		Commodity:   commodityCache,
		Predictions: predictionCache,
		Pools:       []*poller.Pool{breakingPool, periodicPool},
		LLM:         llmClient,
		ClientDB:    clientDB,
	})

	go func() {
		if err := srv.Start(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	log.Info().Int("port", cfg.Port).Msg("Server started successfully")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}
