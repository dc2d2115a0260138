package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/ishaygamliely-create/SoloTrading-sub001/config"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/api"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/events"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/feed"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/guidance"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/logging"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/scenario"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/store"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/trade"
	"github.com/ishaygamliely-create/SoloTrading-sub001/internal/vault"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logger := logging.New(cfg.Logging)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Vault.Enabled {
		vaultClient, err := vault.NewClient(cfg.Vault)
		if err != nil {
			logger.Fatal().Err(err).Msg("vault client failed")
		}
		secrets, err := vaultClient.LoadProviderSecrets(ctx)
		if err != nil {
			logger.Fatal().Err(err).Msg("loading provider secrets failed")
		}
		secrets.Apply(cfg)
	}

	st := buildStore(ctx, cfg, logger)
	bus := events.NewBus()
	chain := feed.NewChain(cfg, logging.Component(logger, "feed"), bus)

	manager := trade.NewManager(st, bus, logging.Component(logger, "trade"),
		cfg.Trading.DefaultMaxRisk, cfg.Trading.ConfirmDelay)
	if err := manager.Load(ctx); err != nil {
		logger.Warn().Err(err).Msg("could not restore persisted trade state")
	}

	server := api.NewServer(cfg.Server, chain, manager, scenario.KeywordRanker{}, bus,
		logging.Component(logger, "api"))

	go guidanceLoop(ctx, cfg.Trading.GuidanceInterval, chain, manager,
		logging.Component(logger, "guidance"))

	go func() {
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("api server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("shutdown incomplete")
	}
}

func buildStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) store.Store {
	switch cfg.State.Backend {
	case "redis":
		client := redis.NewClient(&redis.Options{Addr: cfg.State.RedisAddr, DB: cfg.State.RedisDB})
		return store.NewRedisStore(client, "solotrading", logging.Component(logger, "store"))
	case "postgres":
		st, err := store.NewPostgresStore(ctx, cfg.State.PostgresDSN)
		if err != nil {
			logger.Warn().Err(err).Msg("postgres unavailable, using in-memory state")
			return store.NewMemoryStore()
		}
		return st
	default:
		return store.NewMemoryStore()
	}
}

// guidanceLoop re-evaluates the active trade against the freshest feed while
// one is under management. Each pass is a plain chain fetch plus a pure
// evaluation; the manager decides whether the verdict is worth logging.
func guidanceLoop(ctx context.Context, interval time.Duration, chain *feed.Chain, manager *trade.Manager, logger zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		active := manager.Active()
		if active == nil || active.State != trade.StateManaging {
			continue
		}

		result := chain.Fetch(ctx, active.Symbol, active.Timeframe, time.Now().Add(-6*time.Hour))

		var price *float64
		if n := len(result.Candles); n > 0 {
			p := result.Candles[n-1].Close
			price = &p
		}

		verdict := guidance.Evaluate(active, guidance.MarketContext{Price: price})
		if manager.AppendGuidance(ctx, verdict.Status, verdict.Evidence) {
			logger.Info().
				Str("status", string(verdict.Status)).
				Strs("evidence", verdict.Evidence).
				Msg("guidance recorded")
		}
	}
}
