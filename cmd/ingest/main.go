package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stock_chart/internal/app/di"
	candleusecase "stock_chart/internal/feature/candles/usecase"
	symbollistadapters "stock_chart/internal/feature/symbollist/adapters"
	symbollistusecase "stock_chart/internal/feature/symbollist/usecase"
	"stock_chart/internal/platform/config"
	infradb "stock_chart/internal/platform/db"
	"stock_chart/internal/platform/logger"
	"stock_chart/internal/platform/metrics"
	infraredis "stock_chart/internal/platform/redis"
	"stock_chart/internal/platform/scheduler"
	"stock_chart/internal/shared/ratelimiter"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $CONFIG_PATH or configs/config.yaml)")
	schedule := flag.Bool("schedule", false, "run on ingest.schedule instead of once")
	flag.Parse()

	if err := godotenv.Load(".env"); err != nil {
		log.Println("[INFO] .env not found; using system environment variables")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal(err)
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = lg.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg, *schedule); err != nil {
		lg.Fatal("ingest failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger, schedule bool) error {
	db, err := infradb.Open(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	// 書き込み時にサーバー側のキャッシュを無効化するため、Redis があれば同じキャッシュ層を通す
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, lg)
	if err != nil {
		lg.Warn("Redis unavailable. Cached series expire on their own TTL.", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() { _ = rdb.Close() }()
	}

	recorder := metrics.New()
	candleRepo, err := di.NewCandleRepository(db, rdb, cfg.Redis, recorder, lg)
	if err != nil {
		return err
	}
	symbolUC := symbollistusecase.NewSymbolUsecase(symbollistadapters.NewSymbolRepository(db))

	if len(cfg.Ingest.Symbols) > 0 {
		n, err := symbolUC.SeedSymbols(ctx, cfg.Ingest.Symbols)
		if err != nil {
			return err
		}
		lg.Info("symbols seeded", zap.Int("count", n))
	}

	market := di.NewMarket(cfg.TwelveData, lg)
	limiter := ratelimiter.NewRateLimiter(cfg.Ingest.RateLimit, cfg.Ingest.RateWindow, lg)
	uc := candleusecase.NewIngestUsecase(market, candleRepo, limiter, candleusecase.IngestConfig{
		Intervals:  cfg.Ingest.Intervals,
		OutputSize: cfg.Ingest.OutputSize,
	}, lg)

	job := func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, cfg.Ingest.Timeout)
		defer cancel()

		symbols, err := symbolUC.ListActiveCodes(ctx)
		if err != nil {
			return err
		}
		report, err := uc.IngestAll(ctx, symbols)
		recorder.IngestFinished(report.Succeeded, len(report.Failures), report.Candles)
		if err != nil {
			return err
		}
		if len(report.Failures) > 0 && report.Succeeded == 0 {
			return errors.New("every symbol failed to ingest")
		}
		return nil
	}

	if !schedule {
		return job(ctx)
	}

	if cfg.Ingest.MetricsAddr != "" {
		srv := &http.Server{Addr: cfg.Ingest.MetricsAddr, Handler: recorder.Handler(), ReadHeaderTimeout: 5 * time.Second}
		go func() {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				lg.Error("metrics server failed", zap.Error(err))
			}
		}()
		defer func() { _ = srv.Close() }()
	}

	s := scheduler.New(lg)
	if err := s.Add(ctx, "ingest", cfg.Ingest.Schedule, job); err != nil {
		return err
	}
	s.Run(ctx)
	return nil
}
