package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"stock_chart/internal/app/di"
	"stock_chart/internal/app/router"
	candlehandler "stock_chart/internal/feature/candles/transport/handler"
	candleusecase "stock_chart/internal/feature/candles/usecase"
	charthandler "stock_chart/internal/feature/chart/transport/handler"
	symbollistadapters "stock_chart/internal/feature/symbollist/adapters"
	symbollisthandler "stock_chart/internal/feature/symbollist/transport/handler"
	symbollistusecase "stock_chart/internal/feature/symbollist/usecase"
	"stock_chart/internal/platform/config"
	infradb "stock_chart/internal/platform/db"
	platformhandler "stock_chart/internal/platform/http/handler"
	jwtmw "stock_chart/internal/platform/jwt"
	"stock_chart/internal/platform/logger"
	"stock_chart/internal/platform/metrics"
	infraredis "stock_chart/internal/platform/redis"
)

func main() {
	configPath := flag.String("config", "", "path to config.yaml (default: $CONFIG_PATH or configs/config.yaml)")
	issueToken := flag.String("issue-token", "", "print a JWT for the given subject and exit")
	flag.Parse()

	// .envを読み込む
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

	if *issueToken != "" {
		if err := printToken(cfg.Auth, *issueToken); err != nil {
			lg.Fatal("failed to issue token", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, lg); err != nil {
		lg.Fatal("server stopped with error", zap.Error(err))
	}
}

func printToken(cfg config.Auth, subject string) error {
	if cfg.JWTSecret == "" {
		return errors.New("JWT_SECRET is not set")
	}
	token, err := jwtmw.NewGenerator(cfg.JWTSecret, cfg.TokenTTL).GenerateToken(subject)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}

func run(ctx context.Context, cfg *config.Config, lg *zap.Logger) error {
	// db
	db, err := infradb.Open(ctx, cfg.Database, lg)
	if err != nil {
		return err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	defer func() { _ = sqlDB.Close() }()

	// Redis
	rdb, err := infraredis.NewRedisClient(ctx, cfg.Redis, lg)
	if err != nil {
		lg.Warn("Redis unavailable. Running without cache.", zap.Error(err))
		rdb = nil
	}
	if rdb != nil {
		defer func() {
			if err := rdb.Close(); err != nil {
				lg.Error("failed to close Redis client", zap.Error(err))
			}
		}()
	}

	recorder := metrics.New()

	// Repository（Redisキャッシュでラップ）
	candleRepo, err := di.NewCandleRepository(db, rdb, cfg.Redis, recorder, lg)
	if err != nil {
		return err
	}
	symbolRepo := symbollistadapters.NewSymbolRepository(db)

	// Usecase
	symbolUC := symbollistusecase.NewSymbolUsecase(symbolRepo)
	stockDataUC := candleusecase.NewStockDataUsecase(candleRepo, symbolUC, lg)
	planUC := di.NewPlanUsecase(cfg.StockData, cfg.Chart.PlanConfig(), recorder, lg)

	// Handler
	checks := map[string]platformhandler.Check{"database": sqlDB.PingContext}
	if rdb != nil {
		checks["redis"] = func(ctx context.Context) error { return rdb.Ping(ctx).Err() }
	}
	handlers := router.Handlers{
		Health:    platformhandler.NewHealthHandler(checks),
		StockData: candlehandler.NewStockDataHandler(stockDataUC),
		Symbols:   symbollisthandler.NewSymbolHandler(symbolUC),
		Chart:     charthandler.NewChartHandler(planUC),
		Stream:    charthandler.NewStreamHandler(planUC, cfg.Chart.Stream, recorder, lg),
	}

	// ルータ生成
	r := router.NewRouter(handlers, router.Options{
		JWTSecret:      cfg.Auth.JWTSecret,
		Observer:       recorder,
		MetricsHandler: recorder.Handler(),
		Logger:         lg,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           r,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Info("server listening", zap.String("addr", cfg.Server.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	lg.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
