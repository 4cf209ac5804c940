package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"stock_chart/internal/feature/candles/domain/entity"
	"stock_chart/internal/shared/ratelimiter"
)

const (
	defaultIngestOutputSize = 200 // 1回のリクエストで取得するデータ件数
)

// defaultIngestIntervals はデータ取得の対象となる時間足のリストです。
var defaultIngestIntervals = []string{"1day", "1week", "1month"}

// MarketRepository は株価データを取得するリポジトリのインターフェイスです。
// 外部 API の実装を抽象化します。
// Following Go convention: interfaces are defined by the consumer (usecase), not the provider (adapters).
type MarketRepository interface {
	GetTimeSeries(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// IngestConfig は取り込み対象の時間足と件数です。ゼロ値は既定値になります。
type IngestConfig struct {
	Intervals  []string
	OutputSize int
}

// IngestFailure は 1 銘柄・1 時間足の取り込み失敗です。
type IngestFailure struct {
	Symbol   string
	Interval string
	Err      error
}

// IngestReport は IngestAll の結果です。
type IngestReport struct {
	Succeeded int
	Candles   int
	Failures  []IngestFailure
	Elapsed   time.Duration
}

// IngestUsecase は外部APIからデータを取得し、データベースに永続化するユースケースを定義します。
type IngestUsecase struct {
	market  MarketRepository
	candle  CandleWriter
	limiter ratelimiter.Limiter
	cfg     IngestConfig
	logger  *zap.Logger
}

// NewIngestUsecase は新しい IngestUsecase を作成します。logger は nil でも構いません。
func NewIngestUsecase(market MarketRepository, candle CandleWriter, limiter ratelimiter.Limiter, cfg IngestConfig, logger *zap.Logger) *IngestUsecase {
	if len(cfg.Intervals) == 0 {
		cfg.Intervals = defaultIngestIntervals
	}
	if cfg.OutputSize <= 0 {
		cfg.OutputSize = defaultIngestOutputSize
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &IngestUsecase{market: market, candle: candle, limiter: limiter, cfg: cfg, logger: logger}
}

// ingestOne は指定された銘柄と時間足の時系列データを外部リポジトリから取得し、
// データベースに一括で挿入（または更新）します。
func (iu *IngestUsecase) ingestOne(ctx context.Context, symbol, interval string) (int, error) {
	cs, err := iu.market.GetTimeSeries(ctx, symbol, interval, iu.cfg.OutputSize)
	if err != nil {
		return 0, fmt.Errorf("fetch: %w", err)
	}

	// 取得したデータに銘柄コードと時間足を設定
	for i := range cs {
		cs[i].Symbol = symbol
		cs[i].Interval = interval
	}
	if err := iu.candle.UpsertBatch(ctx, cs); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(cs), nil
}

// IngestAll は指定された全銘柄の時系列データを設定された時間足で取得し、データベースに永続化します。
// APIのレートリミットに従ってリクエスト間で待機します。
// 個々の失敗はレポートに記録して処理を続けます。ctx がキャンセルされた場合のみエラーを返します。
func (iu *IngestUsecase) IngestAll(ctx context.Context, symbols []string) (IngestReport, error) {
	start := time.Now()
	var report IngestReport

	for _, s := range symbols {
		for _, interval := range iu.cfg.Intervals {
			if err := iu.limiter.Wait(ctx); err != nil {
				report.Elapsed = time.Since(start)
				return report, err
			}
			n, err := iu.ingestOne(ctx, s, interval)
			if err != nil {
				if ctx.Err() != nil {
					report.Elapsed = time.Since(start)
					return report, ctx.Err()
				}
				iu.logger.Error("failed to ingest data",
					zap.String("symbol", s),
					zap.String("interval", interval),
					zap.Error(err),
				)
				report.Failures = append(report.Failures, IngestFailure{Symbol: s, Interval: interval, Err: err})
				continue
			}
			report.Succeeded++
			report.Candles += n
		}
	}

	report.Elapsed = time.Since(start)
	iu.logger.Info("ingest finished",
		zap.Int("symbols", len(symbols)),
		zap.Int("succeeded", report.Succeeded),
		zap.Int("failed", len(report.Failures)),
		zap.Int("candles", report.Candles),
		zap.Duration("elapsed", report.Elapsed),
	)
	return report, nil
}
