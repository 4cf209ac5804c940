// Package usecase はローソク足データの提供（stockdata）と取り込み（ingest）のビジネスロジックを実装します。
package usecase

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stock_chart/internal/feature/candles/domain/entity"
)

const (
	// DefaultInterval はローソク足クエリのデフォルト時間間隔です。
	DefaultInterval = "1day"
	// DefaultOutputSize はデフォルトのローソク足返却件数です。
	DefaultOutputSize = 200
	// MaxOutputSize はローソク足の最大返却件数です。
	MaxOutputSize = 5000

	// breadthFetchLimit は Breadth で同時に読み出す銘柄数の上限です。
	breadthFetchLimit = 8
)

// Kind は /stockdata が返す系列の種類です。
type Kind string

const (
	KindLine        Kind = "line"
	KindCandlestick Kind = "candlestick"
	KindBreadth     Kind = "breadth"
)

var (
	// ErrUnknownKind is returned by ParseKind for an unsupported series kind.
	ErrUnknownKind = errors.New("unknown stockdata kind")
	// ErrUnknownBreadth is returned for a breadth series other than high52w or low52w.
	ErrUnknownBreadth = errors.New("unknown breadth series")
)

// ParseKind は URL の kind を解釈します。"full" は candlestick の別名です。
func ParseKind(s string) (Kind, error) {
	switch s {
	case "line":
		return KindLine, nil
	case "candlestick", "full":
		return KindCandlestick, nil
	case "breadth":
		return KindBreadth, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// CandleReader はローソク足データの読み取りレイヤーを抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type CandleReader interface {
	// Find は最新の outputsize 件を新しい順に返します。
	Find(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error)
}

// CandleWriter はローソク足データの書き込みレイヤーを抽象化します。
type CandleWriter interface {
	UpsertBatch(ctx context.Context, candles []entity.Candle) error
}

// CandleRepository はローソク足データの読み書きを行うリポジトリです。
type CandleRepository interface {
	CandleReader
	CandleWriter
}

// SymbolLister はブレッドス集計の対象銘柄を返します。
type SymbolLister interface {
	ListActiveCodes(ctx context.Context) ([]string, error)
}

// StockDataUsecase は /stockdata の各系列を組み立てます。
type StockDataUsecase struct {
	candle  CandleReader
	symbols SymbolLister
	logger  *zap.Logger
}

// NewStockDataUsecase は StockDataUsecase を生成します。logger は nil でも構いません。
func NewStockDataUsecase(candle CandleReader, symbols SymbolLister, logger *zap.Logger) *StockDataUsecase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockDataUsecase{candle: candle, symbols: symbols, logger: logger}
}

func normalize(interval string, outputsize int) (string, int) {
	if interval == "" {
		interval = DefaultInterval
	}
	if outputsize <= 0 || outputsize > MaxOutputSize {
		outputsize = DefaultOutputSize
	}
	return interval, outputsize
}

// GetCandles は指定された銘柄と時間間隔の最新ローソク足を時刻の昇順で返します。
func (u *StockDataUsecase) GetCandles(ctx context.Context, symbol, interval string, outputsize int) ([]entity.Candle, error) {
	interval, outputsize = normalize(interval, outputsize)

	cs, err := u.candle.Find(ctx, symbol, interval, outputsize)
	if err != nil {
		return nil, err
	}
	return chronological(cs), nil
}

// Breadth は全アクティブ銘柄について、直近 BreadthWindow 本の高値（安値）を更新した銘柄の割合を日付ごとに返します。
// which は "high52w" または "low52w" です。結果は時刻の昇順で、最新 outputsize 件に切り詰めます。
func (u *StockDataUsecase) Breadth(ctx context.Context, which, interval string, outputsize int) ([]entity.BreadthPoint, error) {
	var side BreadthSide
	switch which {
	case "high52w":
		side = NewHigh
	case "low52w":
		side = NewLow
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBreadth, which)
	}
	interval, outputsize = normalize(interval, outputsize)

	codes, err := u.symbols.ListActiveCodes(ctx)
	if err != nil {
		return nil, fmt.Errorf("list symbols: %w", err)
	}

	// 先頭の出力点でも窓が埋まるよう、窓幅ぶん余分に読み出す
	depth := outputsize + BreadthWindow - 1
	series := make([][]entity.Candle, len(codes))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(breadthFetchLimit)
	for i, code := range codes {
		i, code := i, code
		g.Go(func() error {
			cs, err := u.candle.Find(gctx, code, interval, depth)
			if err != nil {
				return fmt.Errorf("find %s: %w", code, err)
			}
			series[i] = chronological(cs)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	points := ComputeBreadth(series, side, BreadthWindow)
	if len(points) > outputsize {
		points = points[len(points)-outputsize:]
	}
	u.logger.Debug("breadth computed",
		zap.String("series", which),
		zap.String("interval", interval),
		zap.Int("symbols", len(codes)),
		zap.Int("points", len(points)),
	)
	return points, nil
}

// chronological はリポジトリの新しい順の結果を古い順に並べ替えたコピーを返します。
func chronological(cs []entity.Candle) []entity.Candle {
	out := slices.Clone(cs)
	if out == nil {
		out = []entity.Candle{}
	}
	slices.SortStableFunc(out, func(a, b entity.Candle) int { return a.Time.Compare(b.Time) })
	return out
}
