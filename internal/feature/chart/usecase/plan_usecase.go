package usecase

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"stock_chart/internal/feature/chart/domain/entity"
)

// DataSource は生の時系列の取得元を抽象化します。
// Goの慣例に従い、インターフェースは利用者（usecase）側で定義します。
type DataSource interface {
	// Fetch は kind/symbol の時系列を時刻昇順で返します。
	Fetch(ctx context.Context, kind, symbol string) (entity.TimeSeries, error)
}

// Metrics records chart pipeline events.
type Metrics interface {
	PlanAssembled(kind string)
	CycleSuperseded()
}

type noopMetrics struct{}

func (noopMetrics) PlanAssembled(string) {}
func (noopMetrics) CycleSuperseded()     {}

// PlanRequest は 1 回の再計算サイクルの入力です。
type PlanRequest struct {
	Kind   entity.SeriesKind
	Symbol string
	Preset Preset
	// MovingAverages が nil の場合はベース設定の移動平均を使います。
	MovingAverages []entity.IndicatorSpec
	// VolumeLookback が 0 以下の場合はベース設定の値を使います。
	VolumeLookback int
}

// PlanUsecase fetches the raw series for a request and assembles a RenderPlan.
type PlanUsecase struct {
	source  DataSource
	base    Config
	metrics Metrics
	logger  *zap.Logger
}

// NewPlanUsecase は PlanUsecase を生成します。metrics と logger は nil でも構いません。
func NewPlanUsecase(source DataSource, base Config, metrics Metrics, logger *zap.Logger) *PlanUsecase {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanUsecase{source: source, base: base, metrics: metrics, logger: logger}
}

// BuildPlan は主系列とプリセットのオーバーレイを並行に取得し、描画プランを組み立てます。
// いずれかの取得が失敗した場合は残りをキャンセルし、部分的なプランは返しません。
func (u *PlanUsecase) BuildPlan(ctx context.Context, req PlanRequest) (entity.RenderPlan, error) {
	if req.Kind != entity.KindLine && req.Kind != entity.KindCandlestick {
		return entity.RenderPlan{}, fmt.Errorf("%w: %q", ErrUnknownKind, req.Kind)
	}
	preset := req.Preset
	if preset == "" {
		preset = PresetStock
	}
	if !preset.Valid() {
		return entity.RenderPlan{}, fmt.Errorf("%w: %q", ErrUnknownPreset, preset)
	}

	start := time.Now()
	sources := preset.Overlays()

	var primary entity.TimeSeries
	overlays := make([]entity.TimeSeries, len(sources))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s, err := u.source.Fetch(gctx, string(req.Kind), req.Symbol)
		if err != nil {
			return err
		}
		primary = s
		return nil
	})
	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			s, err := u.source.Fetch(gctx, src.Kind, src.Symbol)
			if err != nil {
				return err
			}
			overlays[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		u.logger.Warn("plan fetch failed",
			zap.String("kind", string(req.Kind)),
			zap.String("symbol", req.Symbol),
			zap.Error(err),
		)
		return entity.RenderPlan{}, err
	}

	cfg := u.configFor(req)
	for i, src := range sources {
		cfg.Overlays = append(cfg.Overlays, Overlay{Name: src.Name, Color: src.Color, Series: overlays[i]})
	}

	plan, err := Assemble(primary, req.Kind, cfg)
	if err != nil {
		return entity.RenderPlan{}, err
	}
	u.metrics.PlanAssembled(string(req.Kind))
	u.logger.Debug("plan assembled",
		zap.String("kind", string(req.Kind)),
		zap.String("symbol", req.Symbol),
		zap.Int("points", len(primary)),
		zap.Int("panes", len(plan.Panes)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return plan, nil
}

func (u *PlanUsecase) configFor(req PlanRequest) Config {
	cfg := u.base
	cfg.Title = req.Symbol
	cfg.Overlays = nil
	if req.MovingAverages != nil {
		cfg.MovingAverages = req.MovingAverages
	}
	if req.VolumeLookback > 0 {
		cfg.VolumeLookback = req.VolumeLookback
	}
	return cfg
}
