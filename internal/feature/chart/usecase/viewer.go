package usecase

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/domain/entity"
)

// ErrViewerClosed is returned by Show after Close.
var ErrViewerClosed = errors.New("viewer closed")

// CycleError は Show の失敗をそのサイクル番号と結び付けます。
type CycleError struct {
	Cycle uint64
	Err   error
}

func (e *CycleError) Error() string { return fmt.Sprintf("cycle %d: %v", e.Cycle, e.Err) }

func (e *CycleError) Unwrap() error { return e.Err }

// RenderSurface は描画先です。Close は Open ごとに 1 回だけ呼ばれます。
type RenderSurface interface {
	Render(ctx context.Context, plan entity.RenderPlan) error
	Close() error
}

// SurfaceOpener はサイクルごとに新しい RenderSurface を確保します。
// Viewer はロックを保持したまま Open を呼ぶため、Open は長時間ブロックしてはいけません。
type SurfaceOpener interface {
	Open(ctx context.Context, cycle uint64) (RenderSurface, error)
}

// PlanBuilder は PlanUsecase の抽象です。
type PlanBuilder interface {
	BuildPlan(ctx context.Context, req PlanRequest) (entity.RenderPlan, error)
}

var _ PlanBuilder = (*PlanUsecase)(nil)

// Viewer は銘柄の切り替えごとに再計算サイクルを開始し、最新のサイクルだけを描画します。
//
// 新しいサイクルは実行中の古いサイクルをキャンセルし、古い描画面を解放してから新しい描画面を確保します。
// 古いサイクルが後から完了しても描画されず ErrSuperseded を返します。
// 同時に開いている描画面は常に高々 1 つです。
type Viewer struct {
	builder PlanBuilder
	opener  SurfaceOpener
	metrics Metrics
	logger  *zap.Logger

	mu      sync.Mutex
	cycle   uint64
	cancel  context.CancelFunc
	surface RenderSurface
	closed  bool
}

// NewViewer は Viewer を生成します。metrics と logger は nil でも構いません。
func NewViewer(builder PlanBuilder, opener SurfaceOpener, metrics Metrics, logger *zap.Logger) *Viewer {
	if metrics == nil {
		metrics = noopMetrics{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Viewer{builder: builder, opener: opener, metrics: metrics, logger: logger}
}

// Show は新しいサイクルを開始し、プランを組み立てて描画します。
// より新しい Show が開始された場合は ErrSuperseded を返します。
// サイクル開始後の失敗は *CycleError で包まれます。
func (v *Viewer) Show(ctx context.Context, req PlanRequest) error {
	cycle, cctx, err := v.begin(ctx)
	if err != nil {
		return err
	}
	return v.finish(cycle, cctx, req)
}

// Submit はサイクルを呼び出し元で同期的に開始し、組み立てと描画をバックグラウンドで行います。
// 連続して呼んだ場合、後の呼び出しが必ず新しいサイクルになります。結果は Show と同じ値が1回だけ送られます。
func (v *Viewer) Submit(ctx context.Context, req PlanRequest) <-chan error {
	done := make(chan error, 1)
	cycle, cctx, err := v.begin(ctx)
	if err != nil {
		done <- err
		return done
	}
	go func() {
		done <- v.finish(cycle, cctx, req)
	}()
	return done
}

func (v *Viewer) finish(cycle uint64, cctx context.Context, req PlanRequest) error {
	plan, buildErr := v.builder.BuildPlan(cctx, req)

	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return ErrViewerClosed
	}
	if cycle != v.cycle {
		// 描画面は後続のサイクルが解放済み
		v.metrics.CycleSuperseded()
		v.logger.Debug("cycle superseded", zap.Uint64("cycle", cycle), zap.String("symbol", req.Symbol))
		return &CycleError{Cycle: cycle, Err: domain.ErrSuperseded}
	}
	if buildErr != nil {
		v.releaseLocked()
		return &CycleError{Cycle: cycle, Err: buildErr}
	}
	if err := v.surface.Render(cctx, plan); err != nil {
		v.releaseLocked()
		return &CycleError{Cycle: cycle, Err: fmt.Errorf("render: %w", err)}
	}
	v.cancel()
	v.cancel = nil
	return nil
}

// begin は前のサイクルをキャンセルして描画面を解放し、新しいサイクルの描画面を確保します。
func (v *Viewer) begin(ctx context.Context) (uint64, context.Context, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.closed {
		return 0, nil, ErrViewerClosed
	}
	v.releaseLocked()

	v.cycle++
	cycle := v.cycle

	surface, err := v.opener.Open(ctx, cycle)
	if err != nil {
		return 0, nil, &CycleError{Cycle: cycle, Err: fmt.Errorf("open surface: %w", err)}
	}
	cctx, cancel := context.WithCancel(ctx)
	v.surface = surface
	v.cancel = cancel
	return cycle, cctx, nil
}

// releaseLocked は実行中のサイクルをキャンセルし、開いている描画面を 1 回だけ閉じます。
func (v *Viewer) releaseLocked() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	if v.surface == nil {
		return
	}
	if err := v.surface.Close(); err != nil {
		v.logger.Warn("failed to close render surface", zap.Uint64("cycle", v.cycle), zap.Error(err))
	}
	v.surface = nil
}

// Close は実行中のサイクルをキャンセルし、描画面を解放します。複数回呼んでも安全です。
func (v *Viewer) Close() error {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.closed = true
	v.releaseLocked()
	return nil
}

// Cycle returns the number of the most recently started cycle.
func (v *Viewer) Cycle() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.cycle
}
