package usecase_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_chart/internal/feature/chart/domain"
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/usecase"
)

// fakeSurface は描画と解放の回数を記録します。
type fakeSurface struct {
	cycle    uint64
	rendered []entity.RenderPlan
	closes   int
	renderFn func() error
}

func (s *fakeSurface) Render(_ context.Context, plan entity.RenderPlan) error {
	if s.renderFn != nil {
		if err := s.renderFn(); err != nil {
			return err
		}
	}
	s.rendered = append(s.rendered, plan)
	return nil
}

func (s *fakeSurface) Close() error {
	s.closes++
	return nil
}

// fakeOpener は開いた描画面を記録し、同時に開いている数の最大値を追跡します。
type fakeOpener struct {
	mu       sync.Mutex
	surfaces []*fakeSurface
	openErr  error
	renderFn func() error
}

func (o *fakeOpener) Open(_ context.Context, cycle uint64) (usecase.RenderSurface, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.openErr != nil {
		return nil, o.openErr
	}
	for _, s := range o.surfaces {
		if s.closes == 0 {
			return nil, errors.New("previous surface still open")
		}
	}
	s := &fakeSurface{cycle: cycle, renderFn: o.renderFn}
	o.surfaces = append(o.surfaces, s)
	return s, nil
}

func (o *fakeOpener) Surfaces() []*fakeSurface {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]*fakeSurface(nil), o.surfaces...)
}

// gatedBuilder は銘柄ごとのゲートが開くまで BuildPlan をブロックします。ctx のキャンセルは無視します。
type gatedBuilder struct {
	started map[string]chan struct{}
	release map[string]chan struct{}
	errs    map[string]error
}

func newGatedBuilder(symbols ...string) *gatedBuilder {
	b := &gatedBuilder{
		started: make(map[string]chan struct{}),
		release: make(map[string]chan struct{}),
		errs:    make(map[string]error),
	}
	for _, s := range symbols {
		b.started[s] = make(chan struct{})
		b.release[s] = make(chan struct{})
	}
	return b
}

func (b *gatedBuilder) BuildPlan(_ context.Context, req usecase.PlanRequest) (entity.RenderPlan, error) {
	close(b.started[req.Symbol])
	<-b.release[req.Symbol]
	if err := b.errs[req.Symbol]; err != nil {
		return entity.RenderPlan{}, err
	}
	return planFor(req.Symbol), nil
}

func planFor(symbol string) entity.RenderPlan {
	return entity.RenderPlan{Panes: []entity.Pane{{Entries: []entity.RenderPlanEntry{{Title: symbol}}}}}
}

func waitOrFail(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

func TestViewer_LaterCycleWins(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A", "B")
	opener := &fakeOpener{}
	metrics := &mockMetrics{}
	v := usecase.NewViewer(builder, opener, metrics, nil)

	errA := make(chan error, 1)
	go func() { errA <- v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"}) }()
	waitOrFail(t, builder.started["A"], "cycle A to start")

	errB := make(chan error, 1)
	go func() { errB <- v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "B"}) }()
	waitOrFail(t, builder.started["B"], "cycle B to start")

	// B が先に完了し、A が後から完了する
	close(builder.release["B"])
	require.NoError(t, <-errB)
	close(builder.release["A"])
	err := <-errA
	assert.ErrorIs(t, err, domain.ErrSuperseded)
	var ce *usecase.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(1), ce.Cycle)

	surfaces := opener.Surfaces()
	require.Len(t, surfaces, 2)

	a, b := surfaces[0], surfaces[1]
	assert.Equal(t, uint64(1), a.cycle)
	assert.Empty(t, a.rendered, "superseded cycle must never render")
	assert.Equal(t, 1, a.closes)

	assert.Equal(t, uint64(2), b.cycle)
	require.Len(t, b.rendered, 1)
	assert.Equal(t, planFor("B"), b.rendered[0])
	assert.Equal(t, 0, b.closes, "current surface stays open")
	assert.Equal(t, 1, metrics.Superseded())

	require.NoError(t, v.Close())
	require.NoError(t, v.Close())
	assert.Equal(t, 1, b.closes, "surface is released exactly once")
	assert.Equal(t, 1, a.closes)
}

func TestViewer_SequentialCyclesReleasePrevious(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A", "B")
	close(builder.release["A"])
	close(builder.release["B"])
	opener := &fakeOpener{}
	v := usecase.NewViewer(builder, opener, nil, nil)

	require.NoError(t, v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"}))
	require.NoError(t, v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "B"}))

	surfaces := opener.Surfaces()
	require.Len(t, surfaces, 2)
	assert.Len(t, surfaces[0].rendered, 1)
	assert.Equal(t, 1, surfaces[0].closes)
	assert.Len(t, surfaces[1].rendered, 1)
	assert.Equal(t, 0, surfaces[1].closes)
	assert.Equal(t, uint64(2), v.Cycle())
}

func TestViewer_BuildErrorReleasesSurface(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A")
	builder.errs["A"] = &domain.FetchError{Kind: "line", Symbol: "A", StatusCode: 404}
	close(builder.release["A"])
	opener := &fakeOpener{}
	v := usecase.NewViewer(builder, opener, nil, nil)

	err := v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"})
	assert.ErrorIs(t, err, domain.ErrFetchFailed)

	surfaces := opener.Surfaces()
	require.Len(t, surfaces, 1)
	assert.Empty(t, surfaces[0].rendered)
	assert.Equal(t, 1, surfaces[0].closes)

	require.NoError(t, v.Close())
	assert.Equal(t, 1, surfaces[0].closes)
}

func TestViewer_RenderErrorReleasesSurface(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A")
	close(builder.release["A"])
	renderErr := errors.New("connection reset")
	opener := &fakeOpener{renderFn: func() error { return renderErr }}
	v := usecase.NewViewer(builder, opener, nil, nil)

	err := v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"})
	assert.ErrorIs(t, err, renderErr)
	var ce *usecase.CycleError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, uint64(1), ce.Cycle)
	assert.Equal(t, 1, opener.Surfaces()[0].closes)
}

func TestViewer_OpenError(t *testing.T) {
	t.Parallel()

	opener := &fakeOpener{openErr: errors.New("no surface")}
	v := usecase.NewViewer(newGatedBuilder(), opener, nil, nil)

	err := v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"})
	assert.ErrorIs(t, err, opener.openErr)
}

func TestViewer_CloseDuringCycle(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A")
	opener := &fakeOpener{}
	v := usecase.NewViewer(builder, opener, nil, nil)

	errA := make(chan error, 1)
	go func() { errA <- v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"}) }()
	waitOrFail(t, builder.started["A"], "cycle A to start")

	require.NoError(t, v.Close())
	close(builder.release["A"])
	assert.ErrorIs(t, <-errA, usecase.ErrViewerClosed)

	s := opener.Surfaces()[0]
	assert.Empty(t, s.rendered)
	assert.Equal(t, 1, s.closes)

	err := v.Show(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "B"})
	assert.ErrorIs(t, err, usecase.ErrViewerClosed)
}

func TestViewer_SubmitStartsCyclesInCallOrder(t *testing.T) {
	t.Parallel()

	builder := newGatedBuilder("A", "B")
	opener := &fakeOpener{}
	v := usecase.NewViewer(builder, opener, nil, nil)

	doneA := v.Submit(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"})
	doneB := v.Submit(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "B"})
	assert.Equal(t, uint64(2), v.Cycle())

	close(builder.release["A"])
	close(builder.release["B"])

	assert.ErrorIs(t, <-doneA, domain.ErrSuperseded)
	require.NoError(t, <-doneB)

	surfaces := opener.Surfaces()
	require.Len(t, surfaces, 2)
	assert.Empty(t, surfaces[0].rendered)
	require.Len(t, surfaces[1].rendered, 1)
	assert.Equal(t, planFor("B"), surfaces[1].rendered[0])
}

func TestViewer_SubmitAfterClose(t *testing.T) {
	t.Parallel()

	v := usecase.NewViewer(newGatedBuilder(), &fakeOpener{}, nil, nil)
	require.NoError(t, v.Close())

	assert.ErrorIs(t, <-v.Submit(context.Background(), usecase.PlanRequest{Kind: entity.KindLine, Symbol: "A"}), usecase.ErrViewerClosed)
}
