package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/usecase"
)

func TestParseLookbacks(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in      string
		want    []int
		wantErr bool
	}{
		{"20,50,200", []int{20, 50, 200}, false},
		{" 5 , 10 ", []int{5, 10}, false},
		{"", []int{}, false},
		{"20,,50", nil, true},
		{"ten", nil, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()

			got, err := ParseLookbacks(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadLookbacks)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestChartQuery_PlanRequest(t *testing.T) {
	t.Parallel()

	ma := "50,7"
	req, err := ChartQuery{Preset: "index", MA: &ma, VolumeLookback: 10}.PlanRequest("line", " aapl ")
	require.NoError(t, err)

	assert.Equal(t, usecase.PlanRequest{
		Kind:           entity.KindLine,
		Symbol:         "AAPL",
		Preset:         usecase.PresetIndex,
		MovingAverages: usecase.SpecsFor([]int{50, 7}),
		VolumeLookback: 10,
	}, req)

	req, err = ChartQuery{}.PlanRequest("candlestick", "7203.t")
	require.NoError(t, err)
	assert.Nil(t, req.MovingAverages)
	assert.Equal(t, "7203.T", req.Symbol)

	empty := ""
	req, err = ChartQuery{MA: &empty}.PlanRequest("line", "AAPL")
	require.NoError(t, err)
	assert.NotNil(t, req.MovingAverages)
	assert.Empty(t, req.MovingAverages)
}

func TestStreamRequest_PlanRequest(t *testing.T) {
	t.Parallel()

	req, err := StreamRequest{Symbol: "msft"}.PlanRequest()
	require.NoError(t, err)
	assert.Equal(t, entity.KindCandlestick, req.Kind)
	assert.Equal(t, "MSFT", req.Symbol)

	_, err = StreamRequest{Kind: "line", Symbol: "  "}.PlanRequest()
	assert.Error(t, err)

	_, err = StreamRequest{Symbol: "A", VolumeLookback: -1}.PlanRequest()
	assert.Error(t, err)

	req, err = StreamRequest{Symbol: "A", MA: []int{20}}.PlanRequest()
	require.NoError(t, err)
	assert.Equal(t, []entity.IndicatorSpec{{Lookback: 20, Color: "orange"}}, req.MovingAverages)
}
