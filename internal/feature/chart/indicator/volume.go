package indicator

import "stock_chart/internal/feature/chart/domain/entity"

// DefaultVolumeLookback is the moving-average length used for volume when none is given.
const DefaultVolumeLookback = 20

// Direction is the color class of a volume bar.
type Direction string

const (
	Up      Direction = "up"
	Down    Direction = "down"
	Neutral Direction = "neutral"
)

// VolumeColors maps each Direction to a bar color.
type VolumeColors struct {
	Up      string `yaml:"up"`
	Down    string `yaml:"down"`
	Neutral string `yaml:"neutral"`
}

// DefaultVolumeColors returns the standard teal/red/blue palette.
func DefaultVolumeColors() VolumeColors {
	return VolumeColors{
		Up:      "rgba(38, 166, 154, 0.8)",
		Down:    "rgba(239, 83, 80, 0.8)",
		Neutral: "rgba(100, 149, 237, 0.5)",
	}
}

// For returns the color for d.
func (c VolumeColors) For(d Direction) string {
	switch d {
	case Up:
		return c.Up
	case Down:
		return c.Down
	default:
		return c.Neutral
	}
}

// Classify は点の方向を判定します。Open と Close の両方がある場合は Close > Open なら Up、
// それ以外（同値を含む）は Down です。どちらかが欠けている点（ライン系列）は Neutral です。
func Classify(p entity.TimePoint) Direction {
	if p.Open == nil || p.Close == nil {
		return Neutral
	}
	if *p.Close > *p.Open {
		return Up
	}
	return Down
}

// VolumeSeries is the histogram and its moving average. Both belong on the same pane and scale.
type VolumeSeries struct {
	Histogram     entity.TimeSeries
	MovingAverage entity.TimeSeries
}

// BuildVolumeSeries derives a colored volume histogram from series and its moving average.
// Points without Volume are dropped. lookback <= 0 uses DefaultVolumeLookback.
func BuildVolumeSeries(series entity.TimeSeries, lookback int, colors VolumeColors) (VolumeSeries, error) {
	if lookback <= 0 {
		lookback = DefaultVolumeLookback
	}

	hist := make(entity.TimeSeries, 0, len(series))
	for _, p := range series {
		if p.Volume == nil {
			continue
		}
		hist = append(hist, entity.TimePoint{
			Time:  p.Time,
			Value: entity.Float(*p.Volume),
			Color: colors.For(Classify(p)),
		})
	}

	ma, err := MovingAverage(hist, lookback)
	if err != nil {
		return VolumeSeries{}, err
	}
	return VolumeSeries{Histogram: hist, MovingAverage: ma}, nil
}
