package usecase

import (
	"stock_chart/internal/feature/chart/domain/entity"
	"stock_chart/internal/feature/chart/indicator"
)

const (
	// DefaultPriceHeight は価格ペインの既定の高さ（px）です。
	DefaultPriceHeight = 300
	// DefaultVolumeHeight は出来高ペインの既定の高さ（px）です。
	DefaultVolumeHeight = 100
	// DefaultOverlayHeight はブレッドスオーバーレイ各ペインの既定の高さ（px）です。
	DefaultOverlayHeight = 100

	// PriceScaleID is the scale shared by the primary series and its moving averages.
	PriceScaleID = "right"
	// VolumeScaleID is the scale shared by the volume histogram and its moving average.
	VolumeScaleID = "volume"
)

// Colors はチャート全体の配色です。
type Colors struct {
	Line          string                 `yaml:"line"`
	AreaTop       string                 `yaml:"area_top"`
	AreaBottom    string                 `yaml:"area_bottom"`
	CandleUp      string                 `yaml:"candle_up"`
	CandleDown    string                 `yaml:"candle_down"`
	VolumeAverage string                 `yaml:"volume_average"`
	Volume        indicator.VolumeColors `yaml:"volume"`
}

// DefaultColors returns the standard palette.
func DefaultColors() Colors {
	return Colors{
		Line:          "blue",
		AreaTop:       "#2962FF",
		AreaBottom:    "rgba(41, 98, 255, 0.28)",
		CandleUp:      "#26a69a",
		CandleDown:    "#ef5350",
		VolumeAverage: "rgba(120, 80, 239, 0.8)",
		Volume:        indicator.DefaultVolumeColors(),
	}
}

// Overlay is an already-fetched breadth series to place on its own pane.
// ScaleID may be empty; the assembler then assigns one.
type Overlay struct {
	Name    string
	ScaleID string
	Color   string
	Series  entity.TimeSeries
}

// Config は Assemble の設定です。
type Config struct {
	Title          string
	MovingAverages []entity.IndicatorSpec
	VolumeLookback int
	Overlays       []Overlay
	Colors         Colors
	PriceHeight    int
	VolumeHeight   int
	OverlayHeight  int
}

// DefaultMovingAverages returns the 20/50/200 moving averages.
func DefaultMovingAverages() []entity.IndicatorSpec {
	return []entity.IndicatorSpec{
		{Lookback: 20, Color: "orange"},
		{Lookback: 50, Color: "green"},
		{Lookback: 200, Color: "pink"},
	}
}

// extraPalette は既定以外の lookback に順番に割り当てる色です。
var extraPalette = []string{"purple", "brown", "teal", "olive", "navy"}

// SpecsFor は lookback の列に色を割り当てます。既定の移動平均と同じ lookback には既定色を使います。
func SpecsFor(lookbacks []int) []entity.IndicatorSpec {
	known := make(map[int]string)
	for _, s := range DefaultMovingAverages() {
		known[s.Lookback] = s.Color
	}
	specs := make([]entity.IndicatorSpec, 0, len(lookbacks))
	extra := 0
	for _, l := range lookbacks {
		color, ok := known[l]
		if !ok {
			color = extraPalette[extra%len(extraPalette)]
			extra++
		}
		specs = append(specs, entity.IndicatorSpec{Lookback: l, Color: color})
	}
	return specs
}

// DefaultConfig returns a Config with the standard moving averages, volume lookback, colors and pane heights.
func DefaultConfig() Config {
	return Config{
		MovingAverages: DefaultMovingAverages(),
		VolumeLookback: indicator.DefaultVolumeLookback,
		Colors:         DefaultColors(),
		PriceHeight:    DefaultPriceHeight,
		VolumeHeight:   DefaultVolumeHeight,
		OverlayHeight:  DefaultOverlayHeight,
	}
}

// withDefaults は未設定の高さと配色を既定値で埋めたコピーを返します。
func (c Config) withDefaults() Config {
	d := DefaultColors()
	if c.PriceHeight <= 0 {
		c.PriceHeight = DefaultPriceHeight
	}
	if c.VolumeHeight <= 0 {
		c.VolumeHeight = DefaultVolumeHeight
	}
	if c.OverlayHeight <= 0 {
		c.OverlayHeight = DefaultOverlayHeight
	}
	if c.Colors.Line == "" {
		c.Colors.Line = d.Line
	}
	if c.Colors.AreaTop == "" {
		c.Colors.AreaTop = d.AreaTop
	}
	if c.Colors.AreaBottom == "" {
		c.Colors.AreaBottom = d.AreaBottom
	}
	if c.Colors.CandleUp == "" {
		c.Colors.CandleUp = d.CandleUp
	}
	if c.Colors.CandleDown == "" {
		c.Colors.CandleDown = d.CandleDown
	}
	if c.Colors.VolumeAverage == "" {
		c.Colors.VolumeAverage = d.VolumeAverage
	}
	if c.Colors.Volume == (indicator.VolumeColors{}) {
		c.Colors.Volume = d.Volume
	}
	return c
}

// Preset selects which auxiliary series a chart view carries.
type Preset string

const (
	// PresetStock は価格・移動平均・出来高のみのビューです。
	PresetStock Preset = "stock"
	// PresetIndex は PresetStock に52週高値/安値ブレッドスを加えたビューです。
	PresetIndex Preset = "index"
)

// OverlaySource names a breadth series to fetch from the DataSource.
type OverlaySource struct {
	Name   string
	Kind   string
	Symbol string
	Color  string
}

// Overlays returns the breadth series a preset needs.
func (p Preset) Overlays() []OverlaySource {
	switch p {
	case PresetIndex:
		return []OverlaySource{
			{Name: "high52w", Kind: "breadth", Symbol: "high52w", Color: "red"},
			{Name: "low52w", Kind: "breadth", Symbol: "low52w", Color: "blue"},
		}
	default:
		return nil
	}
}

// Valid reports whether p is a known preset.
func (p Preset) Valid() bool {
	return p == PresetStock || p == PresetIndex
}
