package entity

// SeriesKind is the drawing type of a series.
type SeriesKind string

const (
	KindLine        SeriesKind = "line"
	KindCandlestick SeriesKind = "candlestick"
	KindHistogram   SeriesKind = "histogram"
)

// PriceFormat はスケール上の数値の表示形式です。
type PriceFormat string

const (
	FormatPrice   PriceFormat = "price"
	FormatVolume  PriceFormat = "volume"
	FormatPercent PriceFormat = "percent"
)

// IndicatorSpec は移動平均などのインジケーター設定です。呼び出し側が指定し、データからは導出しません。
type IndicatorSpec struct {
	Lookback int    `json:"lookback" yaml:"lookback"`
	Color    string `json:"color" yaml:"color"`
}

// Style holds the visual attributes of a series.
type Style struct {
	Color       string      `json:"color,omitempty"`
	LineWidth   float64     `json:"lineWidth,omitempty"`
	PriceFormat PriceFormat `json:"priceFormat,omitempty"`
	TopColor    string      `json:"topColor,omitempty"`
	BottomColor string      `json:"bottomColor,omitempty"`
	UpColor     string      `json:"upColor,omitempty"`
	DownColor   string      `json:"downColor,omitempty"`
}

// RenderPlanEntry は描画面に渡す1系列分の指示です。
type RenderPlanEntry struct {
	Pane          int        `json:"pane"`
	ScaleID       string     `json:"scaleId"`
	Kind          SeriesKind `json:"kind"`
	Title         string     `json:"title,omitempty"`
	Series        TimeSeries `json:"series"`
	Style         Style      `json:"style"`
	ShowLastValue bool       `json:"showLastValue"`
	ShowPriceLine bool       `json:"showPriceLine"`
}

// Pane は独立したスケールを持つ縦方向の領域です。Entries の順序が重なり順・凡例順になります。
type Pane struct {
	ID      int               `json:"id"`
	Height  int               `json:"height"`
	Entries []RenderPlanEntry `json:"entries"`
}

// RenderPlan is the full declarative description of what to draw.
type RenderPlan struct {
	Panes []Pane `json:"panes"`
}

// EmptyPlan returns a plan with no panes.
func EmptyPlan() RenderPlan {
	return RenderPlan{Panes: []Pane{}}
}

// IsEmpty reports whether the plan has no panes.
func (p RenderPlan) IsEmpty() bool {
	return len(p.Panes) == 0
}
