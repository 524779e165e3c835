package backend

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Timestamp is a point in time sent by the backend as unix seconds. Some history
// series carry a preformatted string instead; it is kept in Text and shown as-is.
type Timestamp struct {
	Unix int64
	Text string
}

func (t *Timestamp) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*t = Timestamp{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("timestamp: %w", err)
		}
		if n, err := strconv.ParseInt(s, 10, 64); err == nil {
			*t = Timestamp{Unix: n}
			return nil
		}
		*t = Timestamp{Text: s}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	*t = Timestamp{Unix: int64(f)}
	return nil
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.Text != "" {
		return json.Marshal(t.Text)
	}
	if t.Unix == 0 {
		return []byte("null"), nil
	}
	return []byte(strconv.FormatInt(t.Unix, 10)), nil
}

// IsZero reports whether the backend omitted the timestamp.
func (t Timestamp) IsZero() bool {
	return t.Unix == 0 && t.Text == ""
}

// Quote is the top of book for one symbol
type Quote struct {
	Bid    float64 `json:"bid"`
	Ask    float64 `json:"ask"`
	Spread float64 `json:"spread"`
}

type Position struct {
	Ticket       int64   `json:"ticket"`
	Symbol       string  `json:"symbol"`
	Type         string  `json:"type"`
	Volume       float64 `json:"volume"`
	PriceOpen    float64 `json:"price_open"`
	PriceCurrent float64 `json:"price_current"`
	Profit       float64 `json:"profit"`
	SL           float64 `json:"sl"`
	TP           float64 `json:"tp"`
}

// ComplianceStatus mirrors the challenge rules tracked by the trading system.
// Drawdown and Limits are kept raw because deployments send numbers, strings or objects.
type ComplianceStatus struct {
	TargetReached bool            `json:"target_reached"`
	Drawdown      json.RawMessage `json:"drawdown"`
	Limits        json.RawMessage `json:"limits"`
	Warning       bool            `json:"warning"`
}

type Notification struct {
	Timestamp Timestamp `json:"timestamp"`
	Message   string    `json:"message"`
}

type LiveStatus struct {
	SymbolsData      map[string]Quote  `json:"symbols_data"`
	OpenPositions    []Position        `json:"open_positions"`
	ComplianceStatus *ComplianceStatus `json:"compliance_status"`
	Notifications    []Notification    `json:"notifications"`
	Symbols          []string          `json:"symbols"`
}

func (s *LiveStatus) normalize() {
	if s.SymbolsData == nil {
		s.SymbolsData = map[string]Quote{}
	}
	if s.OpenPositions == nil {
		s.OpenPositions = []Position{}
	}
	if s.Notifications == nil {
		s.Notifications = []Notification{}
	}
	if s.Symbols == nil {
		s.Symbols = []string{}
	}
}

// Trade is a closed deal from the history endpoint
type Trade struct {
	Ticket  int64     `json:"ticket"`
	Symbol  string    `json:"symbol"`
	Type    string    `json:"type"`
	Volume  float64   `json:"volume"`
	Price   float64   `json:"price"`
	Profit  float64   `json:"profit"`
	Time    Timestamp `json:"time"`
	Comment string    `json:"comment"`
}

type QuantumSignal struct {
	Entropia   float64   `json:"entropia"`
	Spin       float64   `json:"spin"`
	Confidence float64   `json:"confidence"`
	Trend      string    `json:"trend"`
	Volatility float64   `json:"volatility"`
	Signal     string    `json:"signal"`
	Price      float64   `json:"price"`
	Timestamp  Timestamp `json:"timestamp"`
}

// QuantumSignals is keyed by symbol
type QuantumSignals map[string]QuantumSignal

type EquityPoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Equity    float64   `json:"equity"`
	Balance   float64   `json:"balance"`
}

type DrawdownPoint struct {
	Timestamp Timestamp `json:"timestamp"`
	Drawdown  float64   `json:"drawdown"`
}

type DrawdownLimits struct {
	Soft float64 `json:"soft"`
	Hard float64 `json:"hard"`
}

type PLPoint struct {
	Timestamp    Timestamp `json:"timestamp"`
	PLCumulative float64   `json:"pl_cumulative"`
}

type SymbolPerformance struct {
	Symbol string  `json:"symbol"`
	PL     float64 `json:"pl"`
	Trades int     `json:"trades"`
}

type PerformanceMetrics struct {
	WinRate           float64             `json:"win_rate"`
	ProfitFactor      *float64            `json:"profit_factor"`
	NumTrades         int                 `json:"num_trades"`
	DailyTrades       int                 `json:"daily_trades"`
	MaxDrawdown       float64             `json:"max_drawdown"`
	TotalProfit       float64             `json:"total_profit"`
	CurrentRisk       float64             `json:"current_risk"`
	MaxRisk           float64             `json:"max_risk"`
	EquityHistory     []EquityPoint       `json:"equity_history"`
	DrawdownHistory   []DrawdownPoint     `json:"drawdown_history"`
	DrawdownLimits    *DrawdownLimits     `json:"drawdown_limits"`
	PLHistory         []PLPoint           `json:"pl_history"`
	SymbolPerformance []SymbolPerformance `json:"symbol_performance"`
}

func (m *PerformanceMetrics) normalize() {
	if m.EquityHistory == nil {
		m.EquityHistory = []EquityPoint{}
	}
	if m.DrawdownHistory == nil {
		m.DrawdownHistory = []DrawdownPoint{}
	}
	if m.PLHistory == nil {
		m.PLHistory = []PLPoint{}
	}
	if m.SymbolPerformance == nil {
		m.SymbolPerformance = []SymbolPerformance{}
	}
}

// OrderRequest carries the order form values verbatim; the backend does all validation.
type OrderRequest struct {
	Symbol string `json:"symbol"`
	Type   string `json:"type"`
	Size   string `json:"size"`
	SL     string `json:"sl"`
	TP     string `json:"tp"`
}

type ModifyRequest struct {
	Ticket int64  `json:"ticket"`
	SL     string `json:"sl"`
	TP     string `json:"tp"`
}

type CloseRequest struct {
	Ticket int64 `json:"ticket"`
}
