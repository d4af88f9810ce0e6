package types

// Period selects the calendar bucket size for aggregation.
type Period string

const (
	PeriodDay      Period = "day"
	PeriodWeek     Period = "week"
	PeriodMonth    Period = "month"
	PeriodHalfYear Period = "halfyear"
	PeriodYear     Period = "year"
)

// ModelBreakdown is one model's share of a day or bucket, by cost.
type ModelBreakdown struct {
	ModelName string  `json:"model_name"`
	CostUSD   float64 `json:"cost_usd"`
}

// DailyEntry is the public, immutable per-day report row. CostUSD is nil when
// no source record for the day carried cost data; absence must not be
// rendered as zero.
type DailyEntry struct {
	Date                string           `json:"date"`
	InputTokens         int64            `json:"input_tokens"`
	OutputTokens        int64            `json:"output_tokens"`
	CacheCreationTokens int64            `json:"cache_creation_tokens"`
	CacheReadTokens     int64            `json:"cache_read_tokens"`
	TotalTokens         int64            `json:"total_tokens"`
	CostUSD             *float64         `json:"cost_usd,omitempty"`
	ModelsUsed          []string         `json:"models_used"`
	ModelBreakdowns     []ModelBreakdown `json:"model_breakdowns,omitempty"`
}

// DailyReport is the flat per-day view derived from a cache's day index.
// Entries are always sorted ascending by date.
type DailyReport struct {
	Provider string       `json:"provider"`
	Since    string       `json:"since,omitempty"`
	Until    string       `json:"until,omitempty"`
	Entries  []DailyEntry `json:"entries"`
}

// AggregatedEntry is one calendar bucket. ID is the stable bucket key
// (e.g. 2025-W03, 2025-H2), never the display label.
type AggregatedEntry struct {
	ID                  string           `json:"id"`
	PeriodLabel         string           `json:"period_label"`
	PeriodStart         string           `json:"period_start"`
	PeriodEnd           string           `json:"period_end"`
	InputTokens         int64            `json:"input_tokens"`
	OutputTokens        int64            `json:"output_tokens"`
	CacheCreationTokens int64            `json:"cache_creation_tokens"`
	CacheReadTokens     int64            `json:"cache_read_tokens"`
	TotalTokens         int64            `json:"total_tokens"`
	CostUSD             *float64         `json:"cost_usd,omitempty"`
	ModelsUsed          []string         `json:"models_used"`
	ModelBreakdowns     []ModelBreakdown `json:"model_breakdowns,omitempty"`
}

// AggregatedReport groups a daily report into calendar buckets.
// Entries are sorted ascending by bucket start.
type AggregatedReport struct {
	Provider string            `json:"provider"`
	Period   Period            `json:"period"`
	Entries  []AggregatedEntry `json:"entries"`
}

// ModelStreak tracks consecutive-day usage runs for one model. CurrentStreak
// is a run ending today or yesterday; a gap of two or more days resets it
// without touching LongestStreak.
type ModelStreak struct {
	ModelName      string `json:"model_name"`
	CurrentStreak  int    `json:"current_streak"`
	LongestStreak  int    `json:"longest_streak"`
	LastActiveDate string `json:"last_active_date"`
}
