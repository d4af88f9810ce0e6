package providers

import (
	"encoding/json"
	"os"
	"time"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// geminiParser reads Gemini CLI (VertexAI) request logs: a logs.json array
// per session directory under <root>/<session-hash>/.
type geminiParser struct {
	tz      *time.Location
	pricing pricing.Service
}

type geminiRecord struct {
	Timestamp string `json:"timestamp"`
	Model     string `json:"model"`
	Tokens    struct {
		Input    int64 `json:"input"`
		Output   int64 `json:"output"`
		Cached   int64 `json:"cached"`
		Thoughts int64 `json:"thoughts"`
		Tool     int64 `json:"tool"`
	} `json:"tokens"`
}

func newGeminiParser(tz *time.Location, svc pricing.Service) *geminiParser {
	return &geminiParser{tz: tz, pricing: svc}
}

func (p *geminiParser) Name() string { return "gemini" }

func (p *geminiParser) DefaultRoot() (string, error) {
	if dir := os.Getenv("GEMINI_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	return homePath(".gemini", "tmp")
}

func (p *geminiParser) ListFiles(root string) ([]string, error) {
	return walkFiles(root, "logs.json")
}

func (p *geminiParser) Parse(path string) (types.DayUsage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}

	usage := make(types.DayUsage)
	var records []geminiRecord
	if err := json.Unmarshal(data, &records); err != nil {
		// A corrupt log contributes nothing; the scan goes on.
		return usage, nil
	}

	for _, rec := range records {
		if rec.Model == "" {
			continue
		}
		ts, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			continue
		}

		// Thought and tool tokens are billed as output.
		output := rec.Tokens.Output + rec.Tokens.Thoughts + rec.Tokens.Tool
		input := rec.Tokens.Input - rec.Tokens.Cached
		if input < 0 {
			input = 0
		}
		if input == 0 && output == 0 && rec.Tokens.Cached == 0 {
			continue
		}

		model := NormalizeModel(rec.Model)
		packed := types.PackedUsage{
			InputTokens:     input,
			CacheReadTokens: rec.Tokens.Cached,
			OutputTokens:    output,
		}
		if price, ok := p.pricing.PriceFor(model); ok {
			packed.CostNanos = pricing.CostNanos(price, input, rec.Tokens.Cached, 0, output)
		}

		usage.AddUsage(daterange.DayKey(ts.In(p.tz)), model, packed)
	}

	return usage, nil
}
