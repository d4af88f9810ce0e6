package providers

import (
	"bufio"
	"encoding/json"
	"os"
	"time"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// claudeParser reads Claude Code transcripts: one JSONL file per session
// under <root>/<project>/, assistant messages carrying message.usage.
type claudeParser struct {
	tz      *time.Location
	pricing pricing.Service
}

// claudeLine is the subset of a transcript record the parser cares about.
type claudeLine struct {
	Type      string   `json:"type"`
	Timestamp string   `json:"timestamp"`
	RequestID string   `json:"requestId"`
	CostUSD   *float64 `json:"costUSD"`
	Message   struct {
		ID    string `json:"id"`
		Model string `json:"model"`
		Usage struct {
			InputTokens              int64 `json:"input_tokens"`
			OutputTokens             int64 `json:"output_tokens"`
			CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
			CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
		} `json:"usage"`
	} `json:"message"`
}

func newClaudeParser(tz *time.Location, svc pricing.Service) *claudeParser {
	return &claudeParser{tz: tz, pricing: svc}
}

func (p *claudeParser) Name() string { return "claude" }

func (p *claudeParser) DefaultRoot() (string, error) {
	if dir := os.Getenv("CLAUDE_CONFIG_DIR"); dir != "" {
		return dir, nil
	}
	return homePath(".claude", "projects")
}

func (p *claudeParser) ListFiles(root string) ([]string, error) {
	return walkFiles(root, "*.jsonl")
}

func (p *claudeParser) Parse(path string) (types.DayUsage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}
	defer file.Close()

	usage := make(types.DayUsage)
	// API retries can duplicate an assistant message within a session file;
	// messageId:requestId identifies a billed response exactly once.
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec claudeLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue
		}
		if rec.Type != "assistant" || rec.Message.Model == "" || rec.Message.Model == "<synthetic>" {
			continue
		}

		u := rec.Message.Usage
		if u.InputTokens == 0 && u.OutputTokens == 0 &&
			u.CacheCreationInputTokens == 0 && u.CacheReadInputTokens == 0 {
			continue
		}

		ts, err := time.Parse(time.RFC3339, rec.Timestamp)
		if err != nil {
			continue
		}

		if rec.Message.ID != "" && rec.RequestID != "" {
			hash := rec.Message.ID + ":" + rec.RequestID
			if seen[hash] {
				continue
			}
			seen[hash] = true
		}

		model := NormalizeModel(rec.Message.Model)
		packed := types.PackedUsage{
			InputTokens:         u.InputTokens,
			CacheReadTokens:     u.CacheReadInputTokens,
			CacheCreationTokens: u.CacheCreationInputTokens,
			OutputTokens:        u.OutputTokens,
		}
		if rec.CostUSD != nil {
			packed.CostNanos = int64(*rec.CostUSD * types.NanosPerDollar)
		} else if price, ok := p.pricing.PriceFor(model); ok {
			packed.CostNanos = pricing.CostNanos(price,
				u.InputTokens, u.CacheReadInputTokens, u.CacheCreationInputTokens, u.OutputTokens)
		}

		usage.AddUsage(daterange.DayKey(ts.In(p.tz)), model, packed)
	}

	if err := scanner.Err(); err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}
	return usage, nil
}
