package providers

import (
	"bufio"
	"bytes"
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// codexParser reads Codex CLI rollout files: JSONL event streams under
// <root>/YYYY/MM/DD/rollout-*.jsonl. Token counts arrive as cumulative
// session totals in event_msg/token_count payloads, so each event
// contributes its delta from the previous one. Lines are heterogeneous
// enough across CLI versions that fields are extracted with gjson instead
// of a rigid schema.
type codexParser struct {
	tz      *time.Location
	pricing pricing.Service
}

func newCodexParser(tz *time.Location, svc pricing.Service) *codexParser {
	return &codexParser{tz: tz, pricing: svc}
}

func (p *codexParser) Name() string { return "codex" }

func (p *codexParser) DefaultRoot() (string, error) {
	if dir := os.Getenv("CODEX_HOME"); dir != "" {
		return dir, nil
	}
	return homePath(".codex", "sessions")
}

func (p *codexParser) ListFiles(root string) ([]string, error) {
	return walkFiles(root, "*.jsonl")
}

type codexTotals struct {
	input     int64
	cached    int64
	output    int64
	reasoning int64
}

func (p *codexParser) Parse(path string) (types.DayUsage, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}
	defer file.Close()

	usage := make(types.DayUsage)
	model := "unknown"
	var previous codexTotals
	var hasPrevious bool

	scanner := bufio.NewScanner(file)
	buf := make([]byte, 0, 512*1024)
	scanner.Buffer(buf, 8*1024*1024)

	for scanner.Scan() {
		line := scanner.Bytes()
		if !bytes.Contains(line, []byte(`"token_count"`)) &&
			!bytes.Contains(line, []byte(`"turn_context"`)) &&
			!bytes.Contains(line, []byte(`"session_meta"`)) {
			continue
		}
		if !gjson.ValidBytes(line) {
			continue
		}

		switch gjson.GetBytes(line, "type").String() {
		case "session_meta", "turn_context":
			if m := gjson.GetBytes(line, "payload.model").String(); m != "" {
				model = m
			}
			continue
		case "event_msg":
		default:
			continue
		}

		info := gjson.GetBytes(line, "payload.info")
		if gjson.GetBytes(line, "payload.type").String() != "token_count" || !info.Exists() {
			continue
		}

		total := codexTotals{
			input:     info.Get("total_token_usage.input_tokens").Int(),
			cached:    info.Get("total_token_usage.cached_input_tokens").Int(),
			output:    info.Get("total_token_usage.output_tokens").Int(),
			reasoning: info.Get("total_token_usage.reasoning_output_tokens").Int(),
		}
		delta := total
		if hasPrevious {
			delta = codexTotals{
				input:     total.input - previous.input,
				cached:    total.cached - previous.cached,
				output:    total.output - previous.output,
				reasoning: total.reasoning - previous.reasoning,
			}
			// Counters reset on compaction; fall back to the new totals.
			if delta.input < 0 || delta.output < 0 {
				delta = total
			}
		}
		previous = total
		hasPrevious = true

		if delta.input <= 0 && delta.output <= 0 {
			continue
		}

		ts, err := time.Parse(time.RFC3339, gjson.GetBytes(line, "timestamp").String())
		if err != nil {
			continue
		}

		normalized := NormalizeModel(model)
		nonCached := delta.input - delta.cached
		if nonCached < 0 {
			nonCached = 0
		}
		packed := types.PackedUsage{
			InputTokens:     nonCached,
			CacheReadTokens: delta.cached,
			OutputTokens:    delta.output,
		}
		if price, ok := p.pricing.PriceFor(normalized); ok {
			packed.CostNanos = pricing.CostNanos(price, nonCached, delta.cached, 0, delta.output)
		}

		usage.AddUsage(daterange.DayKey(ts.In(p.tz)), normalized, packed)
	}

	if err := scanner.Err(); err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}
	return usage, nil
}
