package providers

import (
	"os"
	"time"

	"github.com/tidwall/gjson"

	"github.com/imdanielpiva/tokenstats/internal/daterange"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// ampParser reads Amp thread dumps: one whole-file JSON document per thread,
// named T-*.json, with per-message usage blocks. Amp reports cost directly in
// cents, so no price table is involved.
type ampParser struct {
	tz *time.Location
}

func newAmpParser(tz *time.Location) *ampParser {
	return &ampParser{tz: tz}
}

func (p *ampParser) Name() string { return "amp" }

func (p *ampParser) DefaultRoot() (string, error) {
	if dir := os.Getenv("AMP_DATA_DIR"); dir != "" {
		return dir, nil
	}
	return homePath(".amp", "threads")
}

func (p *ampParser) ListFiles(root string) ([]string, error) {
	return walkFiles(root, "t-*.json")
}

func (p *ampParser) Parse(path string) (types.DayUsage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.ParseError{Path: path, Err: err}
	}

	usage := make(types.DayUsage)
	if !gjson.ValidBytes(data) {
		// An unparseable thread contributes nothing; the scan goes on.
		return usage, nil
	}

	thread := gjson.ParseBytes(data)
	// Thread creation time is the fallback day for messages without their own
	// sentAt. The ordering matters: per-message timestamps decide which day
	// absorbs usage around midnight, the thread time only fills gaps.
	threadDay := ""
	if created := thread.Get("created").Int(); created > 0 {
		threadDay = daterange.DayKey(time.UnixMilli(created).In(p.tz))
	}

	thread.Get("messages").ForEach(func(_, msg gjson.Result) bool {
		if msg.Get("role").String() != "assistant" {
			return true
		}
		u := msg.Get("usage")
		if !u.Exists() {
			return true
		}

		packed := types.PackedUsage{
			InputTokens:         u.Get("inputTokens").Int(),
			CacheReadTokens:     u.Get("cacheReadTokens").Int(),
			CacheCreationTokens: u.Get("cacheCreationTokens").Int(),
			OutputTokens:        u.Get("outputTokens").Int(),
			CostNanos:           u.Get("costCents").Int() * 10_000_000,
		}
		if packed.IsZero() {
			return true
		}

		day := threadDay
		if sentAt := msg.Get("meta.sentAt").Int(); sentAt > 0 {
			day = daterange.DayKey(time.UnixMilli(sentAt).In(p.tz))
		}
		if day == "" {
			return true
		}

		model := msg.Get("model").String()
		if model == "" {
			model = "unknown"
		}
		usage.AddUsage(day, NormalizeModel(model), packed)
		return true
	})

	return usage, nil
}
