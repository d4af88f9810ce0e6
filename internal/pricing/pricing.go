// Package pricing supplies per-model token rates for providers whose logs do
// not carry cost directly. Rates are USD per million tokens. The table is
// embedded; maintaining it against upstream price changes is the caller's
// problem, which is why Service is an interface that scans receive injected.
package pricing

import (
	"math"
	"strings"
)

type ModelPricing struct {
	InputPerMTok      float64
	OutputPerMTok     float64
	CacheReadPerMTok  float64
	CacheWritePerMTok float64
}

type Service interface {
	PriceFor(model string) (ModelPricing, bool)
}

type StaticService struct {
	table map[string]ModelPricing
}

func NewService() *StaticService {
	return &StaticService{
		table: map[string]ModelPricing{
			"claude-opus-4":     {InputPerMTok: 15.0, OutputPerMTok: 75.0, CacheReadPerMTok: 1.5, CacheWritePerMTok: 18.75},
			"claude-opus-4-1":   {InputPerMTok: 15.0, OutputPerMTok: 75.0, CacheReadPerMTok: 1.5, CacheWritePerMTok: 18.75},
			"claude-sonnet-4":   {InputPerMTok: 3.0, OutputPerMTok: 15.0, CacheReadPerMTok: 0.3, CacheWritePerMTok: 3.75},
			"claude-sonnet-4-5": {InputPerMTok: 3.0, OutputPerMTok: 15.0, CacheReadPerMTok: 0.3, CacheWritePerMTok: 3.75},
			"claude-haiku-4-5":  {InputPerMTok: 1.0, OutputPerMTok: 5.0, CacheReadPerMTok: 0.1, CacheWritePerMTok: 1.25},
			"claude-3-5-sonnet": {InputPerMTok: 3.0, OutputPerMTok: 15.0, CacheReadPerMTok: 0.3, CacheWritePerMTok: 3.75},
			"claude-3-5-haiku":  {InputPerMTok: 0.8, OutputPerMTok: 4.0, CacheReadPerMTok: 0.08, CacheWritePerMTok: 1.0},
			"claude-3-opus":     {InputPerMTok: 15.0, OutputPerMTok: 75.0, CacheReadPerMTok: 1.5, CacheWritePerMTok: 18.75},
			"gpt-5":             {InputPerMTok: 1.25, OutputPerMTok: 10.0, CacheReadPerMTok: 0.125},
			"gpt-5-mini":        {InputPerMTok: 0.25, OutputPerMTok: 2.0, CacheReadPerMTok: 0.025},
			"gpt-5-codex":       {InputPerMTok: 1.25, OutputPerMTok: 10.0, CacheReadPerMTok: 0.125},
			"gpt-4o":            {InputPerMTok: 2.5, OutputPerMTok: 10.0, CacheReadPerMTok: 1.25},
			"gpt-4o-mini":       {InputPerMTok: 0.15, OutputPerMTok: 0.6, CacheReadPerMTok: 0.075},
			"o3":                {InputPerMTok: 2.0, OutputPerMTok: 8.0, CacheReadPerMTok: 0.5},
			"o4-mini":           {InputPerMTok: 1.1, OutputPerMTok: 4.4, CacheReadPerMTok: 0.275},
			"gemini-2.5-pro":    {InputPerMTok: 1.25, OutputPerMTok: 10.0, CacheReadPerMTok: 0.31},
			"gemini-2.5-flash":  {InputPerMTok: 0.3, OutputPerMTok: 2.5, CacheReadPerMTok: 0.075},
			"gemini-2.0-flash":  {InputPerMTok: 0.1, OutputPerMTok: 0.4, CacheReadPerMTok: 0.025},
		},
	}
}

// PriceFor looks up a normalized model name, falling back to the longest
// table key the name starts with so minor variants still price.
func (s *StaticService) PriceFor(model string) (ModelPricing, bool) {
	if p, ok := s.table[model]; ok {
		return p, true
	}
	var best string
	for key := range s.table {
		if strings.HasPrefix(model, key) && len(key) > len(best) {
			best = key
		}
	}
	if best != "" {
		return s.table[best], true
	}
	return ModelPricing{}, false
}

// CostNanos prices a token bundle in integer nanodollars. Tokens times a
// per-million-token dollar rate yields microdollars; one microdollar is 1000
// nanodollars.
func CostNanos(p ModelPricing, input, cacheRead, cacheCreate, output int64) int64 {
	microUSD := float64(input)*p.InputPerMTok +
		float64(cacheRead)*p.CacheReadPerMTok +
		float64(cacheCreate)*p.CacheWritePerMTok +
		float64(output)*p.OutputPerMTok
	return int64(math.Round(microUSD * 1000))
}
