// Package providers holds the per-provider session-log parsers. Each parser
// is a pure function from a log file to per-day, per-model packed usage; all
// cache bookkeeping lives in the scanner.
package providers

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/imdanielpiva/tokenstats/internal/pricing"
	"github.com/imdanielpiva/tokenstats/internal/types"
)

// Parser is the capability surface the scanner needs from a provider.
// Parse must tolerate partially-malformed files: a bad record is skipped,
// never fatal.
type Parser interface {
	Name() string
	DefaultRoot() (string, error)
	ListFiles(root string) ([]string, error)
	Parse(path string) (types.DayUsage, error)
}

// Registry is the closed set of known providers.
type Registry struct {
	parsers map[string]Parser
}

func NewRegistry(tz *time.Location, svc pricing.Service) *Registry {
	if tz == nil {
		tz = time.Local
	}
	r := &Registry{parsers: make(map[string]Parser)}
	for _, p := range []Parser{
		newClaudeParser(tz, svc),
		newCodexParser(tz, svc),
		newAmpParser(tz),
		newGeminiParser(tz, svc),
	} {
		r.parsers[p.Name()] = p
	}
	return r
}

func (r *Registry) Get(name string) (Parser, error) {
	p, ok := r.parsers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", types.ErrUnknownProvider, name)
	}
	return p, nil
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.parsers))
	for name := range r.parsers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var modelDateSuffix = regexp.MustCompile(`-20\d{6}$`)

// NormalizeModel strips date-version suffixes (claude-sonnet-4-5-20250929 ->
// claude-sonnet-4-5) and resource prefixes so the same logical model
// aggregates together across versions and providers.
func NormalizeModel(model string) string {
	model = strings.TrimSpace(model)
	if idx := strings.LastIndex(model, "/"); idx >= 0 {
		model = model[idx+1:]
	}
	return modelDateSuffix.ReplaceAllString(model, "")
}

// walkFiles collects files under root whose base name matches the pattern.
// Inaccessible entries are skipped, not fatal; the scan treats a missing
// provider root as an unused provider.
func walkFiles(root, pattern string) ([]string, error) {
	var files []string
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			return nil
		}
		if ok, _ := filepath.Match(pattern, strings.ToLower(filepath.Base(path))); ok {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

func homePath(elem ...string) (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(append([]string{home}, elem...)...), nil
}
