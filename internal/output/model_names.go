package output

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	claudeMinorVersion = regexp.MustCompile(`^claude-(\w+)-(\d+)-(\d+)$`)
	claudeMajorVersion = regexp.MustCompile(`^claude-(\w+)-(\d+)$`)
)

// ShortenModelName compresses normalized model IDs for table cells.
// claude-opus-4-1 -> Opus-4.1, claude-sonnet-4 -> Sonnet-4; non-Claude
// models keep their name, truncated to 12 characters.
func ShortenModelName(model string) string {
	if matches := claudeMinorVersion.FindStringSubmatch(model); matches != nil {
		return fmt.Sprintf("%s-%s.%s", titleCase(matches[1]), matches[2], matches[3])
	}
	if matches := claudeMajorVersion.FindStringSubmatch(model); matches != nil {
		return fmt.Sprintf("%s-%s", titleCase(matches[1]), matches[2])
	}
	if model == "gpt-3.5-turbo" {
		return "gpt-3.5"
	}
	if len(model) > 12 {
		return model[:12]
	}
	return model
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + strings.ToLower(s[1:])
}
