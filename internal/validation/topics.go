package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Topic limits.
const (
	MaxTopicsPerPost = 10
	MaxTopicLength   = 50
)

// NormalizeTopics trims names, drops blanks and case-insensitive duplicates,
// keeping the first spelling seen. It records errors on c for too many topics
// or an over-long name.
func NormalizeTopics(c *Checker, raw []string) []string {
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, name := range raw {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if utf8.RuneCountInString(name) > MaxTopicLength {
			c.Add("topics", name, fmt.Sprintf("Topic can not exceed %d characters.", MaxTopicLength))
			continue
		}
		key := strings.ToLower(name)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, name)
	}
	if len(out) > MaxTopicsPerPost {
		c.Add("topics", len(out), fmt.Sprintf("A post can have at most %d topics.", MaxTopicsPerPost))
	}
	return out
}
