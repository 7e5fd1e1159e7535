// Package tags interprets free-text order tags: handling priority and
// whitelist/blacklist rules.
package tags

import (
	"regexp"
	"strconv"
	"strings"
)

const (
	urgentPriority = 90
	vipPriority    = 80

	minPriority = 1
	maxPriority = 100
)

var priorityRe = regexp.MustCompile(`\b(?:priority|prio|p)\s*[:=]?\s*(\d{1,3})`)

// ParseOrderPriority derives a priority in [1, 100] from tags. The second
// result is false when no tag carries a priority hint.
func ParseOrderPriority(tags []string) (int, bool) {
	best, found := 0, false
	consider := func(p int) {
		if !found || p > best {
			best = p
		}
		found = true
	}

	for _, tag := range normalize(tags) {
		if strings.Contains(tag, "urgent") {
			consider(urgentPriority)
		}
		if strings.Contains(tag, "vip") {
			consider(vipPriority)
		}
		for _, m := range priorityRe.FindAllStringSubmatch(tag, -1) {
			n, err := strconv.Atoi(m[1])
			if err != nil {
				continue
			}
			consider(n)
		}
	}

	if !found {
		return 0, false
	}
	return clamp(best, minPriority, maxPriority), true
}

// IsExcluded applies the tag rules. A rule matches when it is a substring of
// any tag. Blacklist matches always exclude; a non-empty whitelist excludes
// orders that match none of its entries.
func IsExcluded(tags, whitelist, blacklist []string) bool {
	norm := normalize(tags)

	for _, rule := range normalize(blacklist) {
		if matchesAny(norm, rule) {
			return true
		}
	}

	wl := normalize(whitelist)
	if len(wl) == 0 {
		return false
	}
	for _, rule := range wl {
		if matchesAny(norm, rule) {
			return false
		}
	}
	return true
}

func matchesAny(tags []string, rule string) bool {
	for _, t := range tags {
		if strings.Contains(t, rule) {
			return true
		}
	}
	return false
}

// normalize lower-cases and trims every entry and drops empty ones; an empty
// rule would otherwise match every tag.
func normalize(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if t := strings.ToLower(strings.TrimSpace(s)); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
