package testutil

import "github.com/narrata/loom/internal/content"

// StatsContext builds a context carrying the five bucketed stats.
// Tests that only care about stat gating use this instead of hand-writing
// the map each time.
func StatsContext(level, reputation, gold, perception, charisma float64) content.Context {
	return content.Context{
		"level":      level,
		"reputation": reputation,
		"gold":       gold,
		"perception": perception,
		"charisma":   charisma,
	}
}
