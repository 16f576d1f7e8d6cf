// Package cache implements the engine's two-tier content cache.
//
// The processed-template tier memoizes the expensive resolve/compose/dynamic
// stages under a coarse context bucket; the generation tier memoizes whole
// events under an exact context serialization. The coarse bucket is a known
// trade: within one bucket it can mask personalization that finer-grained
// inputs (inventory, quests) would otherwise produce through composition or
// dynamic-field conditions, in exchange for large savings on repeated
// generation with similar contexts.
//
// Each engine instance owns one Cache. There is no internal locking - the
// engine is single-owner by design and callers fanning out own one engine
// (and therefore one cache) per worker.
package cache

import (
	"strconv"
	"strings"

	"github.com/narrata/loom/internal/content"
)

// BucketStats are the numeric context fields quantized into the
// processed-template cache key. Absent fields quantize to the sentinel "any".
var BucketStats = []string{"level", "reputation", "gold", "perception", "charisma"}

// anySentinel marks a bucket stat absent from the context.
const anySentinel = "any"

// Cache holds both tiers plus hit/miss counters so tests can assert caching
// behavior deterministically.
type Cache struct {
	processed map[string]content.Template
	generated map[string]content.Event

	stats Stats
}

// Stats counts per-tier cache activity.
type Stats struct {
	ProcessedHits    int
	ProcessedMisses  int
	GenerationHits   int
	GenerationMisses int
}

// New creates an empty two-tier cache.
func New() *Cache {
	return &Cache{
		processed: make(map[string]content.Template),
		generated: make(map[string]content.Event),
	}
}

// ProcessedKey builds the coarse bucket key: template id plus each bucket
// stat quantized to its literal value or "any" when absent.
func ProcessedKey(templateID string, ctx content.Context) string {
	var b strings.Builder
	b.WriteString(templateID)
	for _, stat := range BucketStats {
		b.WriteByte('|')
		b.WriteString(stat)
		b.WriteByte('=')
		if v, ok := ctx.Number(stat); ok {
			b.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		} else {
			b.WriteString(anySentinel)
		}
	}
	return b.String()
}

// GenerationKey builds the exact-match key: template id plus the canonical
// serialization of the bucket stats and the finer-grained context fields
// (relationships, quests, inventory).
func GenerationKey(templateID string, ctx content.Context) (string, error) {
	relevant := make(map[string]any, len(BucketStats)+3)
	for _, stat := range BucketStats {
		if v, ok := ctx.Number(stat); ok {
			relevant[stat] = v
		}
	}
	for _, key := range []string{"relationships", "quests", "inventory"} {
		if v, ok := ctx.Lookup(key); ok {
			relevant[key] = v
		}
	}

	data, err := content.MarshalCanonical(relevant)
	if err != nil {
		return "", err
	}
	return templateID + "|" + string(data), nil
}

// GetProcessed returns the processed template for a bucket key.
func (c *Cache) GetProcessed(key string) (content.Template, bool) {
	tpl, ok := c.processed[key]
	if ok {
		c.stats.ProcessedHits++
	} else {
		c.stats.ProcessedMisses++
	}
	return tpl, ok
}

// PutProcessed stores a processed template under its bucket key.
func (c *Cache) PutProcessed(key string, tpl content.Template) {
	c.processed[key] = tpl
}

// GetGeneration returns a deep copy of the cached event for an exact key.
// The copy keeps the cached entry immutable under later rule mutation.
func (c *Cache) GetGeneration(key string) (content.Event, bool) {
	ev, ok := c.generated[key]
	if ok {
		c.stats.GenerationHits++
		return ev.Clone(), true
	}
	c.stats.GenerationMisses++
	return content.Event{}, false
}

// PutGeneration stores a deep copy of the event under its exact key.
func (c *Cache) PutGeneration(key string, ev content.Event) {
	c.generated[key] = ev.Clone()
}

// Invalidate purges every entry in both tiers whose key references the
// template id. Keys are id-prefixed, so a prefix match suffices.
func (c *Cache) Invalidate(templateID string) {
	prefix := templateID + "|"
	for key := range c.processed {
		if strings.HasPrefix(key, prefix) {
			delete(c.processed, key)
		}
	}
	for key := range c.generated {
		if strings.HasPrefix(key, prefix) {
			delete(c.generated, key)
		}
	}
}

// Clear drops every entry in both tiers. Counters are preserved.
func (c *Cache) Clear() {
	c.processed = make(map[string]content.Template)
	c.generated = make(map[string]content.Event)
}

// Stats returns a copy of the hit/miss counters.
func (c *Cache) Stats() Stats {
	return c.stats
}

// Len returns the entry counts of the processed and generation tiers.
func (c *Cache) Len() (processed, generated int) {
	return len(c.processed), len(c.generated)
}
