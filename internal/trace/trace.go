// Package trace provides types for collecting and analyzing the calls a
// sandboxed module makes into its libc layer.
package trace

import (
	"sync"
	"time"
)

// Tag represents a trace event category.
// Tags are stored without # prefix; the prefix is added on rendering.
type Tag string

// Standard tags for trace events.
const (
	Libc     Tag = "libc"
	Malloc   Tag = "malloc"
	String   Tag = "string"
	Printf   Tag = "printf"
	Panic    Tag = "panic"
	Fallback Tag = "fallback"
)

// Tags is a collection of tags with helper methods.
type Tags []Tag

// Has returns true if the tag collection contains the given tag.
func (t Tags) Has(tag Tag) bool {
	for _, x := range t {
		if x == tag {
			return true
		}
	}
	return false
}

// Add adds a tag if not already present.
func (t *Tags) Add(tag Tag) {
	if !t.Has(tag) {
		*t = append(*t, tag)
	}
}

// Strings returns tags as strings with # prefix for display.
func (t Tags) Strings() []string {
	out := make([]string, len(t))
	for i, tag := range t {
		out[i] = "#" + string(tag)
	}
	return out
}

// Primary returns the first tag or empty string if none.
func (t Tags) Primary() Tag {
	if len(t) > 0 {
		return t[0]
	}
	return ""
}

// Event represents one call into the libc layer.
type Event struct {
	Tags      Tags   // Multiple hashtags, first is primary
	Name      string // Function name (e.g., "malloc", "strncpy")
	Detail    string // Additional detail (e.g., "size=0x18 -> 0x90000008")
	Timestamp time.Time
}

// NewEvent creates a new trace event with the given parameters.
func NewEvent(category, name, detail string) *Event {
	return &Event{
		Tags:      Tags{Tag(category)},
		Name:      name,
		Detail:    detail,
		Timestamp: time.Now(),
	}
}

// AddTag adds a tag to the event.
func (e *Event) AddTag(tag Tag) {
	e.Tags.Add(tag)
}

// PrimaryTag returns the primary (first) tag with # prefix.
func (e *Event) PrimaryTag() string {
	if len(e.Tags) > 0 {
		return "#" + string(e.Tags[0])
	}
	return ""
}

// Enricher enriches trace events based on category and name.
type Enricher func(e *Event)

// DefaultEnricher adds additional tags based on category and name.
func DefaultEnricher(e *Event) {
	if e.Tags.Primary() != Libc {
		return
	}

	switch e.Name {
	case "malloc", "calloc", "realloc", "free", "strdup", "strndup":
		e.AddTag(Malloc)
	case "memcpy", "memmove", "memset", "memcmp",
		"strlen", "strcmp", "strncmp", "strncpy":
		e.AddTag(String)
	case "snprintf":
		e.AddTag(Printf)
	case "panic", "abort":
		e.AddTag(Panic)
	}
}

// Collector accumulates events, typically fed from a registry's OnCall.
type Collector struct {
	mu       sync.Mutex
	events   []*Event
	enricher Enricher
}

// NewCollector creates a collector using the default enricher. A nil
// enricher can be set with SetEnricher to disable enrichment.
func NewCollector() *Collector {
	return &Collector{enricher: DefaultEnricher}
}

// SetEnricher replaces the collector's enricher.
func (c *Collector) SetEnricher(fn Enricher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.enricher = fn
}

// Add records an event.
func (c *Collector) Add(e *Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.enricher != nil {
		c.enricher(e)
	}
	c.events = append(c.events, e)
}

// Hook adapts the collector to a registry OnCall callback.
func (c *Collector) Hook() func(category, name, detail string) {
	return func(category, name, detail string) {
		c.Add(NewEvent(category, name, detail))
	}
}

// Events returns a snapshot of collected events.
func (c *Collector) Events() []*Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Event, len(c.events))
	copy(out, c.events)
	return out
}

// Clear drops all collected events.
func (c *Collector) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = nil
}
