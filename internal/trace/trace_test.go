package trace

import "testing"

func TestTags(t *testing.T) {
	var tags Tags
	tags.Add(Libc)
	tags.Add(Malloc)
	tags.Add(Libc) // duplicate

	if len(tags) != 2 {
		t.Fatalf("tags = %v", tags)
	}
	if !tags.Has(Malloc) {
		t.Error("missing malloc tag")
	}
	if tags.Primary() != Libc {
		t.Errorf("primary = %q", tags.Primary())
	}
	if got := tags.Strings(); got[0] != "#libc" || got[1] != "#malloc" {
		t.Errorf("Strings() = %v", got)
	}
}

func TestDefaultEnricher(t *testing.T) {
	tests := []struct {
		name string
		want Tag
	}{
		{"malloc", Malloc},
		{"strdup", Malloc},
		{"memcpy", String},
		{"strncpy", String},
		{"snprintf", Printf},
		{"panic", Panic},
	}
	for _, tc := range tests {
		e := NewEvent("libc", tc.name, "")
		DefaultEnricher(e)
		if !e.Tags.Has(tc.want) {
			t.Errorf("%s: tags = %v, want %v", tc.name, e.Tags, tc.want)
		}
	}

	// Non-libc categories are left alone.
	e := NewEvent("parser", "malloc", "")
	DefaultEnricher(e)
	if len(e.Tags) != 1 {
		t.Errorf("enriched a foreign category: %v", e.Tags)
	}
}

func TestCollector(t *testing.T) {
	c := NewCollector()
	hook := c.Hook()

	hook("libc", "malloc", "size=0x10 -> 0x90000008")
	hook("libc", "free", "ptr=0x90000008")

	events := c.Events()
	if len(events) != 2 {
		t.Fatalf("collected %d events", len(events))
	}
	if events[0].Name != "malloc" || events[0].PrimaryTag() != "#libc" {
		t.Errorf("event = %+v", events[0])
	}
	if !events[1].Tags.Has(Malloc) {
		t.Error("free not enriched")
	}

	c.Clear()
	if len(c.Events()) != 0 {
		t.Error("Clear left events behind")
	}
}
