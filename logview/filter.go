package logview

import (
	"sort"
	"strings"

	"github.com/indcloud/console/data"
)

// Filter is the predicate applied to the buffer. A Filter is a value; the
// With* methods return modified copies and never touch the receiver.
type Filter struct {
	sources map[data.LogSource]bool
	levels  map[data.LogLevel]bool
	search  string
}

// NewFilter returns a filter that keeps every source and level
func NewFilter() Filter {
	return NewFilterFor(data.AllSources, data.AllLevels, "")
}

// NewFilterFor returns a filter keeping the given sources and levels and
// matching the search term
func NewFilterFor(sources []data.LogSource, levels []data.LogLevel, search string) Filter {
	f := Filter{
		sources: make(map[data.LogSource]bool, len(sources)),
		levels:  make(map[data.LogLevel]bool, len(levels)),
		search:  search,
	}
	for _, s := range sources {
		f.sources[s] = true
	}
	for _, l := range levels {
		f.levels[l] = true
	}
	return f
}

// Keep reports whether an entry passes the filter
func (f Filter) Keep(e data.LogEntry) bool {
	return f.keep(e, strings.ToLower(f.search))
}

func (f Filter) keep(e data.LogEntry, lowerTerm string) bool {
	if !f.sources[e.Source] || !f.levels[e.Level] {
		return false
	}
	return lowerTerm == "" || strings.Contains(strings.ToLower(e.Message), lowerTerm)
}

// Apply returns the entries that pass the filter, in their original order.
// The input is not modified and duplicates are kept.
func (f Filter) Apply(entries []data.LogEntry) []data.LogEntry {
	term := strings.ToLower(f.search)
	ret := make([]data.LogEntry, 0, len(entries))
	for _, e := range entries {
		if f.keep(e, term) {
			ret = append(ret, e)
		}
	}
	return ret
}

// Search returns the search term
func (f Filter) Search() string {
	return f.search
}

// HasSource reports whether a source is selected
func (f Filter) HasSource(s data.LogSource) bool {
	return f.sources[s]
}

// HasLevel reports whether a level is selected
func (f Filter) HasLevel(l data.LogLevel) bool {
	return f.levels[l]
}

// Sources returns the selected sources in display order
func (f Filter) Sources() []data.LogSource {
	var ret []data.LogSource
	for _, s := range data.AllSources {
		if f.sources[s] {
			ret = append(ret, s)
		}
	}
	return ret
}

// Levels returns the selected levels in severity order
func (f Filter) Levels() []data.LogLevel {
	var ret []data.LogLevel
	for _, l := range data.AllLevels {
		if f.levels[l] {
			ret = append(ret, l)
		}
	}
	return ret
}

func (f Filter) clone() Filter {
	c := Filter{
		sources: make(map[data.LogSource]bool, len(f.sources)),
		levels:  make(map[data.LogLevel]bool, len(f.levels)),
		search:  f.search,
	}
	for k, v := range f.sources {
		if v {
			c.sources[k] = true
		}
	}
	for k, v := range f.levels {
		if v {
			c.levels[k] = true
		}
	}
	return c
}

// WithSource returns a copy with the source selected or deselected
func (f Filter) WithSource(s data.LogSource, on bool) Filter {
	c := f.clone()
	if on {
		c.sources[s] = true
	} else {
		delete(c.sources, s)
	}
	return c
}

// ToggleSource returns a copy with the source selection flipped
func (f Filter) ToggleSource(s data.LogSource) Filter {
	return f.WithSource(s, !f.sources[s])
}

// WithLevel returns a copy with the level selected or deselected
func (f Filter) WithLevel(l data.LogLevel, on bool) Filter {
	c := f.clone()
	if on {
		c.levels[l] = true
	} else {
		delete(c.levels, l)
	}
	return c
}

// ToggleLevel returns a copy with the level selection flipped
func (f Filter) ToggleLevel(l data.LogLevel) Filter {
	return f.WithLevel(l, !f.levels[l])
}

// WithSearch returns a copy with a new search term
func (f Filter) WithSearch(term string) Filter {
	c := f.clone()
	c.search = term
	return c
}

// Key is a canonical string for the filter; two filters with the same key
// keep the same entries.
func (f Filter) Key() string {
	var parts []string
	for s, on := range f.sources {
		if on {
			parts = append(parts, "s:"+string(s))
		}
	}
	for l, on := range f.levels {
		if on {
			parts = append(parts, "l:"+string(l))
		}
	}
	sort.Strings(parts)
	parts = append(parts, "q:"+strings.ToLower(f.search))
	return strings.Join(parts, "|")
}

// Equal reports whether two filters keep the same entries
func (f Filter) Equal(o Filter) bool {
	return f.Key() == o.Key()
}
