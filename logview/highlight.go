package logview

import "regexp"

// Segment is a run of message text; Match is true for runs equal (ignoring
// case) to the search term.
type Segment struct {
	Text  string
	Match bool
}

// Highlighter splits messages around a search term. The term is matched
// literally: regex metacharacters in user input are escaped.
type Highlighter struct {
	term    string
	pattern *regexp.Regexp
}

// NewHighlighter compiles a highlighter for term. An empty term never matches.
func NewHighlighter(term string) *Highlighter {
	h := &Highlighter{term: term}
	if term != "" {
		h.pattern = regexp.MustCompile("(?i)" + regexp.QuoteMeta(term))
	}
	return h
}

// Term returns the search term
func (h *Highlighter) Term() string {
	return h.term
}

// Segments splits message into plain and matching runs. Concatenating the
// segment texts yields the original message.
func (h *Highlighter) Segments(message string) []Segment {
	if h.pattern == nil || message == "" {
		return []Segment{{Text: message}}
	}

	matches := h.pattern.FindAllStringIndex(message, -1)
	if len(matches) == 0 {
		return []Segment{{Text: message}}
	}

	ret := make([]Segment, 0, 2*len(matches)+1)
	last := 0
	for _, m := range matches {
		if m[0] > last {
			ret = append(ret, Segment{Text: message[last:m[0]]})
		}
		ret = append(ret, Segment{Text: message[m[0]:m[1]], Match: true})
		last = m[1]
	}
	if last < len(message) {
		ret = append(ret, Segment{Text: message[last:]})
	}
	return ret
}

// Highlight is a convenience wrapper around NewHighlighter(term).Segments
func Highlight(message, term string) []Segment {
	return NewHighlighter(term).Segments(message)
}
