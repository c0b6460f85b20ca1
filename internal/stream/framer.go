// Package stream implements tag-boundary-safe buffering for incrementally
// generated responses. The model wraps content in typed markup such as
// [CODE]...[/CODE]; forwarding a fragment that splits one of these tags
// would hand the client a syntactically broken segment, so every arriving
// fragment is folded into a buffer and only the provably safe prefix is
// released.
package stream

import "strings"

// DefaultTags are the markup names the generator is instructed to use.
var DefaultTags = []string{
	"TEXT", "CODE", "JSON", "MARKDOWN", "LATEX", "MERMAID",
	"CSV", "IMAGE", "TABLE", "TOOL_USAGE", "TOOL_SUMMARY",
}

const (
	// partialScanWindow bounds the tail scan for a half-written opening tag.
	partialScanWindow = 20
	// plainBufferLimit is the buffer size past which untagged prose is
	// force-released at a word boundary.
	plainBufferLimit = 100
	// breakScanWindow bounds the backwards search for that word boundary.
	breakScanWindow = 50
)

// Framer accumulates generator fragments and decides, per fragment, how much
// of the buffer can be forwarded without ever splitting a recognized tag.
type Framer struct {
	tags []string
	held string
}

// NewFramer builds a framer over the given tag names, or DefaultTags when
// none are given.
func NewFramer(tags ...string) *Framer {
	if len(tags) == 0 {
		tags = DefaultTags
	}
	return &Framer{tags: tags}
}

// Absorb appends fragment to the retained buffer and returns the prefix that
// is safe to emit now. The returned segment is empty when everything must be
// held back.
func (f *Framer) Absorb(fragment string) string {
	f.held += fragment
	n := f.splitPoint(f.held)
	if n == 0 {
		return ""
	}
	emit := f.held[:n]
	f.held = f.held[n:]
	return emit
}

// Flush releases the entire remaining buffer at end-of-stream, regardless of
// tag completeness. A truncated generation is surfaced as-is rather than
// silently dropped.
func (f *Framer) Flush() string {
	emit := f.held
	f.held = ""
	return emit
}

// Pending reports how much text is currently held back.
func (f *Framer) Pending() int {
	return len(f.held)
}

// splitPoint returns the length of the emittable prefix of buf. The rules
// are checked in strict precedence order.
func (f *Framer) splitPoint(buf string) int {
	// A complete closing delimiter makes everything up to and including its
	// right-most occurrence safe.
	end := -1
	for _, tag := range f.tags {
		delim := "[/" + tag + "]"
		if idx := strings.LastIndex(buf, delim); idx >= 0 {
			if e := idx + len(delim); e > end {
				end = e
			}
		}
	}
	if end >= 0 {
		return end
	}

	// No block has closed yet: prose before the left-most opening delimiter
	// is safe, the delimiter and everything after it is not.
	open := -1
	for _, tag := range f.tags {
		delim := "[" + tag + "]"
		if idx := strings.Index(buf, delim); idx >= 0 && (open < 0 || idx < open) {
			open = idx
		}
	}
	if open >= 0 {
		return open
	}

	// A trailing "[COD" may become "[CODE]" with the next fragment. Hold
	// from the first bracket in the tail window that could still grow into
	// a recognized opening delimiter.
	start := len(buf) - partialScanWindow
	if start < 0 {
		start = 0
	}
	for i := start; i < len(buf); i++ {
		if buf[i] == '[' && f.couldOpenTag(buf[i+1:]) {
			return i
		}
	}

	// Long untagged prose is released at a word boundary so the buffer does
	// not grow without bound.
	if len(buf) > plainBufferLimit {
		for i := len(buf) - 1; i >= len(buf)-breakScanWindow; i-- {
			if isBreakByte(buf[i]) {
				return i + 1
			}
		}
	}

	return 0
}

// couldOpenTag reports whether rest is a proper prefix of some opening
// delimiter's remainder, i.e. "[" + rest could still complete into "[NAME]".
func (f *Framer) couldOpenTag(rest string) bool {
	for _, tag := range f.tags {
		if strings.HasPrefix(tag+"]", rest) {
			return true
		}
	}
	return false
}

// isBreakByte restricts forced breaks to ASCII whitespace and punctuation so
// a multi-byte rune is never split.
func isBreakByte(b byte) bool {
	switch b {
	case ' ', '\t', '\n', '\r', '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}
