package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// collect runs a full framer pass over fragments and returns every non-empty
// emission, including the final flush.
func collect(fragments ...string) []string {
	f := NewFramer()
	var segments []string
	for _, fragment := range fragments {
		if seg := f.Absorb(fragment); seg != "" {
			segments = append(segments, seg)
		}
	}
	if rest := f.Flush(); rest != "" {
		segments = append(segments, rest)
	}
	return segments
}

func TestFramerProseBeforeOpeningTag(t *testing.T) {
	f := NewFramer()

	seg := f.Absorb("intro text [CODE]x := 1")
	assert.Equal(t, "intro text ", seg)
	assert.Equal(t, len("[CODE]x := 1"), f.Pending())
}

func TestFramerHoldsOpenBlockUntilClose(t *testing.T) {
	f := NewFramer()

	require.Equal(t, "", f.Absorb("Here is "))
	require.Equal(t, "Here is code: ", f.Absorb("code: [CODE]print(1"))
	require.Equal(t, "[CODE]print(1)[/CODE]", f.Absorb(")[/CODE] done"))
	require.Equal(t, " done", f.Flush())
}

func TestFramerRightmostCloseWins(t *testing.T) {
	f := NewFramer()

	seg := f.Absorb("a[CODE]x[/CODE]b[JSON]{}[/JSON]c")
	assert.Equal(t, "a[CODE]x[/CODE]b[JSON]{}[/JSON]", seg)
	assert.Equal(t, "c", f.Flush())
}

func TestFramerPartialOpeningTagGuard(t *testing.T) {
	f := NewFramer()

	seg := f.Absorb("Hello [COD")
	require.Equal(t, "Hello ", seg)

	seg = f.Absorb("E]x[/CODE]")
	require.Equal(t, "[CODE]x[/CODE]", seg)
}

func TestFramerLoneBracketHeld(t *testing.T) {
	f := NewFramer()

	seg := f.Absorb("wait [")
	assert.Equal(t, "wait ", seg)
	assert.Equal(t, 1, f.Pending())
}

func TestFramerBracketNotATagPrefix(t *testing.T) {
	f := NewFramer()

	// "[ok]" cannot grow into any recognized opening delimiter, so nothing
	// forces a hold; the short buffer is simply retained until flush.
	require.Equal(t, "", f.Absorb("see [ok] here"))
	require.Equal(t, "see [ok] here", f.Flush())
}

func TestFramerLongPlainBufferBreaksAtBoundary(t *testing.T) {
	f := NewFramer()

	text := strings.Repeat("lorem ipsum ", 10) // 120 chars, ends with a space
	seg := f.Absorb(text)
	require.Equal(t, text, seg, "trailing space is a break boundary")
	require.Zero(t, f.Pending())
}

func TestFramerLongUnbreakableBufferHeld(t *testing.T) {
	f := NewFramer()

	text := strings.Repeat("a", 150)
	require.Equal(t, "", f.Absorb(text))
	require.Equal(t, text, f.Flush())
}

func TestFramerReassembly(t *testing.T) {
	full := "Intro prose. [TEXT]hello[/TEXT][CODE]for i := range xs {\n}\n[/CODE] trailing [MERMAID]graph TD" // unterminated on purpose

	// Split the input at every third byte to simulate arbitrary fragmenting.
	var fragments []string
	for i := 0; i < len(full); i += 3 {
		end := i + 3
		if end > len(full) {
			end = len(full)
		}
		fragments = append(fragments, full[i:end])
	}

	segments := collect(fragments...)
	require.NotEmpty(t, segments)
	assert.Equal(t, full, strings.Join(segments, ""), "emissions must reassemble the input exactly")
}

func TestFramerNeverSplitsRecognizedTag(t *testing.T) {
	fragments := []string{"Here is ", "code: [CODE]print(1", ")[/CODE] done"}
	segments := collect(fragments...)

	// All but the final flush must carry balanced tags.
	for _, seg := range segments[:len(segments)-1] {
		for _, tag := range DefaultTags {
			opens := strings.Count(seg, "["+tag+"]")
			closes := strings.Count(seg, "[/"+tag+"]")
			assert.Equal(t, opens, closes, "segment %q splits tag %s", seg, tag)
		}
	}
}

func TestFramerDrainedBufferEmitsNothing(t *testing.T) {
	f := NewFramer()

	f.Absorb("done. [TEXT]x[/TEXT]")
	f.Flush()

	require.Zero(t, f.Pending())
	require.Equal(t, "", f.Absorb(""))
	require.Equal(t, "", f.Flush())
}

func TestFramerFlushSurfacesUnterminatedTag(t *testing.T) {
	f := NewFramer()

	require.Equal(t, "", f.Absorb("[CODE]print('oops'"))
	require.Equal(t, "[CODE]print('oops'", f.Flush(), "a truncated block is surfaced, not dropped")
}

func TestFramerCustomTagSet(t *testing.T) {
	f := NewFramer("NOTE")

	seg := f.Absorb("a[NOTE]n[/NOTE]b[CODE]ignored")
	// CODE is not recognized here, so everything after the NOTE close is
	// plain text and only the closed-tag rule applies.
	assert.Equal(t, "a[NOTE]n[/NOTE]", seg)
	assert.Equal(t, "b[CODE]ignored", f.Flush())
}
