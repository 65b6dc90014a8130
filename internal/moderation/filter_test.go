package moderation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterIsBlocked(t *testing.T) {
	f := NewFilter([]string{"badword", " SPAM ", ""})

	assert.True(t, f.IsBlocked("badword"))
	assert.True(t, f.IsBlocked("this contains a BADWORD in the middle"))
	assert.True(t, f.IsBlocked("sPaM offer"), "terms are folded at construction")
	assert.False(t, f.IsBlocked("a perfectly fine message"))
	assert.False(t, f.IsBlocked(""))
}

func TestFilterSubstringMatch(t *testing.T) {
	f := NewFilter([]string{"cheat"})
	// Substring semantics: embedded occurrences count.
	assert.True(t, f.IsBlocked("cheating"))
	assert.True(t, f.IsBlocked("mischeatery"))
}

func TestEmptyFilterBlocksNothing(t *testing.T) {
	f := NewFilter(nil)
	assert.False(t, f.IsBlocked("anything at all"))
}
