package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReactionMapToggle(t *testing.T) {
	rm := ReactionMap{}

	assert.True(t, rm.Toggle("👍", "u1"), "first toggle adds")
	assert.Equal(t, []string{"u1"}, rm["👍"])

	assert.True(t, rm.Toggle("👍", "u2"))
	assert.Equal(t, []string{"u1", "u2"}, rm["👍"])

	assert.False(t, rm.Toggle("👍", "u1"), "second toggle removes")
	assert.Equal(t, []string{"u2"}, rm["👍"])

	assert.False(t, rm.Toggle("👍", "u2"))
	_, exists := rm["👍"]
	assert.False(t, exists, "empty sets delete the emoji key")
}

func TestReactionMapToggleIndependentEmojis(t *testing.T) {
	rm := ReactionMap{}
	rm.Toggle("👍", "u1")
	rm.Toggle("🔥", "u1")

	rm.Toggle("👍", "u1")

	_, thumbs := rm["👍"]
	assert.False(t, thumbs)
	assert.Equal(t, []string{"u1"}, rm["🔥"], "other emojis are untouched")
}

func TestReactionMapClone(t *testing.T) {
	rm := ReactionMap{"👍": {"u1"}}
	cp := rm.Clone()
	cp.Toggle("👍", "u2")
	cp.Toggle("🔥", "u3")

	assert.Equal(t, []string{"u1"}, rm["👍"], "clone mutations never reach the original")
	_, exists := rm["🔥"]
	assert.False(t, exists)
}
