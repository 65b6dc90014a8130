package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRouterJoinLeave(t *testing.T) {
	r := NewRouter[string]()
	neet := Community("NEET")

	r.Join(neet, "a")
	r.Join(neet, "a") // duplicate join is a no-op
	r.Join(neet, "b")

	assert.ElementsMatch(t, []string{"a", "b"}, r.Subscribers(neet))
	assert.True(t, r.Contains(neet, "a"))

	r.Leave("a")
	assert.ElementsMatch(t, []string{"b"}, r.Subscribers(neet))

	// Leaving again, or leaving without ever joining, is safe.
	r.Leave("a")
	r.Leave("never-joined")
	assert.ElementsMatch(t, []string{"b"}, r.Subscribers(neet))
}

func TestRouterLeaveRemovesFromAllRooms(t *testing.T) {
	r := NewRouter[string]()
	r.Join(Community("NEET"), "a")
	r.Join(Group("g1"), "a")
	r.Join(Group("g2"), "a")

	r.Leave("a")

	assert.Empty(t, r.Subscribers(Community("NEET")))
	assert.Empty(t, r.Subscribers(Group("g1")))
	assert.Empty(t, r.Subscribers(Group("g2")))
}

func TestRouterJoinZeroTargetIgnored(t *testing.T) {
	r := NewRouter[string]()
	var zero Target
	r.Join(zero, "a")
	assert.Empty(t, r.Subscribers(zero))
	assert.False(t, r.Contains(zero, "a"))
}

func TestRouterSubscribersSnapshot(t *testing.T) {
	r := NewRouter[string]()
	neet := Community("NEET")
	r.Join(neet, "a")

	snapshot := r.Subscribers(neet)
	r.Join(neet, "b")

	// The earlier snapshot is not retroactively extended.
	assert.ElementsMatch(t, []string{"a"}, snapshot)
	assert.ElementsMatch(t, []string{"a", "b"}, r.Subscribers(neet))
}
