package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTarget(t *testing.T) {
	tests := []struct {
		name    string
		groupID string
		stream  string
		wantErr bool
		want    Target
	}{
		{name: "community", stream: "NEET", want: Community("NEET")},
		{name: "group", groupID: "g1", want: Group("g1")},
		{name: "both set", groupID: "g1", stream: "NEET", wantErr: true},
		{name: "neither set", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseTarget(tt.groupID, tt.stream)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidTarget)
				assert.True(t, got.IsZero())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetNamespacesDoNotCollide(t *testing.T) {
	// A group whose ID equals a stream name is still a different room.
	assert.NotEqual(t, Community("NEET"), Group("NEET"))
}

func TestTargetAccessors(t *testing.T) {
	c := Community("JEE")
	assert.True(t, c.IsCommunity())
	assert.Equal(t, "JEE", c.Stream())
	assert.Empty(t, c.GroupID())
	assert.Equal(t, "community:JEE", c.String())

	g := Group("g42")
	assert.False(t, g.IsCommunity())
	assert.Equal(t, "g42", g.GroupID())
	assert.Empty(t, g.Stream())
	assert.Equal(t, "group:g42", g.String())

	var zero Target
	assert.True(t, zero.IsZero())
	assert.Equal(t, "invalid", zero.String())
}
