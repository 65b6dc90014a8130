// Package room defines broadcast scopes (community and group rooms) and the
// router that maps rooms to live subscribers.
package room

import "errors"

// ErrInvalidTarget is returned when a message names both or neither of a
// group and a stream.
var ErrInvalidTarget = errors.New("room: exactly one of group and stream must be set")

type kind uint8

const (
	kindNone kind = iota
	kindCommunity
	kindGroup
)

// Target identifies one room. The two namespaces never collide: a community
// target is keyed by stream, a group target by group ID. The zero Target is
// invalid.
type Target struct {
	k  kind
	id string
}

// Community returns the community-room target for a stream.
func Community(stream string) Target {
	return Target{k: kindCommunity, id: stream}
}

// Group returns the group-room target for a group ID.
func Group(groupID string) Target {
	return Target{k: kindGroup, id: groupID}
}

// ParseTarget resolves the groupId/stream pair carried by inbound messages
// into a Target, rejecting the both-set and neither-set shapes.
func ParseTarget(groupID, stream string) (Target, error) {
	switch {
	case groupID != "" && stream != "":
		return Target{}, ErrInvalidTarget
	case groupID != "":
		return Group(groupID), nil
	case stream != "":
		return Community(stream), nil
	default:
		return Target{}, ErrInvalidTarget
	}
}

// IsCommunity reports whether t is a community room.
func (t Target) IsCommunity() bool { return t.k == kindCommunity }

// IsZero reports whether t is the invalid zero target.
func (t Target) IsZero() bool { return t.k == kindNone }

// Stream returns the stream for community targets ("" otherwise).
func (t Target) Stream() string {
	if t.k == kindCommunity {
		return t.id
	}
	return ""
}

// GroupID returns the group ID for group targets ("" otherwise).
func (t Target) GroupID() string {
	if t.k == kindGroup {
		return t.id
	}
	return ""
}

func (t Target) String() string {
	switch t.k {
	case kindCommunity:
		return "community:" + t.id
	case kindGroup:
		return "group:" + t.id
	default:
		return "invalid"
	}
}
