package room

import "sync"

// Router owns the mapping from rooms to currently subscribed sessions. It is
// an injected instance with its lifecycle tied to the gateway, not ambient
// global state, so tests can construct isolated routers.
//
// S is the subscriber type (a live session); it only needs to be comparable.
type Router[S comparable] struct {
	mu    sync.RWMutex
	rooms map[Target]map[S]struct{}
}

func NewRouter[S comparable]() *Router[S] {
	return &Router[S]{rooms: make(map[Target]map[S]struct{})}
}

// Join subscribes s to target. Joining twice is a no-op.
func (r *Router[S]) Join(target Target, s S) {
	if target.IsZero() {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	subs, ok := r.rooms[target]
	if !ok {
		subs = make(map[S]struct{})
		r.rooms[target] = subs
	}
	subs[s] = struct{}{}
}

// Leave removes s from every room. Idempotent; safe for sessions that never
// subscribed anywhere.
func (r *Router[S]) Leave(s S) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for target, subs := range r.rooms {
		delete(subs, s)
		if len(subs) == 0 {
			delete(r.rooms, target)
		}
	}
}

// Subscribers returns a snapshot of the sessions subscribed to target at
// call time. Sessions joining afterwards are not retroactively included.
func (r *Router[S]) Subscribers(target Target) []S {
	r.mu.RLock()
	defer r.mu.RUnlock()
	subs, ok := r.rooms[target]
	if !ok {
		return nil
	}
	out := make([]S, 0, len(subs))
	for s := range subs {
		out = append(out, s)
	}
	return out
}

// Contains reports whether s is currently subscribed to target.
func (r *Router[S]) Contains(target Target, s S) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[target][s]
	return ok
}
