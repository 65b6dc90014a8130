// Package chat implements the real-time chat core: per-connection sessions,
// room-scoped fan-out, moderation gating, reaction toggling and pin
// broadcasting over a single persistent connection per client.
package chat

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/logger"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/moderation"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/room"
)

const opTimeout = 5 * time.Second

// UserDirectory resolves user identities. Lookups that miss return
// repository.ErrNotFound.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (*model.User, error)
}

// MembershipStore reports group membership state.
type MembershipStore interface {
	GetGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error)
}

// MessageLog is the durable message store. Update calls return the updated
// message so the gateway can resolve the broadcast room from stored fields.
type MessageLog interface {
	CreateMessage(ctx context.Context, m *model.Message) error
	GetMessageByID(ctx context.Context, id string) (*model.Message, error)
	UpdateMessageReactions(ctx context.Context, id string, reactions model.ReactionMap) (*model.Message, error)
	UpdateMessagePinned(ctx context.Context, id string, pinned bool) (*model.Message, error)
}

// SettingStore reads per-stream chat settings. A missing row means enabled.
type SettingStore interface {
	GetChatSetting(ctx context.Context, stream string) (*model.ChatSetting, error)
}

// PushNotifier sends push notifications. If nil, pushes are disabled.
type PushNotifier interface {
	Notify(ctx context.Context, userID, title, body string, data map[string]string)
}

// Gateway coordinates the chat subsystem: it owns the session registry and
// room router, runs the send/reaction/pin protocols, and fans results out to
// subscribed sessions. Broadcast order within a room is the order in which
// persistence completed, not arrival order.
type Gateway struct {
	users    UserDirectory
	members  MembershipStore
	messages MessageLog
	settings SettingStore
	filter   *moderation.Filter
	router   *room.Router[*Session]
	push     PushNotifier

	mu       sync.Mutex
	sessions map[*Session]struct{}
	maxConns int

	pingPeriod time.Duration

	register   chan *Session
	unregister chan *Session
	done       chan struct{}
}

func NewGateway(
	users UserDirectory,
	members MembershipStore,
	messages MessageLog,
	settings SettingStore,
	filter *moderation.Filter,
	maxConns int,
	push PushNotifier,
) *Gateway {
	if maxConns <= 0 {
		maxConns = 10000
	}
	return &Gateway{
		users:      users,
		members:    members,
		messages:   messages,
		settings:   settings,
		filter:     filter,
		router:     room.NewRouter[*Session](),
		push:       push,
		sessions:   make(map[*Session]struct{}),
		maxConns:   maxConns,
		pingPeriod: 54 * time.Second,
		register:   make(chan *Session, 64),
		unregister: make(chan *Session, 64),
		done:       make(chan struct{}),
	}
}

// Router exposes the room router for tests and diagnostics.
func (g *Gateway) Router() *room.Router[*Session] { return g.router }

func (g *Gateway) newPingTicker() *time.Ticker { return time.NewTicker(g.pingPeriod) }

// Run processes session registration until ctx is cancelled, then closes all
// remaining sessions.
func (g *Gateway) Run(ctx context.Context) {
	defer close(g.done)
	for {
		select {
		case <-ctx.Done():
			g.shutdown()
			return
		case s := <-g.register:
			g.addSession(s)
		case s := <-g.unregister:
			g.removeSession(s)
		}
	}
}

func (g *Gateway) shutdown() {
	// Collect under the lock, close outside it (network I/O).
	g.mu.Lock()
	all := make([]*Session, 0, len(g.sessions))
	for s := range g.sessions {
		all = append(all, s)
	}
	g.sessions = make(map[*Session]struct{})
	g.mu.Unlock()

	for _, s := range all {
		g.router.Leave(s)
		s.Close()
	}
	for _, s := range all {
		s.Wait()
	}
}

func (g *Gateway) addSession(s *Session) {
	g.mu.Lock()
	if len(g.sessions) >= g.maxConns {
		g.mu.Unlock()
		logger.Errorf("chat: connection limit reached (%d), rejecting session", g.maxConns)
		s.Close()
		return
	}
	g.sessions[s] = struct{}{}
	g.mu.Unlock()
}

func (g *Gateway) removeSession(s *Session) {
	g.mu.Lock()
	_, ok := g.sessions[s]
	if ok {
		delete(g.sessions, s)
	}
	g.mu.Unlock()
	if !ok {
		return
	}
	g.router.Leave(s)
	s.Close()
}

// Register hands a new session to the gateway loop.
func (g *Gateway) Register(s *Session) {
	select {
	case g.register <- s:
	case <-g.done:
		s.Close()
	}
}

// Unregister removes a session on disconnect; idempotent.
func (g *Gateway) Unregister(s *Session) {
	select {
	case g.unregister <- s:
	case <-g.done:
	}
}

// HandleEvent dispatches one inbound event. Unknown event types and events
// that fail validation are dropped without a reply, matching the transport
// contract; only policy rejections produce sender-only notices.
func (g *Gateway) HandleEvent(ctx context.Context, s *Session, ev *InboundEvent) {
	switch ev.Type {
	case EventAuth:
		g.handleAuth(ctx, s, ev)
	case EventJoinGroup:
		g.handleJoinGroup(ctx, s, ev)
	case EventSendMessage:
		g.handleSendMessage(ctx, s, ev)
	case EventAddReaction:
		g.handleAddReaction(ctx, s, ev)
	case EventPinMessage:
		g.handlePinMessage(ctx, s, ev)
	case EventTyping, EventStopTyping:
		g.handleTyping(ctx, s, ev)
	default:
		logger.Infof("chat: unknown event type %q dropped", ev.Type)
	}
}

// handleAuth binds the session to a verified identity and subscribes it to
// the user's community room. Unknown users leave the session unauthenticated;
// no error event is sent back.
func (g *Gateway) handleAuth(ctx context.Context, s *Session, ev *InboundEvent) {
	if ev.UserID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	user, err := g.users.GetUser(ctx, ev.UserID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("chat: auth lookup user=%s: %v", ev.UserID, err)
		}
		return
	}
	s.bind(user.ID, user.Stream, user.IsAdmin)
	g.router.Join(room.Community(user.Stream), s)
}

// handleJoinGroup subscribes the session to a group room, but only when the
// membership store reports an accepted membership. Non-members are silently
// dropped; acceptance after the fact does not push a subscription onto an
// open session (the client rejoins).
func (g *Gateway) handleJoinGroup(ctx context.Context, s *Session, ev *InboundEvent) {
	userID, _, _ := s.Identity()
	if userID == "" || ev.GroupID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	members, err := g.members.GetGroupMembers(ctx, ev.GroupID)
	if err != nil {
		logger.Errorf("chat: join group=%s user=%s: %v", ev.GroupID, userID, err)
		return
	}
	for _, m := range members {
		if m.UserID == userID && m.Status == model.MemberStatusAccepted {
			g.router.Join(room.Group(ev.GroupID), s)
			return
		}
	}
}

// handleSendMessage runs the send protocol in order, short-circuiting on the
// first failure: auth, target validation, moderation (text only), community
// chat-enabled gate (admins bypass), persist, then broadcast enriched with
// the sender's current name and photo.
func (g *Gateway) handleSendMessage(ctx context.Context, s *Session, ev *InboundEvent) {
	defer logger.DeferLogDuration("chat.handleSendMessage", time.Now())()
	userID, _, isAdmin := s.Identity()
	if userID == "" {
		return
	}
	target, err := room.ParseTarget(ev.GroupID, ev.Stream)
	if err != nil {
		logger.Infof("chat: malformed send from user=%s dropped", userID)
		return
	}

	kind := ev.MessageType
	if kind == "" {
		kind = model.MessageTypeText
	}
	// Image payloads are opaque media references, not scanned.
	if kind == model.MessageTypeText && g.filter.IsBlocked(ev.Content) {
		s.enqueue(&OutboundEvent{Type: EventBadWord, Payload: NoticePayload{
			Message: "Your message contains inappropriate content",
		}})
		return
	}

	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	// Only community rooms are gated by chat settings.
	if target.IsCommunity() && !isAdmin {
		setting, err := g.settings.GetChatSetting(ctx, target.Stream())
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("chat: setting lookup stream=%s: %v", target.Stream(), err)
			return
		}
		if setting != nil && !setting.IsEnabled {
			s.enqueue(&OutboundEvent{Type: EventChatDisabled, Payload: NoticePayload{
				Message: "Chat is currently disabled by admin",
			}})
			return
		}
	}

	m := &model.Message{
		ID:        uuid.New().String(),
		GroupID:   target.GroupID(),
		Stream:    target.Stream(),
		UserID:    userID,
		Content:   ev.Content,
		Type:      kind,
		IsPinned:  false,
		Reactions: model.ReactionMap{},
		CreatedAt: time.Now().UTC(),
	}
	if err := g.messages.CreateMessage(ctx, m); err != nil {
		logger.Errorf("chat: save message room=%s user=%s: %v", target, userID, err)
		return
	}

	// Sender profile is looked up at broadcast time, not cached at auth.
	if sender, err := g.users.GetUser(ctx, userID); err == nil {
		m.UserName = sender.Name
		m.UserPhoto = sender.ProfilePhoto
	} else {
		logger.Errorf("chat: enrich sender user=%s: %v", userID, err)
	}

	g.broadcast(target, &OutboundEvent{Type: EventNewMessage, Payload: m})
	g.notifyGroup(target, m)
}

// handleAddReaction toggles the acting user's reaction on a message and
// broadcasts the full updated map to the message's own room, resolved from
// its stored fields rather than the caller's subscriptions.
func (g *Gateway) handleAddReaction(ctx context.Context, s *Session, ev *InboundEvent) {
	userID, _, _ := s.Identity()
	if userID == "" || ev.MessageID == "" || ev.Emoji == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()

	m, err := g.messages.GetMessageByID(ctx, ev.MessageID)
	if err != nil {
		if !errors.Is(err, repository.ErrNotFound) {
			logger.Errorf("chat: reaction fetch message=%s: %v", ev.MessageID, err)
		}
		return
	}
	target, err := room.ParseTarget(m.GroupID, m.Stream)
	if err != nil {
		logger.Errorf("chat: message %s has no valid room", m.ID)
		return
	}

	reactions := m.Reactions.Clone()
	if reactions == nil {
		reactions = model.ReactionMap{}
	}
	reactions.Toggle(ev.Emoji, userID)

	if _, err := g.messages.UpdateMessageReactions(ctx, ev.MessageID, reactions); err != nil {
		logger.Errorf("chat: save reactions message=%s: %v", ev.MessageID, err)
		return
	}

	g.broadcast(target, &OutboundEvent{Type: EventReactionAdded, Payload: ReactionPayload{
		MessageID: ev.MessageID,
		Emoji:     ev.Emoji,
		UserID:    userID,
		Reactions: reactions,
	}})
}

// handlePinMessage persists the caller-supplied pinned flag and broadcasts
// it. The core performs no role check here; restricting pinning to admins
// belongs to the callers (the REST pin endpoint enforces it).
func (g *Gateway) handlePinMessage(ctx context.Context, s *Session, ev *InboundEvent) {
	if !s.Authenticated() || ev.MessageID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, opTimeout)
	defer cancel()
	if _, err := g.SetPinned(ctx, ev.MessageID, ev.IsPinned); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logger.Errorf("chat: pin message=%s: %v", ev.MessageID, err)
	}
}

// SetPinned persists a message's pinned flag and broadcasts the change to the
// message's room. Shared by the socket event and the REST pin endpoint.
func (g *Gateway) SetPinned(ctx context.Context, messageID string, pinned bool) (*model.Message, error) {
	m, err := g.messages.UpdateMessagePinned(ctx, messageID, pinned)
	if err != nil {
		return nil, err
	}
	target, err := room.ParseTarget(m.GroupID, m.Stream)
	if err != nil {
		return m, nil
	}
	g.broadcast(target, &OutboundEvent{Type: EventMessagePinned, Payload: PinPayload{
		MessageID: m.ID,
		IsPinned:  m.IsPinned,
	}})
	return m, nil
}

// handleTyping relays typing state to the room, excluding the sender. Not
// persisted.
func (g *Gateway) handleTyping(ctx context.Context, s *Session, ev *InboundEvent) {
	userID, _, _ := s.Identity()
	if userID == "" {
		return
	}
	target, err := room.ParseTarget(ev.GroupID, ev.Stream)
	if err != nil {
		return
	}
	out := EventUserTyping
	if ev.Type == EventStopTyping {
		out = EventUserStopTyping
	}
	payload := TypingPayload{UserID: userID}
	if out == EventUserTyping {
		ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if user, err := g.users.GetUser(ctx, userID); err == nil {
			payload.UserName = user.Name
		}
	}
	for _, sub := range g.router.Subscribers(target) {
		if sub != s {
			sub.enqueue(&OutboundEvent{Type: out, Payload: payload})
		}
	}
}

// broadcast fans an event out to every session subscribed to target at this
// moment, including the sender. Delivery per subscriber is fire-and-forget.
func (g *Gateway) broadcast(target room.Target, ev *OutboundEvent) {
	for _, sub := range g.router.Subscribers(target) {
		sub.enqueue(ev)
	}
}

// notifyGroup sends best-effort push notifications for group messages to
// members other than the sender.
func (g *Gateway) notifyGroup(target room.Target, m *model.Message) {
	if g.push == nil || target.GroupID() == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	members, err := g.members.GetGroupMembers(ctx, target.GroupID())
	if err != nil {
		logger.Errorf("chat: push members group=%s: %v", target.GroupID(), err)
		return
	}
	title := m.UserName
	if title == "" {
		title = "New message"
	}
	body := m.Content
	if m.Type != model.MessageTypeText || body == "" {
		body = "Attachment"
	}
	if len(body) > 120 {
		body = body[:117] + "..."
	}
	data := map[string]string{"group_id": target.GroupID(), "message_id": m.ID}
	for _, member := range members {
		if member.Status != model.MemberStatusAccepted || member.UserID == m.UserID {
			continue
		}
		uid := member.UserID
		go g.push.Notify(context.Background(), uid, title, body, data)
	}
}
