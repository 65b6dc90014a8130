package chat

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Amanss21229/LearnSansaLearn21nov/internal/model"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/moderation"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/repository"
	"github.com/Amanss21229/LearnSansaLearn21nov/internal/room"
)

type fakeConn struct {
	mu     sync.Mutex
	closed bool
}

func (c *fakeConn) ReadEvent() (*InboundEvent, error) { select {} }
func (c *fakeConn) WriteEvent(*OutboundEvent) error   { return nil }
func (c *fakeConn) Ping() error                       { return nil }
func (c *fakeConn) Close() error {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	return nil
}

type fakeUsers struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func (f *fakeUsers) GetUser(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

type fakeMembers struct {
	mu      sync.Mutex
	members map[string][]model.GroupMember
}

func (f *fakeMembers) GetGroupMembers(ctx context.Context, groupID string) ([]model.GroupMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.GroupMember(nil), f.members[groupID]...), nil
}

type fakeMessages struct {
	mu         sync.Mutex
	msgs       map[string]*model.Message
	failCreate bool
}

func newFakeMessages() *fakeMessages {
	return &fakeMessages{msgs: make(map[string]*model.Message)}
}

func (f *fakeMessages) CreateMessage(ctx context.Context, m *model.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate {
		return errors.New("db down")
	}
	cp := *m
	cp.Reactions = m.Reactions.Clone()
	f.msgs[m.ID] = &cp
	return nil
}

func (f *fakeMessages) GetMessageByID(ctx context.Context, id string) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *m
	cp.Reactions = m.Reactions.Clone()
	return &cp, nil
}

func (f *fakeMessages) UpdateMessageReactions(ctx context.Context, id string, reactions model.ReactionMap) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.Reactions = reactions.Clone()
	cp := *m
	cp.Reactions = m.Reactions.Clone()
	return &cp, nil
}

func (f *fakeMessages) UpdateMessagePinned(ctx context.Context, id string, pinned bool) (*model.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.msgs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m.IsPinned = pinned
	cp := *m
	cp.Reactions = m.Reactions.Clone()
	return &cp, nil
}

func (f *fakeMessages) stored(id string) *model.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.msgs[id]
}

func (f *fakeMessages) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.msgs)
}

type fakeSettings struct {
	mu       sync.Mutex
	settings map[string]*model.ChatSetting
}

func (f *fakeSettings) GetChatSetting(ctx context.Context, stream string) (*model.ChatSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.settings[stream]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

type testEnv struct {
	gw       *Gateway
	users    *fakeUsers
	members  *fakeMembers
	messages *fakeMessages
	settings *fakeSettings
}

func newTestEnv(denylist ...string) *testEnv {
	users := &fakeUsers{users: make(map[string]*model.User)}
	members := &fakeMembers{members: make(map[string][]model.GroupMember)}
	messages := newFakeMessages()
	settings := &fakeSettings{settings: make(map[string]*model.ChatSetting)}
	gw := NewGateway(users, members, messages, settings, moderation.NewFilter(denylist), 0, nil)
	return &testEnv{gw: gw, users: users, members: members, messages: messages, settings: settings}
}

func (e *testEnv) addUser(id, name, stream string, isAdmin bool) {
	e.users.mu.Lock()
	e.users.users[id] = &model.User{ID: id, Name: name, Stream: stream, IsAdmin: isAdmin}
	e.users.mu.Unlock()
}

// connect authenticates a new session for the user via the auth event.
func (e *testEnv) connect(t *testing.T, userID string) *Session {
	t.Helper()
	s := NewSession(e.gw, &fakeConn{})
	e.gw.HandleEvent(context.Background(), s, &InboundEvent{Type: EventAuth, UserID: userID})
	return s
}

// drainEvents empties the session's send buffer.
func drainEvents(s *Session) []*OutboundEvent {
	var out []*OutboundEvent
	for {
		select {
		case ev := <-s.send:
			out = append(out, ev)
		default:
			return out
		}
	}
}

func lastMessagePayload(t *testing.T, evs []*OutboundEvent) *model.Message {
	t.Helper()
	for i := len(evs) - 1; i >= 0; i-- {
		if evs[i].Type == EventNewMessage {
			m, ok := evs[i].Payload.(*model.Message)
			require.True(t, ok, "new_message payload must be *model.Message")
			return m
		}
	}
	t.Fatal("no new_message event found")
	return nil
}

func TestAuthSubscribesCommunityRoom(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)

	s := env.connect(t, "u1")

	assert.True(t, s.Authenticated())
	assert.True(t, env.gw.Router().Contains(room.Community("NEET"), s))
}

func TestAuthUnknownUserStaysUnauthenticated(t *testing.T) {
	env := newTestEnv()

	s := env.connect(t, "ghost")

	assert.False(t, s.Authenticated())
	assert.Empty(t, drainEvents(s), "no error event goes back on failed auth")
}

func TestSendMessageUnauthenticatedDropped(t *testing.T) {
	env := newTestEnv()
	s := NewSession(env.gw, &fakeConn{})

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "hello",
	})

	assert.Zero(t, env.messages.count())
	assert.Empty(t, drainEvents(s))
}

func TestSendMessageMalformedTargetDropped(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	s := env.connect(t, "u1")

	for _, ev := range []*InboundEvent{
		{Type: EventSendMessage, Content: "no room"},
		{Type: EventSendMessage, GroupID: "g1", Stream: "NEET", Content: "two rooms"},
	} {
		env.gw.HandleEvent(context.Background(), s, ev)
	}

	assert.Zero(t, env.messages.count())
	assert.Empty(t, drainEvents(s))
}

func TestSendMessageModerationRejectsBeforePersist(t *testing.T) {
	env := newTestEnv("badword")
	env.addUser("u1", "Asha", "NEET", false)
	env.addUser("u2", "Ravi", "NEET", false)
	sender := env.connect(t, "u1")
	other := env.connect(t, "u2")
	drainEvents(sender)
	drainEvents(other)

	env.gw.HandleEvent(context.Background(), sender, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "this has a BadWord inside",
	})

	evs := drainEvents(sender)
	require.Len(t, evs, 1)
	assert.Equal(t, EventBadWord, evs[0].Type)
	assert.Empty(t, drainEvents(other), "rejection notices go to the sender only")
	assert.Zero(t, env.messages.count(), "rejected text is never persisted")
}

func TestSendMessageImageSkipsModeration(t *testing.T) {
	env := newTestEnv("badword")
	env.addUser("u1", "Asha", "NEET", false)
	s := env.connect(t, "u1")

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET",
		Content: "https://cdn.example/badword.png", MessageType: model.MessageTypeImage,
	})

	assert.Equal(t, 1, env.messages.count())
	evs := drainEvents(s)
	require.NotEmpty(t, evs)
	assert.Equal(t, EventNewMessage, evs[len(evs)-1].Type)
}

func TestSendMessageChatDisabledGate(t *testing.T) {
	env := newTestEnv()
	env.addUser("student", "Asha", "NEET", false)
	env.addUser("admin", "Sir", "NEET", true)
	env.settings.settings["NEET"] = &model.ChatSetting{Stream: "NEET", IsEnabled: false}

	student := env.connect(t, "student")
	admin := env.connect(t, "admin")
	drainEvents(student)
	drainEvents(admin)

	env.gw.HandleEvent(context.Background(), student, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "anyone there?",
	})

	evs := drainEvents(student)
	require.Len(t, evs, 1)
	assert.Equal(t, EventChatDisabled, evs[0].Type)
	assert.Zero(t, env.messages.count())

	// Admins bypass the gate; the broadcast reaches everyone in the room.
	env.gw.HandleEvent(context.Background(), admin, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "chat is closed for today",
	})

	assert.Equal(t, 1, env.messages.count())
	studentEvs := drainEvents(student)
	require.Len(t, studentEvs, 1)
	assert.Equal(t, EventNewMessage, studentEvs[0].Type)
	adminEvs := drainEvents(admin)
	require.Len(t, adminEvs, 1)
	assert.Equal(t, EventNewMessage, adminEvs[0].Type, "broadcast includes the sender")
}

func TestSendMessageBlockedWordBeatsDisabledChat(t *testing.T) {
	env := newTestEnv("badword")
	env.addUser("u1", "Asha", "NEET", false)
	env.settings.settings["NEET"] = &model.ChatSetting{Stream: "NEET", IsEnabled: false}
	s := env.connect(t, "u1")
	drainEvents(s)

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "badword",
	})

	evs := drainEvents(s)
	require.Len(t, evs, 1)
	assert.Equal(t, EventBadWord, evs[0].Type, "moderation is checked before the chat gate")
}

func TestCommunityBroadcastIsolatedByStream(t *testing.T) {
	env := newTestEnv()
	env.addUser("n1", "Asha", "NEET", false)
	env.addUser("n2", "Ravi", "NEET", false)
	env.addUser("j1", "Meera", "JEE", false)

	neet1 := env.connect(t, "n1")
	neet2 := env.connect(t, "n2")
	jee := env.connect(t, "j1")

	env.gw.HandleEvent(context.Background(), neet1, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "mock test at 5pm",
	})

	m := lastMessagePayload(t, drainEvents(neet2))
	assert.Equal(t, "mock test at 5pm", m.Content)
	assert.Equal(t, "NEET", m.Stream)
	lastMessagePayload(t, drainEvents(neet1))
	assert.Empty(t, drainEvents(jee), "other streams never see the message")
}

func TestSendMessageEnrichesFreshSenderProfile(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Old Name", "NEET", false)
	s := env.connect(t, "u1")

	// Profile changes after auth must show up in subsequent broadcasts.
	env.users.mu.Lock()
	env.users.users["u1"].Name = "New Name"
	env.users.users["u1"].ProfilePhoto = "p.jpg"
	env.users.mu.Unlock()

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "hi",
	})

	m := lastMessagePayload(t, drainEvents(s))
	assert.Equal(t, "New Name", m.UserName)
	assert.Equal(t, "p.jpg", m.UserPhoto)
}

func TestSendMessagePersistFailureAbortsBroadcast(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	s := env.connect(t, "u1")
	env.messages.failCreate = true

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "hello",
	})

	assert.Empty(t, drainEvents(s), "nothing is broadcast when persistence fails")
}

func TestJoinGroupRequiresAcceptedMembership(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	env.members.members["g1"] = []model.GroupMember{
		{GroupID: "g1", UserID: "u1", Status: model.MemberStatusPending},
	}
	s := env.connect(t, "u1")

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{Type: EventJoinGroup, GroupID: "g1"})
	assert.False(t, env.gw.Router().Contains(room.Group("g1"), s), "pending members cannot join the room")
	assert.Empty(t, drainEvents(s), "refusal is silent")

	env.members.mu.Lock()
	env.members.members["g1"][0].Status = model.MemberStatusAccepted
	env.members.mu.Unlock()

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{Type: EventJoinGroup, GroupID: "g1"})
	assert.True(t, env.gw.Router().Contains(room.Group("g1"), s))
}

func TestGroupMessageStaysInGroupRoom(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	env.addUser("u2", "Ravi", "NEET", false)
	env.members.members["g1"] = []model.GroupMember{
		{GroupID: "g1", UserID: "u1", Status: model.MemberStatusAccepted},
	}

	member := env.connect(t, "u1")
	outsider := env.connect(t, "u2")
	env.gw.HandleEvent(context.Background(), member, &InboundEvent{Type: EventJoinGroup, GroupID: "g1"})

	env.gw.HandleEvent(context.Background(), member, &InboundEvent{
		Type: EventSendMessage, GroupID: "g1", Content: "doubt in q4",
	})

	m := lastMessagePayload(t, drainEvents(member))
	assert.Equal(t, "g1", m.GroupID)
	assert.Empty(t, m.Stream)
	assert.Empty(t, drainEvents(outsider), "same community, but not in the group room")
}

func TestReactionToggleSequence(t *testing.T) {
	env := newTestEnv()
	env.addUser("U", "Uma", "NEET", false)
	env.addUser("V", "Ravi", "NEET", false)
	u := env.connect(t, "U")
	v := env.connect(t, "V")

	env.gw.HandleEvent(context.Background(), u, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "done with chapter 3",
	})
	m := lastMessagePayload(t, drainEvents(u))
	drainEvents(v)

	react := func(s *Session, emoji string) ReactionPayload {
		env.gw.HandleEvent(context.Background(), s, &InboundEvent{
			Type: EventAddReaction, MessageID: m.ID, Emoji: emoji,
		})
		evs := drainEvents(s)
		require.NotEmpty(t, evs)
		last := evs[len(evs)-1]
		require.Equal(t, EventReactionAdded, last.Type)
		p, ok := last.Payload.(ReactionPayload)
		require.True(t, ok)
		return p
	}

	p := react(u, "👍")
	assert.Equal(t, []string{"U"}, p.Reactions["👍"])

	drainEvents(u)
	p = react(v, "👍")
	assert.ElementsMatch(t, []string{"U", "V"}, p.Reactions["👍"])

	drainEvents(v)
	p = react(u, "👍")
	assert.Equal(t, []string{"V"}, p.Reactions["👍"], "second toggle removes U")

	stored := env.messages.stored(m.ID)
	require.NotNil(t, stored)
	assert.Equal(t, []string{"V"}, stored.Reactions["👍"])
}

func TestReactionEmptySetDeletesEmojiKey(t *testing.T) {
	env := newTestEnv()
	env.addUser("U", "Uma", "NEET", false)
	u := env.connect(t, "U")

	env.gw.HandleEvent(context.Background(), u, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "hello",
	})
	m := lastMessagePayload(t, drainEvents(u))

	for i := 0; i < 2; i++ {
		env.gw.HandleEvent(context.Background(), u, &InboundEvent{
			Type: EventAddReaction, MessageID: m.ID, Emoji: "🔥",
		})
	}

	stored := env.messages.stored(m.ID)
	require.NotNil(t, stored)
	_, exists := stored.Reactions["🔥"]
	assert.False(t, exists, "emoji key disappears when its set empties")
}

func TestReactionUnknownMessageDropped(t *testing.T) {
	env := newTestEnv()
	env.addUser("U", "Uma", "NEET", false)
	u := env.connect(t, "U")
	drainEvents(u)

	env.gw.HandleEvent(context.Background(), u, &InboundEvent{
		Type: EventAddReaction, MessageID: "nope", Emoji: "👍",
	})

	assert.Empty(t, drainEvents(u))
}

func TestPinBroadcastToMessageRoom(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	env.addUser("u2", "Ravi", "NEET", false)
	a := env.connect(t, "u1")
	b := env.connect(t, "u2")

	env.gw.HandleEvent(context.Background(), a, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "formula sheet",
	})
	m := lastMessagePayload(t, drainEvents(a))
	drainEvents(b)

	env.gw.HandleEvent(context.Background(), b, &InboundEvent{
		Type: EventPinMessage, MessageID: m.ID, IsPinned: true,
	})

	evs := drainEvents(a)
	require.Len(t, evs, 1)
	assert.Equal(t, EventMessagePinned, evs[0].Type)
	p, ok := evs[0].Payload.(PinPayload)
	require.True(t, ok)
	assert.Equal(t, m.ID, p.MessageID)
	assert.True(t, p.IsPinned)

	stored := env.messages.stored(m.ID)
	require.NotNil(t, stored)
	assert.True(t, stored.IsPinned)

	// Unpin is the same operation with the flag flipped.
	drainEvents(b)
	env.gw.HandleEvent(context.Background(), b, &InboundEvent{
		Type: EventPinMessage, MessageID: m.ID, IsPinned: false,
	})
	assert.False(t, env.messages.stored(m.ID).IsPinned)
}

func TestPinUnauthenticatedDropped(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	author := env.connect(t, "u1")
	env.gw.HandleEvent(context.Background(), author, &InboundEvent{
		Type: EventSendMessage, Stream: "NEET", Content: "pin me",
	})
	m := lastMessagePayload(t, drainEvents(author))

	anon := NewSession(env.gw, &fakeConn{})
	env.gw.HandleEvent(context.Background(), anon, &InboundEvent{
		Type: EventPinMessage, MessageID: m.ID, IsPinned: true,
	})

	assert.False(t, env.messages.stored(m.ID).IsPinned)
}

func TestUnknownEventTypeDropped(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	s := env.connect(t, "u1")
	drainEvents(s)

	env.gw.HandleEvent(context.Background(), s, &InboundEvent{Type: "dance"})

	assert.Empty(t, drainEvents(s))
}

func TestUnregisterLeavesAllRooms(t *testing.T) {
	env := newTestEnv()
	env.addUser("u1", "Asha", "NEET", false)
	env.members.members["g1"] = []model.GroupMember{
		{GroupID: "g1", UserID: "u1", Status: model.MemberStatusAccepted},
	}
	s := env.connect(t, "u1")
	env.gw.HandleEvent(context.Background(), s, &InboundEvent{Type: EventJoinGroup, GroupID: "g1"})

	require.True(t, env.gw.Router().Contains(room.Community("NEET"), s))
	require.True(t, env.gw.Router().Contains(room.Group("g1"), s))

	env.gw.addSession(s)
	env.gw.removeSession(s)

	assert.False(t, env.gw.Router().Contains(room.Community("NEET"), s))
	assert.False(t, env.gw.Router().Contains(room.Group("g1"), s))
}
