package game

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordedEvent struct {
	code    string
	event   string
	payload any
}

// fakeGateway records subscriptions and broadcasts in order.
type fakeGateway struct {
	mu     sync.Mutex
	events []recordedEvent
	subs   map[string]map[string]bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{subs: make(map[string]map[string]bool)}
}

func (g *fakeGateway) Subscribe(connID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.subs[code] == nil {
		g.subs[code] = make(map[string]bool)
	}
	g.subs[code][connID] = true
}

func (g *fakeGateway) Unsubscribe(connID, code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.subs[code], connID)
}

func (g *fakeGateway) Broadcast(code, event string, payload any) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.events = append(g.events, recordedEvent{code: code, event: event, payload: payload})
}

func (g *fakeGateway) eventsOf(event string) []recordedEvent {
	g.mu.Lock()
	defer g.mu.Unlock()
	var out []recordedEvent
	for _, e := range g.events {
		if e.event == event {
			out = append(out, e)
		}
	}
	return out
}

func (g *fakeGateway) last(t *testing.T, event string) recordedEvent {
	t.Helper()
	events := g.eventsOf(event)
	require.NotEmpty(t, events, "no %s broadcast recorded", event)
	return events[len(events)-1]
}

var testNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestMachine() (*Machine, *fakeGateway) {
	gw := newFakeGateway()
	bank := &PromptBank{prompts: []string{"only prompt"}}
	m := NewMachine(NewRoomStore(), NewConnectionRegistry(), gw, bank, 30)
	m.now = func() time.Time { return testNow }
	return m, gw
}

func TestCreateRoomMakesCallerHost(t *testing.T) {
	m, gw := newTestMachine()

	code, err := m.CreateRoom("c1", "Ana")
	require.NoError(t, err)
	require.NotEmpty(t, code)

	room, ok := m.store.Get(code)
	require.True(t, ok)
	assert.Equal(t, "c1", room.HostID)
	require.Len(t, room.Players, 1)
	assert.Equal(t, 0, room.Players[0].Score)
	assert.True(t, gw.subs[code]["c1"])
	assert.Equal(t, []string{code}, m.registry.RoomsOf("c1"))
}

func TestCreateRoomSurfacesStoreFailure(t *testing.T) {
	m, gw := newTestMachine()
	m.store.genCode = func() string { return "" }

	_, err := m.CreateRoom("c1", "Ana")
	assert.ErrorIs(t, err, ErrNoRoomCode)
	assert.Empty(t, gw.events)
	assert.Empty(t, m.registry.RoomsOf("c1"))
}

func TestJoinRoomCreatesAndBroadcasts(t *testing.T) {
	m, gw := newTestMachine()

	view := m.JoinRoom("c1", "AB12", "Ana")

	assert.Equal(t, "AB12", view.Code)
	assert.Equal(t, "c1", view.HostID)
	require.Len(t, view.Players, 1)
	assert.True(t, view.Players[0].IsHost)

	update := gw.last(t, EventRoomUpdate)
	assert.Equal(t, "AB12", update.code)
}

func TestJoinRoomSecondPlayerIsNotHost(t *testing.T) {
	m, _ := newTestMachine()

	m.JoinRoom("c1", "AB12", "Ana")
	view := m.JoinRoom("c2", "AB12", "Ben")

	assert.Equal(t, "c1", view.HostID)
	require.Len(t, view.Players, 2)
	assert.Equal(t, "Ben", view.Players[1].Name)
	assert.False(t, view.Players[1].IsHost)
}

func TestStartRoundHostOnly(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")
	m.JoinRoom("c2", "AB12", "Ben")

	err := m.StartRound("c2", "AB12", "classic", 20)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Empty(t, gw.eventsOf(EventRoundStarted))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 0, room.Round)
}

func TestStartRoundMissingRoom(t *testing.T) {
	m, gw := newTestMachine()

	err := m.StartRound("c1", "NOPE", "classic", 20)
	assert.ErrorIs(t, err, ErrRoomNotFound)
	assert.Empty(t, gw.events)
}

func TestStartRoundSetsUpRound(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")

	require.NoError(t, m.StartRound("c1", "AB12", "classic", 20))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 1, room.Round)
	assert.Equal(t, "classic", room.Mode)
	assert.Equal(t, "only prompt", room.Prompt)
	assert.Equal(t, testNow.Add(20*time.Second), room.Deadline)

	evt, ok := gw.last(t, EventRoundStarted).payload.(RoundStartedEvent)
	require.True(t, ok)
	assert.Equal(t, 1, evt.Round)
	assert.Equal(t, "classic", evt.Mode)
	assert.Equal(t, "only prompt", evt.Prompt)
	assert.Equal(t, testNow.Add(20*time.Second).Unix(), evt.Deadline)
}

func TestStartRoundDefaultDuration(t *testing.T) {
	m, _ := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")

	require.NoError(t, m.StartRound("c1", "AB12", "classic", 0))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, testNow.Add(30*time.Second), room.Deadline)
}

func TestStartRoundClearsPreviousRoundData(t *testing.T) {
	m, _ := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")
	m.JoinRoom("c2", "AB12", "Ben")

	require.NoError(t, m.StartRound("c1", "AB12", "classic", 20))
	m.SubmitPhoto("c1", "AB12", "img1")
	m.VoteBest("c2", "AB12", "c1")
	m.FlagLazy("c2", "AB12", "c1")

	require.NoError(t, m.StartRound("c1", "AB12", "remix", 20))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 2, room.Round)
	assert.Empty(t, room.Submissions)
	assert.Empty(t, room.Votes)
	assert.Empty(t, room.Rejections)
}

func TestSubmitPhotoUpsert(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")
	m.JoinRoom("c2", "AB12", "Ben")

	m.SubmitPhoto("c1", "AB12", "first")
	m.SubmitPhoto("c2", "AB12", "other")
	m.SubmitPhoto("c1", "AB12", "replaced")

	room, _ := m.store.Get("AB12")
	require.Len(t, room.Submissions, 2)
	// Order of the replaced entry is preserved.
	assert.Equal(t, "c1", room.Submissions[0].PlayerID)
	assert.Equal(t, "replaced", room.Submissions[0].Payload)

	evt, ok := gw.last(t, EventSubmissionCount).payload.(SubmissionCountEvent)
	require.True(t, ok)
	assert.Equal(t, 2, evt.Count)
}

func TestSubmitPhotoMissingRoomIsNoop(t *testing.T) {
	m, gw := newTestMachine()
	m.SubmitPhoto("c1", "NOPE", "img")
	assert.Empty(t, gw.events)
}

func TestVoteBestOverwrites(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")
	m.JoinRoom("c2", "AB12", "Ben")

	m.VoteBest("c1", "AB12", "c2")
	m.VoteBest("c1", "AB12", "anyone-at-all") // target membership is not checked

	room, _ := m.store.Get("AB12")
	assert.Equal(t, map[string]string{"c1": "anyone-at-all"}, room.Votes)

	evt, ok := gw.last(t, EventVoteCount).payload.(VoteCountEvent)
	require.True(t, ok)
	assert.Equal(t, 1, evt.Count)
}

func TestFlagLazyIdempotent(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("c1", "AB12", "Ana")
	m.JoinRoom("c2", "AB12", "Ben")
	m.JoinRoom("c3", "AB12", "Cal")

	m.FlagLazy("c2", "AB12", "c1")
	m.FlagLazy("c2", "AB12", "c1")
	m.FlagLazy("c3", "AB12", "c1")

	room, _ := m.store.Get("AB12")
	assert.Len(t, room.Rejections["c1"], 2)

	evt, ok := gw.last(t, EventRejectionCount).payload.(RejectionCountEvent)
	require.True(t, ok)
	assert.Equal(t, "c1", evt.TargetID)
	assert.Equal(t, 2, evt.Count)
}

func TestEndRoundScenario(t *testing.T) {
	// Room AB12: P1 (host), P2, P3. P1 and P2 submit, P3 does not.
	m, gw := newTestMachine()
	m.JoinRoom("p1", "AB12", "Ana")
	m.JoinRoom("p2", "AB12", "Ben")
	m.JoinRoom("p3", "AB12", "Cal")

	require.NoError(t, m.StartRound("p1", "AB12", "classic", 20))
	m.SubmitPhoto("p1", "AB12", "img1")
	m.SubmitPhoto("p2", "AB12", "img2")

	require.NoError(t, m.EndRound("p1", "AB12"))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 1, room.player("p1").Score)
	assert.Equal(t, 1, room.player("p2").Score)
	assert.Equal(t, -2, room.player("p3").Score)

	results, ok := gw.last(t, EventRoundResults).payload.(RoundResultsView)
	require.True(t, ok)
	assert.Equal(t, "only prompt", results.Prompt)
	assert.Len(t, results.Submissions, 2)
	assert.Empty(t, results.Winners)
	assert.Len(t, results.Scores, 3)

	// Round data stays queryable until the next start.
	assert.Equal(t, 1, room.Round)
	assert.Len(t, room.Submissions, 2)
}

func TestEndRoundHostOnly(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("p1", "AB12", "Ana")
	m.JoinRoom("p2", "AB12", "Ben")

	err := m.EndRound("p2", "AB12")
	assert.ErrorIs(t, err, ErrNotAuthorized)
	assert.Empty(t, gw.eventsOf(EventRoundResults))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 0, room.player("p1").Score)
}

func TestEndRoundAppliesVoteAndFlagDeltas(t *testing.T) {
	m, _ := newTestMachine()
	m.JoinRoom("p1", "AB12", "Ana")
	m.JoinRoom("p2", "AB12", "Ben")
	m.JoinRoom("p3", "AB12", "Cal")

	require.NoError(t, m.StartRound("p1", "AB12", "classic", 20))
	m.SubmitPhoto("p1", "AB12", "img1")
	m.SubmitPhoto("p2", "AB12", "img2")
	m.SubmitPhoto("p3", "AB12", "img3")
	m.VoteBest("p2", "AB12", "p1")
	m.VoteBest("p3", "AB12", "p1")
	m.FlagLazy("p1", "AB12", "p3")
	m.FlagLazy("p2", "AB12", "p3")

	require.NoError(t, m.EndRound("p1", "AB12"))

	room, _ := m.store.Get("AB12")
	assert.Equal(t, 3, room.player("p1").Score)  // +1 submit, +2 win
	assert.Equal(t, 1, room.player("p2").Score)  // +1 submit
	assert.Equal(t, -1, room.player("p3").Score) // +1 submit, -2 majority flags
}

func TestHostMigrationOnDisconnect(t *testing.T) {
	m, gw := newTestMachine()
	m.JoinRoom("p1", "AB12", "Ana")
	m.JoinRoom("p2", "AB12", "Ben")
	m.JoinRoom("p3", "AB12", "Cal")

	m.Disconnect("p1")

	room, _ := m.store.Get("AB12")
	assert.Equal(t, "p2", room.HostID)
	require.Len(t, room.Players, 2)

	view, ok := gw.last(t, EventRoomUpdate).payload.(RoomView)
	require.True(t, ok)
	hosts := 0
	for _, p := range view.Players {
		if p.IsHost {
			hosts++
			assert.Equal(t, "p2", p.ID)
		}
	}
	assert.Equal(t, 1, hosts)
}

func TestDisconnectLeavesEveryRoom(t *testing.T) {
	m, _ := newTestMachine()
	m.JoinRoom("p1", "AAAA", "Ana")
	m.JoinRoom("p1", "BBBB", "Ana")
	m.JoinRoom("p2", "AAAA", "Ben")

	m.Disconnect("p1")

	a, _ := m.store.Get("AAAA")
	b, _ := m.store.Get("BBBB")
	assert.Nil(t, a.player("p1"))
	assert.Nil(t, b.player("p1"))
	assert.Equal(t, "p2", a.HostID)
	assert.Empty(t, m.registry.RoomsOf("p1"))
}

func TestEmptiedRoomStaysInStore(t *testing.T) {
	m, _ := newTestMachine()
	m.JoinRoom("p1", "AB12", "Ana")

	m.LeaveRoom("p1", "AB12")

	room, ok := m.store.Get("AB12")
	require.True(t, ok)
	assert.Empty(t, room.Players)
	assert.Empty(t, room.HostID)

	// A later joiner becomes host of the surviving room.
	view := m.JoinRoom("p2", "AB12", "Ben")
	assert.Equal(t, "p2", view.HostID)
}

func TestSingleHostInvariantUnderChurn(t *testing.T) {
	m, _ := newTestMachine()

	conns := []string{"a", "b", "c", "d", "e"}
	for _, id := range conns {
		m.JoinRoom(id, "AB12", id)
	}

	room, _ := m.store.Get("AB12")
	for _, id := range []string{"a", "c", "e", "b"} {
		m.Disconnect(id)
		if len(room.Players) > 0 {
			require.NotNil(t, room.player(room.HostID),
				"host %s must be a current player", room.HostID)
		} else {
			require.Empty(t, room.HostID)
		}
	}
}
