package game

import (
	"time"

	"snapclash/logger"
)

// Machine validates and applies every room lifecycle event. Each transition
// locks the affected room for its whole duration, so events on one room never
// interleave; rooms never share a lock.
type Machine struct {
	store    *RoomStore
	registry *ConnectionRegistry
	gateway  Broadcaster
	prompts  *PromptBank

	defaultRoundSecs int
	now              func() time.Time
}

func NewMachine(store *RoomStore, registry *ConnectionRegistry, gateway Broadcaster, prompts *PromptBank, defaultRoundSecs int) *Machine {
	if defaultRoundSecs <= 0 {
		defaultRoundSecs = 30
	}
	return &Machine{
		store:            store,
		registry:         registry,
		gateway:          gateway,
		prompts:          prompts,
		defaultRoundSecs: defaultRoundSecs,
		now:              time.Now,
	}
}

// CreateRoom allocates a fresh room with the caller as host and sole player.
func (m *Machine) CreateRoom(connID, name string) (string, error) {
	room, err := m.store.Create()
	if err != nil {
		return "", err
	}

	room.mu.Lock()
	room.addPlayer(connID, name)
	code := room.Code
	room.mu.Unlock()

	m.registry.Bind(connID, code)
	m.gateway.Subscribe(connID, code)

	logger.Info("room created code=%s host=%s", code, connID)
	return code, nil
}

// JoinRoom adds the caller to the room for code, creating the room when the
// code is unused. The first player into a hostless room becomes host.
func (m *Machine) JoinRoom(connID, code, name string) RoomView {
	room := m.store.GetOrCreate(code)

	room.mu.Lock()
	room.addPlayer(connID, name)
	view := room.view()
	room.mu.Unlock()

	m.registry.Bind(connID, code)
	m.gateway.Subscribe(connID, code)
	m.gateway.Broadcast(code, EventRoomUpdate, view)

	logger.Info("player joined code=%s conn=%s name=%s", code, connID, name)
	return view
}

// StartRound begins the next round: host-only. On failure nothing is
// broadcast and no state changes.
func (m *Machine) StartRound(connID, code, mode string, durationSec int) error {
	room, ok := m.store.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	if durationSec <= 0 {
		durationSec = m.defaultRoundSecs
	}

	room.mu.Lock()
	if room.HostID != connID {
		room.mu.Unlock()
		return ErrNotAuthorized
	}
	prompt := m.prompts.Random()
	deadline := m.now().Add(time.Duration(durationSec) * time.Second)
	room.startRound(mode, prompt, deadline)
	evt := RoundStartedEvent{
		Round:    room.Round,
		Mode:     room.Mode,
		Prompt:   room.Prompt,
		Deadline: deadline.Unix(),
	}
	room.mu.Unlock()

	m.gateway.Broadcast(code, EventRoundStarted, evt)
	logger.Info("round started code=%s round=%d mode=%s", code, evt.Round, mode)
	return nil
}

// SubmitPhoto records or replaces the caller's submission for the round.
// Silently no-ops when the room does not exist.
func (m *Machine) SubmitPhoto(connID, code, payload string) {
	room, ok := m.store.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	count := room.upsertSubmission(connID, payload)
	room.mu.Unlock()

	m.gateway.Broadcast(code, EventSubmissionCount, SubmissionCountEvent{Count: count})
}

// VoteBest records the caller's single best-photo vote, overwriting any
// earlier one. The target is not validated against membership.
func (m *Machine) VoteBest(connID, code, targetID string) {
	room, ok := m.store.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	room.Votes[connID] = targetID
	count := len(room.Votes)
	room.mu.Unlock()

	m.gateway.Broadcast(code, EventVoteCount, VoteCountEvent{Count: count})
}

// FlagLazy adds the caller to targetID's flagger set. Idempotent per caller.
func (m *Machine) FlagLazy(connID, code, targetID string) {
	room, ok := m.store.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	count := room.flag(connID, targetID)
	room.mu.Unlock()

	m.gateway.Broadcast(code, EventRejectionCount, RejectionCountEvent{TargetID: targetID, Count: count})
}

// EndRound scores the current round and applies the deltas: host-only. Round
// data stays on the room until the next start, so clients can keep showing
// last round's results.
func (m *Machine) EndRound(connID, code string) error {
	room, ok := m.store.Get(code)
	if !ok {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if room.HostID != connID {
		room.mu.Unlock()
		return ErrNotAuthorized
	}

	res := Score(room.snapshot())
	for _, p := range room.Players {
		p.Score += res.Deltas[p.ID]
	}

	results := RoundResultsView{
		Prompt:      room.Prompt,
		Submissions: append([]Submission(nil), room.Submissions...),
		Tally:       res.Tally,
		Winners:     res.Winners,
		Scores:      room.view().Players,
	}
	room.mu.Unlock()

	m.gateway.Broadcast(code, EventRoundResults, results)
	logger.Info("round ended code=%s winners=%v", code, res.Winners)
	return nil
}

// LeaveRoom removes the caller from the room. An emptied room stays in the
// store.
func (m *Machine) LeaveRoom(connID, code string) {
	m.registry.Unbind(connID, code)
	m.gateway.Unsubscribe(connID, code)
	m.removeFromRoom(connID, code)
}

// Disconnect removes the connection from every room it joined.
func (m *Machine) Disconnect(connID string) {
	for _, code := range m.registry.UnbindAll(connID) {
		m.gateway.Unsubscribe(connID, code)
		m.removeFromRoom(connID, code)
	}
}

// Rooms lists the public view of every live room, for the debug API.
func (m *Machine) Rooms() []RoomView {
	codes := m.store.Codes()
	views := make([]RoomView, 0, len(codes))
	for _, code := range codes {
		room, ok := m.store.Get(code)
		if !ok {
			continue
		}
		room.mu.Lock()
		views = append(views, room.view())
		room.mu.Unlock()
	}
	return views
}

func (m *Machine) removeFromRoom(connID, code string) {
	room, ok := m.store.Get(code)
	if !ok {
		return
	}

	room.mu.Lock()
	removed := room.removePlayer(connID)
	view := room.view()
	room.mu.Unlock()

	if !removed {
		return
	}
	m.gateway.Broadcast(code, EventRoomUpdate, view)
	logger.Info("player left code=%s conn=%s", code, connID)
}
