package game

import (
	"sync"
	"time"
)

type Player struct {
	ID    string
	Name  string
	Score int
}

// Submission is one player's payload for the current round. The slice on the
// room keeps arrival order; re-submitting replaces the payload in place.
type Submission struct {
	PlayerID string `json:"playerId"`
	Payload  string `json:"payload"`
}

// Room is one game session. Players is kept in join order so that host
// migration ("first remaining player") is deterministic; map iteration order
// is never used for it. Submissions, Votes and Rejections belong to the
// current round and are only reset by the next round start.
type Room struct {
	mu sync.Mutex

	Code        string
	HostID      string
	Players     []*Player
	Round       int
	Mode        string
	Prompt      string
	Deadline    time.Time
	Submissions []Submission
	Votes       map[string]string              // voter -> target
	Rejections  map[string]map[string]struct{} // target -> distinct flaggers
}

func newRoom(code string) *Room {
	return &Room{
		Code:       code,
		Votes:      make(map[string]string),
		Rejections: make(map[string]map[string]struct{}),
	}
}

// Every exported transition on Room assumes the caller holds mu via the
// state machine; the helpers below are unexported for that reason.

func (r *Room) player(id string) *Player {
	for _, p := range r.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// addPlayer appends a player with score 0 and hands out the host seat when
// nobody holds it. A second join with the same connection id only refreshes
// the name.
func (r *Room) addPlayer(id, name string) {
	if p := r.player(id); p != nil {
		p.Name = name
	} else {
		r.Players = append(r.Players, &Player{ID: id, Name: name})
	}
	if r.HostID == "" {
		r.HostID = id
	}
}

// removePlayer drops the player from the join-order list. When the host
// leaves, the first remaining player inherits the seat; an emptied room keeps
// no host.
func (r *Room) removePlayer(id string) bool {
	idx := -1
	for i, p := range r.Players {
		if p.ID == id {
			idx = i
			break
		}
	}
	if idx == -1 {
		return false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if r.HostID == id {
		if len(r.Players) > 0 {
			r.HostID = r.Players[0].ID
		} else {
			r.HostID = ""
		}
	}
	return true
}

// startRound advances the round counter and resets all round-scoped state.
func (r *Room) startRound(mode, prompt string, deadline time.Time) {
	r.Round++
	r.Mode = mode
	r.Prompt = prompt
	r.Deadline = deadline
	r.Submissions = nil
	r.Votes = make(map[string]string)
	r.Rejections = make(map[string]map[string]struct{})
}

// upsertSubmission keeps one entry per player, preserving the position of an
// existing entry. Returns the submission count after the write.
func (r *Room) upsertSubmission(playerID, payload string) int {
	for i := range r.Submissions {
		if r.Submissions[i].PlayerID == playerID {
			r.Submissions[i].Payload = payload
			return len(r.Submissions)
		}
	}
	r.Submissions = append(r.Submissions, Submission{PlayerID: playerID, Payload: payload})
	return len(r.Submissions)
}

// flag records voterID against targetID. Re-flagging is a no-op. Returns the
// distinct flagger count for the target.
func (r *Room) flag(voterID, targetID string) int {
	set, ok := r.Rejections[targetID]
	if !ok {
		set = make(map[string]struct{})
		r.Rejections[targetID] = set
	}
	set[voterID] = struct{}{}
	return len(set)
}

// snapshot copies the round-scoped state for the scoring engine, so scoring
// stays a pure function of plain data.
func (r *Room) snapshot() Snapshot {
	playerIDs := make([]string, len(r.Players))
	for i, p := range r.Players {
		playerIDs[i] = p.ID
	}

	subs := make([]Submission, len(r.Submissions))
	copy(subs, r.Submissions)

	votes := make(map[string]string, len(r.Votes))
	for voter, target := range r.Votes {
		votes[voter] = target
	}

	rejections := make(map[string]map[string]struct{}, len(r.Rejections))
	for target, set := range r.Rejections {
		flaggers := make(map[string]struct{}, len(set))
		for id := range set {
			flaggers[id] = struct{}{}
		}
		rejections[target] = flaggers
	}

	return Snapshot{
		PlayerIDs:   playerIDs,
		Submissions: subs,
		Votes:       votes,
		Rejections:  rejections,
	}
}
