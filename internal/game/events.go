package game

// Outbound event names. Every event goes to the full subscriber set of the
// affected room.
const (
	EventRoomUpdate      = "room_update"
	EventRoundStarted    = "round_started"
	EventSubmissionCount = "submission_update"
	EventVoteCount       = "vote_update"
	EventRejectionCount  = "rejection_update"
	EventRoundResults    = "round_results"
)

// Broadcaster is the delivery side of the game: it owns the subscriber set
// per room and fans events out to it. Delivery is best-effort; a dead
// subscriber never fails a transition.
type Broadcaster interface {
	Subscribe(connID, code string)
	Unsubscribe(connID, code string)
	Broadcast(code, event string, payload any)
}

type RoundStartedEvent struct {
	Round    int    `json:"round"`
	Mode     string `json:"mode"`
	Prompt   string `json:"prompt"`
	Deadline int64  `json:"deadline"`
}

type SubmissionCountEvent struct {
	Count int `json:"count"`
}

type VoteCountEvent struct {
	Count int `json:"count"`
}

type RejectionCountEvent struct {
	TargetID string `json:"targetId"`
	Count    int    `json:"count"`
}
