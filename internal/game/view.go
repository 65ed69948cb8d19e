package game

import "github.com/samber/lo"

// PlayerView is the public shape of a player inside a room view.
type PlayerView struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Score  int    `json:"score"`
	IsHost bool   `json:"isHost"`
}

// RoomView is the full public state pushed on every membership change.
type RoomView struct {
	Code    string       `json:"code"`
	HostID  string       `json:"hostId"`
	Players []PlayerView `json:"players"`
	Mode    string       `json:"mode"`
	Round   int          `json:"round"`
}

// RoundResultsView is the end-of-round broadcast payload.
type RoundResultsView struct {
	Prompt      string         `json:"prompt"`
	Submissions []Submission   `json:"submissions"`
	Tally       map[string]int `json:"tally"`
	Winners     []string       `json:"winners"`
	Scores      []PlayerView   `json:"scores"`
}

// view builds the public room view. Caller holds the room lock.
func (r *Room) view() RoomView {
	return RoomView{
		Code:   r.Code,
		HostID: r.HostID,
		Mode:   r.Mode,
		Round:  r.Round,
		Players: lo.Map(r.Players, func(p *Player, _ int) PlayerView {
			return PlayerView{
				ID:     p.ID,
				Name:   p.Name,
				Score:  p.Score,
				IsHost: p.ID == r.HostID,
			}
		}),
	}
}
