package game

import "sort"

// Snapshot is the end-of-round state the scoring engine works on: plain data,
// no clocks, no room handle.
type Snapshot struct {
	PlayerIDs   []string
	Submissions []Submission
	Votes       map[string]string
	Rejections  map[string]map[string]struct{}
}

// Result carries the score deltas plus the derived round outcome.
type Result struct {
	Deltas  map[string]int `json:"deltas"`
	Tally   map[string]int `json:"tally"`
	Winners []string       `json:"winners"`
}

// Score computes the round outcome. The three rules are independent and
// additive:
//
//  1. participation: submitters +1, everyone else -2
//  2. majority flags: a target flagged by more than half of all current
//     players takes -2
//  3. best vote: every target tied at the highest non-zero tally takes +2
//
// A player can be hit by rule 2 and still win rule 3; the deltas stack.
func Score(s Snapshot) Result {
	deltas := make(map[string]int, len(s.PlayerIDs))

	submitted := make(map[string]struct{}, len(s.Submissions))
	for _, sub := range s.Submissions {
		submitted[sub.PlayerID] = struct{}{}
	}
	for _, id := range s.PlayerIDs {
		if _, ok := submitted[id]; ok {
			deltas[id] += 1
		} else {
			deltas[id] -= 2
		}
	}

	majority := len(s.PlayerIDs)/2 + 1
	for target, flaggers := range s.Rejections {
		if len(flaggers) >= majority {
			deltas[target] -= 2
		}
	}

	tally := make(map[string]int, len(s.Votes))
	maxVotes := 0
	for _, target := range s.Votes {
		tally[target]++
		if tally[target] > maxVotes {
			maxVotes = tally[target]
		}
	}

	winners := make([]string, 0)
	if maxVotes > 0 {
		for target, n := range tally {
			if n == maxVotes {
				winners = append(winners, target)
				deltas[target] += 2
			}
		}
	}
	sort.Strings(winners)

	return Result{Deltas: deltas, Tally: tally, Winners: winners}
}
