package game

import (
	"errors"
	"math/rand"
	"os"
	"strings"
)

var defaultPrompts = []string{
	"something that is the color of your mood",
	"the oldest thing within arm's reach",
	"your most dramatic shadow",
	"a snack styled like fine dining",
	"the view from under a table",
	"something tiny pretending to be huge",
	"your best impression of a statue",
	"the most suspicious corner of the room",
	"a household object living its best life",
	"something soft next to something sharp",
	"the worst parking job you can find",
	"a face made out of things that are not a face",
	"your shoes recreating a movie scene",
	"the brightest thing you can photograph in ten seconds",
	"something that should have been thrown out years ago",
}

// PromptBank holds the fixed prompt set a round start draws from. An
// optional newline-delimited file replaces the built-in list.
type PromptBank struct {
	prompts []string
}

func NewPromptBank(path string) (*PromptBank, error) {
	if path == "" {
		return &PromptBank{prompts: defaultPrompts}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	lines := strings.Split(string(data), "\n")
	prompts := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			prompts = append(prompts, l)
		}
	}
	if len(prompts) == 0 {
		return nil, errors.New("prompt file empty after parsing")
	}
	return &PromptBank{prompts: prompts}, nil
}

// Random picks a prompt uniformly.
func (b *PromptBank) Random() string {
	return b.prompts[rand.Intn(len(b.prompts))]
}
