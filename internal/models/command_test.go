package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCanTransition(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{CommandStatusPending, CommandStatusInProgress, true},
		{CommandStatusPending, CommandStatusCompleted, true},
		{CommandStatusPending, CommandStatusFailed, true},
		{CommandStatusInProgress, CommandStatusCompleted, true},
		{CommandStatusInProgress, CommandStatusFailed, true},
		{CommandStatusInProgress, CommandStatusPending, false},
		{CommandStatusCompleted, CommandStatusFailed, false},
		{CommandStatusFailed, CommandStatusCompleted, false},
		{CommandStatusCompleted, CommandStatusPending, false},
		{CommandStatusPending, CommandStatusPending, false},
		{"bogus", CommandStatusFailed, false},
		{CommandStatusPending, "bogus", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s to %s", tc.from, tc.to)
	}
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, (&Command{Status: CommandStatusPending}).IsTerminal())
	assert.False(t, (&Command{Status: CommandStatusInProgress}).IsTerminal())
	assert.True(t, (&Command{Status: CommandStatusCompleted}).IsTerminal())
	assert.True(t, (&Command{Status: CommandStatusFailed}).IsTerminal())
}
