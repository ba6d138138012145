package game

import (
	"github.com/erga-labs/gemini-battle-sim/internal/spawn"
)

// RosterSource supplies the initial spawn data. Poll is called once per host
// tick while the game is loading; ready stays false until data is available.
type RosterSource interface {
	Poll() (roster *spawn.Roster, ready bool, err error)
}

// StaticRoster is a source whose data is available immediately.
type StaticRoster struct {
	Roster *spawn.Roster
}

func (s StaticRoster) Poll() (*spawn.Roster, bool, error) { return s.Roster, s.Roster != nil, nil }

// FileRoster loads a roster file on the first poll.
type FileRoster struct {
	Path string
}

func (s FileRoster) Poll() (*spawn.Roster, bool, error) {
	r, err := spawn.LoadFile(s.Path)
	if err != nil {
		return nil, false, err
	}
	return r, true, nil
}

// RosterFunc adapts a function to RosterSource.
type RosterFunc func() (*spawn.Roster, bool, error)

func (f RosterFunc) Poll() (*spawn.Roster, bool, error) { return f() }
