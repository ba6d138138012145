package battle

import (
	"fmt"
	"strings"
)

// Journal categories and keys recorded by the handler.
const (
	CatSpawn  = "spawn"
	CatTarget = "target"
	CatDeath  = "death"
	CatFort   = "fort"
	CatGame   = "game"
	CatMove   = "move"

	KeyBattalion  = "battalion"
	KeyAcquire    = "acquire"
	KeyLost       = "lost"
	KeyTroops     = "troops"
	KeyWallDown   = "wall_down"
	KeyCastleDown = "castle_down"
	KeyFinished   = "finished"
	KeyCenter     = "center"
)

// JournalEntry is one recorded simulation event.
type JournalEntry struct {
	Frame     int
	Battalion string  // label e.g. "A1", "D3", or "--" for global events
	Side      string  // "attacker", "defender", or "--"
	Category  string  // spawn, target, death, fort, game, move
	Key       string  // specific event name within the category
	Value     string  // human-readable detail
	NumVal    float64 // optional numeric value for threshold checks
}

// String formats the entry as a fixed-width log line.
//
//	[F=0042] A1   target   acquire          D3 at 11.2
func (e JournalEntry) String() string {
	return fmt.Sprintf("[F=%04d] %-4s %-8s %-16s %s",
		e.Frame, e.Battalion, e.Category, e.Key, e.Value)
}

// Journal collects structured events. It is unbounded and machine-readable;
// a nil *Journal discards everything.
type Journal struct {
	entries []JournalEntry
	verbose bool
}

// NewJournal creates a Journal. If verbose is true, per-frame movement
// entries are also recorded.
func NewJournal(verbose bool) *Journal {
	return &Journal{verbose: verbose}
}

// Add records a new entry.
func (j *Journal) Add(frame int, battalion, side, category, key, value string, numVal float64) {
	if j == nil {
		return
	}
	j.entries = append(j.entries, JournalEntry{
		Frame:     frame,
		Battalion: battalion,
		Side:      side,
		Category:  category,
		Key:       key,
		Value:     value,
		NumVal:    numVal,
	})
}

// AddVerbose records an entry only when verbose mode is on.
func (j *Journal) AddVerbose(frame int, battalion, side, category, key, value string, numVal float64) {
	if j == nil || !j.verbose {
		return
	}
	j.Add(frame, battalion, side, category, key, value, numVal)
}

func (j *Journal) Verbose() bool { return j != nil && j.verbose }

// Entries returns all recorded entries.
func (j *Journal) Entries() []JournalEntry {
	if j == nil {
		return nil
	}
	return j.entries
}

// Filter returns entries matching the given category and/or key.
// Pass empty string to match any value for that field.
func (j *Journal) Filter(category, key string) []JournalEntry {
	var out []JournalEntry
	for _, e := range j.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		out = append(out, e)
	}
	return out
}

// FilterBattalion returns entries for a specific battalion label.
func (j *Journal) FilterBattalion(label string) []JournalEntry {
	var out []JournalEntry
	for _, e := range j.Entries() {
		if e.Battalion == label {
			out = append(out, e)
		}
	}
	return out
}

// CountCategory returns how many entries match the given category and key.
func (j *Journal) CountCategory(category, key string) int {
	return len(j.Filter(category, key))
}

// FirstOf returns the earliest entry matching category+key.
func (j *Journal) FirstOf(category, key string) (JournalEntry, bool) {
	for _, e := range j.Entries() {
		if e.Category == category && e.Key == key {
			return e, true
		}
	}
	return JournalEntry{}, false
}

// LastOf returns the most recent entry matching category+key, or false if none.
func (j *Journal) LastOf(category, key string) (JournalEntry, bool) {
	entries := j.Filter(category, key)
	if len(entries) == 0 {
		return JournalEntry{}, false
	}
	return entries[len(entries)-1], true
}

// HasEntry returns true if at least one entry matches category, key, and value substring.
func (j *Journal) HasEntry(category, key, valueSubstr string) bool {
	for _, e := range j.Entries() {
		if category != "" && e.Category != category {
			continue
		}
		if key != "" && e.Key != key {
			continue
		}
		if valueSubstr != "" && !strings.Contains(e.Value, valueSubstr) {
			continue
		}
		return true
	}
	return false
}

// Format returns the full journal as a single string for t.Log output.
func (j *Journal) Format() string {
	var sb strings.Builder
	for _, e := range j.Entries() {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}
