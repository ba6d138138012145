package spawn

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

// ErrMalformed is wrapped by every roster decoding or validation failure.
var ErrMalformed = errors.New("malformed roster")

// Roster is the canonical spawn data for both sides: absolute troop
// positions, ids assigned from 1 across attackers then defenders.
type Roster struct {
	Attackers []battle.SpawnInfo
	Defenders []battle.SpawnInfo
}

// TroopCount sums the troops of one side.
func (r *Roster) TroopCount(side battle.Allegiance) int {
	infos := r.Attackers
	if side == battle.Defender {
		infos = r.Defenders
	}
	n := 0
	for _, info := range infos {
		n += len(info.Troops)
	}
	return n
}

// Spawn hands both sides to the handler, attackers first.
func (r *Roster) Spawn(h *battle.Handler) error {
	if err := h.Spawn(battle.Attacker, r.Attackers); err != nil {
		return err
	}
	return h.Spawn(battle.Defender, r.Defenders)
}

// --- Wire format ---

// rawBattalion accepts three shapes:
//   - troops only: absolute positions
//   - position + troops: troops are offsets from position
//   - position + troopCount: troops are laid out in a formation around position
type rawBattalion struct {
	Type       string      `json:"type" yaml:"type"`
	Troops     [][]float64 `json:"troops" yaml:"troops"`
	Position   []float64   `json:"position" yaml:"position"`
	TroopCount int         `json:"troopCount" yaml:"troopCount"`
	Formation  string      `json:"formation" yaml:"formation"`
	Heading    float64     `json:"heading" yaml:"heading"`
	Spacing    float64     `json:"spacing" yaml:"spacing"`
}

type rawSide struct {
	Battalions []rawBattalion `json:"battalions" yaml:"battalions"`
}

type rawRoster struct {
	User *rawSide `json:"userInitData" yaml:"userInitData"`
	AI   *rawSide `json:"aiInitData" yaml:"aiInitData"`
}

// Format selects the roster decoder.
type Format int

const (
	FormatJSON Format = iota
	FormatYAML
)

// Parse decodes a JSON roster. userInitData becomes the attackers and
// aiInitData the defenders.
func Parse(r io.Reader) (*Roster, error) {
	return ParseFormat(r, FormatJSON)
}

// ParseFormat decodes a roster in the given format.
func ParseFormat(r io.Reader, f Format) (*Roster, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read roster: %w", err)
	}
	var raw rawRoster
	switch f {
	case FormatYAML:
		err = yaml.Unmarshal(data, &raw)
	default:
		err = json.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw.normalize()
}

// LoadFile reads a roster file. .yaml and .yml files are decoded as YAML,
// everything else as JSON.
func LoadFile(path string) (*Roster, error) {
	f, err := os.Open(path) // #nosec G304 -- operator-supplied roster path
	if err != nil {
		return nil, fmt.Errorf("open roster: %w", err)
	}
	defer f.Close()

	format := FormatJSON
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		format = FormatYAML
	}
	roster, err := ParseFormat(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return roster, nil
}

func (raw rawRoster) normalize() (*Roster, error) {
	if raw.User == nil || raw.AI == nil {
		return nil, fmt.Errorf("%w: both userInitData and aiInitData are required", ErrMalformed)
	}
	out := &Roster{}
	id := 0
	for i, b := range raw.User.Battalions {
		id++
		info, err := b.spawnInfo(id)
		if err != nil {
			return nil, fmt.Errorf("%w: userInitData.battalions[%d]: %v", ErrMalformed, i, err)
		}
		out.Attackers = append(out.Attackers, info)
	}
	for i, b := range raw.AI.Battalions {
		id++
		info, err := b.spawnInfo(id)
		if err != nil {
			return nil, fmt.Errorf("%w: aiInitData.battalions[%d]: %v", ErrMalformed, i, err)
		}
		out.Defenders = append(out.Defenders, info)
	}
	return out, nil
}

func (b rawBattalion) spawnInfo(id int) (battle.SpawnInfo, error) {
	kind, err := battle.ParseUnitType(b.Type)
	if err != nil {
		return battle.SpawnInfo{}, err
	}
	info := battle.SpawnInfo{ID: id, Type: kind}

	troops := make([]battle.Vec2, 0, len(b.Troops))
	for j, t := range b.Troops {
		p, err := point(t)
		if err != nil {
			return battle.SpawnInfo{}, fmt.Errorf("troops[%d]: %v", j, err)
		}
		troops = append(troops, p)
	}

	switch {
	case b.Position == nil:
		if b.TroopCount > 0 {
			return battle.SpawnInfo{}, errors.New("troopCount requires a position")
		}
		info.Troops = troops
	case len(troops) > 0:
		origin, err := point(b.Position)
		if err != nil {
			return battle.SpawnInfo{}, fmt.Errorf("position: %v", err)
		}
		for _, off := range troops {
			info.Troops = append(info.Troops, origin.Add(off))
		}
	default:
		origin, err := point(b.Position)
		if err != nil {
			return battle.SpawnInfo{}, fmt.Errorf("position: %v", err)
		}
		ft, err := battle.ParseFormation(b.Formation)
		if err != nil {
			return battle.SpawnInfo{}, err
		}
		info.Troops = battle.LayoutTroops(origin, b.Heading, ft, b.TroopCount, b.Spacing)
	}

	if len(info.Troops) == 0 {
		return battle.SpawnInfo{}, battle.ErrNoTroops
	}
	return info, nil
}

func point(v []float64) (battle.Vec2, error) {
	if len(v) != 2 {
		return battle.Vec2{}, fmt.Errorf("expected [x, y], got %d values", len(v))
	}
	return battle.V(v[0], v[1]), nil
}

// --- Built-in layout ---

// demoOffsets is the troop pattern of every demo battalion.
var demoOffsets = []battle.Vec2{{X: -1, Y: 0}, {X: 0, Y: 0}, {X: 1, Y: 0}}

// Demo returns the built-in four-battalion roster for a world of the given
// size: attacking archers and warriors at the centre, defenders to the east.
func Demo(worldW, worldH float64) *Roster {
	around := func(c battle.Vec2) []battle.Vec2 {
		out := make([]battle.Vec2, len(demoOffsets))
		for i, off := range demoOffsets {
			out[i] = c.Add(off)
		}
		return out
	}
	return &Roster{
		Attackers: []battle.SpawnInfo{
			{ID: 1, Type: battle.Archer, Troops: around(battle.V(worldW/2, worldH/2))},
			{ID: 2, Type: battle.Warrior, Troops: around(battle.V(worldW/2, (worldH-15)/2))},
		},
		Defenders: []battle.SpawnInfo{
			{ID: 3, Type: battle.Archer, Troops: around(battle.V((worldW+30)/2, worldH/2))},
			{ID: 4, Type: battle.Warrior, Troops: around(battle.V((worldW+40)/2, worldH/2))},
		},
	}
}
