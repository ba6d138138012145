package spawn

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/erga-labs/gemini-battle-sim/internal/battle"
)

const hostRoster = `{
  "userInitData": {"battalions": [
    {"type": "Warrior", "troops": [[10, 10], [11, 10], [12, 10]]},
    {"type": "archer", "troops": [[10, 14]]}
  ]},
  "aiInitData": {"battalions": [
    {"type": "ARCHER", "troops": [[60, 20], [61, 20]], "avgCenter": [60.5, 20]}
  ]}
}`

func TestParse_HostRoster(t *testing.T) {
	r, err := Parse(strings.NewReader(hostRoster))
	require.NoError(t, err)

	require.Len(t, r.Attackers, 2)
	require.Len(t, r.Defenders, 1)
	assert.Equal(t, 1, r.Attackers[0].ID)
	assert.Equal(t, battle.Warrior, r.Attackers[0].Type)
	assert.Equal(t, []battle.Vec2{battle.V(10, 10), battle.V(11, 10), battle.V(12, 10)}, r.Attackers[0].Troops)
	assert.Equal(t, 2, r.Attackers[1].ID)
	assert.Equal(t, battle.Archer, r.Attackers[1].Type)
	// Ids continue across sides.
	assert.Equal(t, 3, r.Defenders[0].ID)
	assert.Equal(t, battle.Archer, r.Defenders[0].Type)
	assert.Equal(t, 4, r.TroopCount(battle.Attacker))
	assert.Equal(t, 2, r.TroopCount(battle.Defender))
}

func TestParse_OffsetShape(t *testing.T) {
	r, err := Parse(strings.NewReader(`{
	  "userInitData": {"battalions": [{"type": "warrior", "position": [20, 5], "troops": [[-1, 0], [1, 0]]}]},
	  "aiInitData": {"battalions": []}
	}`))
	require.NoError(t, err)
	assert.Equal(t, []battle.Vec2{battle.V(19, 5), battle.V(21, 5)}, r.Attackers[0].Troops)
	assert.Empty(t, r.Defenders)
}

func TestParse_TroopCountShape(t *testing.T) {
	r, err := Parse(strings.NewReader(`{
	  "userInitData": {"battalions": []},
	  "aiInitData": {"battalions": [{"type": "warrior", "position": [50, 20], "troopCount": 9, "formation": "block", "spacing": 1.5}]}
	}`))
	require.NoError(t, err)
	require.Len(t, r.Defenders, 1)
	troops := r.Defenders[0].Troops
	require.Len(t, troops, 9)

	var sum battle.Vec2
	for _, p := range troops {
		sum = sum.Add(p)
	}
	mean := sum.Scale(1.0 / 9)
	assert.InDelta(t, 50, mean.X, 1e-9)
	assert.InDelta(t, 20, mean.Y, 1e-9)
}

func TestParse_Malformed(t *testing.T) {
	cases := map[string]string{
		"not json":        `{"userInitData":`,
		"missing side":    `{"userInitData": {"battalions": []}}`,
		"unknown type":    `{"userInitData": {"battalions": [{"type": "cavalry", "troops": [[1, 1]]}]}, "aiInitData": {"battalions": []}}`,
		"empty troops":    `{"userInitData": {"battalions": [{"type": "warrior", "troops": []}]}, "aiInitData": {"battalions": []}}`,
		"short point":     `{"userInitData": {"battalions": [{"type": "warrior", "troops": [[1]]}]}, "aiInitData": {"battalions": []}}`,
		"count no origin": `{"userInitData": {"battalions": [{"type": "warrior", "troopCount": 3}]}, "aiInitData": {"battalions": []}}`,
		"bad formation":   `{"userInitData": {"battalions": [{"type": "warrior", "position": [1, 1], "troopCount": 3, "formation": "phalanx"}]}, "aiInitData": {"battalions": []}}`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(body))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrMalformed)
		})
	}
}

func TestLoadFile_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
userInitData:
  battalions:
    - type: archer
      troops: [[1, 2], [3, 4]]
aiInitData:
  battalions:
    - type: warrior
      position: [70, 22]
      troopCount: 4
      formation: line
`), 0644))

	r, err := LoadFile(path)
	require.NoError(t, err)
	require.Len(t, r.Attackers, 1)
	assert.Equal(t, []battle.Vec2{battle.V(1, 2), battle.V(3, 4)}, r.Attackers[0].Troops)
	require.Len(t, r.Defenders, 1)
	assert.Len(t, r.Defenders[0].Troops, 4)
	assert.Equal(t, 2, r.Defenders[0].ID)
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "nope.json"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMalformed)
}

func TestDemo_Layout(t *testing.T) {
	r := Demo(80, 45)
	require.Len(t, r.Attackers, 2)
	require.Len(t, r.Defenders, 2)

	want := map[int]struct {
		kind   battle.UnitType
		center battle.Vec2
	}{
		1: {battle.Archer, battle.V(40, 22.5)},
		2: {battle.Warrior, battle.V(40, 15)},
		3: {battle.Archer, battle.V(55, 22.5)},
		4: {battle.Warrior, battle.V(60, 22.5)},
	}
	for _, info := range append(r.Attackers, r.Defenders...) {
		w, ok := want[info.ID]
		require.True(t, ok, "unexpected id %d", info.ID)
		assert.Equal(t, w.kind, info.Type)
		require.Len(t, info.Troops, 3)
		assert.Equal(t, w.center, info.Troops[1])
		assert.Equal(t, w.center.Add(battle.V(-1, 0)), info.Troops[0])
	}
}

func TestRoster_SpawnIntoHandler(t *testing.T) {
	h := battle.NewHandler(battle.DefaultRules())
	require.NoError(t, Demo(80, 45).Spawn(h))
	assert.Len(t, h.Battalions(battle.Attacker), 2)
	assert.Len(t, h.Battalions(battle.Defender), 2)
	assert.Equal(t, 6, h.TroopCount(battle.Defender))
}
