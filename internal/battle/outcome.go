package battle

import "fmt"

type BattleOutcome int

const (
	OutcomeInconclusive BattleOutcome = iota
	OutcomeAttackerVictory
	OutcomeDefenderVictory
)

func (o BattleOutcome) String() string {
	switch o {
	case OutcomeAttackerVictory:
		return "attacker_victory"
	case OutcomeDefenderVictory:
		return "defender_victory"
	case OutcomeInconclusive:
		return "inconclusive"
	default:
		return "unknown"
	}
}

// Winner maps a decisive outcome to the winning side.
func (o BattleOutcome) Winner() (Allegiance, bool) {
	switch o {
	case OutcomeAttackerVictory:
		return Attacker, true
	case OutcomeDefenderVictory:
		return Defender, true
	}
	return 0, false
}

type BattleOutcomeReason struct {
	Outcome            BattleOutcome
	Frame              int
	AttackerSurvivors  int
	AttackerTotal      int
	AttackerBattalions int
	DefenderSurvivors  int
	DefenderTotal      int
	DefenderBattalions int
	WallsStanding      int
	CastleHealth       float64 // 0 when there is no castle
	Description        string
}

// DetermineBattleOutcome summarises the handler's current state. Runs that
// have not met the win condition are inconclusive, with a description of who
// is ahead on casualties.
func DetermineBattleOutcome(h *Handler) BattleOutcomeReason {
	r := BattleOutcomeReason{
		Frame:              h.frame,
		AttackerSurvivors:  h.TroopCount(Attacker),
		AttackerTotal:      h.spawned[Attacker],
		AttackerBattalions: len(h.attackers),
		DefenderSurvivors:  h.TroopCount(Defender),
		DefenderTotal:      h.spawned[Defender],
		DefenderBattalions: len(h.defenders),
	}
	for _, w := range h.forts.Walls {
		if !w.Destroyed() {
			r.WallsStanding++
		}
	}
	if h.forts.CastleUp() {
		r.CastleHealth = h.forts.Castle.Health()
	}

	if winner, done := h.IsGameFinished(); done {
		if winner == Attacker {
			r.Outcome = OutcomeAttackerVictory
			r.Description = "attacker_victory_defences_razed"
		} else {
			r.Outcome = OutcomeDefenderVictory
			r.Description = "defender_victory_attackers_eliminated"
		}
		return r
	}

	attCas := casualtyRate(r.AttackerSurvivors, r.AttackerTotal)
	defCas := casualtyRate(r.DefenderSurvivors, r.DefenderTotal)
	switch diff := defCas - attCas; {
	case diff > 0.30:
		r.Description = "inconclusive_attacker_ahead"
	case diff < -0.30:
		r.Description = "inconclusive_defender_ahead"
	default:
		r.Description = "inconclusive_even"
	}
	r.Outcome = OutcomeInconclusive
	return r
}

func casualtyRate(survivors, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(total-survivors) / float64(total)
}

func (r BattleOutcomeReason) String() string {
	return fmt.Sprintf("%s (%s) frame=%d attackers=%d/%d defenders=%d/%d walls=%d castle=%.0f",
		r.Outcome, r.Description, r.Frame,
		r.AttackerSurvivors, r.AttackerTotal, r.DefenderSurvivors, r.DefenderTotal,
		r.WallsStanding, r.CastleHealth)
}
