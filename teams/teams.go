// Package teams maps user DIDs onto a fixed set of teams.
//
// Assignment is a pure function of the DID: the same user always lands on the
// same team, across games and across process restarts. The hash only has to
// be stable and roughly uniform, but it must never change once users exist,
// so treat it as frozen.
package teams

// DefaultTotalTeams is how many buckets the player base is split into.
const DefaultTotalTeams = 512

// Assigner folds a string hash of the DID into [0, totalTeams).
type Assigner struct {
	totalTeams int
}

func NewAssigner(totalTeams int) *Assigner {
	if totalTeams <= 0 {
		totalTeams = DefaultTotalTeams
	}
	return &Assigner{totalTeams: totalTeams}
}

func (a *Assigner) TotalTeams() int {
	return a.totalTeams
}

// Assign returns the team for a DID. The hash is the classic h = h*31 + c
// rolled in 32-bit arithmetic, folded to non-negative before the modulo.
func (a *Assigner) Assign(did string) int {
	var h int32
	for i := 0; i < len(did); i++ {
		h = h<<5 - h + int32(did[i])
	}
	return int(uint32(h) % uint32(a.totalTeams))
}
