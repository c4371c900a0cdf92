package services

import "github.com/austinlparker/bsky-bracket/models"

// batchSize bounds every bulk insert/update issued inside a lifecycle
// transaction.
const batchSize = 100

// missingTeams returns the team numbers in [0, totalTeams) that are absent
// from counts. The count queries already apply the per-team minimum, so a
// team that is present is a team that is ready.
func missingTeams(counts []models.TeamCount, totalTeams int) []int {
	ready := make(map[int]struct{}, len(counts))
	for _, tc := range counts {
		ready[tc.Team] = struct{}{}
	}

	missing := make([]int, 0)
	for team := 0; team < totalTeams; team++ {
		if _, ok := ready[team]; !ok {
			missing = append(missing, team)
		}
	}
	return missing
}
