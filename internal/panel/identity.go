package panel

import (
	"fmt"
	"sort"
)

// Receivership is one receivership spell of a charter, taken from the
// failure record. EndYear is zero for a terminal receivership.
type Receivership struct {
	CharterID string `json:"charter_id"`
	StartYear int    `json:"start_year"`
	EndYear   int    `json:"end_year"`
}

// AssignLives rewrites BankID and FailYear so each "life" of a charter is
// a distinct entity. A charter that enters receivership, is released, and
// later operates again would otherwise conflate two different banks under
// one identifier; the second life gets a new synthetic id.
//
// Life n of charter C is "C" for n==1 and "C#n" afterwards. An
// observation falling inside a receivership spell keeps the life that
// entered it. FailYear becomes the start year of the life's own
// receivership, or zero for a life never observed to fail.
func AssignLives(obs []Observation, recs []Receivership) {
	byCharter := make(map[string][]Receivership)
	for _, r := range recs {
		byCharter[r.CharterID] = append(byCharter[r.CharterID], r)
	}
	for _, spells := range byCharter {
		sort.Slice(spells, func(i, j int) bool { return spells[i].StartYear < spells[j].StartYear })
	}

	for i := range obs {
		o := &obs[i]
		spells := byCharter[o.CharterID]

		// Count completed spells strictly before this observation: each
		// release starts a new life.
		life := 1
		for _, s := range spells {
			if s.EndYear > 0 && s.EndYear < o.Year {
				life++
			}
		}

		if life == 1 {
			o.BankID = o.CharterID
		} else {
			o.BankID = fmt.Sprintf("%s#%d", o.CharterID, life)
		}

		// This life's failure is the first spell not already completed
		// before the observation: either an ongoing receivership or the
		// next one ahead. Completed earlier spells belong to earlier
		// lives.
		o.FailYear = 0
		for _, s := range spells {
			if s.EndYear > 0 && s.EndYear < o.Year {
				continue
			}
			o.FailYear = s.StartYear
			break
		}
	}
}
