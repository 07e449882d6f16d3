package panel

import "math"

// ApplyFailureLabels computes the forward failure-horizon labels and the
// years-to-failure field for every observation.
//
// F_k is 1 when the bank fails within k years strictly after the report
// year, 0 when it survives the whole horizon, and missing when the
// horizon runs past lastPanelYear without an observed failure
// (right-censoring): a censored survival is unknown, not a zero.
func ApplyFailureLabels(obs []Observation, lastPanelYear int) {
	for i := range obs {
		o := &obs[i]
		if o.Failed() {
			o.YearsToFailure = float64(o.FailYear - o.Year)
		} else {
			o.YearsToFailure = math.NaN()
		}
		o.F1 = horizonLabel(o, 1, lastPanelYear)
		o.F3 = horizonLabel(o, 3, lastPanelYear)
		o.F5 = horizonLabel(o, 5, lastPanelYear)
	}
}

func horizonLabel(o *Observation, k, lastPanelYear int) float64 {
	if o.Failed() {
		if o.FailYear <= o.Year {
			// Report dated at or after failure: the horizon question
			// no longer applies.
			return math.NaN()
		}
		if o.FailYear <= o.Year+k {
			return 1
		}
		return 0
	}
	if o.Year+k > lastPanelYear {
		return math.NaN()
	}
	return 0
}
