package model

import "fmt"

// WindowPair is one training window terminus and the year it forecasts.
// Training always starts at the spec's StartYear; TestYear must lie
// strictly after TrainEnd so no training row can postdate the forecast.
type WindowPair struct {
	TrainEnd int `yaml:"train_end"`
	TestYear int `yaml:"test_year"`
}

// windowPlan expands a spec into its ordered out-of-sample windows.
//
// With explicit Pairs the list is used as given (the fixed pre-crisis
// training variant enumerates its own test years). Otherwise the standard
// expanding sweep applies: the first window ends once MinWindow years have
// accumulated, and each later window extends training by one year and
// forecasts the next.
func windowPlan(spec ModelSpec) ([]WindowPair, error) {
	if len(spec.Pairs) > 0 {
		for _, p := range spec.Pairs {
			if p.TestYear <= p.TrainEnd {
				return nil, fmt.Errorf("window pair trains through %d but tests %d", p.TrainEnd, p.TestYear)
			}
			if p.TrainEnd < spec.StartYear {
				return nil, fmt.Errorf("window pair train end %d precedes sample start %d", p.TrainEnd, spec.StartYear)
			}
			if p.TestYear > spec.EndYear {
				return nil, fmt.Errorf("window pair test year %d exceeds sample end %d", p.TestYear, spec.EndYear)
			}
		}
		return spec.Pairs, nil
	}

	minWindow := spec.MinWindow
	if minWindow < 1 {
		minWindow = 1
	}
	var pairs []WindowPair
	for end := spec.StartYear + minWindow - 1; end < spec.EndYear; end++ {
		pairs = append(pairs, WindowPair{TrainEnd: end, TestYear: end + 1})
	}
	return pairs, nil
}
