package model

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Family selects the probability model fitted for a spec.
type Family string

const (
	// FamilyLPM is the linear probability model: OLS on a 0/1 label.
	FamilyLPM Family = "lpm"
	// FamilyLogit is logistic regression fitted by maximum likelihood.
	FamilyLogit Family = "logit"
)

// Term describes one predictor in a model specification. A plain term
// references a single column; setting Interact multiplies two columns;
// setting Categorical dummy-encodes the column's distinct values with the
// smallest value as the omitted baseline.
type Term struct {
	Name        string `yaml:"name" validate:"required"`
	Interact    string `yaml:"interact,omitempty"`
	Categorical bool   `yaml:"categorical,omitempty"`
}

// Label returns the display name used in coefficient tables.
func (t Term) Label() string {
	if t.Interact != "" {
		return t.Name + ":" + t.Interact
	}
	return t.Name
}

// ModelSpec is a complete, typed regression specification.
type ModelSpec struct {
	ID        string `yaml:"id" validate:"required"`
	LabelCol  string `yaml:"label" validate:"required"`
	Terms     []Term `yaml:"terms" validate:"required,min=1,dive"`
	Family    Family `yaml:"family" validate:"required,oneof=lpm logit"`
	StartYear int    `yaml:"start_year" validate:"required"`
	EndYear   int    `yaml:"end_year" validate:"required,gtefield=StartYear"`

	// MinWindow is the number of training years that must accumulate
	// before the first out-of-sample forecast is produced.
	MinWindow int `yaml:"min_window" validate:"min=0"`

	// HACLags is the Newey-West lag truncation for robust standard
	// errors; zero gives plain heteroskedasticity-robust errors.
	HACLags int `yaml:"hac_lags" validate:"min=0"`

	// Pairs optionally replaces the expanding sweep with an explicit
	// list of (train_end, test_year) windows, e.g. the fixed pre-1929
	// training variant with enumerated Depression test years.
	Pairs []WindowPair `yaml:"pairs,omitempty"`
}

// Design is a fully materialised design matrix after listwise deletion.
type Design struct {
	X        *mat.Dense
	Y        []float64
	ColNames []string
	// Rows maps design rows back to rows of the source dataset.
	Rows []int
	// CatLevels records, per categorical term, the sorted levels observed
	// when the design was built (baseline first). Prediction encodes its
	// dummies against this layout, not the scored subset's own levels.
	CatLevels map[string][]float64
}

// buildColumns expands the terms of a spec into named numeric columns over
// the dataset. Categorical terms expand into one dummy per non-baseline
// level; interactions multiply element-wise, propagating missingness.
func buildColumns(ds *Dataset, terms []Term) (names []string, cols [][]float64, catLevels map[string][]float64, err error) {
	catLevels = make(map[string][]float64)
	for _, t := range terms {
		base, err := ds.Column(t.Name)
		if err != nil {
			return nil, nil, nil, err
		}
		switch {
		case t.Categorical:
			levels := distinctLevels(base)
			if len(levels) < 2 {
				// A single observed level carries no contrast; the
				// term drops out rather than producing a zero column.
				continue
			}
			catLevels[t.Name] = levels
			for _, lv := range levels[1:] {
				dummy := make([]float64, len(base))
				for i, v := range base {
					if math.IsNaN(v) {
						dummy[i] = math.NaN()
					} else if v == lv {
						dummy[i] = 1
					}
				}
				names = append(names, fmt.Sprintf("%s=%g", t.Name, lv))
				cols = append(cols, dummy)
			}
		case t.Interact != "":
			partner, err := ds.Column(t.Interact)
			if err != nil {
				return nil, nil, nil, err
			}
			prod := make([]float64, len(base))
			for i := range base {
				prod[i] = base[i] * partner[i]
			}
			names = append(names, t.Label())
			cols = append(cols, prod)
		default:
			names = append(names, t.Name)
			cols = append(cols, base)
		}
	}
	return names, cols, catLevels, nil
}

// scoringColumns expands terms against a fitted layout. Categorical
// dummies use the training levels: a level outside them marks the row
// missing, and a term that carried no contrast in training is skipped
// here too, so the columns line up one-to-one with the fitted
// coefficients.
func scoringColumns(ds *Dataset, terms []Term, catLevels map[string][]float64) (names []string, cols [][]float64, err error) {
	for _, t := range terms {
		base, err := ds.Column(t.Name)
		if err != nil {
			return nil, nil, err
		}
		switch {
		case t.Categorical:
			levels, ok := catLevels[t.Name]
			if !ok {
				continue
			}
			known := make(map[float64]struct{}, len(levels))
			for _, lv := range levels {
				known[lv] = struct{}{}
			}
			for _, lv := range levels[1:] {
				dummy := make([]float64, len(base))
				for i, v := range base {
					if _, seen := known[v]; math.IsNaN(v) || !seen {
						dummy[i] = math.NaN()
					} else if v == lv {
						dummy[i] = 1
					}
				}
				names = append(names, fmt.Sprintf("%s=%g", t.Name, lv))
				cols = append(cols, dummy)
			}
		case t.Interact != "":
			partner, err := ds.Column(t.Interact)
			if err != nil {
				return nil, nil, err
			}
			prod := make([]float64, len(base))
			for i := range base {
				prod[i] = base[i] * partner[i]
			}
			names = append(names, t.Label())
			cols = append(cols, prod)
		default:
			names = append(names, t.Name)
			cols = append(cols, base)
		}
	}
	return names, cols, nil
}

// BuildDesign assembles y and X for the spec's label and terms over the
// given dataset, dropping any row with a missing label or predictor
// (listwise deletion). The first column is always the intercept.
func BuildDesign(ds *Dataset, labelCol string, terms []Term) (*Design, error) {
	y, err := ds.Column(labelCol)
	if err != nil {
		return nil, err
	}
	names, cols, catLevels, err := buildColumns(ds, terms)
	if err != nil {
		return nil, err
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("model has no usable predictor columns")
	}

	keep := make([]int, 0, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		if math.IsNaN(y[i]) {
			continue
		}
		ok := true
		for _, col := range cols {
			if math.IsNaN(col[i]) {
				ok = false
				break
			}
		}
		if ok {
			keep = append(keep, i)
		}
	}
	if len(keep) == 0 {
		return nil, fmt.Errorf("no complete rows after listwise deletion")
	}

	p := len(cols) + 1
	X := mat.NewDense(len(keep), p, nil)
	yKept := make([]float64, len(keep))
	for r, i := range keep {
		X.Set(r, 0, 1)
		for c, col := range cols {
			X.Set(r, c+1, col[i])
		}
		yKept[r] = y[i]
	}

	return &Design{
		X:         X,
		Y:         yKept,
		ColNames:  append([]string{"const"}, names...),
		Rows:      keep,
		CatLevels: catLevels,
	}, nil
}

// PredictRows evaluates a fitted model over every dataset row whose
// predictors are fully observed, returning NaN elsewhere. Categorical
// dummies are encoded against the model's training levels, so a
// level-homogeneous subset still scores its fitted contrasts and a level
// never seen in training yields NaN. The label is not consulted, so rows
// with a missing label still receive a prediction. Link applies for the
// logistic family.
func PredictRows(ds *Dataset, terms []Term, f *Fit) ([]float64, error) {
	names, cols, err := scoringColumns(ds, terms, f.CatLevels)
	if err != nil {
		return nil, err
	}
	if len(names) != len(f.ColNames)-1 {
		return nil, fmt.Errorf("prediction columns %d do not match fitted layout %d", len(names), len(f.ColNames)-1)
	}

	out := make([]float64, ds.Len())
	for i := 0; i < ds.Len(); i++ {
		xb := f.Beta[0]
		missing := false
		for c, col := range cols {
			v := col[i]
			if math.IsNaN(v) {
				missing = true
				break
			}
			xb += f.Beta[c+1] * v
		}
		if missing {
			out[i] = math.NaN()
			continue
		}
		if f.Family == FamilyLogit {
			out[i] = sigmoid(xb)
		} else {
			out[i] = xb
		}
	}
	return out, nil
}

func sigmoid(x float64) float64 {
	if x >= 0 {
		return 1 / (1 + math.Exp(-x))
	}
	e := math.Exp(x)
	return e / (1 + e)
}

func distinctLevels(col []float64) []float64 {
	seen := make(map[float64]struct{})
	for _, v := range col {
		if !math.IsNaN(v) {
			seen[v] = struct{}{}
		}
	}
	levels := make([]float64, 0, len(seen))
	for v := range seen {
		levels = append(levels, v)
	}
	sort.Float64s(levels)
	return levels
}

// labelVariation reports whether a 0/1 label vector contains both classes.
func labelVariation(y []float64) bool {
	var hasPos, hasNeg bool
	for _, v := range y {
		if math.IsNaN(v) {
			continue
		}
		if v > 0.5 {
			hasPos = true
		} else {
			hasNeg = true
		}
		if hasPos && hasNeg {
			return true
		}
	}
	return false
}
