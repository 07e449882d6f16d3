package stats

import (
	"math"
	"sort"
)

// MinClassesForAUC is the number of distinct label values required before
// a ranking metric is defined.
const MinClassesForAUC = 2

// scorePair is one (score, label) observation retained after missing-value
// filtering.
type scorePair struct {
	score float64
	pos   bool
}

// cleanPairs drops observations with a missing label or score and reports
// the positive and negative counts of what remains. Labels are binary 0/1;
// anything greater than 0.5 is treated as positive so that float labels
// read back from CSV compare safely.
func cleanPairs(labels, scores []float64) (pairs []scorePair, nPos, nNeg int) {
	n := len(labels)
	if len(scores) < n {
		n = len(scores)
	}
	pairs = make([]scorePair, 0, n)
	for i := 0; i < n; i++ {
		if math.IsNaN(labels[i]) || math.IsNaN(scores[i]) {
			continue
		}
		p := labels[i] > 0.5
		pairs = append(pairs, scorePair{score: scores[i], pos: p})
		if p {
			nPos++
		} else {
			nNeg++
		}
	}
	return pairs, nPos, nNeg
}

// ROCAUC computes the area under the ROC curve for binary labels and
// continuous scores. It is the Mann-Whitney rank statistic, so tied scores
// receive the average rank and contribute half credit.
//
// Returns NaN when, after dropping missing values, fewer than two distinct
// classes remain.
func ROCAUC(labels, scores []float64) float64 {
	pairs, nPos, nNeg := cleanPairs(labels, scores)
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score < pairs[j].score })

	// Sum the average ranks of the positive observations, walking tie
	// groups so equal scores share one rank.
	rankSumPos := 0.0
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			j++
		}
		// ranks i+1..j averaged over the tie group
		avgRank := float64(i+j+1) / 2.0
		for k := i; k < j; k++ {
			if pairs[k].pos {
				rankSumPos += avgRank
			}
		}
		i = j
	}

	u := rankSumPos - float64(nPos)*float64(nPos+1)/2.0
	return u / (float64(nPos) * float64(nNeg))
}

// PRAUC computes the area under the precision-recall curve as average
// precision: the sum over threshold steps of the recall increment times
// the precision at that threshold. Tied scores are processed as a single
// threshold group.
//
// Returns NaN when fewer than two distinct classes remain after dropping
// missing values.
func PRAUC(labels, scores []float64) float64 {
	pairs, nPos, nNeg := cleanPairs(labels, scores)
	if nPos == 0 || nNeg == 0 {
		return math.NaN()
	}

	// Descending scores: most confident predictions first.
	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	var tp, fp int
	auc := 0.0
	i := 0
	for i < len(pairs) {
		j := i
		groupTP, groupFP := 0, 0
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			if pairs[j].pos {
				groupTP++
			} else {
				groupFP++
			}
			j++
		}
		tp += groupTP
		fp += groupFP
		precision := float64(tp) / float64(tp+fp)
		auc += precision * float64(groupTP) / float64(nPos)
		i = j
	}
	return auc
}

// PrecisionAtRecall returns the precision of the smallest score cutoff
// whose recall reaches at least target. Target is a fraction in (0, 1].
//
// Returns NaN when the metric is undefined (single-class subset) or the
// target recall is never reached.
func PrecisionAtRecall(labels, scores []float64, target float64) float64 {
	pairs, nPos, nNeg := cleanPairs(labels, scores)
	if nPos == 0 || nNeg == 0 || target <= 0 || target > 1 {
		return math.NaN()
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].score > pairs[j].score })

	var tp, fp int
	i := 0
	for i < len(pairs) {
		j := i
		for j < len(pairs) && pairs[j].score == pairs[i].score {
			if pairs[j].pos {
				tp++
			} else {
				fp++
			}
			j++
		}
		recall := float64(tp) / float64(nPos)
		if recall >= target {
			return float64(tp) / float64(tp+fp)
		}
		i = j
	}
	return math.NaN()
}
