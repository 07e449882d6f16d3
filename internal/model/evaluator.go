package model

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"bankfail/internal/stats"
)

// SkipReason classifies why one rolling window produced no forecast.
type SkipReason string

const (
	// SkipInsufficientData: no complete training rows in the window.
	SkipInsufficientData SkipReason = "insufficient_data"
	// SkipFitDegenerate: the training design was singular or the
	// likelihood failed to converge.
	SkipFitDegenerate SkipReason = "fit_degenerate"
	// SkipNoVariationInLabel: the training label is single-class.
	SkipNoVariationInLabel SkipReason = "no_variation_in_label"
)

// WindowSkip records one suppressed window for the run log.
type WindowSkip struct {
	TrainEnd int        `json:"train_end"`
	TestYear int        `json:"test_year"`
	Reason   SkipReason `json:"reason"`
	Detail   string     `json:"detail,omitempty"`
}

// PredictionRow is the per-observation output of an evaluation: the label
// alongside the in-sample fitted probability and, where a window covered
// this row's year, the out-of-sample forecast.
type PredictionRow struct {
	BankID   string  `json:"bank_id"`
	Year     int     `json:"year"`
	Label    float64 `json:"label"`
	InSample float64 `json:"in_sample"`
	OOS      float64 `json:"oos"`
}

// EvalSummary carries the headline scalars of one evaluated spec.
type EvalSummary struct {
	SpecID    string  `json:"spec_id"`
	N         int     `json:"n"`
	NBanks    int     `json:"n_banks"`
	MeanLabel float64 `json:"mean_label"`
	AUCIn     float64 `json:"auc_in"`
	AUCOut    float64 `json:"auc_out"`
	PRAUCIn   float64 `json:"pr_auc_in"`
	PRAUCOut  float64 `json:"pr_auc_out"`
	PrecIn50  float64 `json:"prec_in_50"`
	PrecOut50 float64 `json:"prec_out_50"`
	Windows   int     `json:"windows"`
	Skipped   int     `json:"skipped"`
}

// Evaluation is the complete result of one model specification.
type Evaluation struct {
	Spec         ModelSpec
	Coefficients Table
	Rows         []PredictionRow
	Skips        []WindowSkip
	Summary      EvalSummary
}

// Evaluate runs a full specification against the panel: full-sample fit
// with HAC-robust standard errors, in-sample predictions for every row in
// the sample period, and the expanding-window out-of-sample sweep.
//
// A window that cannot be fitted is skipped and recorded; a full-sample
// fit failure fails the specification. The procedure is deterministic:
// identical data and spec produce identical output.
func Evaluate(ctx context.Context, ds *Dataset, spec ModelSpec) (*Evaluation, error) {
	logger := slog.Default()

	sample, _ := ds.YearRange(spec.StartYear, spec.EndYear)
	if sample.Len() == 0 {
		return nil, fmt.Errorf("spec %s: no rows in sample period %d-%d", spec.ID, spec.StartYear, spec.EndYear)
	}

	design, err := BuildDesign(sample, spec.LabelCol, spec.Terms)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", spec.ID, err)
	}
	full, err := FitModel(design, spec.Family)
	if err != nil {
		return nil, fmt.Errorf("spec %s: full-sample fit: %w", spec.ID, err)
	}
	cov, err := HACCovariance(full, designYears(sample, design), spec.HACLags)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", spec.ID, err)
	}

	inSample, err := PredictRows(sample, spec.Terms, full)
	if err != nil {
		return nil, fmt.Errorf("spec %s: in-sample predictions: %w", spec.ID, err)
	}

	oos := make([]float64, sample.Len())
	for i := range oos {
		oos[i] = math.NaN()
	}

	pairs, err := windowPlan(spec)
	if err != nil {
		return nil, fmt.Errorf("spec %s: %w", spec.ID, err)
	}

	var skips []WindowSkip
	for _, pair := range pairs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		if skip := evaluateWindow(sample, spec, pair, oos); skip != nil {
			skips = append(skips, *skip)
			logger.DebugContext(ctx, "window skipped",
				"spec", spec.ID,
				"train_end", pair.TrainEnd,
				"test_year", pair.TestYear,
				"reason", string(skip.Reason))
		}
	}

	label, err := sample.Column(spec.LabelCol)
	if err != nil {
		return nil, err
	}
	rows := make([]PredictionRow, sample.Len())
	for i := range rows {
		rows[i] = PredictionRow{
			BankID:   sample.Banks[i],
			Year:     sample.Years[i],
			Label:    label[i],
			InSample: inSample[i],
			OOS:      oos[i],
		}
	}

	eval := &Evaluation{
		Spec:         spec,
		Coefficients: BuildTable(spec.ID, full, cov),
		Rows:         rows,
		Skips:        skips,
		Summary:      summarise(spec.ID, design, label, inSample, oos, sample, len(pairs), len(skips)),
	}

	logger.InfoContext(ctx, "spec evaluated",
		"spec", spec.ID,
		"n", eval.Summary.N,
		"banks", eval.Summary.NBanks,
		"auc_in", eval.Summary.AUCIn,
		"auc_out", eval.Summary.AUCOut,
		"windows_skipped", len(skips))
	return eval, nil
}

// evaluateWindow fits one training window and writes forecasts for its
// test year into oos. A nil return means the window produced forecasts.
func evaluateWindow(sample *Dataset, spec ModelSpec, pair WindowPair, oos []float64) *WindowSkip {
	trainRows := make([]int, 0, sample.Len())
	for i, y := range sample.Years {
		if y >= spec.StartYear && y <= pair.TrainEnd {
			trainRows = append(trainRows, i)
		}
	}
	if len(trainRows) == 0 {
		return &WindowSkip{TrainEnd: pair.TrainEnd, TestYear: pair.TestYear, Reason: SkipInsufficientData}
	}
	train := sample.Select(trainRows)

	design, err := BuildDesign(train, spec.LabelCol, spec.Terms)
	if err != nil {
		return &WindowSkip{TrainEnd: pair.TrainEnd, TestYear: pair.TestYear, Reason: SkipInsufficientData, Detail: err.Error()}
	}
	if !labelVariation(design.Y) {
		return &WindowSkip{TrainEnd: pair.TrainEnd, TestYear: pair.TestYear, Reason: SkipNoVariationInLabel}
	}
	fit, err := FitModel(design, spec.Family)
	if err != nil {
		reason := SkipFitDegenerate
		if !errors.Is(err, ErrDegenerate) {
			reason = SkipInsufficientData
		}
		return &WindowSkip{TrainEnd: pair.TrainEnd, TestYear: pair.TestYear, Reason: reason, Detail: err.Error()}
	}

	testRows := make([]int, 0, 64)
	for i, y := range sample.Years {
		if y == pair.TestYear {
			testRows = append(testRows, i)
		}
	}
	if len(testRows) == 0 {
		return nil
	}
	test := sample.Select(testRows)
	preds, err := PredictRows(test, spec.Terms, fit)
	if err != nil {
		return &WindowSkip{TrainEnd: pair.TrainEnd, TestYear: pair.TestYear, Reason: SkipFitDegenerate, Detail: err.Error()}
	}
	for j, i := range testRows {
		oos[i] = preds[j]
	}
	return nil
}

// designYears maps the design's kept rows back to observation years for
// the HAC lag ordering.
func designYears(sample *Dataset, d *Design) []int {
	years := make([]int, len(d.Rows))
	for j, i := range d.Rows {
		years[j] = sample.Years[i]
	}
	return years
}

func summarise(specID string, d *Design, label, inSample, oos []float64, sample *Dataset, windows, skipped int) EvalSummary {
	banks := make(map[string]struct{})
	for _, i := range d.Rows {
		banks[sample.Banks[i]] = struct{}{}
	}
	sum := 0.0
	for _, v := range d.Y {
		sum += v
	}
	return EvalSummary{
		SpecID:    specID,
		N:         len(d.Rows),
		NBanks:    len(banks),
		MeanLabel: sum / float64(len(d.Y)),
		AUCIn:     stats.ROCAUC(label, inSample),
		AUCOut:    stats.ROCAUC(label, oos),
		PRAUCIn:   stats.PRAUC(label, inSample),
		PRAUCOut:  stats.PRAUC(label, oos),
		PrecIn50:  stats.PrecisionAtRecall(label, inSample, 0.5),
		PrecOut50: stats.PrecisionAtRecall(label, oos, 0.5),
		Windows:   windows,
		Skipped:   skipped,
	}
}
