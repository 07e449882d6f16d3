// Package stats provides the classification and distribution metrics used
// by the failure-prediction pipeline: ROC and precision-recall curves,
// percentile binning, and descriptive summaries.
//
// All functions treat NaN as "missing". Rows where either the label or the
// score is missing are excluded before any curve is built, and a metric
// that is undefined on the remaining rows (for example an AUC over a
// single-class subset) is reported as NaN rather than an error. Callers
// persist NaN as an empty CSV field.
package stats
