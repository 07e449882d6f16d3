// Package model fits the failure-prediction regressions and generates the
// out-of-sample forecasts the reporting stages consume.
//
// A ModelSpec is a typed description of one regression: a binary label
// column, an ordered list of predictor terms (plain, interacted, or
// categorical), a family (linear probability or logistic), a sample
// period, and a rolling-window configuration. The design matrix is built
// programmatically from the terms; there is no formula-string parsing.
//
// Evaluate produces a full-sample fit with HAC-robust standard errors,
// in-sample fitted probabilities for every row whose predictors are
// observed, and expanding-window out-of-sample predictions: fit on years
// [start, e], predict year e+1, slide e forward. A window that cannot be
// fit is skipped with a typed reason and its test year simply receives no
// out-of-sample prediction; predictions are never imputed or carried
// forward. A failure of the full-sample fit fails the whole spec.
package model
