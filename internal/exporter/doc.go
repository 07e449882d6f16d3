// Package exporter writes the pipeline's result artifacts: per-model
// prediction files, coefficient tables, the evaluation summary, and the
// combined results workbook.
package exporter
