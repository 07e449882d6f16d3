package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"bankfail/internal/model"
	"bankfail/internal/panel"
	"bankfail/internal/series"
)

// State is the shared state of one pipeline run: the data artifacts each
// stage leaves behind for the stages after it. Access is mutex-guarded so
// a stage that fans out internally can write back safely.
type State struct {
	mu sync.RWMutex

	// RunID identifies this run in the progress log.
	RunID string

	historical []panel.Observation
	modern     []panel.Observation
	recs       []panel.Receivership
	deflator   *series.Deflator

	cpi    *series.Annual
	gdp    *series.Annual
	yields *series.Annual

	panelRows []panel.Observation
	dataset   *model.Dataset

	evaluations []*model.Evaluation
}

// NewState creates the state for a fresh run.
func NewState() *State {
	return &State{RunID: uuid.New().String()}
}

// SetSources stores the imported raw tables.
func (s *State) SetSources(historical, modern []panel.Observation, recs []panel.Receivership, deflator *series.Deflator) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.historical = historical
	s.modern = modern
	s.recs = recs
	s.deflator = deflator
}

// Sources returns the imported raw tables.
func (s *State) Sources() (historical, modern []panel.Observation, recs []panel.Receivership, deflator *series.Deflator) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.historical, s.modern, s.recs, s.deflator
}

// SetMacro stores the imported macro time series; any of them may be
// nil when its source file was absent.
func (s *State) SetMacro(cpi, gdp, yields *series.Annual) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cpi = cpi
	s.gdp = gdp
	s.yields = yields
}

// Macro returns the imported macro time series.
func (s *State) Macro() (cpi, gdp, yields *series.Annual) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cpi, s.gdp, s.yields
}

// SetPanel stores the built analysis panel and its columnar projection.
func (s *State) SetPanel(rows []panel.Observation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.panelRows = rows
	s.dataset = panel.ToDataset(rows)
}

// Panel returns the built panel rows.
func (s *State) Panel() []panel.Observation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.panelRows
}

// Dataset returns the columnar projection of the panel.
func (s *State) Dataset() *model.Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.dataset
}

// SetEvaluations stores the model evaluation results.
func (s *State) SetEvaluations(evals []*model.Evaluation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.evaluations = evals
}

// Evaluations returns the model evaluation results.
func (s *State) Evaluations() []*model.Evaluation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.evaluations
}
