package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"regdash/domain/core"
	"regdash/domain/dashboard"
	"regdash/domain/insight"
	"regdash/domain/regression"
	"regdash/internal"
	"regdash/internal/errors"
	"regdash/ports"
)

// ErrInsightsPending rejects a second insight request while one is in flight
var ErrInsightsPending = errors.New(errors.CodeInsightsPending, "insight generation already in progress")

// DashboardService drives the two-step dashboard: variable selection, then
// results with optional insights
type DashboardService struct {
	store     ports.SessionStore
	synth     ports.ResultSynthesizer
	generator ports.InsightGenerator
	catalog   regression.Catalog
	logger    *internal.Logger
	now       func() time.Time

	background sync.WaitGroup
}

// NewDashboardService creates a dashboard service. A nil catalog means the
// built-in sample variables.
func NewDashboardService(store ports.SessionStore, synth ports.ResultSynthesizer, generator ports.InsightGenerator, catalog regression.Catalog, logger *internal.Logger) *DashboardService {
	if catalog == nil {
		catalog = regression.DefaultCatalog()
	}
	if logger == nil {
		logger = internal.NewDefaultLogger()
	}
	return &DashboardService{
		store:     store,
		synth:     synth,
		generator: generator,
		catalog:   catalog,
		logger:    logger,
		now:       time.Now,
	}
}

// Catalog returns the selectable variables
func (s *DashboardService) Catalog() regression.Catalog {
	return append(regression.Catalog(nil), s.catalog...)
}

// NewSession starts a session on the selection step
func (s *DashboardService) NewSession(ctx context.Context) (*dashboard.State, error) {
	state := dashboard.New(core.NewSessionID(), s.now())
	if err := s.store.Create(ctx, state); err != nil {
		return nil, errors.Wrap(err, "create session")
	}
	s.logger.Info("[Dashboard] session %s created", state.ID)
	return state.Clone(), nil
}

// Get returns the current state of a session
func (s *DashboardService) Get(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	return s.store.Get(ctx, id)
}

// ============================================================================
// SELECTION STEP
// ============================================================================

// SetKind changes the model kind
func (s *DashboardService) SetKind(ctx context.Context, id core.SessionID, kind string) (*dashboard.State, error) {
	k, err := regression.ParseModelKind(kind)
	if err != nil {
		return nil, errors.InvalidInput(err.Error())
	}
	return s.updateSelection(ctx, id, func(cfg *regression.ModelConfiguration) error {
		cfg.SetKind(k)
		return nil
	})
}

// SetDependent selects the dependent variable, dropping it from the
// predictors if it was one
func (s *DashboardService) SetDependent(ctx context.Context, id core.SessionID, name string) (*dashboard.State, error) {
	name = strings.TrimSpace(name)
	if err := s.known(name); err != nil {
		return nil, err
	}
	return s.updateSelection(ctx, id, func(cfg *regression.ModelConfiguration) error {
		cfg.SetDependent(name)
		return nil
	})
}

// AddIndependent appends a predictor
func (s *DashboardService) AddIndependent(ctx context.Context, id core.SessionID, name string) (*dashboard.State, error) {
	name = strings.TrimSpace(name)
	if err := s.known(name); err != nil {
		return nil, err
	}
	return s.updateSelection(ctx, id, func(cfg *regression.ModelConfiguration) error {
		if name == cfg.DependentVariable {
			return errors.InvalidInput(name + " is the dependent variable")
		}
		if !cfg.AddIndependent(name) {
			return errors.InvalidInput(name + " is already selected")
		}
		return nil
	})
}

// RemoveIndependent drops a predictor; removing an unselected one is a no-op
func (s *DashboardService) RemoveIndependent(ctx context.Context, id core.SessionID, name string) (*dashboard.State, error) {
	name = strings.TrimSpace(name)
	return s.updateSelection(ctx, id, func(cfg *regression.ModelConfiguration) error {
		cfg.RemoveIndependent(name)
		return nil
	})
}

func (s *DashboardService) known(name string) error {
	if name == "" {
		return errors.InvalidInput("variable name is required")
	}
	if _, ok := s.catalog.Lookup(name); !ok {
		return errors.InvalidInput("unknown variable " + name)
	}
	return nil
}

func (s *DashboardService) updateSelection(ctx context.Context, id core.SessionID, fn func(*regression.ModelConfiguration) error) (*dashboard.State, error) {
	return s.store.Update(ctx, id, func(st *dashboard.State) error {
		if st.Step != dashboard.StepSelection {
			return errors.InvalidTransition("the configuration can only change on the selection step")
		}
		return fn(&st.Config)
	})
}

// ============================================================================
// STEP TRANSITIONS
// ============================================================================

// Advance moves to the results step with a freshly synthesized result
func (s *DashboardService) Advance(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	state, err := s.store.Update(ctx, id, func(st *dashboard.State) error {
		if st.Step != dashboard.StepSelection {
			return errors.InvalidTransition("session is already on the results step")
		}
		if err := st.Config.ValidateAgainst(s.catalog); err != nil {
			return err
		}
		st.ClearResults()
		st.Result = s.synth.Synthesize(st.Config.Clone())
		st.Step = dashboard.StepResults
		st.Generation++
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("[Dashboard] session %s advanced: %s on %d predictors (%d significant)",
		id, state.Config.DependentVariable, len(state.Result.Coefficients), state.Result.SignificantCount())
	return state, nil
}

// Back returns to the selection step, discarding the result and insights
func (s *DashboardService) Back(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	return s.store.Update(ctx, id, func(st *dashboard.State) error {
		if st.Step != dashboard.StepResults {
			return errors.InvalidTransition("session is already on the selection step")
		}
		st.ClearResults()
		st.InsightsPending = false
		st.Step = dashboard.StepSelection
		st.Generation++
		return nil
	})
}

// ============================================================================
// INSIGHTS
// ============================================================================

// GenerateInsights requests insights for the current result and waits for
// them. A generator failure is logged and leaves the dialog closed; it is not
// returned as an error.
func (s *DashboardService) GenerateInsights(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	gen, req, err := s.beginInsights(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.runInsights(ctx, id, gen, req)
}

// StartInsights marks the session pending and generates in the background.
// The returned state has InsightsPending set; callers poll Get.
func (s *DashboardService) StartInsights(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	gen, req, err := s.beginInsights(ctx, id)
	if err != nil {
		return nil, err
	}
	state, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	bg := context.WithoutCancel(ctx)
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		if _, err := s.runInsights(bg, id, gen, req); err != nil {
			s.logger.Warn("[Dashboard] background insights for %s: %v", id, err)
		}
	}()
	return state, nil
}

// CloseInsights hides the insight dialog
func (s *DashboardService) CloseInsights(ctx context.Context, id core.SessionID) (*dashboard.State, error) {
	return s.store.Update(ctx, id, func(st *dashboard.State) error {
		st.InsightsOpen = false
		return nil
	})
}

// Wait blocks until background insight generations have finished
func (s *DashboardService) Wait() {
	s.background.Wait()
}

func (s *DashboardService) beginInsights(ctx context.Context, id core.SessionID) (int, insight.Request, error) {
	var gen int
	var req insight.Request
	_, err := s.store.Update(ctx, id, func(st *dashboard.State) error {
		if st.Step != dashboard.StepResults || st.Result == nil {
			return errors.InvalidTransition("insights need a result; advance to the results step first")
		}
		if st.InsightsPending {
			return ErrInsightsPending
		}
		st.InsightsPending = true
		st.LastError = ""
		gen = st.Generation
		req = insight.NewRequest(st.Result.Summary())
		return nil
	})
	return gen, req, err
}

// runInsights calls the generator and always clears the pending flag, even
// when the generator panics
func (s *DashboardService) runInsights(ctx context.Context, id core.SessionID, gen int, req insight.Request) (state *dashboard.State, err error) {
	var rec *insight.Record
	var genErr error
	start := s.now()

	defer func() {
		if r := recover(); r != nil {
			rec, genErr = nil, errors.InsightFailed(fmt.Errorf("generator panicked: %v", r))
		}
		state, err = s.finishInsights(id, gen, rec, genErr, s.now().Sub(start))
	}()

	rec, genErr = s.generator.Generate(ctx, req)
	return nil, nil
}

func (s *DashboardService) finishInsights(id core.SessionID, gen int, rec *insight.Record, genErr error, took time.Duration) (*dashboard.State, error) {
	if genErr == nil && rec == nil {
		genErr = errors.InsightFailed(fmt.Errorf("generator returned no record"))
	}
	if genErr != nil && !errors.IsInsightFailure(genErr) {
		genErr = errors.InsightFailed(genErr)
	}

	// the request context may already be gone; the flag must still clear
	return s.store.Update(context.Background(), id, func(st *dashboard.State) error {
		if st.Generation != gen {
			s.logger.Info("[Dashboard] discarding stale insights for session %s (generation %d, now %d)", id, gen, st.Generation)
			return nil
		}
		st.InsightsPending = false
		if genErr != nil {
			s.logger.Error("[Dashboard] insight generation failed for session %s after %v: %v", id, took, genErr)
			st.Insights = nil
			st.InsightsOpen = false
			st.LastError = genErr.Error()
			return nil
		}
		s.logger.Info("[Dashboard] insights ready for session %s in %v (score %d, %s)", id, took, rec.ModelHealth.Score, rec.ModelHealth.Status)
		st.Insights = rec
		st.InsightsOpen = true
		return nil
	})
}
