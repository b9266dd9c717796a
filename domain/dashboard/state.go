package dashboard

import (
	"time"

	"regdash/domain/core"
	"regdash/domain/insight"
	"regdash/domain/regression"
)

// Step is the wizard position
type Step int

const (
	StepSelection Step = 1
	StepResults   Step = 2
)

func (s Step) String() string {
	switch s {
	case StepSelection:
		return "selection"
	case StepResults:
		return "results"
	}
	return "unknown"
}

// State is the whole view state of one dashboard session. It is passed
// explicitly between the service and the views; nothing else holds it.
type State struct {
	ID     core.SessionID                `json:"id"`
	Step   Step                          `json:"step"`
	Config regression.ModelConfiguration `json:"config"`

	// Result is regenerated on every entry into the results step
	Result *regression.Result `json:"result,omitempty"`

	Insights        *insight.Record `json:"insights,omitempty"`
	InsightsOpen    bool            `json:"insightsOpen"`
	InsightsPending bool            `json:"insightsPending"`
	LastError       string          `json:"lastError,omitempty"` // logged insight failure, never shown as an error view

	// Generation increments whenever the results step is (re)entered so that
	// late insight replies for an older result can be discarded
	Generation int       `json:"generation"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// New returns a fresh session on the selection step
func New(id core.SessionID, now time.Time) *State {
	return &State{
		ID:        id,
		Step:      StepSelection,
		Config:    regression.NewModelConfiguration(),
		UpdatedAt: now,
	}
}

// Clone returns a deep copy so callers never share slices with the store
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	out := *s
	out.Config = s.Config.Clone()
	out.Result = s.Result.Clone()
	if s.Insights != nil {
		rec := *s.Insights
		rec.ModelHealth.Factors = append([]string(nil), s.Insights.ModelHealth.Factors...)
		rec.KeyInsights = append([]insight.KeyInsight(nil), s.Insights.KeyInsights...)
		rec.Recommendations = append([]insight.Recommendation(nil), s.Insights.Recommendations...)
		rec.TechnicalNotes = append([]insight.TechnicalNote(nil), s.Insights.TechnicalNotes...)
		out.Insights = &rec
	}
	return &out
}

// ClearResults drops everything tied to the results step
func (s *State) ClearResults() {
	s.Result = nil
	s.Insights = nil
	s.InsightsOpen = false
	s.LastError = ""
}
