package ui

import (
	"html/template"

	"regdash/domain/dashboard"
	"regdash/domain/insight"
	"regdash/domain/regression"
)

// SessionView is the JSON body returned by every session endpoint: the raw
// state plus the derived results panels
type SessionView struct {
	*dashboard.State

	CanAdvance bool              `json:"canAdvance"`
	Results    *ResultsView      `json:"results,omitempty"`
	Narrative  []insight.Section `json:"narrative,omitempty"`
}

// ResultsView holds the panels rendered under the coefficient table
type ResultsView struct {
	Interpretation   regression.Interpretation    `json:"interpretation"`
	Equation         string                       `json:"equation"`
	Coefficients     []regression.CoefficientNote `json:"coefficientNotes"`
	ScoreCard        regression.ScoreCard         `json:"scoreCard"`
	CoefficientStats regression.CoefficientStats  `json:"coefficientStats"`
}

func newSessionView(st *dashboard.State) SessionView {
	v := SessionView{State: st, CanAdvance: st.Config.CanAdvance()}
	if st.Result != nil {
		v.Results = &ResultsView{
			Interpretation:   st.Result.Interpret(),
			Equation:         st.Result.Equation(),
			Coefficients:     st.Result.CoefficientInterpretations(),
			ScoreCard:        st.Result.ScoreCard(),
			CoefficientStats: st.Result.CoefficientStats(),
		}
	}
	if st.Insights != nil {
		v.Narrative = insight.NarrativeWithHighlights(st.Insights, st.Config.DependentVariable, st.Result.Highlights())
	}
	return v
}

// pageData is what the HTML templates receive
type pageData struct {
	SessionView
	Catalog       regression.Catalog
	Kinds         []regression.ModelKind
	Selected      map[string]bool
	NarrativeHTML template.HTML
}

func newPageData(st *dashboard.State, catalog regression.Catalog) pageData {
	selected := make(map[string]bool, len(st.Config.IndependentVariables))
	for _, v := range st.Config.IndependentVariables {
		selected[v] = true
	}
	return pageData{
		SessionView:   newSessionView(st),
		Catalog:       catalog,
		Kinds:         regression.ModelKinds,
		Selected:      selected,
		NarrativeHTML: narrativeHTML(st.Insights, st.Config.DependentVariable, st.Result.Highlights()),
	}
}
