package app

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"regdash/adapters/memory"
	"regdash/adapters/synth"
	"regdash/domain/core"
	"regdash/domain/dashboard"
	"regdash/domain/insight"
	"regdash/internal"
	"regdash/internal/errors"
	"regdash/ports"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	args := m.Called(ctx, req)
	rec, _ := args.Get(0).(*insight.Record)
	return rec, args.Error(1)
}

// blockingGenerator holds every call until release is closed
type blockingGenerator struct {
	started chan struct{}
	release chan struct{}
}

func newBlockingGenerator() *blockingGenerator {
	return &blockingGenerator{started: make(chan struct{}, 4), release: make(chan struct{})}
}

func (g *blockingGenerator) Generate(ctx context.Context, req insight.Request) (*insight.Record, error) {
	g.started <- struct{}{}
	<-g.release
	s, err := req.Summary()
	if err != nil {
		return nil, err
	}
	return insight.Synthesize(s), nil
}

type panickingGenerator struct{}

func (panickingGenerator) Generate(context.Context, insight.Request) (*insight.Record, error) {
	panic("boom")
}

func newService(t *testing.T, gen ports.InsightGenerator) *DashboardService {
	t.Helper()
	return NewDashboardService(memory.NewSessionStore(0), synth.New(synth.WithSeed(11)), gen, nil, internal.NewLogger(internal.LogLevelError))
}

// readySession returns a session on the results step with GDP ~ age, income, urban
func readySession(t *testing.T, svc *DashboardService) core.SessionID {
	t.Helper()
	ctx := context.Background()
	st, err := svc.NewSession(ctx)
	require.NoError(t, err)
	id := st.ID

	_, err = svc.SetDependent(ctx, id, "GDP")
	require.NoError(t, err)
	for _, v := range []string{"age", "income", "urban"} {
		_, err = svc.AddIndependent(ctx, id, v)
		require.NoError(t, err)
	}
	_, err = svc.Advance(ctx, id)
	require.NoError(t, err)
	return id
}

func TestNewSession(t *testing.T) {
	svc := newService(t, &mockGenerator{})
	st, err := svc.NewSession(context.Background())
	require.NoError(t, err)

	assert.Equal(t, dashboard.StepSelection, st.Step)
	assert.Equal(t, "linear", string(st.Config.Kind))
	assert.Empty(t, st.Config.IndependentVariables)
	assert.Nil(t, st.Result)
}

func TestSelection(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &mockGenerator{})
	st, _ := svc.NewSession(ctx)
	id := st.ID

	_, err := svc.SetKind(ctx, id, "ridge")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))
	st, err = svc.SetKind(ctx, id, "Logistic")
	require.NoError(t, err)
	assert.Equal(t, "logistic", string(st.Config.Kind))

	_, err = svc.SetDependent(ctx, id, "shoe_size")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, err = svc.AddIndependent(ctx, id, "age")
	require.NoError(t, err)
	_, err = svc.AddIndependent(ctx, id, "income")
	require.NoError(t, err)
	_, err = svc.AddIndependent(ctx, id, "age")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), "duplicates are rejected")

	st, err = svc.SetDependent(ctx, id, "age")
	require.NoError(t, err)
	assert.Equal(t, "age", st.Config.DependentVariable)
	assert.Equal(t, []string{"income"}, st.Config.IndependentVariables)

	_, err = svc.AddIndependent(ctx, id, "age")
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), "dependent cannot be a predictor")

	st, err = svc.RemoveIndependent(ctx, id, "income")
	require.NoError(t, err)
	assert.Empty(t, st.Config.IndependentVariables)
}

func TestUnknownSession(t *testing.T) {
	svc := newService(t, &mockGenerator{})
	_, err := svc.Get(context.Background(), core.NewSessionID())
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
}

func TestAdvance_RequiresSelection(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &mockGenerator{})
	st, _ := svc.NewSession(ctx)

	_, err := svc.Advance(ctx, st.ID)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err))

	_, _ = svc.SetDependent(ctx, st.ID, "GDP")
	_, err = svc.Advance(ctx, st.ID)
	assert.Equal(t, errors.CodeInvalidInput, errors.GetCode(err), "needs at least one predictor")
}

func TestAdvance_SynthesizesResult(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &mockGenerator{})
	id := readySession(t, svc)

	st, err := svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, dashboard.StepResults, st.Step)
	require.NotNil(t, st.Result)
	require.Len(t, st.Result.Coefficients, 3)
	assert.Equal(t, "age", st.Result.Coefficients[0].Variable)
	assert.Equal(t, "GDP", st.Result.DependentVariable)
	assert.False(t, st.InsightsOpen)

	_, err = svc.Advance(ctx, id)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))

	_, err = svc.AddIndependent(ctx, id, "region")
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err), "config is frozen on the results step")
}

func TestBack_DiscardsResultAndReadvanceRedraws(t *testing.T) {
	ctx := context.Background()
	svc := newService(t, &mockGenerator{})
	id := readySession(t, svc)

	first, _ := svc.Get(ctx, id)

	st, err := svc.Back(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, dashboard.StepSelection, st.Step)
	assert.Nil(t, st.Result)
	assert.Nil(t, st.Insights)
	assert.Equal(t, []string{"age", "income", "urban"}, st.Config.IndependentVariables, "selection survives")

	_, err = svc.Back(ctx, id)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))

	second, err := svc.Advance(ctx, id)
	require.NoError(t, err)
	assert.NotEqual(t, first.Result.Coefficients, second.Result.Coefficients, "results are not cached")
}

func TestGenerateInsights_Success(t *testing.T) {
	ctx := context.Background()
	gen := &mockGenerator{}
	svc := newService(t, gen)
	id := readySession(t, svc)
	before, _ := svc.Get(ctx, id)

	want := insight.Synthesize(before.Result.Summary())
	gen.On("Generate", mock.Anything, mock.MatchedBy(func(req insight.Request) bool {
		return req.DependentVariable == "GDP" && req.TotalVars == 3 && req.RSquared == 0.742
	})).Return(want, nil).Once()

	st, err := svc.GenerateInsights(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.InsightsOpen)
	assert.False(t, st.InsightsPending)
	assert.Equal(t, want.ModelHealth, st.Insights.ModelHealth)
	gen.AssertExpectations(t)

	st, err = svc.CloseInsights(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.InsightsOpen)
	assert.NotNil(t, st.Insights)
}

func TestGenerateInsights_FailureIsLoggedNotReturned(t *testing.T) {
	ctx := context.Background()
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, errors.InsightFailed(assert.AnError))
	svc := newService(t, gen)
	id := readySession(t, svc)

	st, err := svc.GenerateInsights(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, st.Insights)
	assert.False(t, st.InsightsOpen)
	assert.False(t, st.InsightsPending)
	assert.Contains(t, st.LastError, "insight generation failed")

	// a retry is allowed straight away
	_, err = svc.GenerateInsights(ctx, id)
	require.NoError(t, err)
	gen.AssertNumberOfCalls(t, "Generate", 2)
}

func TestGenerateInsights_NilRecordIsFailure(t *testing.T) {
	gen := &mockGenerator{}
	gen.On("Generate", mock.Anything, mock.Anything).Return(nil, nil)
	svc := newService(t, gen)
	id := readySession(t, svc)

	st, err := svc.GenerateInsights(context.Background(), id)
	require.NoError(t, err)
	assert.Nil(t, st.Insights)
	assert.NotEmpty(t, st.LastError)
}

func TestGenerateInsights_PanicClearsPending(t *testing.T) {
	svc := newService(t, panickingGenerator{})
	id := readySession(t, svc)

	st, err := svc.GenerateInsights(context.Background(), id)
	require.NoError(t, err)
	assert.False(t, st.InsightsPending)
	assert.Contains(t, st.LastError, "panicked")
}

func TestGenerateInsights_RequiresResultsStep(t *testing.T) {
	svc := newService(t, &mockGenerator{})
	st, _ := svc.NewSession(context.Background())

	_, err := svc.GenerateInsights(context.Background(), st.ID)
	assert.Equal(t, errors.CodeInvalidTransition, errors.GetCode(err))
}

func TestStartInsights_RejectsWhilePending(t *testing.T) {
	ctx := context.Background()
	gen := newBlockingGenerator()
	svc := newService(t, gen)
	id := readySession(t, svc)

	st, err := svc.StartInsights(ctx, id)
	require.NoError(t, err)
	assert.True(t, st.InsightsPending)
	<-gen.started

	_, err = svc.GenerateInsights(ctx, id)
	assert.Equal(t, errors.CodeInsightsPending, errors.GetCode(err))

	close(gen.release)
	svc.Wait()

	st, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.InsightsPending)
	assert.True(t, st.InsightsOpen)
	require.NotNil(t, st.Insights)
}

func TestStartInsights_StaleReplyIsDiscarded(t *testing.T) {
	ctx := context.Background()
	gen := newBlockingGenerator()
	svc := newService(t, gen)
	id := readySession(t, svc)

	_, err := svc.StartInsights(ctx, id)
	require.NoError(t, err)
	<-gen.started

	st, err := svc.Back(ctx, id)
	require.NoError(t, err)
	assert.False(t, st.InsightsPending)

	close(gen.release)
	svc.Wait()

	st, err = svc.Get(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, dashboard.StepSelection, st.Step)
	assert.Nil(t, st.Insights)
	assert.False(t, st.InsightsOpen)
}

func TestStartInsights_SurvivesCallerCancellation(t *testing.T) {
	gen := newBlockingGenerator()
	svc := newService(t, gen)
	id := readySession(t, svc)

	ctx, cancel := context.WithCancel(context.Background())
	_, err := svc.StartInsights(ctx, id)
	require.NoError(t, err)
	<-gen.started
	cancel()

	close(gen.release)
	svc.Wait()

	st, err := svc.Get(context.Background(), id)
	require.NoError(t, err)
	assert.NotNil(t, st.Insights)
}
