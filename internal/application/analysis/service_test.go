package analysis_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	appanalysis "github.com/bryanwahyu/image-identifier/internal/application/analysis"
	domai "github.com/bryanwahyu/image-identifier/internal/domain/ai"
	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
	"github.com/bryanwahyu/image-identifier/internal/domain/audit"
	"github.com/bryanwahyu/image-identifier/internal/infra/ai/prompt"
)

// MockInvoker stands in for the vision model
type MockInvoker struct {
	mock.Mock
}

func (m *MockInvoker) Invoke(ctx context.Context, req analysis.ModelRequest) (analysis.RawOutput, error) {
	args := m.Called(ctx, req)
	return args.Get(0).(analysis.RawOutput), args.Error(1)
}

func (m *MockInvoker) Model() string { return "mock-vision" }

type MockAuditRepository struct {
	mock.Mock
}

func (m *MockAuditRepository) Save(ctx context.Context, e *audit.Event) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockAuditRepository) Paginate(ctx context.Context, page, pageSize int) (audit.PaginatedResult, error) {
	args := m.Called(ctx, page, pageSize)
	return args.Get(0).(audit.PaginatedResult), args.Error(1)
}

type recordingObserver struct {
	outcomes []string
}

func (o *recordingObserver) ObserveAnalysis(outcome string, _ time.Duration) {
	o.outcomes = append(o.outcomes, outcome)
}

func TestAnalyze_ReturnsModelResultUnchanged(t *testing.T) {
	inv := new(MockInvoker)
	want := prompt.Build(analysis.ImagePayload{MIMEType: "image/png", Data: []byte{0, 0, 0}})
	inv.On("Invoke", mock.Anything, want).
		Return(analysis.RawOutput(`{"objects":["dog"],"people":[],"scenes":["park"]}`), nil).Once()

	svc := appanalysis.NewService(inv, prompt.Build)
	res, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	require.NoError(t, err)
	assert.Equal(t, analysis.Result{Objects: []string{"dog"}, People: []string{}, Scenes: []string{"park"}}, res)
	inv.AssertExpectations(t)
}

func TestAnalyze_InvalidInputNeverCallsModel(t *testing.T) {
	inv := new(MockInvoker)
	obs := &recordingObserver{}
	svc := appanalysis.NewService(inv, prompt.Build, appanalysis.WithObserver(obs))

	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:text/plain;base64,AAAA"})

	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
	inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
	assert.Equal(t, []string{"invalid_input"}, obs.outcomes)
}

func TestAnalyze_InvocationFailure(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(""), errors.New("connection refused")).Once()

	svc := appanalysis.NewService(inv, prompt.Build)
	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	require.Error(t, err)
	assert.ErrorIs(t, err, analysis.ErrInvocation)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAnalyze_QuotaIsInvocationFailure(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(""), domai.ErrQuotaExceeded).Once()

	svc := appanalysis.NewService(inv, prompt.Build)
	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	assert.ErrorIs(t, err, analysis.ErrInvocation)
	assert.ErrorIs(t, err, domai.ErrQuotaExceeded)
}

func TestAnalyze_InvalidOutput(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(`{"objects":"dog","people":[],"scenes":[]}`), nil).Once()

	svc := appanalysis.NewService(inv, prompt.Build)
	res, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	assert.ErrorIs(t, err, analysis.ErrInvalidOutput)
	assert.Equal(t, analysis.Result{}, res)
}

func TestAnalyze_NormalizesMissingCategories(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(`{"objects":["cat"]}`), nil).Once()

	svc := appanalysis.NewService(inv, prompt.Build)
	res, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/jpeg;base64,AAAA"})

	require.NoError(t, err)
	assert.Equal(t, analysis.Result{Objects: []string{"cat"}, People: []string{}, Scenes: []string{}}, res)
}

func TestAnalyze_TimeoutBoundsInvocation(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) {
			<-args.Get(0).(context.Context).Done()
		}).
		Return(analysis.RawOutput(""), context.DeadlineExceeded).Once()

	svc := appanalysis.NewService(inv, prompt.Build, appanalysis.WithTimeout(20*time.Millisecond))
	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	assert.ErrorIs(t, err, analysis.ErrInvocation)
	assert.Contains(t, err.Error(), "timed out")
}

func TestAnalyze_RecordsAuditEventWithoutImageOrLabels(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(`{"objects":["dog","ball"],"people":[],"scenes":["park"]}`), nil).Once()
	repo := new(MockAuditRepository)
	repo.On("Save", mock.Anything, mock.MatchedBy(func(e *audit.Event) bool {
		return e.Outcome == audit.OutcomeSuccess &&
			e.MIMEType == "image/png" &&
			e.ImageBytes == 3 &&
			e.Counts == analysis.LabelCounts{Objects: 2, People: 0, Scenes: 1} &&
			e.Model == "mock-vision" &&
			e.ID != ""
	})).Return(nil).Once()

	svc := appanalysis.NewService(inv, prompt.Build, appanalysis.WithAudit(repo))
	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestAnalyze_AuditFailureDoesNotFailPipeline(t *testing.T) {
	inv := new(MockInvoker)
	inv.On("Invoke", mock.Anything, mock.Anything).
		Return(analysis.RawOutput(`{"objects":[],"people":[],"scenes":[]}`), nil).Once()
	repo := new(MockAuditRepository)
	repo.On("Save", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

	svc := appanalysis.NewService(inv, prompt.Build, appanalysis.WithAudit(repo))
	_, err := svc.Analyze(context.Background(), analysis.Input{PhotoDataURI: "data:image/png;base64,AAAA"})

	assert.NoError(t, err)
}

func TestAnalyzeJSON_RejectsNonStringField(t *testing.T) {
	inv := new(MockInvoker)
	svc := appanalysis.NewService(inv, prompt.Build)

	_, err := svc.AnalyzeJSON(context.Background(), []byte(`{"photoDataUri": 12}`))

	assert.ErrorIs(t, err, analysis.ErrInvalidInput)
	inv.AssertNotCalled(t, "Invoke", mock.Anything, mock.Anything)
}

func TestListEvents_DisabledAuditReturnsEmptyPage(t *testing.T) {
	svc := appanalysis.NewService(new(MockInvoker), prompt.Build)
	page, err := svc.ListEvents(context.Background(), 1, 20)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Equal(t, int64(0), page.Total)
}
