package services

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/coach-client/internal/models"
)

type stubAnalysisAPI struct {
	mu      sync.Mutex
	resp    *models.AnalyzeResponse
	err     error
	reports map[models.ReportKind]string
	calls   int
	lastReq models.UploadRequest
	blockOn chan struct{}
	entered chan struct{}
}

func (s *stubAnalysisAPI) Analyze(_ context.Context, req models.UploadRequest) (*models.AnalyzeResponse, error) {
	s.mu.Lock()
	s.calls++
	s.lastReq = req
	s.mu.Unlock()

	if s.entered != nil {
		close(s.entered)
	}
	if s.blockOn != nil {
		<-s.blockOn
	}
	return s.resp, s.err
}

func (s *stubAnalysisAPI) DownloadReport(_ context.Context, link models.ReportLink) ([]byte, error) {
	report, ok := s.reports[link.Kind]
	if !ok {
		return nil, &APIError{Op: "download", StatusCode: 404, Message: "not found"}
	}
	return []byte(report), nil
}

func (s *stubAnalysisAPI) ReportURL(link models.ReportLink) string {
	return "http://coach.test" + link.Path
}

func (s *stubAnalysisAPI) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubReviewRepo struct {
	records []models.ReviewRecord
	err     error
}

func (s *stubReviewRepo) Create(record *models.ReviewRecord) error {
	if s.err != nil {
		return s.err
	}
	s.records = append(s.records, *record)
	return nil
}

func (s *stubReviewRepo) FindByID(id uuid.UUID) (*models.ReviewRecord, error) {
	return nil, errors.New("not implemented")
}

func (s *stubReviewRepo) List(limit int) ([]models.ReviewRecord, error) {
	return s.records, nil
}

func writeCV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

type recordedStates struct {
	mu     sync.Mutex
	states []ReviewState
}

func (r *recordedStates) add(s ReviewState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.states = append(r.states, s)
}

func newTestReviewer(api AnalysisAPI, repo *stubReviewRepo) (ReviewerService, *recordedStates) {
	var r ReviewerService
	if repo == nil {
		r = NewReviewerService(api, NewDocumentService(1024), NewMarkdownRenderer(), nil)
	} else {
		r = NewReviewerService(api, NewDocumentService(1024), NewMarkdownRenderer(), repo)
	}
	rec := &recordedStates{}
	r.Subscribe(rec.add)
	return r, rec
}

func TestSubmit_NoFileWarnsWithoutRequest(t *testing.T) {
	api := &stubAnalysisAPI{}
	reviewer, rec := newTestReviewer(api, nil)

	state, err := reviewer.Submit(context.Background(), SubmitInput{JobDescription: "anything"})

	require.ErrorIs(t, err, ErrNoFileSelected)
	require.Equal(t, WarningNoFileSelected, state.Warning)
	require.Zero(t, api.callCount())
	for _, s := range rec.states {
		require.False(t, s.Busy)
		require.True(t, s.TriggerEnabled)
	}
}

func TestSubmit_UnreadableOrOversizedFileWarns(t *testing.T) {
	api := &stubAnalysisAPI{}
	reviewer, _ := newTestReviewer(api, nil)

	state, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: filepath.Join(t.TempDir(), "missing.pdf")})
	require.ErrorIs(t, err, ErrFileUnreadable)
	require.Equal(t, WarningFileUnreadable, state.Warning)

	big := writeCV(t, "big.docx", strings.Repeat("x", 2048))
	state, err = reviewer.Submit(context.Background(), SubmitInput{FilePath: big})
	require.ErrorIs(t, err, ErrFileTooLarge)
	require.Equal(t, WarningFileTooLarge, state.Warning)

	require.Zero(t, api.callCount())
}

func TestSubmit_SuccessRendersModalWithFiveLinks(t *testing.T) {
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "# Strong CV\n\n- clear layout"}}
	repo := &stubReviewRepo{}
	reviewer, rec := newTestReviewer(api, repo)
	cv := writeCV(t, "cv.docx", "my cv")

	state, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: cv, JobDescription: "Backend role"})
	require.NoError(t, err)

	require.True(t, state.TriggerEnabled)
	require.False(t, state.Busy)
	require.True(t, state.Modal.Visible)
	require.Contains(t, state.Modal.HTML, "<h1>Strong CV</h1>")
	require.Contains(t, state.Modal.HTML, "<li>clear layout</li>")
	require.Len(t, state.Modal.Links, 5)

	require.Equal(t, "cv.docx", api.lastReq.FileName)
	require.Equal(t, []byte("my cv"), api.lastReq.Content)
	require.Equal(t, "Backend role", api.lastReq.JobDescription)

	html, err := reviewer.ModalHTML(state)
	require.NoError(t, err)
	require.Contains(t, html, "Analysis Complete")
	require.Equal(t, 5, strings.Count(html, "<a href="))
	for _, link := range models.ReportLinks() {
		require.Contains(t, html, `href="http://coach.test`+link.Path+`" download="`+link.FileName+`"`)
	}

	// busy was shown and the trigger disabled while in flight
	sawBusy := false
	for _, s := range rec.states {
		if s.Busy {
			sawBusy = true
			require.False(t, s.TriggerEnabled)
		}
	}
	require.True(t, sawBusy)
	last := rec.states[len(rec.states)-1]
	require.True(t, last.TriggerEnabled)
	require.False(t, last.Busy)

	require.Len(t, repo.records, 1)
	require.Equal(t, models.OutcomeSuccess, repo.records[0].Outcome)
}

func TestSubmit_ErrorStatusShowsMessageInModal(t *testing.T) {
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisError, Message: "Unsupported file type"}}
	reviewer, _ := newTestReviewer(api, nil)

	state, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.txt", "x")})
	require.NoError(t, err)

	require.True(t, state.Modal.Visible)
	require.Equal(t, "Unsupported file type", state.Modal.ErrorMessage)
	require.Empty(t, state.Modal.Links)

	html, err := reviewer.ModalHTML(state)
	require.NoError(t, err)
	require.Contains(t, html, "Error: Unsupported file type")
	require.NotContains(t, html, "<a href=")
}

func TestSubmit_FailuresFunnelIntoInlineError(t *testing.T) {
	cases := map[string]struct {
		err  error
		want string
	}{
		"api error with message": {err: &APIError{Op: "analyze", StatusCode: 500, Message: "model offline"}, want: "model offline"},
		"api error fallback":     {err: &APIError{Op: "analyze", StatusCode: 502, Message: fallbackAnalyzeMessage}, want: fallbackAnalyzeMessage},
		"transport":              {err: &TransportError{Op: "analyze", Err: errors.New("connection refused")}, want: fallbackAnalyzeMessage},
		"malformed":              {err: ErrMalformedPayload, want: fallbackAnalyzeMessage},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			api := &stubAnalysisAPI{err: tc.err}
			repo := &stubReviewRepo{}
			reviewer, _ := newTestReviewer(api, repo)

			state, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.pdf", "x")})

			require.Error(t, err)
			require.Equal(t, tc.want, state.InlineError)
			require.True(t, state.TriggerEnabled)
			require.False(t, state.Busy)
			require.Equal(t, 1, api.callCount())
			require.Len(t, repo.records, 1)
			require.Equal(t, models.OutcomeFailed, repo.records[0].Outcome)
		})
	}
}

func TestSubmit_SecondSubmitWhileInFlightIsRejected(t *testing.T) {
	api := &stubAnalysisAPI{
		resp:    &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "ok"},
		blockOn: make(chan struct{}),
		entered: make(chan struct{}),
	}
	reviewer, _ := newTestReviewer(api, nil)
	cv := writeCV(t, "cv.docx", "x")

	done := make(chan error, 1)
	go func() {
		_, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: cv})
		done <- err
	}()

	<-api.entered
	require.False(t, reviewer.State().TriggerEnabled)

	_, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: cv})
	require.ErrorIs(t, err, ErrSubmissionInFlight)

	close(api.blockOn)
	require.NoError(t, <-done)
	require.Equal(t, 1, api.callCount())
	require.True(t, reviewer.State().TriggerEnabled)
}

func TestCloseModal(t *testing.T) {
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "ok"}}
	reviewer, _ := newTestReviewer(api, nil)

	_, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.docx", "x")})
	require.NoError(t, err)

	state := reviewer.CloseModal()
	require.False(t, state.Modal.Visible)

	_, err = reviewer.ModalHTML(state)
	require.Error(t, err)
}

func TestDownloadReports(t *testing.T) {
	reports := map[models.ReportKind]string{}
	for _, link := range models.ReportLinks() {
		reports[link.Kind] = "content of " + string(link.Kind)
	}
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "ok"}, reports: reports}
	reviewer, _ := newTestReviewer(api, nil)
	storage := NewStorageService(t.TempDir())

	_, err := reviewer.DownloadReports(context.Background(), storage)
	require.Error(t, err)

	_, err = reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.docx", "x")})
	require.NoError(t, err)

	paths, err := reviewer.DownloadReports(context.Background(), storage)
	require.NoError(t, err)
	require.Len(t, paths, 5)
	require.Equal(t, "full_report.md", filepath.Base(paths[4]))

	data, err := os.ReadFile(paths[4])
	require.NoError(t, err)
	require.Equal(t, "content of report", string(data))
}

type failingRenderer struct{}

func (failingRenderer) Render(string) (string, error) {
	return "", errors.New("renderer exploded")
}

func TestSubmit_RenderFailureIsArchived(t *testing.T) {
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "# ok"}}
	repo := &stubReviewRepo{}
	reviewer := NewReviewerService(api, NewDocumentService(1024), failingRenderer{}, repo)

	state, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.pdf", "x")})
	require.Error(t, err)
	require.Equal(t, fallbackAnalyzeMessage, state.InlineError)
	require.True(t, state.TriggerEnabled)

	require.Len(t, repo.records, 1)
	require.Equal(t, models.OutcomeFailed, repo.records[0].Outcome)
	require.Equal(t, fallbackAnalyzeMessage, *repo.records[0].ErrorMessage)
	require.Nil(t, repo.records[0].Report)
}

func TestDownloadReports_PartialFailureRemovesSavedReports(t *testing.T) {
	reports := map[models.ReportKind]string{}
	for _, link := range models.ReportLinks()[:4] {
		reports[link.Kind] = "content of " + string(link.Kind)
	}
	api := &stubAnalysisAPI{resp: &models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "ok"}, reports: reports}
	reviewer, _ := newTestReviewer(api, nil)

	_, err := reviewer.Submit(context.Background(), SubmitInput{FilePath: writeCV(t, "cv.docx", "x")})
	require.NoError(t, err)

	dir := t.TempDir()
	paths, err := reviewer.DownloadReports(context.Background(), NewStorageService(dir))
	require.Error(t, err)
	require.Nil(t, paths)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
