package handlers

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"alfredoptarigan/coach-client/internal/backendtest"
	"alfredoptarigan/coach-client/internal/models"
	"alfredoptarigan/coach-client/internal/services"
)

func newClient(t *testing.T, url string) services.APIClient {
	t.Helper()
	client, err := services.NewAPIClient(url, 0)
	require.NoError(t, err)
	return client
}

func runCommand(t *testing.T, review *ReviewHandler, pitch *PitchHandler, args ...string) error {
	t.Helper()
	root := NewRootCommand(review, pitch)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func newReviewFixture(t *testing.T, coach *backendtest.Coach) (*ReviewHandler, *bytes.Buffer, string) {
	t.Helper()
	srv := backendtest.Start(t, coach)
	client := newClient(t, srv.URL)
	reviewer := services.NewReviewerService(client, services.NewDocumentService(0), services.NewMarkdownRenderer(), nil)

	outDir := t.TempDir()
	out := &bytes.Buffer{}
	return NewReviewHandler(reviewer, nil, services.NewStorageService(outDir), out), out, outDir
}

func idlePitch(t *testing.T) *PitchHandler {
	coach := services.NewCoachService(nil, nil, services.NewStorageService(t.TempDir()), "web_user")
	return NewPitchHandler(coach, strings.NewReader(""), &bytes.Buffer{})
}

func TestReviewCommand_DownloadsReports(t *testing.T) {
	reports := map[models.ReportKind]string{}
	for _, link := range models.ReportLinks() {
		reports[link.Kind] = "# " + link.Label
	}
	coach := &backendtest.Coach{
		Analyze: models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "# Great fit\n\nSolid Go experience."},
		Reports: reports,
	}
	review, out, outDir := newReviewFixture(t, coach)

	cv := filepath.Join(t.TempDir(), "cv.docx")
	require.NoError(t, os.WriteFile(cv, []byte("cv"), 0644))
	jd := filepath.Join(t.TempDir(), "job.txt")
	require.NoError(t, os.WriteFile(jd, []byte("Go engineer"), 0644))

	err := runCommand(t, review, idlePitch(t), "review", "--file", cv, "--jd-file", jd, "--download")
	require.NoError(t, err)

	require.Contains(t, out.String(), "Analysis Complete")
	require.Contains(t, out.String(), "full_report.md")
	require.Equal(t, "Go engineer", coach.Uploads()[0].JobDescription)

	for _, link := range models.ReportLinks() {
		data, err := os.ReadFile(filepath.Join(outDir, link.FileName))
		require.NoError(t, err)
		require.Equal(t, "# "+link.Label, string(data))
	}

	page, err := os.ReadFile(filepath.Join(outDir, reviewPageFileName))
	require.NoError(t, err)
	require.Contains(t, string(page), "<h1>Great fit</h1>")
}

func TestReviewCommand_WarnsWithoutFile(t *testing.T) {
	coach := &backendtest.Coach{}
	review, out, _ := newReviewFixture(t, coach)

	err := runCommand(t, review, idlePitch(t), "review", "--jd", "anything")

	require.ErrorIs(t, err, services.ErrNoFileSelected)
	require.Contains(t, out.String(), services.WarningNoFileSelected)
	require.Zero(t, coach.TotalHits())
}

func TestReviewCommand_ShowsServerMessage(t *testing.T) {
	coach := &backendtest.Coach{
		AnalyzeStatus: 500,
		Analyze:       models.AnalyzeResponse{Status: models.AnalysisError, Message: "model offline"},
	}
	review, out, _ := newReviewFixture(t, coach)

	cv := filepath.Join(t.TempDir(), "cv.pdf")
	require.NoError(t, os.WriteFile(cv, []byte("%PDF"), 0644))

	err := runCommand(t, review, idlePitch(t), "review", "-f", cv)

	require.Error(t, err)
	require.Contains(t, out.String(), "Analysis failed")
	require.Contains(t, out.String(), "model offline")
}

func TestReviewHistory_ArchiveDisabled(t *testing.T) {
	review, out, _ := newReviewFixture(t, &backendtest.Coach{})

	err := runCommand(t, review, idlePitch(t), "review", "history")

	require.Error(t, err)
	require.Contains(t, out.String(), "ARCHIVE_ENABLED")
}

func TestPitchPlain_FullConversation(t *testing.T) {
	pitch := "We sell X to Y."
	backend := &backendtest.Coach{
		SessionID: "abc",
		Welcome:   "Hi",
		Replies: []models.MessageResponse{
			{Response: "Tell me more"},
			{Response: "Here is your pitch", IsPitchComplete: true, CompletePitch: &pitch},
		},
		ActionResults: map[models.ActionKind]string{models.ActionQA: "Q1..."},
		History:       []models.HistoryEntry{{Speaker: "coach", Message: "Hi"}},
	}
	srv := backendtest.Start(t, backend)

	worker := services.NewWorker(1)
	worker.Start(context.Background())
	defer worker.Stop()

	exportDir := t.TempDir()
	coach := services.NewCoachService(newClient(t, srv.URL), worker, services.NewStorageService(exportDir), "web_user")

	in := strings.NewReader("/export\nMy idea is X\n   \nThat's it\n/qa\n/export\n/history\n/exit\nnever sent\n")
	out := &bytes.Buffer{}
	review, _, _ := newReviewFixture(t, &backendtest.Coach{})

	err := runCommand(t, review, NewPitchHandler(coach, in, out), "pitch", "--plain")
	require.NoError(t, err)

	text := out.String()
	require.Contains(t, text, "Hi")
	require.Contains(t, text, "No complete pitch to export yet.")
	require.Contains(t, text, "Tell me more")
	require.Contains(t, text, "We sell X to Y.")
	require.Contains(t, text, "Investor Q&A Simulation")
	require.Contains(t, text, "Q1...")
	require.Contains(t, text, "Pitch exported to")

	data, err := os.ReadFile(filepath.Join(exportDir, services.ExportFileName))
	require.NoError(t, err)
	require.Equal(t, pitch, string(data))

	messages := backend.Messages()
	require.Len(t, messages, 2)
	require.Equal(t, "My idea is X", messages[0].Message)
	require.Equal(t, "That's it", messages[1].Message)
	require.Equal(t, 1, backend.Hits("/session_history/abc"))
}

func TestPitchPlain_BackendDown(t *testing.T) {
	client := newClient(t, backendtest.DeadURL(t))
	coach := services.NewCoachService(client, nil, services.NewStorageService(t.TempDir()), "web_user")

	out := &bytes.Buffer{}
	review, _, _ := newReviewFixture(t, &backendtest.Coach{})
	err := runCommand(t, review, NewPitchHandler(coach, strings.NewReader("hello\n"), out), "pitch", "--plain")
	require.NoError(t, err)

	require.Contains(t, out.String(), services.ApologyConnect)
	require.Contains(t, out.String(), "No active session")
}

type memoryReviewRepo struct {
	records []models.ReviewRecord
}

func (m *memoryReviewRepo) Create(record *models.ReviewRecord) error {
	if record.ID == uuid.Nil {
		record.ID = uuid.New()
	}
	record.CreatedAt = time.Now()
	m.records = append([]models.ReviewRecord{*record}, m.records...)
	return nil
}

func (m *memoryReviewRepo) FindByID(id uuid.UUID) (*models.ReviewRecord, error) {
	for _, rec := range m.records {
		if rec.ID == id {
			return &rec, nil
		}
	}
	return nil, errors.New("review record not found")
}

func (m *memoryReviewRepo) List(limit int) ([]models.ReviewRecord, error) {
	if limit < len(m.records) {
		return m.records[:limit], nil
	}
	return m.records, nil
}

func TestReviewHistoryAndShow(t *testing.T) {
	backend := &backendtest.Coach{
		Analyze: models.AnalyzeResponse{Status: models.AnalysisSuccess, Result: "Archived report body"},
	}
	srv := backendtest.Start(t, backend)

	repo := &memoryReviewRepo{}
	reviewer := services.NewReviewerService(newClient(t, srv.URL), services.NewDocumentService(0), services.NewMarkdownRenderer(), repo)
	out := &bytes.Buffer{}
	review := NewReviewHandler(reviewer, repo, services.NewStorageService(t.TempDir()), out)

	cv := filepath.Join(t.TempDir(), "cv.doc")
	require.NoError(t, os.WriteFile(cv, []byte("cv"), 0644))
	require.NoError(t, runCommand(t, review, idlePitch(t), "review", "--file", cv))
	require.Len(t, repo.records, 1)

	out.Reset()
	require.NoError(t, runCommand(t, NewReviewHandler(reviewer, repo, nil, out), idlePitch(t), "review", "history", "--limit", "5"))
	require.Contains(t, out.String(), repo.records[0].ID.String())
	require.Contains(t, out.String(), "cv.doc")

	out.Reset()
	id := repo.records[0].ID.String()
	require.NoError(t, runCommand(t, NewReviewHandler(reviewer, repo, nil, out), idlePitch(t), "review", "show", id))
	require.Contains(t, out.String(), "Archived report body")

	require.Error(t, runCommand(t, NewReviewHandler(reviewer, repo, nil, out), idlePitch(t), "review", "show", "not-a-uuid"))
}

func TestPitchPlain_LongPastedLine(t *testing.T) {
	backend := &backendtest.Coach{
		SessionID: "abc",
		Welcome:   "Hi",
		Replies:   []models.MessageResponse{{Response: "That is a lot"}},
	}
	srv := backendtest.Start(t, backend)
	coach := services.NewCoachService(newClient(t, srv.URL), nil, services.NewStorageService(t.TempDir()), "web_user")

	long := strings.Repeat("pitch ", 20000)
	in := strings.NewReader(long + "\n/exit\n")
	out := &bytes.Buffer{}
	review, _, _ := newReviewFixture(t, &backendtest.Coach{})

	err := runCommand(t, review, NewPitchHandler(coach, in, out), "pitch", "--plain")
	require.NoError(t, err)

	require.Contains(t, out.String(), "That is a lot")
	messages := backend.Messages()
	require.Len(t, messages, 1)
	require.Equal(t, strings.TrimSpace(long), messages[0].Message)
}
