package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"html/template"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"alfredoptarigan/coach-client/internal/models"
	"alfredoptarigan/coach-client/internal/repositories"
)

const (
	WarningNoFileSelected = "Please select a CV file before submitting."
	WarningFileUnreadable = "The selected CV file could not be read."
	WarningFileTooLarge   = "The selected CV file is too large to upload."
)

type SubmitInput struct {
	FilePath       string
	JobDescription string
}

// ReviewModal is the result overlay of the last answered submission.
type ReviewModal struct {
	Visible      bool
	Status       models.AnalysisStatus
	Markdown     string
	HTML         string
	Links        []models.ReportLink
	ErrorMessage string
}

// ReviewState is a snapshot of everything the submitter shows.
type ReviewState struct {
	TriggerEnabled bool
	Busy           bool
	Warning        string
	InlineError    string
	Modal          ReviewModal
}

func initialReviewState() ReviewState {
	return ReviewState{TriggerEnabled: true}
}

func (s ReviewState) warned(msg string) ReviewState {
	s.Warning = msg
	return s
}

func (s ReviewState) submitting() ReviewState {
	s.TriggerEnabled = false
	s.Busy = true
	s.Warning = ""
	s.InlineError = ""
	return s
}

func (s ReviewState) answered(resp *models.AnalyzeResponse, html string) ReviewState {
	modal := ReviewModal{Visible: true, Status: resp.Status}
	if resp.Succeeded() {
		modal.Markdown = resp.Result
		modal.HTML = html
		modal.Links = models.ReportLinks()
	} else {
		modal.ErrorMessage = resp.Message
	}
	s.Modal = modal
	return s
}

func (s ReviewState) failed(msg string) ReviewState {
	s.InlineError = msg
	return s
}

func (s ReviewState) settled() ReviewState {
	s.Busy = false
	s.TriggerEnabled = true
	return s
}

func (s ReviewState) modalClosed() ReviewState {
	s.Modal.Visible = false
	return s
}

type ReviewerService interface {
	Submit(ctx context.Context, in SubmitInput) (ReviewState, error)
	CloseModal() ReviewState
	State() ReviewState
	Subscribe(fn func(ReviewState))
	ModalHTML(state ReviewState) (string, error)
	DownloadReports(ctx context.Context, storage StorageService) ([]string, error)
}

type reviewerService struct {
	api         AnalysisAPI
	documents   DocumentService
	markdown    MarkdownRenderer
	reviewRepo  repositories.ReviewRepository
	mu          sync.Mutex
	state       ReviewState
	subscribers []func(ReviewState)
}

// NewReviewerService wires the submitter. reviewRepo may be nil when the
// archive is disabled.
func NewReviewerService(
	api AnalysisAPI,
	documents DocumentService,
	markdown MarkdownRenderer,
	reviewRepo repositories.ReviewRepository,
) ReviewerService {
	return &reviewerService{
		api:        api,
		documents:  documents,
		markdown:   markdown,
		reviewRepo: reviewRepo,
		state:      initialReviewState(),
	}
}

func (r *reviewerService) Subscribe(fn func(ReviewState)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subscribers = append(r.subscribers, fn)
}

func (r *reviewerService) State() ReviewState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

func (r *reviewerService) CloseModal() ReviewState {
	return r.transition(ReviewState.modalClosed)
}

// transition applies fn and publishes the result. Subscribers run under
// the lock and must not call back into the service.
func (r *reviewerService) transition(fn func(ReviewState) ReviewState) ReviewState {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.state = fn(r.state)
	for _, sub := range r.subscribers {
		sub(r.state)
	}
	return r.state
}

func (r *reviewerService) Submit(ctx context.Context, in SubmitInput) (ReviewState, error) {
	r.mu.Lock()
	enabled := r.state.TriggerEnabled
	r.mu.Unlock()
	if !enabled {
		return r.State(), ErrSubmissionInFlight
	}

	if strings.TrimSpace(in.FilePath) == "" {
		return r.transition(func(s ReviewState) ReviewState {
			return s.warned(WarningNoFileSelected)
		}), ErrNoFileSelected
	}

	doc, err := r.documents.Load(in.FilePath)
	if err != nil {
		log.Printf("❌ Failed to load CV file %s: %v\n", in.FilePath, err)
		warning := WarningFileUnreadable
		if errors.Is(err, ErrFileTooLarge) {
			warning = WarningFileTooLarge
		}
		return r.transition(func(s ReviewState) ReviewState {
			return s.warned(warning)
		}), err
	}

	r.preflight(doc)

	// A concurrent Submit may have won the race since the check above.
	claimed := false
	r.transition(func(s ReviewState) ReviewState {
		if !s.TriggerEnabled {
			return s
		}
		claimed = true
		return s.submitting()
	})
	if !claimed {
		return r.State(), ErrSubmissionInFlight
	}
	defer r.transition(ReviewState.settled)

	resp, err := r.api.Analyze(ctx, models.UploadRequest{
		FileName:       doc.Name,
		Content:        doc.Content,
		JobDescription: in.JobDescription,
	})
	if err != nil {
		log.Printf("❌ Analyze request failed: %v\n", err)
		msg := userFacingAnalyzeError(err)
		r.archive(doc.Name, in.JobDescription, models.OutcomeFailed, nil, &msg)
		r.transition(func(s ReviewState) ReviewState { return s.failed(msg) })
		return r.settle(), err
	}

	var html string
	if resp.Succeeded() {
		html, err = r.markdown.Render(resp.Result)
		if err != nil {
			log.Printf("❌ Failed to render analysis report: %v\n", err)
			msg := fallbackAnalyzeMessage
			r.archive(doc.Name, in.JobDescription, models.OutcomeFailed, nil, &msg)
			r.transition(func(s ReviewState) ReviewState { return s.failed(fallbackAnalyzeMessage) })
			return r.settle(), err
		}
		r.archive(doc.Name, in.JobDescription, models.OutcomeSuccess, &resp.Result, nil)
	} else {
		r.archive(doc.Name, in.JobDescription, models.OutcomeRejected, nil, &resp.Message)
	}

	r.transition(func(s ReviewState) ReviewState { return s.answered(resp, html) })
	return r.settle(), nil
}

// settle is the state Submit reports: the deferred re-enable has not run
// yet when the return value is computed, so it is applied to the copy.
func (r *reviewerService) settle() ReviewState {
	return r.State().settled()
}

func (r *reviewerService) preflight(doc *CVDocument) {
	if strings.ToLower(filepath.Ext(doc.Name)) != ".pdf" {
		return
	}

	summary, err := r.documents.InspectPDF(doc.Path)
	if err != nil {
		log.Printf("⚠️  PDF preflight failed for %s: %v\n", doc.Name, err)
		return
	}
	if !summary.HasText {
		log.Printf("⚠️  %s has %d page(s) but no extractable text\n", doc.Name, summary.PageCount)
		return
	}
	log.Printf("📄 %s: %d page(s)\n", doc.Name, summary.PageCount)
}

func (r *reviewerService) archive(fileName, jobDescription string, outcome models.ReviewOutcome, report, errMsg *string) {
	if r.reviewRepo == nil {
		return
	}

	record := &models.ReviewRecord{
		FileName:       fileName,
		JobDescription: jobDescription,
		Outcome:        outcome,
		Report:         report,
		ErrorMessage:   errMsg,
	}
	if err := r.reviewRepo.Create(record); err != nil {
		log.Printf("⚠️  Failed to archive review of %s: %v\n", fileName, err)
	}
}

// userFacingAnalyzeError keeps transport and decoding details out of
// the UI.
func userFacingAnalyzeError(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return fallbackAnalyzeMessage
}

type reportAnchor struct {
	Href     string
	FileName string
	Label    string
}

var modalTemplate = template.Must(template.New("modal").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>CV Review</title></head>
<body>
<div id="result-modal">
{{if .Success}}<h3>Analysis Complete</h3>
<div class="markdown-content">{{.Body}}</div>
<p>Download your reports:</p>
<ul>
{{range .Links}}<li><a href="{{.Href}}" download="{{.FileName}}">{{.Label}}</a></li>
{{end}}</ul>
{{else}}<p style="color: red;">Error: {{.Error}}</p>
{{end}}<button class="close-btn" onclick="document.getElementById('result-modal').style.display='none'">Close</button>
</div>
</body>
</html>
`))

// ModalHTML renders the modal of state as an HTML document.
func (r *reviewerService) ModalHTML(state ReviewState) (string, error) {
	if !state.Modal.Visible {
		return "", fmt.Errorf("no result to display")
	}

	data := struct {
		Success bool
		Body    template.HTML
		Links   []reportAnchor
		Error   string
	}{
		Success: state.Modal.Status == models.AnalysisSuccess,
		Body:    template.HTML(state.Modal.HTML),
		Error:   state.Modal.ErrorMessage,
	}
	for _, link := range state.Modal.Links {
		data.Links = append(data.Links, reportAnchor{
			Href:     r.api.ReportURL(link),
			FileName: link.FileName,
			Label:    link.Label,
		})
	}

	var buf bytes.Buffer
	if err := modalTemplate.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render result modal: %w", err)
	}
	return buf.String(), nil
}

// DownloadReports fetches every report link of a successful result and
// saves each under its download name.
func (r *reviewerService) DownloadReports(ctx context.Context, storage StorageService) ([]string, error) {
	links := r.State().Modal.Links
	if len(links) == 0 {
		return nil, fmt.Errorf("no successful analysis to download reports for")
	}

	paths := make([]string, len(links))
	g, gctx := errgroup.WithContext(ctx)
	for i, link := range links {
		g.Go(func() error {
			body, err := r.api.DownloadReport(gctx, link)
			if err != nil {
				return err
			}
			path, err := storage.SaveFile(link.FileName, body)
			if err != nil {
				return err
			}
			paths[i] = path
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		removeSaved(storage, links, paths)
		return nil, fmt.Errorf("failed to download reports: %w", err)
	}
	return paths, nil
}

// removeSaved deletes the reports a failed download already wrote.
func removeSaved(storage StorageService, links []models.ReportLink, paths []string) {
	for i, path := range paths {
		if path == "" {
			continue
		}
		if err := storage.DeleteFile(links[i].FileName); err != nil {
			log.Printf("⚠️  Failed to remove partial report %s: %v\n", path, err)
		}
	}
}
