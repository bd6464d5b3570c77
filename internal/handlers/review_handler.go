package handlers

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"alfredoptarigan/coach-client/internal/models"
	"alfredoptarigan/coach-client/internal/repositories"
	"alfredoptarigan/coach-client/internal/services"
	"alfredoptarigan/coach-client/internal/ui"
)

const reviewPageFileName = "review.html"

type ReviewHandler struct {
	reviewer       services.ReviewerService
	reviewRepo     repositories.ReviewRepository
	storageService services.StorageService
	out            io.Writer

	filePath       string
	jobDescription string
	jobFile        string
	download       bool
	limit          int
}

// NewReviewHandler wires the review commands. reviewRepo may be nil when
// the archive is disabled; storageService receives downloaded reports.
func NewReviewHandler(
	reviewer services.ReviewerService,
	reviewRepo repositories.ReviewRepository,
	storageService services.StorageService,
	out io.Writer,
) *ReviewHandler {
	return &ReviewHandler{
		reviewer:       reviewer,
		reviewRepo:     reviewRepo,
		storageService: storageService,
		out:            out,
	}
}

func (h *ReviewHandler) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "review",
		Short: "analyze a CV against a job description",
		Long: `Upload a CV (PDF, DOC or DOCX) together with a job description and show
the analysis. With --download the five reports (structure, relevance,
language, power and the full report) are saved to REVIEW_OUTPUT_DIR along
with review.html.`,
		Example: `  $ coach review --file cv.pdf --jd "Backend engineer, Go, Postgres"
  $ coach review -f cv.docx --jd-file job.txt --download`,
		SilenceUsage: true,
		RunE:         h.runReview,
	}

	cmd.Flags().StringVarP(&h.filePath, "file", "f", "", "CV file to analyze")
	cmd.Flags().StringVar(&h.jobDescription, "jd", "", "job description text")
	cmd.Flags().StringVar(&h.jobFile, "jd-file", "", "read the job description from a file")
	cmd.Flags().BoolVar(&h.download, "download", false, "save the reports and an HTML summary")
	cmd.MarkFlagsMutuallyExclusive("jd", "jd-file")

	cmd.AddCommand(h.historyCommand(), h.showCommand())
	return cmd
}

func (h *ReviewHandler) historyCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "history",
		Short:        "list archived reviews",
		SilenceUsage: true,
		RunE:         h.runHistory,
	}
	cmd.Flags().IntVarP(&h.limit, "limit", "n", 10, "maximum number of reviews to show")
	return cmd
}

func (h *ReviewHandler) showCommand() *cobra.Command {
	return &cobra.Command{
		Use:          "show ID",
		Short:        "print an archived review",
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         h.runShow,
	}
}

func (h *ReviewHandler) runReview(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError(h.out, "unexpected argument: %s", args[0])
		fmt.Fprintf(h.out, "\nRun '%s --help' for usage.\n", cmd.CommandPath())
		return fmt.Errorf("invalid arguments")
	}

	jobDescription := h.jobDescription
	if h.jobFile != "" {
		data, err := os.ReadFile(h.jobFile)
		if err != nil {
			ui.PrintError(h.out, "failed to read job description: %v", err)
			return fmt.Errorf("failed to read job description: %w", err)
		}
		jobDescription = string(data)
	}

	ui.PrintInfo(h.out, "Analyzing CV...")
	state, err := h.reviewer.Submit(cmd.Context(), services.SubmitInput{
		FilePath:       h.filePath,
		JobDescription: jobDescription,
	})

	if err != nil {
		switch {
		case state.Warning != "":
			ui.PrintWarning(h.out, "%s", state.Warning)
		case state.InlineError != "":
			ui.PrintErrorBox(h.out, "Analysis failed", state.InlineError)
		default:
			ui.PrintError(h.out, "%v", err)
		}
		return err
	}

	if state.Modal.Status != models.AnalysisSuccess {
		ui.PrintErrorBox(h.out, "Analysis Error", "Error: "+state.Modal.ErrorMessage)
		return fmt.Errorf("analysis rejected: %s", state.Modal.ErrorMessage)
	}

	ui.PrintSuccessBox(h.out, "Analysis Complete", state.Modal.Markdown)
	ui.PrintBold(h.out, "Download your reports:")
	for _, link := range state.Modal.Links {
		fmt.Fprintf(h.out, "  • %s (%s)\n", link.Label, link.FileName)
	}

	if !h.download {
		return nil
	}
	return h.saveReports(cmd, state)
}

func (h *ReviewHandler) saveReports(cmd *cobra.Command, state services.ReviewState) error {
	paths, err := h.reviewer.DownloadReports(cmd.Context(), h.storageService)
	if err != nil {
		ui.PrintError(h.out, "%v", err)
		return err
	}
	for _, path := range paths {
		ui.PrintSuccess(h.out, "Saved %s", path)
	}

	page, err := h.reviewer.ModalHTML(state)
	if err != nil {
		ui.PrintError(h.out, "%v", err)
		return err
	}
	path, err := h.storageService.SaveFile(reviewPageFileName, []byte(page))
	if err != nil {
		ui.PrintError(h.out, "%v", err)
		return err
	}
	ui.PrintSuccess(h.out, "Saved %s", path)
	log.Printf("💾 Review saved to %s\n", path)
	return nil
}

func (h *ReviewHandler) runHistory(cmd *cobra.Command, args []string) error {
	if h.reviewRepo == nil {
		ui.PrintWarning(h.out, "review archive is disabled, set ARCHIVE_ENABLED=true to record reviews")
		return errors.New("archive disabled")
	}

	records, err := h.reviewRepo.List(h.limit)
	if err != nil {
		ui.PrintError(h.out, "failed to list reviews: %v", err)
		return err
	}

	fmt.Fprintln(h.out, ui.RenderReviewRecords(records))
	return nil
}

func (h *ReviewHandler) runShow(cmd *cobra.Command, args []string) error {
	if h.reviewRepo == nil {
		ui.PrintWarning(h.out, "review archive is disabled, set ARCHIVE_ENABLED=true to record reviews")
		return errors.New("archive disabled")
	}

	id, err := uuid.Parse(args[0])
	if err != nil {
		ui.PrintError(h.out, "invalid review id: %s", args[0])
		return fmt.Errorf("invalid review id: %w", err)
	}

	record, err := h.reviewRepo.FindByID(id)
	if err != nil {
		ui.PrintError(h.out, "%v", err)
		return err
	}

	title := fmt.Sprintf("%s • %s", record.FileName, record.CreatedAt.Format("2006-01-02 15:04:05"))
	switch {
	case record.Report != nil:
		ui.PrintSuccessBox(h.out, title, *record.Report)
	case record.ErrorMessage != nil:
		ui.PrintErrorBox(h.out, title, "Error: "+*record.ErrorMessage)
	default:
		ui.PrintBold(h.out, "%s (%s)", title, record.Outcome)
	}
	return nil
}
