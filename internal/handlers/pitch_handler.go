package handlers

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"alfredoptarigan/coach-client/internal/models"
	"alfredoptarigan/coach-client/internal/services"
	"alfredoptarigan/coach-client/internal/tui"
	"alfredoptarigan/coach-client/internal/ui"
)

// maxPlainLine caps one pasted line in plain mode.
const maxPlainLine = 1 << 20

const plainHelp = "Commands: /qa investor Q&A • /feedback pitch feedback • /export save pitch • /history • /exit"

type PitchHandler struct {
	coach services.CoachService
	in    io.Reader
	out   io.Writer

	plain bool
}

func NewPitchHandler(coach services.CoachService, in io.Reader, out io.Writer) *PitchHandler {
	return &PitchHandler{
		coach: coach,
		in:    in,
		out:   out,
	}
}

func (h *PitchHandler) Command() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pitch",
		Short: "talk a startup idea through with the pitch coach",
		Long: `Start a conversation with the startup pitch coach. The coach asks about
your idea until it can draft a complete pitch, which can then be exported
to startup_pitch.txt in PITCH_EXPORT_DIR.

Keyboard controls:
  • Enter sends, Alt+Enter starts a new line
  • Ctrl+Q runs an investor Q&A simulation
  • Ctrl+F asks for pitch clarity feedback
  • Ctrl+E exports the completed pitch
  • Esc quits`,
		Example: `  $ coach pitch
  $ coach pitch --plain`,
		SilenceUsage: true,
		RunE:         h.runPitch,
	}

	cmd.Flags().BoolVar(&h.plain, "plain", false, "line mode without the full screen interface")
	return cmd
}

func (h *PitchHandler) runPitch(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		ui.PrintError(h.out, "unexpected argument: %s", args[0])
		fmt.Fprintf(h.out, "\nRun '%s --help' for usage.\n", cmd.CommandPath())
		return fmt.Errorf("invalid arguments")
	}

	runID := uuid.New().String()
	log.Printf("🚀 Pitch run %s started\n", runID)
	defer log.Printf("🛑 Pitch run %s finished\n", runID)

	if h.plain {
		return h.runPlain(cmd.Context())
	}

	if err := tui.NewChatProgram(h.coach).Run(cmd.Context()); err != nil {
		return fmt.Errorf("failed to run pitch TUI: %w", err)
	}
	return nil
}

// runPlain reads one message or command per line until /exit or EOF.
func (h *PitchHandler) runPlain(ctx context.Context) error {
	ui.PrintWelcomeBanner(h.out, "🚀  Startup Pitch Coach")
	ui.PrintInfo(h.out, plainHelp)

	p := &plainPrinter{out: h.out}

	_ = h.coach.Initialize(ctx)
	p.flush(h.coach.State())

	scanner := bufio.NewScanner(h.in)
	scanner.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxPlainLine)
	for {
		fmt.Fprint(h.out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(h.out)
			return scanner.Err()
		}

		text, ok := services.PrepareInput(scanner.Text())
		if !ok {
			continue
		}

		switch strings.ToLower(text) {
		case "/exit", "/quit":
			return nil
		case "/qa":
			h.report(h.coach.PerformAction(ctx, models.ActionQA))
		case "/feedback":
			h.report(h.coach.PerformAction(ctx, models.ActionFeedback))
		case "/export":
			path, err := h.coach.ExportPitch()
			if err != nil {
				h.report(err)
				break
			}
			ui.PrintSuccess(h.out, "Pitch exported to %s", path)
		case "/history":
			entries, err := h.coach.History(ctx)
			if err != nil {
				h.report(err)
				break
			}
			fmt.Fprintln(h.out, ui.RenderHistory(entries))
		case "/help":
			ui.PrintInfo(h.out, plainHelp)
		default:
			h.report(h.coach.SendMessage(ctx, text))
		}

		p.flush(h.coach.State())
	}
}

// report prints errors the transcript does not already show.
func (h *PitchHandler) report(err error) {
	switch {
	case err == nil:
	case errors.Is(err, services.ErrNoActiveSession):
		ui.PrintWarning(h.out, "No active session. Restart the coach to try again.")
	case errors.Is(err, services.ErrNoCompletePitch):
		ui.PrintWarning(h.out, "No complete pitch to export yet.")
	case errors.Is(err, services.ErrUnknownAction):
		ui.PrintWarning(h.out, "%v", err)
	}
}

// plainPrinter prints whatever changed since the last flush. User
// messages are skipped since the user just typed them.
type plainPrinter struct {
	out     io.Writer
	printed int
	pitch   string
	action  services.ActionPanel
}

func (p *plainPrinter) flush(state services.CoachState) {
	for _, msg := range state.Transcript[p.printed:] {
		if msg.Sender == models.SenderUser {
			continue
		}
		fmt.Fprintln(p.out, ui.RenderMessage(msg))
		fmt.Fprintln(p.out)
	}
	p.printed = len(state.Transcript)

	if state.PreviewVisible && state.CompletePitch != p.pitch {
		p.pitch = state.CompletePitch
		fmt.Fprintln(p.out, ui.RenderPitchPreview(state.CompletePitch, 0))
		ui.PrintInfo(p.out, "Type /export to save it to %s", services.ExportFileName)
	}

	if state.Action.Visible && state.Action != p.action {
		p.action = state.Action
		fmt.Fprintln(p.out, ui.RenderActionPanel(state.Action.Title, state.Action.Content, 0))
	}
}
