package ui

import (
	"fmt"
	"strings"

	"alfredoptarigan/coach-client/internal/models"
)

// RenderMessage renders one transcript entry as a labeled block. The
// text is shown verbatim.
func RenderMessage(msg models.ChatMessage) string {
	label := Styles.Bold.Render(msg.Sender.Label())
	if msg.Sender == models.SenderCoach {
		label = Styles.Accent.Render(msg.Sender.Label())
	}
	return label + "\n" + msg.Text
}

// RenderTranscript renders every entry, oldest first.
func RenderTranscript(transcript []models.ChatMessage) string {
	blocks := make([]string, 0, len(transcript))
	for _, msg := range transcript {
		blocks = append(blocks, RenderMessage(msg))
	}
	return strings.Join(blocks, "\n\n")
}

// RenderPitchPreview renders the completed pitch panel.
func RenderPitchPreview(pitch string, width int) string {
	style := Styles.PanelBox
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(Styles.Bold.Render("Your Startup Pitch") + "\n\n" + pitch)
}

// RenderActionPanel renders a qa or feedback result under its title.
func RenderActionPanel(title, content string, width int) string {
	style := Styles.PanelBox
	if width > 4 {
		style = style.Width(width - 2)
	}
	return style.Render(Styles.Bold.Render(title) + "\n\n" + content)
}

// RenderHistory renders backend history entries one per line.
func RenderHistory(entries []models.HistoryEntry) string {
	if len(entries) == 0 {
		return Styles.Dim.Render("(no history yet)")
	}

	var b strings.Builder
	for i, entry := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s", Styles.Bold.Render(entry.Speaker), entry.Message)
	}
	return b.String()
}

// RenderReviewRecords renders archived reviews as a table, newest first.
func RenderReviewRecords(records []models.ReviewRecord) string {
	if len(records) == 0 {
		return Styles.Dim.Render("No archived reviews.")
	}

	var b strings.Builder
	b.WriteString(Styles.Bold.Render(fmt.Sprintf("%-36s  %-19s  %-9s  %s", "ID", "WHEN", "OUTCOME", "FILE")))
	for _, rec := range records {
		fmt.Fprintf(&b, "\n%-36s  %-19s  %-9s  %s", rec.ID, rec.CreatedAt.Format("2006-01-02 15:04:05"), rec.Outcome, rec.FileName)
		if rec.ErrorMessage != nil && *rec.ErrorMessage != "" {
			b.WriteString("  " + Styles.Dim.Render(*rec.ErrorMessage))
		}
	}
	return b.String()
}
