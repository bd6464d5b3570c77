package handlers

import (
	"fmt"

	"github.com/spf13/cobra"

	"alfredoptarigan/coach-client/internal/ui"
)

const version = "0.1.0"

// NewRootCommand assembles the coach CLI.
func NewRootCommand(review *ReviewHandler, pitch *PitchHandler) *cobra.Command {
	root := &cobra.Command{
		Use:     "coach",
		Short:   "AI coaching client",
		Version: version,
		Long: `A terminal client for the AI coaching backend. Submit a CV for review
against a job description, or talk a startup idea through with the pitch
coach until a complete pitch comes out.`,
		Example: `  # Review a CV against a job description
  $ coach review --file cv.pdf --jd "Senior Go engineer"

  # Review and save the five reports next to an HTML summary
  $ coach review --file cv.pdf --jd-file job.txt --download

  # Show archived reviews
  $ coach review history --limit 5

  # Start the pitch coach
  $ coach pitch

  # Start the pitch coach without the full screen interface
  $ coach pitch --plain`,
		SilenceErrors: true,
	}

	// Disable default completion command
	root.CompletionOptions.DisableDefaultCmd = true

	root.AddCommand(review.Command())
	root.AddCommand(pitch.Command())

	root.SetVersionTemplate(fmt.Sprintf("coach version %s\n", version))
	root.SetUsageTemplate(usageTemplate())
	root.SetHelpTemplate(usageTemplate())

	return root
}

func usageTemplate() string {
	return `{{if .Long}}{{.Long}}

{{end}}` + ui.Styles.Bold.Render("USAGE") + `
  {{.UseLine}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}

{{if .HasExample}}` + ui.Styles.Bold.Render("EXAMPLES") + `
{{.Example}}

{{end}}{{if .HasAvailableSubCommands}}` + ui.Styles.Bold.Render("COMMANDS") + `{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}

{{end}}{{if .HasAvailableLocalFlags}}` + ui.Styles.Bold.Render("OPTIONS") + `
{{.LocalFlags.FlagUsages | trimTrailingWhitespaces}}

{{end}}{{if .HasAvailableSubCommands}}Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`
}
