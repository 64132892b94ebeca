package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/snowpark-plugins/release/internal/state"
)

var statusCmd = &cobra.Command{
	Use:   "status [targets...]",
	Short: "Show release status",
	Long: `Shows the release record of each target. Without names every target in
the plan is listed.`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	settings, p, err := load(cmd, "", nil)
	if err != nil {
		return err
	}
	targets, err := resolveTargets(p, args)
	if err != nil {
		return err
	}

	label := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("8"))
	val := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))
	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	bad := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	fs := afero.NewOsFs()
	fmt.Println()
	fmt.Printf("  %s %s\n\n", label.Render("Root:"), val.Render(settings.Root))

	for _, t := range targets {
		releaseDir := filepath.Join(settings.Root, t.ReleaseDir)
		rec, err := state.Read(fs, releaseDir)
		if err != nil {
			// Single target: surface the error. Listing: show as not released.
			if len(args) == 1 {
				return err
			}
			fmt.Printf("  %s %-8s %s\n\n", dimStr("○"), t.Name, dimStr("not released"))
			continue
		}

		mark, status := ok.Render("●"), ok.Render(string(rec.Status))
		if !rec.Complete() {
			mark, status = bad.Render("●"), bad.Render(string(rec.Status))
		}
		fmt.Printf("  %s %-8s %s\n", mark, t.Name, status)
		fmt.Printf("    %s %s\n", label.Render("Directory:"), rec.ReleaseDir)
		if rec.Artifact != "" || rec.Release != "" {
			fmt.Printf("    %s %s %s\n", label.Render("Artifact: "), rec.Artifact, val.Render(rec.Release))
		}
		fmt.Printf("    %s %s\n", label.Render("Command:  "), strings.Join(rec.Command, " "))
		fmt.Printf("    %s %s\n", label.Render("Started:  "), rec.StartedAt.Local().Format("2006-01-02 15:04"))
		if !rec.FinishedAt.IsZero() {
			fmt.Printf("    %s %s\n", label.Render("Finished: "), rec.FinishedAt.Local().Format("2006-01-02 15:04"))
		}
		if rec.Error != "" {
			fmt.Printf("    %s %s\n", label.Render("Error:    "), bad.Render(firstLine(rec.Error)))
		}
		fmt.Println()
	}
	return nil
}

func dimStr(s string) string {
	return lipgloss.NewStyle().Foreground(lipgloss.Color("8")).Render(s)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " …"
	}
	return s
}
