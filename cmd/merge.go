package cmd

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/snowpark-plugins/release/internal/release"
)

var (
	flagOut   string
	flagForce bool
)

var mergeCmd = &cobra.Command{
	Use:   "merge <target>",
	Short: "Print the merged manifest of a target",
	Long: `Merges the core module into the target's plugin manifest without staging
or building anything. The dependency changes are shown on stderr; the
manifest goes to stdout or to --out.`,
	Args: cobra.ExactArgs(1),
	RunE: runMerge,
}

func init() {
	rootCmd.AddCommand(mergeCmd)
	mergeCmd.Flags().StringVarP(&flagOut, "out", "o", "", "write the merged manifest to this file")
	mergeCmd.Flags().BoolVarP(&flagForce, "force", "f", false, "overwrite --out without asking")
}

func runMerge(cmd *cobra.Command, args []string) error {
	settings, p, err := load(cmd, "", nil)
	if err != nil {
		return err
	}
	targets, err := resolveTargets(p, args)
	if err != nil {
		return err
	}
	t := targets[0]

	merged, err := release.MergeTarget(afero.NewOsFs(), settings.Root, p, t, settings.Indent)
	if err != nil {
		return fmt.Errorf("merge %s: %w", t.Name, err)
	}

	printDiff(merged)

	if flagOut == "" {
		_, err := cmd.OutOrStdout().Write(merged.Data)
		return err
	}

	out := flagOut
	if !filepath.IsAbs(out) {
		out = filepath.Join(settings.Root, out)
	}
	if _, err := os.Stat(out); err == nil && !flagForce {
		if !confirm(fmt.Sprintf("Overwrite %s? [Y/n] ", out)) {
			fmt.Fprintln(os.Stderr, "Cancelled.")
			return nil
		}
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, merged.Data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}

	ok := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	fmt.Fprintln(os.Stderr, ok.Render("✓ Wrote "+out))
	return nil
}

func printDiff(m *release.Merged) {
	add := lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	rem := lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Fprintln(os.Stderr)
	if m.Removed != "" {
		fmt.Fprintf(os.Stderr, "  %s  %s\n", rem.Render("-"), m.Removed)
	}
	for _, d := range m.Added {
		if d == "" {
			continue
		}
		fmt.Fprintf(os.Stderr, "  %s  %s\n", add.Render("+"), d)
	}
	summary := m.ArtifactID + " " + m.Version
	if m.Dependencies > 0 {
		summary += fmt.Sprintf(", %d dependencies", m.Dependencies)
	}
	fmt.Fprintf(os.Stderr, "  %s\n\n", dim.Render(strings.TrimSpace(summary)))
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stderr, prompt)
	r := bufio.NewReader(os.Stdin)
	line, _ := r.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "" || line == "y" || line == "yes"
}
