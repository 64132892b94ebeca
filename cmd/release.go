package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/snowpark-plugins/release/internal/config"
	"github.com/snowpark-plugins/release/internal/logger"
	"github.com/snowpark-plugins/release/internal/release"
	"github.com/snowpark-plugins/release/internal/tool"
	"github.com/snowpark-plugins/release/internal/wizard"
)

var (
	flagYes       bool
	flagSkipBuild bool
	flagClean     bool
	flagTimeout   time.Duration
)

var releaseCmd = &cobra.Command{
	Use:   "release [targets...]",
	Short: "Merge, stage and build release targets",
	Long: `Stages each target under its release directory, writes the merged
manifest and runs the target's build tool there. Without target names the
plan defaults are released.`,
	RunE: runRelease,
	Args: cobra.ArbitraryArgs,
}

func init() {
	rootCmd.AddCommand(releaseCmd)
	for _, c := range []*cobra.Command{rootCmd, releaseCmd} {
		c.Flags().BoolVarP(&flagYes, "yes", "y", false, "skip wizard and release with defaults")
		c.Flags().BoolVar(&flagSkipBuild, "skip-build", false, "stop after the merged manifest is written")
		c.Flags().BoolVar(&flagClean, "clean", false, "remove the release directory before staging")
		c.Flags().DurationVar(&flagTimeout, "timeout", config.DefaultTimeout, "build tool timeout")
	}
}

func runRelease(cmd *cobra.Command, args []string) error {
	overrides := map[string]any{}
	if cmd.Flags().Changed("timeout") {
		overrides[config.KeyTimeout] = flagTimeout
	}
	if cmd.Flags().Changed("clean") {
		overrides[config.KeyClean] = flagClean
	}

	settings, p, err := load(cmd, "", overrides)
	if err != nil {
		return err
	}
	// Reject unknown names before any prompt.
	if _, err := resolveTargets(p, args); err != nil {
		return err
	}

	// Show wizard or use defaults.
	sel, err := wizard.Run(p, wizard.Options{
		Yes:         flagYes,
		DefaultRoot: settings.Root,
		Targets:     args,
	})
	if err != nil {
		return err // includes cancellation
	}
	if sel.Root != settings.Root {
		if settings, p, err = load(cmd, sel.Root, overrides); err != nil {
			return err
		}
	}
	targets, err := resolveTargets(p, sel.Targets)
	if err != nil {
		return err
	}

	// Set up logger (writes to stderr + log file).
	log, err := logger.New(settings.Root, settings.LogLevel)
	if err != nil {
		return err
	}
	defer log.Close()

	log.Info("releasing", "root", settings.Root, "targets", sel.Targets, "timeout", settings.Timeout)
	if settings.File != "" {
		log.Debug("settings loaded", "file", settings.File)
	}

	fmt.Println()

	opts := release.Options{
		SkipBuild:         flagSkipBuild,
		Clean:             settings.Clean,
		Timeout:           settings.Timeout,
		VersionConstraint: settings.VersionConstraint,
		Indent:            settings.Indent,
	}

	var results []*release.Result
	start := time.Now()
	for _, t := range targets {
		pr := newProgress(os.Stdout, t.Name)
		r := &release.Releaser{
			Fs:     afero.NewOsFs(),
			Log:    log,
			OnStep: pr.setStep,
			OnLine: pr.setDetail,
		}

		pr.start()
		res, err := r.Release(cmd.Context(), settings.Root, p, t, opts)
		pr.stop(err)

		if err != nil {
			printFailure(t.Name, err, log.LogPath())
			return fmt.Errorf("release %s failed: %w", t.Name, err)
		}
		results = append(results, res)
	}

	printSuccess(results, time.Since(start), log.LogPath())
	return nil
}

// ── banners ───────────────────────────────────────────────────────────────────

func printSuccess(results []*release.Result, took time.Duration, logPath string) {
	ok := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	val := lipgloss.NewStyle().Foreground(lipgloss.Color("14"))

	fmt.Println()
	fmt.Println(ok.Render("✓ Release complete") + dim.Render(fmt.Sprintf("  (%s)", took.Round(time.Second))))
	fmt.Println()
	for _, r := range results {
		built := "staged only"
		if r.Built {
			built = "built with " + r.Tool
		}
		fmt.Printf("  %-8s %s  %s\n", r.Target, val.Render(r.Version), dim.Render(built))
		fmt.Printf("           %s\n", val.Render(r.Manifest))
	}
	fmt.Println()
	if logPath != "" {
		fmt.Printf("  %s %s\n\n", dim.Render("Log:"), logPath)
	}
}

func printFailure(target string, err error, logPath string) {
	bad := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
	dim := lipgloss.NewStyle().Foreground(lipgloss.Color("8"))

	fmt.Println()
	fmt.Println(bad.Render("✗ Release of " + target + " failed"))
	if out := tool.Output(err); out != "" {
		fmt.Println()
		for _, line := range strings.Split(out, "\n") {
			fmt.Printf("    %s\n", dim.Render(line))
		}
	}
	if logPath != "" {
		fmt.Printf("\n  %s %s\n", dim.Render("Full log:"), logPath)
	}
	fmt.Println()
}
