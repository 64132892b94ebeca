// Package cmd implements the plugin-release CLI commands.
package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/cobra"
	"go.trai.ch/zerr"

	"github.com/snowpark-plugins/release/internal/config"
	"github.com/snowpark-plugins/release/internal/plan"
)

// ErrUnknownTarget is returned when a target name is not in the plan.
var ErrUnknownTarget = zerr.New("unknown target")

var versionLine = "plugin-release dev\n"

// SetVersionInfo is called from main.go with values injected at build time via -ldflags.
// It must be called before Execute().
func SetVersionInfo(version, commit, date string) {
	versionLine = fmt.Sprintf("plugin-release %s (commit %s, built %s)\n", version, commit, date)
	rootCmd.SetVersionTemplate(versionLine)
	rootCmd.Version = version
}

var rootCmd = &cobra.Command{
	Use:   "plugin-release [targets...]",
	Short: "Snowpark plugin release packager",
	Long: `plugin-release merges the core module into each plugin module, stages the
result under release/ and installs it with the plugin's build tool.

Examples:
  plugin-release                 interactive wizard
  plugin-release maven --yes     release the Maven plugin without prompts
  plugin-release merge gradle    print the merged build.gradle
  plugin-release status maven    show the release record
  plugin-release logs            show the latest release log`,
	RunE:          runRelease,
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute is the main entry point called from main.go.
// An interrupt cancels the running build tool.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().String("root", "", "repository root holding the core and plugin modules (default: cwd)")
	rootCmd.PersistentFlags().String("config", "", "settings file (default: <root>/release.yaml)")
	rootCmd.PersistentFlags().String("plan", "", "release plan file replacing the embedded one")
	rootCmd.PersistentFlags().String("log-level", "", "log level: debug, info, warn, error")
}

// loadSettings resolves settings for root (or the --root flag when empty)
// with the persistent flags and the given overrides applied.
func loadSettings(cmd *cobra.Command, root string, overrides map[string]any) (*config.Settings, error) {
	if root == "" {
		root, _ = cmd.Flags().GetString("root")
	}
	file, _ := cmd.Flags().GetString("config")

	all := make(map[string]any, len(overrides)+2)
	for k, v := range overrides {
		all[k] = v
	}
	if p, _ := cmd.Flags().GetString("plan"); p != "" {
		all[config.KeyPlan] = p
	}
	if l, _ := cmd.Flags().GetString("log-level"); l != "" {
		all[config.KeyLogLevel] = l
	}

	return config.Load(config.Options{Root: root, File: file, Overrides: all})
}

// load returns the settings and the release plan they point to.
func load(cmd *cobra.Command, root string, overrides map[string]any) (*config.Settings, *plan.Plan, error) {
	settings, err := loadSettings(cmd, root, overrides)
	if err != nil {
		return nil, nil, err
	}
	p, err := plan.Load(plan.LoadOptions{LocalOverride: settings.Plan})
	if err != nil {
		return nil, nil, fmt.Errorf("load plan: %w", err)
	}
	return settings, p, nil
}

// resolveTargets looks up every name in p. No names means every target.
func resolveTargets(p *plan.Plan, names []string) ([]*plan.Target, error) {
	if len(names) == 0 {
		names = p.TargetNames()
	}
	targets := make([]*plan.Target, 0, len(names))
	for _, name := range names {
		t, ok := p.Target(name)
		if !ok {
			err := zerr.Wrap(ErrUnknownTarget, fmt.Sprintf("%q (known: %s)", name, strings.Join(p.TargetNames(), ", ")))
			return nil, zerr.With(err, "target", name)
		}
		targets = append(targets, t)
	}
	return targets, nil
}
