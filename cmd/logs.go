package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/snowpark-plugins/release/internal/logger"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Show release logs",
	Long: `Show the most recent release log.
Use --follow to stream new lines in real time.`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var flagFollow bool

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.Flags().BoolVarP(&flagFollow, "follow", "f", false, "follow log output (like tail -f)")
}

func runLogs(cmd *cobra.Command, args []string) error {
	settings, err := loadSettings(cmd, "", nil)
	if err != nil {
		return err
	}

	logPath := logger.LatestLogPath(settings.Root)
	if logPath == "" {
		return fmt.Errorf("no release logs found in %s", logger.LogsDir(settings.Root))
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()

	// Print existing content.
	if _, err := io.Copy(cmd.OutOrStdout(), f); err != nil {
		return err
	}

	if !flagFollow {
		return nil
	}

	// Follow mode: poll for new content until interrupted.
	ctx := cmd.Context()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(300 * time.Millisecond):
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			fmt.Fprintln(cmd.OutOrStdout(), scanner.Text())
		}
	}
}
