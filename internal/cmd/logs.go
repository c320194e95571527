package cmd

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/Iron-Ham/council/internal/config"
	"github.com/Iron-Ham/council/internal/logging"
	"github.com/spf13/cobra"
)

type logsOptions struct {
	dir     string
	tail    int
	level   string
	since   string
	council string
	agent   string
	round   int
	grep    string
	format  string
}

// RegisterLogsCmd adds the logs command to parent.
func RegisterLogsCmd(parent *cobra.Command) {
	opts := &logsOptions{}
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View debug logs",
		Long: `View and filter the debug log written during debates.

Examples:
  # Show the last 50 entries
  council logs

  # Warnings and errors for one debate
  council logs --council 6f1c... --level warn

  # Everything from the last hour as CSV
  council logs --since 1h -n 0 --format csv`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogs(cmd, opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.dir, "dir", "", "Log directory (default: logging.dir)")
	f.IntVarP(&opts.tail, "tail", "n", 50, "Number of entries to show (0 for all)")
	f.StringVar(&opts.level, "level", "", "Filter by minimum level (debug/info/warn/error)")
	f.StringVar(&opts.since, "since", "", "Show logs since duration ago (e.g., 1h, 30m)")
	f.StringVar(&opts.council, "council", "", "Only entries for this council id")
	f.StringVar(&opts.agent, "agent", "", "Only entries for this agent id")
	f.IntVar(&opts.round, "round", 0, "Only entries for this round")
	f.StringVar(&opts.grep, "grep", "", "Only entries whose message contains this text")
	f.StringVar(&opts.format, "format", "text", "Output format ("+strings.Join(logging.ExportFormats(), ", ")+")")

	parent.AddCommand(cmd)
}

func runLogs(cmd *cobra.Command, opts *logsOptions) error {
	if !slices.Contains(logging.ExportFormats(), strings.ToLower(opts.format)) {
		return fmt.Errorf("unsupported format %q (supported: %s)", opts.format, strings.Join(logging.ExportFormats(), ", "))
	}

	dir := opts.dir
	if dir == "" {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		dir = cfg.LogDir()
	}

	filter := logging.LogFilter{
		CouncilID:       opts.council,
		AgentID:         opts.agent,
		Round:           opts.round,
		MessageContains: opts.grep,
	}
	if opts.level != "" {
		filter.Level = logging.ParseLevel(opts.level)
	}
	if opts.since != "" {
		d, err := time.ParseDuration(opts.since)
		if err != nil {
			return fmt.Errorf("invalid duration format: %w", err)
		}
		filter.StartTime = time.Now().Add(-d)
	}

	entries, err := logging.ReadLogs(dir)
	if err != nil {
		return err
	}
	entries = logging.FilterLogs(entries, filter)
	if opts.tail > 0 && len(entries) > opts.tail {
		entries = entries[len(entries)-opts.tail:]
	}

	if len(entries) == 0 && strings.ToLower(opts.format) == "text" {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "No matching log entries found.")
		return nil
	}
	return logging.ExportLogEntries(cmd.OutOrStdout(), entries, opts.format)
}
