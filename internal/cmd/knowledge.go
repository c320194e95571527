package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"slices"
	"text/tabwriter"

	"github.com/Iron-Ham/council/internal/config"
	"github.com/Iron-Ham/council/internal/knowledge"
	"github.com/spf13/cobra"
)

// RegisterKnowledgeCmd adds the knowledge command to parent.
func RegisterKnowledgeCmd(parent *cobra.Command) {
	var (
		limit      int
		jsonOutput bool
	)
	cmd := &cobra.Command{
		Use:   "knowledge",
		Short: "List captured debate outcomes",
		Long: `List the decisive debate outcomes in the knowledge store, newest first.

Only debates that finished every round with a non-SPLIT verdict at or above
knowledge.min_confidence are captured.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			entries, err := recentKnowledge(cmd, cfg, limit)
			if err != nil {
				return err
			}
			if jsonOutput {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(entries)
			}
			return printKnowledge(cmd, entries)
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum entries to show (0 for all)")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Print entries as JSON")
	parent.AddCommand(cmd)
}

func recentKnowledge(cmd *cobra.Command, cfg *config.Config, limit int) ([]knowledge.Entry, error) {
	if cfg.Knowledge.Driver == knowledge.DriverPostgres {
		sink, err := knowledge.NewPostgresSink(cfg.Knowledge.DSN)
		if err != nil {
			return nil, err
		}
		defer func() { _ = sink.Close() }()
		if limit <= 0 {
			limit = 1 << 20
		}
		return sink.Recent(cmd.Context(), limit)
	}

	entries, err := knowledge.ReadFile(filepath.Join(cfg.KnowledgeDir(), knowledge.FileName))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	slices.Reverse(entries)
	if limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func printKnowledge(cmd *cobra.Command, entries []knowledge.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), "no captured debates")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "CAPTURED\tVERDICT\tCONF\tCOST\tTOPIC")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%.2f\t$%.2f\t%s\n",
			e.CapturedAt.Local().Format("2006-01-02 15:04"), e.Recommendation, e.Confidence, e.TotalCost, e.Topic)
	}
	return tw.Flush()
}
