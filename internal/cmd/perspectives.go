package cmd

import (
	"fmt"
	"text/tabwriter"

	"github.com/Iron-Ham/council/internal/agent/heuristic"
	"github.com/Iron-Ham/council/internal/agent/template"
	"github.com/Iron-Ham/council/internal/config"
	"github.com/Iron-Ham/council/internal/util"
	"github.com/spf13/cobra"
)

// RegisterPerspectivesCmd adds the perspectives command to parent.
func RegisterPerspectivesCmd(parent *cobra.Command) {
	var templatesDir string
	cmd := &cobra.Command{
		Use:   "perspectives",
		Short: "List the perspectives agents can argue from",
		Long: `List the built-in perspectives and any loaded from YAML templates.

A template with the same name as a built-in perspective replaces it.
Perspectives that appear in neither list still debate, with no keyword
signals of their own.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("templates") {
				cfg.Agents.TemplatesDir = templatesDir
			}
			return runPerspectives(cmd, cfg)
		},
	}
	cmd.Flags().StringVar(&templatesDir, "templates", "", "Directory of YAML perspective templates")
	parent.AddCommand(cmd)
}

func runPerspectives(cmd *cobra.Command, cfg *config.Config) error {
	files, err := template.LoadDir(cfg.TemplatesDir())
	if err != nil {
		return err
	}
	fromTemplate := make(map[string]string, len(files))
	for _, f := range files {
		fromTemplate[f.Profile.Perspective] = f.Path
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "PERSPECTIVE\tSOURCE\tDESCRIPTION")
	for _, name := range heuristic.BuiltinPerspectives() {
		if _, overridden := fromTemplate[name]; overridden {
			continue
		}
		p, _ := heuristic.Builtin(name)
		_, _ = fmt.Fprintf(tw, "%s\tbuilt-in\t%s\n", name, util.TruncateString(p.Description, 70))
	}
	for _, f := range files {
		desc := f.Profile.Description
		if desc == "" {
			desc = f.Profile.Focus
		}
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", f.Profile.Perspective, f.Path, util.TruncateString(desc, 70))
	}
	return tw.Flush()
}
