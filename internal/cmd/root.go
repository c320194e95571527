package cmd

import (
	"errors"
	"fmt"

	"github.com/Iron-Ham/council/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var rootCmd = NewRootCmd()

// NewRootCmd builds the council command tree.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "council",
		Short: "Run structured multi-perspective debates",
		Long: `Council convenes one agent per perspective on a topic, runs a fixed
number of debate rounds (analysis, rebuttal, synthesis) over a shared
board, and aggregates the final positions into a recommendation:
ADOPT, REJECT, CONDITIONAL or SPLIT.

Cost and wall-clock circuit breakers stop a debate between rounds.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfgFile, _ := cmd.Flags().GetString("config")
			return initConfig(cfgFile)
		},
	}

	// Global flags
	root.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/council/config.yaml)")

	RegisterDebateCmd(root)
	RegisterReplayCmd(root)
	RegisterPerspectivesCmd(root)
	RegisterKnowledgeCmd(root)
	RegisterLogsCmd(root)
	RegisterConfigCmd(root)
	return root
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func initConfig(cfgFile string) error {
	// Set defaults first so they're available even without a config file
	config.SetDefaults()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.ConfigDir())
		viper.AddConfigPath(".")
	}

	// e.g., COUNCIL_DEBATE_MAX_BUDGET for debate.max_budget
	config.BindEnv()

	if err := viper.ReadInConfig(); err != nil {
		// Only the default location may be absent
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config: %w", err)
	}
	return nil
}
