package main

import (
	"os"

	"github.com/pbanos/copse/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

type rootCmdConfig struct {
	verbose    bool
	configPath string
	cfg        *config.Config
	logger     *zap.Logger
}

func main() {
	if err := cliParser().Execute(); err != nil {
		os.Exit(1)
	}
}

func cliParser() *cobra.Command {
	rootConfig := &rootCmdConfig{}
	rootCmd := &cobra.Command{
		Use:   "copse",
		Short: "copse is a tool to evaluate hand-made decision trees",
		Long:  `A tool to configure the root rules of three small decision trees on passenger survival data, evaluate them alone and as a majority-vote ensemble, and use them to make predictions`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return rootConfig.init()
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rootConfig.sync()
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&(rootConfig.verbose), "verbose", "v", false, "log progress to STDERR")
	rootCmd.PersistentFlags().StringVarP(&(rootConfig.configPath), "config", "c", "copse.yml", "path to a YML file with the session configuration (missing files leave the defaults)")
	rootCmd.AddCommand(
		versionCmd(),
		evaluateCmd(rootConfig),
		predictCmd(rootConfig),
		ruleCmd(rootConfig),
		setCmd(rootConfig),
	)
	return rootCmd
}

func (rcc *rootCmdConfig) init() error {
	logger, err := newLogger(rcc.verbose)
	if err != nil {
		return err
	}
	rcc.logger = logger
	rcc.Logf("Loading configuration from %s...", rcc.configPath)
	rcc.cfg, err = config.Load(rcc.configPath)
	if err != nil {
		return err
	}
	return nil
}
