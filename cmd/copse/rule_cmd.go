package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"github.com/pbanos/copse"
	"github.com/pbanos/copse/config"
	"github.com/pbanos/copse/feature"
	fjson "github.com/pbanos/copse/feature/json"
	"github.com/pbanos/copse/tree/json"
	"github.com/spf13/cobra"
)

type ruleCmdConfig struct {
	sessionCmdConfig
	jsonOutput bool
}

func ruleCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &ruleCmdConfig{sessionCmdConfig: sessionCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "rule",
		Short: "Manage the stored root rules of a session",
		Long:  `Set, show, clear and import the root rules stored for the trees of a session`,
	}
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features of the passenger data (defaults to the configured metadata)")
	cmd.PersistentFlags().StringVarP(&(config.session), "session", "s", "", "ID of the session whose rules are managed (defaults to the configured session)")
	cmd.PersistentFlags().StringVar(&(config.redisURL), "redis", "", "URL of a Redis server the rules are stored in (defaults to the configured store)")
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set N EXPRESSION",
			Short: "Set the root rule of a tree",
			Long:  `Set the root rule of tree N (1 to 3) to an expression like 'Sex == female' or 'Age<16'`,
			Args:  cobra.ExactArgs(2),
			Run: func(cmd *cobra.Command, args []string) {
				ctx, s := config.ruleSession()
				defer s.Close(ctx)
				n, err := treeNumber(args[0])
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(4)
				}
				r, err := feature.ParseRuleExpression(s.Metadata, args[1])
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
				if err = s.SetRule(ctx, n, r); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(6)
				}
				config.Logf("Done")
			},
		},
		config.showCmd(),
		&cobra.Command{
			Use:   "clear [N...]",
			Short: "Clear the root rules of trees",
			Long:  `Forget the stored root rules of the given trees, or of all of them, so they get the default one`,
			Run: func(cmd *cobra.Command, args []string) {
				ctx, s := config.ruleSession()
				defer s.Close(ctx)
				if len(args) == 0 {
					args = []string{"1", "2", "3"}
				}
				for _, arg := range args {
					n, err := treeNumber(arg)
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(4)
					}
					if err = s.ClearRule(ctx, n); err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(5)
					}
				}
				config.Logf("Done")
			},
		},
		&cobra.Command{
			Use:   "import FILE",
			Short: "Import root rules from a JSON file",
			Long:  `Set the root rules of the trees to the ones in a JSON file as written by rule show --json`,
			Args:  cobra.ExactArgs(1),
			Run: func(cmd *cobra.Command, args []string) {
				ctx, s := config.ruleSession()
				defer s.Close(ctx)
				config.Logf("Opening %s to read rules...", args[0])
				f, err := os.Open(args[0])
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(4)
				}
				defer f.Close()
				rules, err := json.ReadJSONTrees(f, fjson.NewRuleEncodeDecoder(s.Metadata.Features))
				if err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
				for id, r := range rules {
					n, err := treeNumber(id)
					if err == nil {
						err = s.SetRule(ctx, n, r)
					}
					if err != nil {
						fmt.Fprintln(os.Stderr, err)
						os.Exit(6)
					}
				}
				config.Logf("Imported %d rules", len(rules))
			},
		},
	)
	return cmd
}

func (rcc *ruleCmdConfig) showCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the root rules of the trees",
		Long:  `Show the root rules of the trees of a session, the stored ones or the default one`,
		Run: func(cmd *cobra.Command, args []string) {
			ctx, s := rcc.ruleSession()
			defer s.Close(ctx)
			out := cmd.OutOrStdout()
			if rcc.jsonOutput {
				if err := json.WriteJSONTrees(out, s.Trees[:], fjson.NewRuleEncodeDecoder(s.Metadata.Features)); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(4)
				}
				return
			}
			for _, t := range s.Trees {
				r, ok := t.Rule()
				if !ok {
					fmt.Fprintf(out, "Tree %s: unconfigured\n", t.ID)
					continue
				}
				fmt.Fprintf(out, "Tree %s: %s\n", t.ID, r.Describe(s.Metadata))
			}
		},
	}
	cmd.Flags().BoolVar(&(rcc.jsonOutput), "json", false, "print the rules as JSON")
	return cmd
}

/*
ruleSession returns a session without passenger data with the rules
stored for it, exiting on failure.
*/
func (rcc *ruleCmdConfig) ruleSession() (context.Context, *copse.Session) {
	err := rcc.Validate()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if rcc.cfg.Session == "" {
		fmt.Fprintln(os.Stderr, "rules are managed for a session, set one with the session flag")
		os.Exit(1)
	}
	if rcc.cfg.Store.Backend != config.RedisBackend {
		rcc.logger.Warn("rules are stored in memory and forgotten on exit, set a Redis store to keep them")
	}
	ctx := context.Background()
	md, err := rcc.readMetadata()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	rs, err := rcc.ruleStore(md)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	s, err := copse.NewSession(md, nil, nil, copse.WithID(rcc.cfg.Session), copse.WithRuleStore(rs), copse.WithLogger(rcc.logger))
	if err == nil {
		_, err = s.Restore(ctx)
	}
	if err != nil {
		rs.Close(ctx)
		fmt.Fprintln(os.Stderr, err)
		os.Exit(3)
	}
	return ctx, s
}

func treeNumber(arg string) (int, error) {
	n, err := strconv.Atoi(arg)
	if err != nil || n < 1 || n > 3 {
		return 0, fmt.Errorf("%q is not a tree number from 1 to 3", arg)
	}
	return n, nil
}
