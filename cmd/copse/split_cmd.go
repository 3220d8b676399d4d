package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"time"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/spf13/cobra"
)

type splitCmdConfig struct {
	*setCmdConfig
	splitOutput string
	trainRatio  float64
	seed        int64
}

func splitCmd(setConfig *setCmdConfig) *cobra.Command {
	config := &splitCmdConfig{setCmdConfig: setConfig}
	cmd := &cobra.Command{
		Use:   "split",
		Short: "Split a set into training and testing sets",
		Long:  `Shuffle a set and split it into a training set, dumped into the output, and a testing set, dumped into the split output`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx := context.Background()
			md, err := config.readMetadata()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}
			ds, err := config.loadDataset(ctx, config.setInput, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			seed := config.seed
			if seed == 0 {
				seed = time.Now().UnixNano()
			}
			config.Logf("Splitting %d samples with ratio %v and seed %d...", ds.Count(), config.trainRatio, seed)
			train, test, err := ds.Shuffle(rand.New(rand.NewSource(seed))).Split(config.trainRatio)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			for _, part := range []struct {
				location string
				ds       dataset.Dataset
			}{{config.setOutput, train}, {config.splitOutput, test}} {
				if err = config.dump(ctx, part.location, part.ds, md); err != nil {
					fmt.Fprintln(os.Stderr, err)
					os.Exit(5)
				}
			}
			config.Logf("Done")
			config.Logf("Input set with %d samples was split into sets with %d and %d samples", ds.Count(), train.Count(), test.Count())
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.splitOutput), "split-output", "s", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to dump the testing set (required)")
	cmd.PersistentFlags().Float64VarP(&(config.trainRatio), "train-ratio", "r", 0, "ratio of the samples that go to the output set (defaults to the configured ratio)")
	cmd.PersistentFlags().Int64Var(&(config.seed), "seed", 0, "seed to shuffle the set with (defaults to the configured seed, 0 shuffles differently on every run)")
	return cmd
}

func (scc *splitCmdConfig) Validate() error {
	if err := scc.setCmdConfig.Validate(); err != nil {
		return err
	}
	if scc.splitOutput == "" {
		return fmt.Errorf("required split-output flag was not set")
	}
	if scc.trainRatio == 0 {
		scc.trainRatio = scc.cfg.Split.TrainRatio
	}
	if scc.seed == 0 {
		scc.seed = scc.cfg.Split.Seed
	}
	if scc.trainRatio <= 0 || scc.trainRatio >= 1 {
		return fmt.Errorf("train-ratio flag was set to an invalid value: it must be between 0 and 1 (exclusive)")
	}
	return nil
}

func (scc *splitCmdConfig) dump(ctx context.Context, location string, ds dataset.Dataset, md *feature.Metadata) error {
	output, err := scc.outputWriter(ctx, location, md)
	if err != nil {
		return err
	}
	defer output.Close()
	if _, err = output.Write(ctx, ds); err != nil {
		return err
	}
	scc.Logf("Flushing %d samples...", ds.Count())
	return output.Flush()
}
