package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/pbanos/copse"
	"github.com/pbanos/copse/tree"
	"github.com/spf13/cobra"
)

type evaluateCmdConfig struct {
	sessionCmdConfig
	test       bool
	jsonOutput bool
}

func evaluateCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &evaluateCmdConfig{sessionCmdConfig: sessionCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Evaluate the trees and their ensemble",
		Long:  `Split the passenger data into training and testing data, configure the root rules of the trees and report their branches, leaves and accuracies, alone and as a majority-vote ensemble`,
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
			s, err := config.openSession(ctx, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			defer s.Close(ctx)
			view := copse.Training
			if config.test {
				view = copse.Testing
			}
			config.Logf("Evaluating trees on %s data...", view)
			report, err := s.Report(ctx, view)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			out := cmd.OutOrStdout()
			if config.jsonOutput {
				err = writeJSONReport(out, report)
			} else {
				err = writeReport(out, s, report)
			}
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			config.Logf("Done")
		},
	}
	config.addFlags(cmd)
	cmd.PersistentFlags().BoolVarP(&(config.test), "test", "t", false, "report accuracies on the testing data instead of the training data")
	cmd.PersistentFlags().BoolVar(&(config.jsonOutput), "json", false, "print the report as JSON")
	return cmd
}

func writeJSONReport(w io.Writer, r *copse.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(r)
}

func writeReport(w io.Writer, s *copse.Session, r *copse.Report) error {
	fmt.Fprintf(w, "Session %s, accuracies on %s data (%d passengers)\n\n", r.Session, r.View, r.Count)
	for i, t := range s.Trees {
		if err := tree.Render(w, t, t.Training(), s.Metadata); err != nil {
			return err
		}
		tr := r.Trees[i]
		if !tr.Configured {
			fmt.Fprintf(w, "Tree %s accuracy: 0 (unconfigured)\n\n", tr.ID)
			continue
		}
		fmt.Fprintf(w, "Tree %s training accuracy: %s\n", tr.ID, percent(tr.TrainingAccuracy))
		fmt.Fprintf(w, "Tree %s %s accuracy: %s\n\n", tr.ID, r.View, percent(tr.Accuracy))
	}
	fmt.Fprintf(w, "Ensemble %s accuracy: %s\n", r.View, percent(r.EnsembleAccuracy))
	_, err := fmt.Fprintf(w, "Average individual %s accuracy: %s\n", r.View, percent(r.AverageIndividualAccuracy))
	return err
}

func percent(accuracy float64) string {
	return fmt.Sprintf("%v%%", math.Round(accuracy*1000)/10)
}
