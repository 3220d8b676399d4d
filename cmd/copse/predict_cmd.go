package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pbanos/copse/dataset/inputsample"
	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/tree"
	"github.com/spf13/cobra"
)

type predictCmdConfig struct {
	sessionCmdConfig
	undefinedValue string
}

type promptFeatureValueRequester struct {
	w              io.Writer
	undefinedValue string
}

func predictCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &predictCmdConfig{sessionCmdConfig: sessionCmdConfig{rootCmdConfig: rootConfig}}
	cmd := &cobra.Command{
		Use:   "predict",
		Short: "Predict the survival of a passenger answering questions",
		Long:  `Use the trees and their ensemble to predict whether a passenger survived, answering questions only about the features the trees consult`,
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
			if config.cfg.Input == "" {
				fmt.Fprintln(os.Stderr, "predict reads answers from STDIN so the passenger data must be read from an input")
				os.Exit(3)
			}
			s, err := config.openSession(ctx, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}
			defer s.Close(ctx)
			out := cmd.OutOrStdout()
			requester := &promptFeatureValueRequester{out, config.undefinedValue}
			sample := inputsample.New(os.Stdin, md, requester, config.undefinedValue)
			votes, err := s.Ensemble().Votes(sample)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			for i, v := range votes {
				fmt.Fprintf(out, "Tree %s predicts: %s\n", s.Trees[i].ID, tree.PredictionLabel(v))
			}
			prediction, err := s.Ensemble().Predict(sample)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			fmt.Fprintf(out, "Ensemble predicts: %s\n", tree.PredictionLabel(prediction))
		},
	}
	config.addFlags(cmd)
	cmd.PersistentFlags().StringVarP(&(config.undefinedValue), "undefined-value", "u", "?", "value to input to leave a passenger's feature undefined, taking its default")
	return cmd
}

func (pfvr *promptFeatureValueRequester) RequestValueFor(f feature.Feature) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Fprintf(pfvr.w, "Please provide the passenger's %s:\n(valid values are %v or %s if undefined)\n", f.Name(), f.AvailableValues(), pfvr.undefinedValue)
	case *feature.ContinuousFeature:
		fmt.Fprintf(pfvr.w, "Please provide the passenger's %s:\n(valid values are real numbers or %s if undefined)\n", f.Name(), pfvr.undefinedValue)
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}

func (pfvr *promptFeatureValueRequester) RejectValueFor(f feature.Feature, value string, err error) error {
	switch f := f.(type) {
	case *feature.DiscreteFeature:
		fmt.Fprintf(pfvr.w, "%v is not a valid value for the passenger's %s (%v). Please provide one of %v or %s if undefined.\n", value, f.Name(), err, f.AvailableValues(), pfvr.undefinedValue)
	case *feature.ContinuousFeature:
		fmt.Fprintf(pfvr.w, "%v is not a valid value for the passenger's %s (%v). Please provide a real number or %s if undefined.\n", value, f.Name(), err, pfvr.undefinedValue)
	default:
		return fmt.Errorf("unknown feature type %T", f)
	}
	return nil
}
