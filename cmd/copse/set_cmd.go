package main

import (
	"context"
	"fmt"
	"os"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/feature/yaml"
	"github.com/spf13/cobra"
)

type setCmdConfig struct {
	*rootCmdConfig
	setInput      string
	metadataInput string
	setOutput     string
}

func setCmd(rootConfig *rootCmdConfig) *cobra.Command {
	config := &setCmdConfig{rootCmdConfig: rootConfig}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Manage sets of passenger data",
		Long:  `Clean passenger data and dump it into a CSV or SQLite3 file, a PostgreSQL database or a MongoDB database`,
		Run: func(cmd *cobra.Command, args []string) {
			err := config.Validate()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			md, err := config.readMetadata()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(2)
			}

			output, err := config.outputWriter(ctx, config.setOutput, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(3)
			}
			defer output.Close()

			inputStream, errStream, err := config.inputStream(ctx, config.setInput, md)
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(4)
			}

			config.Logf("Dumping input set into output set...")
			var count int
			for s := range inputStream {
				_, err = output.Write(ctx, []dataset.Sample{s})
				if err != nil {
					cancel()
					break
				}
				count++
			}
			if err != nil {
				for range inputStream {
				}
				fmt.Fprintln(os.Stderr, err)
				os.Exit(5)
			}
			err = <-errStream
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(6)
			}
			config.Logf("Flushing output set...")
			err = output.Flush()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(7)
			}
			config.Logf("Done")
			config.Logf("%d samples dumped", count)
		},
	}
	cmd.PersistentFlags().StringVarP(&(config.setInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the passenger data (defaults to STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(config.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features of the passenger data (defaults to the configured metadata)")
	cmd.PersistentFlags().StringVarP(&(config.setOutput), "output", "o", "", "path to a CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL to dump the output set (defaults to STDOUT in CSV)")
	cmd.AddCommand(splitCmd(config))
	return cmd
}

func (scc *setCmdConfig) Validate() error {
	if scc.metadataInput == "" {
		scc.metadataInput = scc.cfg.Metadata
	}
	if scc.metadataInput == "" {
		return fmt.Errorf("required metadata flag was not set")
	}
	return nil
}

func (scc *setCmdConfig) readMetadata() (*feature.Metadata, error) {
	scc.Logf("Reading metadata at %s...", scc.metadataInput)
	md, err := yaml.ReadMetadataFromFile(scc.metadataInput)
	if err != nil {
		return nil, err
	}
	scc.Logf("Metadata read")
	return md, nil
}
