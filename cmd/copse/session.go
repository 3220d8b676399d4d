package main

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/pbanos/copse"
	"github.com/pbanos/copse/config"
	"github.com/pbanos/copse/feature"
	fjson "github.com/pbanos/copse/feature/json"
	"github.com/pbanos/copse/feature/yaml"
	"github.com/pbanos/copse/tree"
	"github.com/pbanos/copse/tree/redisstore"
	"github.com/spf13/cobra"
)

/*
sessionCmdConfig holds the flags of the commands that work on a session.
Flags left unset take their values from the configuration file.
*/
type sessionCmdConfig struct {
	*rootCmdConfig
	dataInput     string
	metadataInput string
	session       string
	redisURL      string
	trainRatio    float64
	seed          int64
	rules         []string
}

func (scc *sessionCmdConfig) addFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVarP(&(scc.dataInput), "input", "i", "", "path to an input CSV (.csv) or SQLite3 (.db) file, or a PostgreSQL or MongoDB connection URL with the passenger data (defaults to the configured input or STDIN, interpreted as CSV)")
	cmd.PersistentFlags().StringVarP(&(scc.metadataInput), "metadata", "m", "", "path to a YML file with metadata describing the features of the passenger data (defaults to the configured metadata)")
	cmd.PersistentFlags().StringVarP(&(scc.session), "session", "s", "", "ID of the session whose rules are stored (defaults to the configured session or a random one)")
	cmd.PersistentFlags().StringVar(&(scc.redisURL), "redis", "", "URL of a Redis server to store rules in (defaults to the configured store)")
	cmd.PersistentFlags().Float64Var(&(scc.trainRatio), "train-ratio", 0, "ratio of the passenger data used for training (defaults to the configured ratio)")
	cmd.PersistentFlags().Int64Var(&(scc.seed), "seed", 0, "seed to shuffle the passenger data with before splitting it (defaults to the configured seed, 0 shuffles differently on every run)")
	cmd.PersistentFlags().StringArrayVarP(&(scc.rules), "rule", "r", nil, "root rule for a tree given as N:EXPRESSION, like 2:'Sex == female' (can be repeated)")
}

/*
Validate applies the flags on the configuration and checks the result
*/
func (scc *sessionCmdConfig) Validate() error {
	cfg := scc.cfg
	if scc.dataInput != "" {
		cfg.Input = scc.dataInput
	}
	if scc.metadataInput != "" {
		cfg.Metadata = scc.metadataInput
	}
	if scc.session != "" {
		cfg.Session = scc.session
	}
	if scc.redisURL != "" {
		cfg.Store.Backend = config.RedisBackend
		cfg.Store.URL = scc.redisURL
	}
	if scc.trainRatio != 0 {
		cfg.Split.TrainRatio = scc.trainRatio
	}
	if scc.seed != 0 {
		cfg.Split.Seed = scc.seed
	}
	for _, r := range scc.rules {
		if _, _, err := splitRuleFlag(r); err != nil {
			return err
		}
	}
	return cfg.Validate()
}

func splitRuleFlag(flag string) (int, string, error) {
	i := strings.Index(flag, ":")
	if i < 0 {
		return 0, "", fmt.Errorf("rule flag %q is not like N:EXPRESSION", flag)
	}
	n, err := strconv.Atoi(strings.TrimSpace(flag[:i]))
	if err != nil || n < 1 || n > 3 {
		return 0, "", fmt.Errorf("rule flag %q does not start with a tree number from 1 to 3", flag)
	}
	return n, flag[i+1:], nil
}

/*
readMetadata reads the metadata at the configured path
*/
func (scc *sessionCmdConfig) readMetadata() (*feature.Metadata, error) {
	scc.Logf("Reading metadata at %s...", scc.cfg.Metadata)
	md, err := yaml.ReadMetadataFromFile(scc.cfg.Metadata)
	if err != nil {
		return nil, err
	}
	scc.Logf("Metadata read")
	return md, nil
}

/*
ruleStore returns the configured rule store
*/
func (scc *sessionCmdConfig) ruleStore(md *feature.Metadata) (tree.RuleStore, error) {
	if scc.cfg.Store.Backend != config.RedisBackend {
		return tree.NewMemoryRuleStore(), nil
	}
	scc.Logf("Connecting to Redis at %s to store rules...", scc.cfg.Store.URL)
	return redisstore.Dial(scc.cfg.Store.URL, scc.cfg.Store.Prefix, fjson.NewRuleEncodeDecoder(md.Features))
}

/*
openSession reads the passenger data, shuffles it and splits it into the
training and testing datasets of a new session. The session gets the rules
stored for it or, if there are none, the configured ones, and finally the
ones given with the rule flag.
*/
func (scc *sessionCmdConfig) openSession(ctx context.Context, md *feature.Metadata) (*copse.Session, error) {
	ds, err := scc.loadDataset(ctx, scc.cfg.Input, md)
	if err != nil {
		return nil, err
	}
	seed := scc.cfg.Split.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	scc.Logf("Splitting %d samples with ratio %v and seed %d...", ds.Count(), scc.cfg.Split.TrainRatio, seed)
	train, test, err := ds.Shuffle(rand.New(rand.NewSource(seed))).Split(scc.cfg.Split.TrainRatio)
	if err != nil {
		return nil, err
	}
	rs, err := scc.ruleStore(md)
	if err != nil {
		return nil, err
	}
	opts := []copse.Option{copse.WithLogger(scc.logger), copse.WithRuleStore(rs)}
	if scc.cfg.Session != "" {
		opts = append(opts, copse.WithID(scc.cfg.Session))
	}
	s, err := copse.NewSession(md, train, test, opts...)
	if err != nil {
		rs.Close(ctx)
		return nil, err
	}
	if err = scc.configureRules(ctx, s); err != nil {
		s.Close(ctx)
		return nil, err
	}
	return s, nil
}

func (scc *sessionCmdConfig) configureRules(ctx context.Context, s *copse.Session) error {
	restored, err := s.Restore(ctx)
	if err != nil {
		return err
	}
	scc.Logf("Restored %d rules of session %s", restored, s.ID)
	if restored == 0 {
		rules, err := scc.cfg.Rules(s.Metadata)
		if err != nil {
			return err
		}
		for i, r := range rules {
			if err = s.SetRule(ctx, i+1, r); err != nil {
				return err
			}
		}
	}
	for _, flag := range scc.rules {
		n, expr, err := splitRuleFlag(flag)
		if err != nil {
			return err
		}
		r, err := feature.ParseRuleExpression(s.Metadata, expr)
		if err != nil {
			return fmt.Errorf("rule of tree %d: %w", n, err)
		}
		if err = s.SetRule(ctx, n, r); err != nil {
			return err
		}
	}
	return nil
}
