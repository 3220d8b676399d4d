package copse

import (
	"context"
	"fmt"
	"strconv"

	"github.com/google/uuid"
	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/tree"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

/*
DefaultRule is the root rule every tree of a new session starts with
*/
var DefaultRule = feature.Rule{Feature: "Pclass", Operator: feature.LessThan, Threshold: 3}

/*
View selects the dataset accuracies are reported on
*/
type View int

const (
	// Training selects the training dataset
	Training View = iota
	// Testing selects the testing dataset
	Testing
)

func (v View) String() string {
	if v == Testing {
		return "test"
	}
	return "train"
}

/*
Session holds everything a user works on: the metadata of the passenger
data, its training and testing datasets, the three trees of the ensemble
and, optionally, a store where the root rules of the trees are persisted.
*/
type Session struct {
	ID       string
	Metadata *feature.Metadata
	Train    dataset.Dataset
	Test     dataset.Dataset
	Trees    [3]*tree.Tree
	store    tree.RuleStore
	logger   *zap.Logger
}

/*
Option configures optional parts of a Session
*/
type Option func(*Session)

/*
WithRuleStore makes the session persist the rules set on its trees on the
given store and restore them from it.
*/
func WithRuleStore(rs tree.RuleStore) Option {
	return func(s *Session) {
		s.store = rs
	}
}

/*
WithLogger sets the logger for the session, which otherwise logs nothing.
*/
func WithLogger(l *zap.Logger) Option {
	return func(s *Session) {
		s.logger = l
	}
}

/*
WithID sets the ID of the session, which is otherwise a random UUID. Rules
are persisted per session ID.
*/
func WithID(id string) Option {
	return func(s *Session) {
		s.ID = id
	}
}

/*
NewSession takes the metadata describing the passenger data, the training
and testing datasets and some options, and returns a session whose trees
all have DefaultRule as root rule. An error is returned if the metadata
lacks a feature the trees need or the datasets do not conform to it.
*/
func NewSession(md *feature.Metadata, train, test dataset.Dataset, opts ...Option) (*Session, error) {
	if err := md.Validate(); err != nil {
		return nil, err
	}
	for _, r := range append(tree.SecondaryRules[:], DefaultRule) {
		if _, ok := md.Feature(r.Feature); !ok {
			return nil, fmt.Errorf("metadata lacks feature %s used by the trees", r.Feature)
		}
	}
	if err := train.Validate(md); err != nil {
		return nil, fmt.Errorf("validating training dataset: %w", err)
	}
	if err := test.Validate(md); err != nil {
		return nil, fmt.Errorf("validating testing dataset: %w", err)
	}
	s := &Session{
		Metadata: md,
		Train:    train,
		Test:     test,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	for i := range s.Trees {
		s.Trees[i] = tree.New(strconv.Itoa(i+1), train)
		if err := s.Trees[i].SetRule(DefaultRule); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With(zap.String("session", s.ID))
	s.logger.Debug("session created", zap.Int("train", train.Count()), zap.Int("test", test.Count()))
	return s, nil
}

/*
Tree takes the number of a tree, from 1 to 3, and returns it
*/
func (s *Session) Tree(n int) (*tree.Tree, error) {
	if n < 1 || n > len(s.Trees) {
		return nil, fmt.Errorf("no tree %d, trees are numbered 1 to %d", n, len(s.Trees))
	}
	return s.Trees[n-1], nil
}

/*
Ensemble returns the trees of the session as an Ensemble
*/
func (s *Session) Ensemble() Ensemble {
	return Ensemble{s.Trees[0], s.Trees[1], s.Trees[2]}
}

/*
Dataset returns the dataset for the given view
*/
func (s *Session) Dataset(v View) dataset.Dataset {
	if v == Testing {
		return s.Test
	}
	return s.Train
}

/*
SetRule takes the number of a tree and a rule and sets it as root rule of
the tree, persisting it on the rule store first if the session has one.
Rules on features unknown to the metadata or otherwise invalid are rejected
with an error wrapping feature.ErrInvalidRule. On any error the tree keeps
its previous rule.
*/
func (s *Session) SetRule(ctx context.Context, n int, r feature.Rule) error {
	t, err := s.Tree(n)
	if err != nil {
		return err
	}
	if err = s.checkRule(r); err != nil {
		s.logger.Info("rule rejected", zap.String("tree", t.ID), zap.Stringer("rule", r), zap.Error(err))
		return err
	}
	if s.store != nil {
		err = s.store.Store(ctx, s.ID, t.ID, r)
		if err != nil {
			return fmt.Errorf("persisting rule of tree %s: %w", t.ID, err)
		}
	}
	if err = t.SetRule(r); err != nil {
		return err
	}
	s.logger.Debug("rule set", zap.String("tree", t.ID), zap.String("rule", r.Describe(s.Metadata)))
	return nil
}

func (s *Session) checkRule(r feature.Rule) error {
	if _, ok := s.Metadata.Feature(r.Feature); !ok {
		return fmt.Errorf("%w: unknown feature %s", feature.ErrInvalidRule, r.Feature)
	}
	return r.Validate()
}

/*
ClearRule takes the number of a tree, forgets the rule persisted for it on
the rule store, if any, and sets DefaultRule back as its root rule.
*/
func (s *Session) ClearRule(ctx context.Context, n int) error {
	t, err := s.Tree(n)
	if err != nil {
		return err
	}
	if s.store != nil {
		if err = s.store.Delete(ctx, s.ID, t.ID); err != nil {
			return fmt.Errorf("clearing rule of tree %s: %w", t.ID, err)
		}
	}
	s.logger.Debug("rule cleared", zap.String("tree", t.ID))
	return t.SetRule(DefaultRule)
}

/*
Restore sets on the trees of the session the rules persisted for it on
the rule store and returns how many it found. Trees without a persisted
rule keep theirs. Rules are only set once all of them have been read and
checked, so on error no tree changes.
*/
func (s *Session) Restore(ctx context.Context) (int, error) {
	if s.store == nil {
		return 0, nil
	}
	var stored [3]*feature.Rule
	for i, t := range s.Trees {
		r, err := s.store.Get(ctx, s.ID, t.ID)
		if err != nil {
			return 0, fmt.Errorf("restoring rule of tree %s: %w", t.ID, err)
		}
		if r == nil {
			continue
		}
		if err = s.checkRule(*r); err != nil {
			return 0, fmt.Errorf("restoring rule of tree %s: %w", t.ID, err)
		}
		stored[i] = r
	}
	var restored int
	for i, r := range stored {
		if r == nil {
			continue
		}
		t := s.Trees[i]
		if err := t.SetRule(*r); err != nil {
			return restored, fmt.Errorf("restoring rule of tree %s: %w", t.ID, err)
		}
		restored++
		s.logger.Debug("rule restored", zap.String("tree", t.ID), zap.String("rule", r.Describe(s.Metadata)))
	}
	return restored, nil
}

/*
Close releases the rule store of the session, if any
*/
func (s *Session) Close(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	return s.store.Close(ctx)
}

/*
BranchReport describes a branch of a tree and the training passengers on it
*/
type BranchReport struct {
	Name       string          `json:"name"`
	Statistics tree.Statistics `json:"statistics"`
	Rate       float64         `json:"survivalRatePercent"`
}

/*
LeafReport describes a leaf of a tree, the training passengers on it and
the prediction they yield
*/
type LeafReport struct {
	Name            string          `json:"name"`
	Rule            string          `json:"rule"`
	Statistics      tree.Statistics `json:"statistics"`
	Rate            float64         `json:"survivalRatePercent"`
	Prediction      int             `json:"prediction"`
	PredictionLabel string          `json:"predictionLabel"`
}

/*
TreeReport describes a tree: its rule, its branches and leaves over the
training data and its accuracies.
*/
type TreeReport struct {
	ID               string         `json:"id"`
	Rule             string         `json:"rule,omitempty"`
	Configured       bool           `json:"configured"`
	Branches         []BranchReport `json:"branches,omitempty"`
	Leaves           []LeafReport   `json:"leaves,omitempty"`
	TrainingAccuracy float64        `json:"trainingAccuracy"`
	Accuracy         float64        `json:"accuracy"`
}

/*
Report describes the state of a session with accuracies computed over the
dataset of a view.
*/
type Report struct {
	Session                   string        `json:"session"`
	View                      string        `json:"view"`
	Count                     int           `json:"count"`
	Trees                     [3]TreeReport `json:"trees"`
	EnsembleAccuracy          float64       `json:"ensembleAccuracy"`
	AverageIndividualAccuracy float64       `json:"averageIndividualAccuracy"`
}

/*
Report takes a view and returns the report of the session with accuracies
computed over the dataset of the view. Trees are reported concurrently.
*/
func (s *Session) Report(ctx context.Context, v View) (*Report, error) {
	ds := s.Dataset(v)
	r := &Report{Session: s.ID, View: v.String(), Count: ds.Count()}
	g, gctx := errgroup.WithContext(ctx)
	for i, t := range s.Trees {
		i, t := i, t
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			tr, err := s.treeReport(t, ds)
			if err != nil {
				return fmt.Errorf("reporting tree %s: %w", t.ID, err)
			}
			r.Trees[i] = *tr
			return nil
		})
	}
	g.Go(func() error {
		a, err := s.Ensemble().Accuracy(ds)
		r.EnsembleAccuracy = a
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	var accuracies [3]float64
	for i, tr := range r.Trees {
		accuracies[i] = tr.Accuracy
	}
	r.AverageIndividualAccuracy = stat.Mean(accuracies[:], nil)
	s.logger.Debug("report computed", zap.Stringer("view", v), zap.Float64("ensembleAccuracy", r.EnsembleAccuracy))
	return r, nil
}

func (s *Session) treeReport(t *tree.Tree, ds dataset.Dataset) (*TreeReport, error) {
	tr := &TreeReport{ID: t.ID}
	rule, ok := t.Rule()
	if !ok {
		return tr, nil
	}
	tr.Configured = true
	tr.Rule = rule.Describe(s.Metadata)
	branches, err := t.BranchStatistics(t.Training())
	if err != nil {
		return nil, err
	}
	for i, name := range tree.BranchNames(rule, s.Metadata) {
		tr.Branches = append(tr.Branches, BranchReport{name, branches[i], branches[i].SurvivalRatePercent()})
	}
	leaves, err := t.TrainingLeafStatistics()
	if err != nil {
		return nil, err
	}
	for _, l := range tree.Leaves {
		stats := leaves[l]
		tr.Leaves = append(tr.Leaves, LeafReport{
			Name:            fmt.Sprintf("Leaf %v", l),
			Rule:            tree.BranchNames(tree.SecondaryRules[l.Branch()], s.Metadata)[int(l)%2],
			Statistics:      stats,
			Rate:            stats.SurvivalRatePercent(),
			Prediction:      stats.Prediction(),
			PredictionLabel: tree.PredictionLabel(stats.Prediction()),
		})
	}
	tr.TrainingAccuracy, err = Accuracy(t, t.Training())
	if err != nil {
		return nil, err
	}
	tr.Accuracy, err = Accuracy(t, ds)
	if err != nil {
		return nil, err
	}
	return tr, nil
}
