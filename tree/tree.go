package tree

import (
	"fmt"
	"sync"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
)

/*
Leaf identifies one of the four leaves of a tree by the outcome of the
root rule and of the secondary rule of its branch.
*/
type Leaf int

const (
	// LeafTrueTrue holds the passengers satisfying both rules
	LeafTrueTrue Leaf = iota
	// LeafTrueFalse holds the passengers satisfying only the root rule
	LeafTrueFalse
	// LeafFalseTrue holds the passengers satisfying only the secondary rule
	LeafFalseTrue
	// LeafFalseFalse holds the passengers satisfying neither rule
	LeafFalseFalse
)

// Leaves lists the leaves of a tree in display order
var Leaves = [4]Leaf{LeafTrueTrue, LeafTrueFalse, LeafFalseTrue, LeafFalseFalse}

/*
SecondaryRules are the fixed rules applied on each branch of every tree:
the first on passengers satisfying the root rule, the second on the rest.
*/
var SecondaryRules = [2]feature.Rule{
	{Feature: "Age", Operator: feature.LessThan, Threshold: 16},
	{Feature: "Pclass", Operator: feature.LessThan, Threshold: 3},
}

func leafFor(rootOutcome, secondaryOutcome bool) Leaf {
	var l Leaf
	if !rootOutcome {
		l += 2
	}
	if !secondaryOutcome {
		l++
	}
	return l
}

/*
Branch returns the index of the branch the leaf hangs from:
0 for the one satisfying the root rule and 1 for the other.
*/
func (l Leaf) Branch() int {
	return int(l) / 2
}

func (l Leaf) String() string {
	return fmt.Sprintf("%d.%d", int(l)/2+1, int(l)%2+1)
}

/*
Tree is a two-level binary decision tree with a configurable root rule
and fixed secondary rules. It predicts the survival of a passenger with
the majority outcome of the training passengers sharing its leaf.

A Tree is safe for concurrent use.
*/
type Tree struct {
	ID       string
	training dataset.Dataset
	lock     sync.RWMutex
	rule     *feature.Rule
	leaves   *[4]Statistics
}

/*
New takes an ID and the training dataset and returns an unconfigured tree
*/
func New(id string, training dataset.Dataset) *Tree {
	return &Tree{ID: id, training: training}
}

/*
SetRule takes a rule and sets it as root rule of the tree. Invalid rules
are rejected with an error wrapping feature.ErrInvalidRule, leaving the
tree unchanged.
*/
func (t *Tree) SetRule(r feature.Rule) error {
	err := r.Validate()
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	t.rule = &r
	t.leaves = nil
	return nil
}

/*
Rule returns the root rule of the tree and whether it has one
*/
func (t *Tree) Rule() (feature.Rule, bool) {
	t.lock.RLock()
	defer t.lock.RUnlock()
	if t.rule == nil {
		return feature.Rule{}, false
	}
	return *t.rule, true
}

/*
Configured returns whether the tree has a root rule
*/
func (t *Tree) Configured() bool {
	_, ok := t.Rule()
	return ok
}

/*
Training returns the dataset the tree takes its predictions from
*/
func (t *Tree) Training() dataset.Dataset {
	return t.training
}

/*
Partition takes a dataset and returns the samples that fall on each leaf
of the tree, indexed by Leaf.
*/
func (t *Tree) Partition(ds dataset.Dataset) ([4]dataset.Dataset, error) {
	r, ok := t.Rule()
	if !ok {
		return [4]dataset.Dataset{}, ErrUnconfigured
	}
	return partition(r, ds)
}

func partition(r feature.Rule, ds dataset.Dataset) ([4]dataset.Dataset, error) {
	var result [4]dataset.Dataset
	matching, nonMatching, err := ds.Partition(r)
	if err != nil {
		return result, err
	}
	for i, branch := range [2]dataset.Dataset{matching, nonMatching} {
		result[2*i], result[2*i+1], err = branch.Partition(SecondaryRules[i])
		if err != nil {
			return result, err
		}
	}
	return result, nil
}

/*
LeafStatistics takes a dataset and returns the statistics of the samples
falling on each leaf of the tree, indexed by Leaf. They are computed from
scratch on every call.
*/
func (t *Tree) LeafStatistics(ds dataset.Dataset) ([4]Statistics, error) {
	r, ok := t.Rule()
	if !ok {
		return [4]Statistics{}, ErrUnconfigured
	}
	return leafStatistics(r, ds)
}

func leafStatistics(r feature.Rule, ds dataset.Dataset) ([4]Statistics, error) {
	var result [4]Statistics
	leaves, err := partition(r, ds)
	if err != nil {
		return result, err
	}
	for i, l := range leaves {
		result[i] = NewStatistics(l)
	}
	return result, nil
}

/*
BranchStatistics takes a dataset and returns the statistics of the samples
satisfying the root rule and of the ones that do not.
*/
func (t *Tree) BranchStatistics(ds dataset.Dataset) ([2]Statistics, error) {
	r, ok := t.Rule()
	if !ok {
		return [2]Statistics{}, ErrUnconfigured
	}
	matching, nonMatching, err := ds.Partition(r)
	if err != nil {
		return [2]Statistics{}, err
	}
	return [2]Statistics{NewStatistics(matching), NewStatistics(nonMatching)}, nil
}

/*
Route takes a sample and returns the leaf it falls on
*/
func (t *Tree) Route(s feature.Sample) (Leaf, error) {
	r, ok := t.Rule()
	if !ok {
		return 0, ErrUnconfigured
	}
	return route(r, s)
}

func route(r feature.Rule, s feature.Sample) (Leaf, error) {
	rootOutcome, err := r.SatisfiedBy(s)
	if err != nil {
		return 0, err
	}
	secondary := SecondaryRules[1]
	if rootOutcome {
		secondary = SecondaryRules[0]
	}
	secondaryOutcome, err := secondary.SatisfiedBy(s)
	if err != nil {
		return 0, err
	}
	return leafFor(rootOutcome, secondaryOutcome), nil
}

/*
Predict takes a sample and returns 1 if the tree predicts it survived and 0
otherwise. The prediction is the one of the leaf the sample falls on,
computed over the training dataset.
*/
func (t *Tree) Predict(s feature.Sample) (int, error) {
	r, leaves, err := t.trainingLeaves()
	if err != nil {
		return 0, err
	}
	l, err := route(r, s)
	if err != nil {
		return 0, err
	}
	return leaves[l].Prediction(), nil
}

/*
TrainingLeafStatistics returns the statistics of the training dataset on
each leaf, the ones predictions are taken from.
*/
func (t *Tree) TrainingLeafStatistics() ([4]Statistics, error) {
	_, leaves, err := t.trainingLeaves()
	return leaves, err
}

func (t *Tree) trainingLeaves() (feature.Rule, [4]Statistics, error) {
	t.lock.RLock()
	if t.rule == nil {
		t.lock.RUnlock()
		return feature.Rule{}, [4]Statistics{}, ErrUnconfigured
	}
	if t.leaves != nil {
		r, leaves := *t.rule, *t.leaves
		t.lock.RUnlock()
		return r, leaves, nil
	}
	t.lock.RUnlock()

	t.lock.Lock()
	defer t.lock.Unlock()
	if t.rule == nil {
		return feature.Rule{}, [4]Statistics{}, ErrUnconfigured
	}
	if t.leaves == nil {
		leaves, err := leafStatistics(*t.rule, t.training)
		if err != nil {
			return feature.Rule{}, [4]Statistics{}, fmt.Errorf("computing training statistics of tree %s: %w", t.ID, err)
		}
		t.leaves = &leaves
	}
	return *t.rule, *t.leaves, nil
}
