/*
Package copse evaluates a small ensemble of hand-configured decision trees
on passenger survival data: three two-level trees, each with a user chosen
root rule, voting by majority.
*/
package copse

import (
	"context"
	"errors"
	"fmt"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/pbanos/copse/tree"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
)

/*
Predictor is anything able to predict the label of a sample:
1 if it survived and 0 otherwise.
*/
type Predictor interface {
	Predict(feature.Sample) (int, error)
}

/*
Accuracy takes a predictor and a dataset and returns the ratio of samples
in the dataset whose label the predictor gets right. It is 0 for empty
datasets and for unconfigured trees. Other prediction errors are returned.
*/
func Accuracy(p Predictor, ds dataset.Dataset) (float64, error) {
	if ds.Count() == 0 {
		return 0, nil
	}
	var matches int
	for i, s := range ds {
		prediction, err := p.Predict(s)
		if err != nil {
			if errors.Is(err, tree.ErrUnconfigured) {
				return 0, nil
			}
			return 0, fmt.Errorf("predicting sample #%d: %w", i, err)
		}
		if prediction == s.Label() {
			matches++
		}
	}
	return float64(matches) / float64(ds.Count()), nil
}

/*
Vote takes three predictions and returns 1 if at least two of them are 1
and 0 otherwise.
*/
func Vote(p1, p2, p3 int) int {
	if p1+p2+p3 >= 2 {
		return 1
	}
	return 0
}

/*
Ensemble combines three predictors by majority vote
*/
type Ensemble [3]Predictor

/*
Predict takes a sample and returns the majority vote of the predictions of
the members of the ensemble, or the first error a member returns.
*/
func (e Ensemble) Predict(s feature.Sample) (int, error) {
	var votes [3]int
	for i, p := range e {
		v, err := p.Predict(s)
		if err != nil {
			return 0, err
		}
		votes[i] = v
	}
	return Vote(votes[0], votes[1], votes[2]), nil
}

/*
Votes takes a sample and returns the prediction of each member of the
ensemble.
*/
func (e Ensemble) Votes(s feature.Sample) ([3]int, error) {
	var votes [3]int
	for i, p := range e {
		v, err := p.Predict(s)
		if err != nil {
			return votes, fmt.Errorf("member %d: %w", i+1, err)
		}
		votes[i] = v
	}
	return votes, nil
}

/*
Accuracy returns the accuracy of the ensemble on the dataset. As any
member that is an unconfigured tree cannot vote, the ensemble accuracy is
0 until all of them are configured.
*/
func (e Ensemble) Accuracy(ds dataset.Dataset) (float64, error) {
	return Accuracy(e, ds)
}

/*
IndividualAccuracies returns the accuracy of each member of the ensemble
on the dataset, computed concurrently.
*/
func (e Ensemble) IndividualAccuracies(ctx context.Context, ds dataset.Dataset) ([3]float64, error) {
	var accuracies [3]float64
	g, ctx := errgroup.WithContext(ctx)
	for i, p := range e {
		i, p := i, p
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			a, err := Accuracy(p, ds)
			if err != nil {
				return fmt.Errorf("member %d: %w", i+1, err)
			}
			accuracies[i] = a
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return [3]float64{}, err
	}
	return accuracies, nil
}

/*
AverageIndividualAccuracy returns the arithmetic mean of the accuracies of
the members of the ensemble on the dataset.
*/
func (e Ensemble) AverageIndividualAccuracy(ctx context.Context, ds dataset.Dataset) (float64, error) {
	accuracies, err := e.IndividualAccuracies(ctx, ds)
	if err != nil {
		return 0, err
	}
	return stat.Mean(accuracies[:], nil), nil
}
