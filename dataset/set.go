package dataset

import (
	"fmt"
	"math/rand"

	"github.com/pbanos/copse/feature"
)

/*
Dataset represents an ordered collection of samples. Datasets are
shared read-only: operations on them return new datasets that reference
the same samples.
*/
type Dataset []Sample

/*
Count returns the number of samples in the dataset
*/
func (d Dataset) Count() int {
	return len(d)
}

/*
Partition takes a rule and returns the samples of the dataset that satisfy it
and the ones that do not, preserving their order on both. An error is
returned if the rule cannot be evaluated on a sample.
*/
func (d Dataset) Partition(r feature.Rule) (matching Dataset, nonMatching Dataset, err error) {
	matching = make(Dataset, 0, len(d))
	nonMatching = make(Dataset, 0, len(d))
	for i, s := range d {
		ok, err := r.SatisfiedBy(s)
		if err != nil {
			return nil, nil, fmt.Errorf("partitioning sample #%d with %v: %w", i, r, err)
		}
		if ok {
			matching = append(matching, s)
		} else {
			nonMatching = append(nonMatching, s)
		}
	}
	return matching, nonMatching, nil
}

/*
Validate takes the metadata describing the dataset and returns an error
if any sample does not define a valid value for every feature or has a
label other than 0 or 1.
*/
func (d Dataset) Validate(md *feature.Metadata) error {
	for i, s := range d {
		if l := s.Label(); l != 0 && l != 1 {
			return fmt.Errorf("sample #%d: label %s must be 0 or 1, got %d", i, md.Label, l)
		}
		for _, f := range md.Features {
			v, err := s.ValueFor(f.Name())
			if err != nil {
				return fmt.Errorf("sample #%d: %w", i, err)
			}
			if err = f.Valid(v); err != nil {
				return fmt.Errorf("sample #%d: %w", i, err)
			}
		}
	}
	return nil
}

/*
Shuffle takes a source of randomness and returns a new dataset with the
samples of the dataset in random order.
*/
func (d Dataset) Shuffle(r *rand.Rand) Dataset {
	result := make(Dataset, len(d))
	for i, j := range r.Perm(len(d)) {
		result[i] = d[j]
	}
	return result
}

/*
Split takes the ratio of samples to use for training and returns the first
floor(ratio * count) samples as training dataset and the rest as testing
dataset. Both share the samples of the original dataset.
*/
func (d Dataset) Split(trainRatio float64) (train Dataset, test Dataset, err error) {
	if trainRatio < 0 || trainRatio > 1 {
		return nil, nil, fmt.Errorf("train ratio must be between 0 and 1, got %v", trainRatio)
	}
	splitIndex := int(float64(len(d)) * trainRatio)
	return d[:splitIndex:splitIndex], d[splitIndex:], nil
}
