package dataset

import (
	"fmt"
	"sort"
	"strings"
)

// Error represents an error related with datasets
type Error string

/*
ErrUndefinedFeature is the error returned when a sample is asked for the
value of a feature it does not define.
*/
const ErrUndefinedFeature = Error("undefined feature")

func (e Error) Error() string {
	return string(e)
}

/*
Sample represents a passenger record: a numeric value for each of its
features and a ground truth label that is either 0 or 1.

Its ValueFor method returns the value of the sample corresponding to the
feature with the name passed as parameter.

Its Label method returns the ground truth of the sample.
*/
type Sample interface {
	ValueFor(string) (float64, error)
	Label() int
}

type sample struct {
	featureValues map[string]float64
	label         int
}

/*
NewSample takes a map of feature string names to values and a label and
returns a sample. The map is copied so the sample cannot be altered
afterwards.
*/
func NewSample(featureValues map[string]float64, label int) Sample {
	values := make(map[string]float64, len(featureValues))
	for k, v := range featureValues {
		values[k] = v
	}
	return &sample{values, label}
}

func (s *sample) ValueFor(name string) (float64, error) {
	v, ok := s.featureValues[name]
	if !ok {
		return 0, fmt.Errorf("%w %s", ErrUndefinedFeature, name)
	}
	return v, nil
}

func (s *sample) Label() int {
	return s.label
}

func (s *sample) String() string {
	names := make([]string, 0, len(s.featureValues))
	for name := range s.featureValues {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%g", name, s.featureValues[name]))
	}
	return fmt.Sprintf("[%s -> %d]", strings.Join(parts, " "), s.label)
}
