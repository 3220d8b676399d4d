/*
Package inputsample provides an implementation of feature.Sample that is read
from an io.Reader.
*/
package inputsample

import (
	"bufio"
	"fmt"
	"io"

	"github.com/pbanos/copse/feature"
)

/*
readSample represents a sample whose feature values
are retrieved from a reader. A feature value will be
requested using a FeatureValueRequester before reading it.
*/
type readSample struct {
	obtainedValues        map[string]float64
	undefinedValue        string
	scanner               *bufio.Scanner
	featureValueRequester FeatureValueRequester
	md                    *feature.Metadata
}

/*
FeatureValueRequester represents a way to ask
for feature values and reject the given values.
*/
type FeatureValueRequester interface {
	RequestValueFor(feature.Feature) error
	RejectValueFor(feature.Feature, string, error) error
}

/*
New takes an io.Reader, the metadata describing the features, a
FeatureValueRequester and an undefinedValue coding string
and returns a feature.Sample.

The returned Sample ValueFor method reads feature values first
requesting them with the given FeatureValueRequester and
then parsing the values from the reader. Values are read only
once, the first time they are needed.

The parsing expects each value to be presented ending with the
'\n' character, that is in new lines. Lines are read until one
that the feature can parse is found, rejecting the rest with the
FeatureValueRequester's RejectValueFor method. The undefinedValue
string on a line takes the default for the feature in the metadata,
and is rejected like any other invalid value if it has none.

Attempting to obtain a value for a feature not in the metadata
returns an error.
*/
func New(r io.Reader, md *feature.Metadata, featureValueRequester FeatureValueRequester, undefinedValue string) feature.Sample {
	scanner := bufio.NewScanner(r)
	return &readSample{make(map[string]float64), undefinedValue, scanner, featureValueRequester, md}
}

func (rs *readSample) ValueFor(name string) (float64, error) {
	value, ok := rs.obtainedValues[name]
	if ok {
		return value, nil
	}
	f, ok := rs.md.Feature(name)
	if !ok {
		return 0, fmt.Errorf("have no information about feature %s, do not know how to read its value", name)
	}
	err := rs.featureValueRequester.RequestValueFor(f)
	if err != nil {
		return 0, err
	}
	return rs.readFeature(f)
}

func (rs *readSample) readFeature(f feature.Feature) (float64, error) {
	var err error
	for rs.scanner.Scan() {
		line := rs.scanner.Text()
		var value float64
		var parseErr error
		if line == rs.undefinedValue {
			var ok bool
			value, ok, parseErr = rs.md.Default(f)
			if parseErr == nil && !ok {
				parseErr = fmt.Errorf("feature %s has no default value", f.Name())
			}
		} else {
			value, parseErr = f.Parse(line)
		}
		if parseErr == nil {
			rs.obtainedValues[f.Name()] = value
			return value, nil
		}
		err = rs.featureValueRequester.RejectValueFor(f, line, parseErr)
		if err != nil {
			return 0, err
		}
	}
	err = rs.scanner.Err()
	if err != nil {
		return 0, err
	}
	return 0, fmt.Errorf("EOF when requesting value for %s", f.Name())
}
