package feature

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

/*
Feature represents a property that can be observed on a sample. Every
feature value is numeric: categorical properties are encoded as the
position of their value among the feature's available values.
*/
type Feature interface {
	Name() string
	// Parse takes the textual representation of a value and
	// returns its numeric encoding or an error.
	Parse(string) (float64, error)
	// Format takes a numeric value and returns its textual
	// representation.
	Format(float64) string
	// Valid returns an error if the given value cannot be taken
	// by the feature.
	Valid(float64) error
}

/*
DiscreteFeature represents a property that can be observed and that can only
take a value among a finite set. Values are encoded by their index on the
available values slice.
*/
type DiscreteFeature struct {
	name            string
	availableValues []string
}

/*
ContinuousFeature represents a property that can be observed and that can take
any real value
*/
type ContinuousFeature struct {
	name string
}

/*
NewDiscreteFeature takes a name string and a slice of available value strings
and returns a discrete feature with the given names and available values.
*/
func NewDiscreteFeature(name string, availableValues []string) *DiscreteFeature {
	return &DiscreteFeature{name, availableValues}
}

/*
NewContinuousFeature takes a name string and returns a continuous feature with
the given name.
*/
func NewContinuousFeature(name string) *ContinuousFeature {
	return &ContinuousFeature{name}
}

/*
Name returns a string with the name of the feature
*/
func (df *DiscreteFeature) Name() string {
	return df.name
}

/*
AvailableValues returns a string slice with the values available for the feature
*/
func (df *DiscreteFeature) AvailableValues() []string {
	return df.availableValues
}

/*
Parse takes a string and returns the code for it. The string may be one of
the available values (compared case-insensitively) or directly the code of
one of them.
*/
func (df *DiscreteFeature) Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	for i, av := range df.availableValues {
		if strings.EqualFold(av, s) {
			return float64(i), nil
		}
	}
	code, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("discrete feature %s got unknown value %q, expected one of %v", df.name, s, df.availableValues)
	}
	if err = df.Valid(code); err != nil {
		return math.NaN(), err
	}
	return code, nil
}

/*
Format returns the available value encoded by the given code, or the code
itself if it encodes none.
*/
func (df *DiscreteFeature) Format(v float64) string {
	if df.Valid(v) == nil {
		return df.availableValues[int(v)]
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

/*
Valid returns nil when the value is the code of one of the available
values of the feature, and an error describing the reason otherwise.
*/
func (df *DiscreteFeature) Valid(v float64) error {
	if v != math.Trunc(v) || v < 0 || int(v) >= len(df.availableValues) {
		return fmt.Errorf("discrete feature %s got invalid code %v, expected an integer between 0 and %d", df.name, v, len(df.availableValues)-1)
	}
	return nil
}

func (df *DiscreteFeature) String() string {
	return df.name
}

/*
Name returns a string with the name of the feature
*/
func (cf *ContinuousFeature) Name() string {
	return cf.name
}

/*
Parse takes a string and returns the finite float64 number it represents or
an error.
*/
func (cf *ContinuousFeature) Parse(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN(), fmt.Errorf("continuous feature %s expects a number, got %q", cf.name, s)
	}
	if err = cf.Valid(v); err != nil {
		return math.NaN(), err
	}
	return v, nil
}

func (cf *ContinuousFeature) Format(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

/*
Valid returns an error for NaN and infinite values and nil for any other one.
*/
func (cf *ContinuousFeature) Valid(v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("continuous feature %s expects a finite number, got %v", cf.name, v)
	}
	return nil
}

func (cf *ContinuousFeature) String() string {
	return cf.name
}
