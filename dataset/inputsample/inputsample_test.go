package inputsample

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/pbanos/copse/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRequester struct {
	requested []string
	rejected  []string
	failOn    string
}

func (rr *recordingRequester) RequestValueFor(f feature.Feature) error {
	rr.requested = append(rr.requested, f.Name())
	return nil
}

func (rr *recordingRequester) RejectValueFor(f feature.Feature, v string, _ error) error {
	rr.rejected = append(rr.rejected, fmt.Sprintf("%s=%s", f.Name(), v))
	if v == rr.failOn {
		return errors.New("giving up")
	}
	return nil
}

func metadata() *feature.Metadata {
	return &feature.Metadata{
		Label: "Survived",
		Features: []feature.Feature{
			feature.NewContinuousFeature("Pclass"),
			feature.NewDiscreteFeature("Sex", []string{"male", "female"}),
			feature.NewContinuousFeature("Age"),
		},
		Defaults: map[string]string{"Age": "28"},
	}
}

func TestValueFor(t *testing.T) {
	rr := &recordingRequester{}
	s := New(strings.NewReader("robot\nfemale\nfirst\n?\n?\n1\n"), metadata(), rr, "?")

	v, err := s.ValueFor("Sex")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = s.ValueFor("Pclass")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v)

	v, err = s.ValueFor("Sex")
	require.NoError(t, err)
	assert.Equal(t, 1.0, v, "values are read once")

	_, err = s.ValueFor("Age")
	assert.Error(t, err, "input is exhausted")

	assert.Equal(t, []string{"Sex", "Pclass", "Age"}, rr.requested)
	assert.Equal(t, []string{"Sex=robot", "Pclass=first", "Pclass=?", "Pclass=?"}, rr.rejected)
}

func TestValueForDefault(t *testing.T) {
	s := New(strings.NewReader("?\n"), metadata(), &recordingRequester{}, "?")
	v, err := s.ValueFor("Age")
	require.NoError(t, err)
	assert.Equal(t, 28.0, v)

	_, err = s.ValueFor("Cabin")
	assert.Error(t, err)
}

func TestValueForRequesterError(t *testing.T) {
	s := New(strings.NewReader("x\n2\n"), metadata(), &recordingRequester{failOn: "x"}, "?")
	_, err := s.ValueFor("Age")
	assert.EqualError(t, err, "giving up")
}

func TestValueForRejectsNonFiniteNumbers(t *testing.T) {
	rr := &recordingRequester{}
	s := New(strings.NewReader("NaN\nInf\n30\n"), metadata(), rr, "?")
	v, err := s.ValueFor("Age")
	require.NoError(t, err)
	assert.Equal(t, 30.0, v)
	assert.Equal(t, []string{"Age=NaN", "Age=Inf"}, rr.rejected)
}
