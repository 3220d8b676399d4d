package json

import (
	"testing"

	"github.com/pbanos/copse/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleEncodeDecoderRoundTrip(t *testing.T) {
	features := []feature.Feature{feature.NewContinuousFeature("Age"), feature.NewContinuousFeature("Fare")}
	red := NewRuleEncodeDecoder(features)

	r := feature.Rule{Feature: "Fare", Operator: feature.GreaterOrEqual, Threshold: 7.25}
	data, err := red.Encode(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{"f":"Fare","o":">=","t":"7.25"}`, string(data))

	decoded, err := red.Decode(data)
	require.NoError(t, err)
	assert.Equal(t, r, decoded)
}

func TestRuleEncodeDecoderErrors(t *testing.T) {
	red := NewRuleEncodeDecoder([]feature.Feature{feature.NewContinuousFeature("Age")})

	_, err := red.Decode([]byte(`{"f":"Fare","o":"<","t":"3"}`))
	assert.Error(t, err)
	_, err = red.Decode([]byte(`{"f":"Age","o":"<","t":"NaN"}`))
	assert.ErrorIs(t, err, feature.ErrInvalidRule)
	_, err = red.Decode([]byte(`{"f":"Age","o":"!","t":"3"}`))
	assert.ErrorIs(t, err, feature.ErrInvalidRule)
	_, err = red.Decode([]byte(`{"f":"Age","o":"<","t":"old"}`))
	assert.ErrorIs(t, err, feature.ErrInvalidRule)
	_, err = red.Decode([]byte(`not json`))
	assert.Error(t, err)

	_, err = red.Encode(feature.Rule{Feature: "Age", Operator: feature.LessThan})
	assert.NoError(t, err)
	_, err = red.Encode(feature.Rule{Feature: "Age", Operator: "?"})
	assert.ErrorIs(t, err, feature.ErrInvalidRule)
}

func TestRuleEncodeDecoderWithoutFeatures(t *testing.T) {
	red := NewRuleEncodeDecoder(nil)
	r, err := red.Decode([]byte(`{"f":"Anything","o":"==","t":"1"}`))
	require.NoError(t, err)
	assert.Equal(t, feature.Rule{Feature: "Anything", Operator: feature.Equal, Threshold: 1}, r)
}
