package json

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/pbanos/copse/feature"
)

/*
RuleEncodeDecoder is an interface for objects
that allow encoding rules into slices of
bytes and decoding them back to rules.
*/
type RuleEncodeDecoder interface {

	//Encode receives a feature.Rule
	//and returns a slice of bytes with the rule
	//encoded or an error if the encoding could not
	//be performed for some reason.
	Encode(feature.Rule) ([]byte, error)

	//Decode receives a slice of bytes
	//and returns a feature.Rule decoded from the
	//slice of bytes or an error if the decoding
	//could not be performed for some reason.
	Decode([]byte) (feature.Rule, error)
}

type jsonRuleEncodeDecoder []feature.Feature

type jsonRule struct {
	Feature   string `json:"f"`
	Operator  string `json:"o"`
	Threshold string `json:"t"`
}

// NewRuleEncodeDecoder takes a slice of feature.Feature and returns a
// RuleEncodeDecoder that marshals and unmarshals
// rules into/from slices of bytes as JSON.
// Specifically, rules are encoded as a JSON object
// with an "f" property set to the name of the feature
// of the rule, an "o" property with its operator and
// a "t" property with its threshold as a string.
// Decoding fails for rules on features not in the
// given slice, unless it is empty.
func NewRuleEncodeDecoder(features []feature.Feature) RuleEncodeDecoder {
	return jsonRuleEncodeDecoder(features)
}

func (jed jsonRuleEncodeDecoder) Encode(r feature.Rule) ([]byte, error) {
	err := r.Validate()
	if err != nil {
		return nil, err
	}
	return json.Marshal(&jsonRule{
		Feature:   r.Feature,
		Operator:  string(r.Operator),
		Threshold: strconv.FormatFloat(r.Threshold, 'g', -1, 64),
	})
}

func (jed jsonRuleEncodeDecoder) Decode(data []byte) (feature.Rule, error) {
	jr := &jsonRule{}
	err := json.Unmarshal(data, jr)
	if err != nil {
		return feature.Rule{}, err
	}
	return jr.Rule(jed)
}

func (jr *jsonRule) Rule(features []feature.Feature) (feature.Rule, error) {
	if len(features) > 0 {
		var found bool
		for _, f := range features {
			if f.Name() == jr.Feature {
				found = true
				break
			}
		}
		if !found {
			return feature.Rule{}, fmt.Errorf("unknown feature '%s'", jr.Feature)
		}
	}
	op, err := feature.ParseOperator(jr.Operator)
	if err != nil {
		return feature.Rule{}, err
	}
	t, err := strconv.ParseFloat(jr.Threshold, 64)
	if err != nil {
		return feature.Rule{}, fmt.Errorf("%w: parsing threshold: %v", feature.ErrInvalidRule, err)
	}
	return feature.NewRule(jr.Feature, op, t)
}
