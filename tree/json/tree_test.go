package json

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pbanos/copse/feature"
	fjson "github.com/pbanos/copse/feature/json"
	"github.com/pbanos/copse/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteAndReadJSONTrees(t *testing.T) {
	red := fjson.NewRuleEncodeDecoder(nil)
	t1 := tree.New("1", nil)
	require.NoError(t, t1.SetRule(feature.Rule{Feature: "Pclass", Operator: feature.LessThan, Threshold: 3}))
	t2 := tree.New("2", nil)
	t3 := tree.New("3", nil)
	require.NoError(t, t3.SetRule(feature.Rule{Feature: "Age", Operator: feature.GreaterOrEqual, Threshold: 16.5}))

	var buf bytes.Buffer
	require.NoError(t, WriteJSONTrees(&buf, []*tree.Tree{t1, t2, t3}, red))
	assert.JSONEq(t, `[
		{"id":"1","rule":{"f":"Pclass","o":"<","t":"3"}},
		{"id":"2","rule":null},
		{"id":"3","rule":{"f":"Age","o":">=","t":"16.5"}}
	]`, buf.String())

	rules, err := ReadJSONTrees(&buf, red)
	require.NoError(t, err)
	assert.Equal(t, map[string]feature.Rule{
		"1": {Feature: "Pclass", Operator: feature.LessThan, Threshold: 3},
		"3": {Feature: "Age", Operator: feature.GreaterOrEqual, Threshold: 16.5},
	}, rules)
}

func TestReadJSONTreesErrors(t *testing.T) {
	red := fjson.NewRuleEncodeDecoder([]feature.Feature{feature.NewContinuousFeature("Age")})
	for name, content := range map[string]string{
		"not json":        `{`,
		"no id":           `[{"rule":null}]`,
		"duplicated":      `[{"id":"1"},{"id":"1"}]`,
		"unknown feature": `[{"id":"1","rule":{"f":"Fare","o":"<","t":"3"}}]`,
		"bad threshold":   `[{"id":"1","rule":{"f":"Age","o":"<","t":"old"}}]`,
	} {
		_, err := ReadJSONTrees(strings.NewReader(content), red)
		assert.Error(t, err, name)
	}
}
