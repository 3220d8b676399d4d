package mongodataset

import (
	"testing"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/mgo.v2/bson"
)

func titanicMetadata() *feature.Metadata {
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

func TestSampleFromDoc(t *testing.T) {
	md := titanicMetadata()
	s, err := sampleFromDoc(md, bson.M{"_id": 1, "Survived": 1, "Pclass": int64(2), "Sex": "female", "Name": "Laina"})
	require.NoError(t, err)
	assert.Equal(t, 1, s.Label())
	for name, expected := range map[string]float64{"Pclass": 2, "Sex": 1, "Age": 28} {
		v, err := s.ValueFor(name)
		require.NoError(t, err)
		assert.Equal(t, expected, v, name)
	}

	s, err = sampleFromDoc(md, bson.M{"Survived": "0", "Pclass": 3.0, "Sex": 0, "Age": "4.5"})
	require.NoError(t, err)
	assert.Equal(t, 0, s.Label())
	age, err := s.ValueFor("Age")
	require.NoError(t, err)
	assert.Equal(t, 4.5, age)
}

func TestSampleFromDocErrors(t *testing.T) {
	md := titanicMetadata()
	docs := map[string]bson.M{
		"missing label":      {"Pclass": 1, "Sex": "male", "Age": 3},
		"bad label":          {"Survived": 3, "Pclass": 1, "Sex": "male", "Age": 3},
		"unknown category":   {"Survived": 1, "Pclass": 1, "Sex": "robot", "Age": 3},
		"bad code":           {"Survived": 1, "Pclass": 1, "Sex": 5, "Age": 3},
		"missing no default": {"Survived": 1, "Pclass": 1, "Age": 3},
		"unsupported type":   {"Survived": 1, "Pclass": []int{1}, "Sex": "male", "Age": 3},
	}
	for name, doc := range docs {
		_, err := sampleFromDoc(md, doc)
		assert.Error(t, err, name)
	}
}

func TestDocFromSample(t *testing.T) {
	md := titanicMetadata()
	doc, err := docFromSample(md, dataset.NewSample(map[string]float64{"Pclass": 1, "Sex": 1, "Age": 38}, 1))
	require.NoError(t, err)
	assert.Equal(t, bson.M{"Pclass": 1.0, "Sex": "female", "Age": 38.0, "Survived": 1}, doc)

	s, err := sampleFromDoc(md, doc)
	require.NoError(t, err)
	sex, err := s.ValueFor("Sex")
	require.NoError(t, err)
	assert.Equal(t, 1.0, sex)

	_, err = docFromSample(md, dataset.NewSample(map[string]float64{"Pclass": 1}, 1))
	assert.ErrorIs(t, err, dataset.ErrUndefinedFeature)
}
