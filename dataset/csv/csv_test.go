package csv

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbanos/copse/dataset"
	"github.com/pbanos/copse/feature"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func titanicMetadata() *feature.Metadata {
	return &feature.Metadata{
		Label: "Survived",
		Features: []feature.Feature{
			feature.NewContinuousFeature("Pclass"),
			feature.NewDiscreteFeature("Sex", []string{"male", "female"}),
			feature.NewContinuousFeature("Age"),
			feature.NewDiscreteFeature("Embarked", []string{"S", "C", "Q"}),
		},
		Defaults: map[string]string{"Age": "28", "Embarked": "S"},
	}
}

const passengersCSV = `PassengerId,Survived,Pclass,Name,Sex,Age,Embarked
1,0,3,"Braund, Mr. Owen Harris",male,22,S
2,1,1,"Cumings, Mrs. John Bradley",female,38,C
3,,3,"Heikkinen, Miss. Laina",female,26,S
4,1,1,"Futrelle, Mrs. Jacques Heath",female,,
5,0,3,"Allen, Mr. William Henry",male,35,Q
`

func value(t *testing.T, s dataset.Sample, name string) float64 {
	t.Helper()
	v, err := s.ValueFor(name)
	require.NoError(t, err)
	return v
}

func TestReadSet(t *testing.T) {
	ds, err := ReadSet(strings.NewReader(passengersCSV), titanicMetadata())
	require.NoError(t, err)
	require.Equal(t, 4, ds.Count(), "rows without label are dropped")

	assert.Equal(t, []int{0, 1, 1, 0}, []int{ds[0].Label(), ds[1].Label(), ds[2].Label(), ds[3].Label()})
	assert.Equal(t, 1.0, value(t, ds[1], "Sex"))
	assert.Equal(t, 1.0, value(t, ds[1], "Embarked"))
	assert.Equal(t, 28.0, value(t, ds[2], "Age"), "missing age is imputed")
	assert.Equal(t, 0.0, value(t, ds[2], "Embarked"), "missing port is imputed")
	assert.Equal(t, 2.0, value(t, ds[3], "Embarked"))

	_, err = ds[0].ValueFor("Name")
	assert.ErrorIs(t, err, dataset.ErrUndefinedFeature)
	require.NoError(t, ds.Validate(titanicMetadata()))
}

func TestReadSetBySampleStops(t *testing.T) {
	var indexes []int
	err := ReadSetBySample(strings.NewReader(passengersCSV), titanicMetadata(), func(i int, _ dataset.Sample) (bool, error) {
		indexes = append(indexes, i)
		return i < 1, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, indexes)
}

func TestReadSetErrors(t *testing.T) {
	cases := map[string]string{
		"missing label":       "Pclass,Sex,Age,Embarked\n1,male,3,S\n",
		"missing feature":     "Survived,Pclass,Sex,Embarked\n1,1,male,S\n",
		"bad label":           "Survived,Pclass,Sex,Age,Embarked\n2,1,male,3,S\n",
		"bad category":        "Survived,Pclass,Sex,Age,Embarked\n1,1,robot,3,S\n",
		"bad number":          "Survived,Pclass,Sex,Age,Embarked\n1,first,male,3,S\n",
		"NaN number":          "Survived,Pclass,Sex,Age,Embarked\n1,1,male,NaN,S\n",
		"infinite number":     "Survived,Pclass,Sex,Age,Embarked\n1,1,male,-Inf,S\n",
		"missing no default":  "Survived,Pclass,Sex,Age,Embarked\n1,1,,3,S\n",
		"duplicated column":   "Survived,Pclass,Sex,Age,Age,Embarked\n1,1,male,3,3,S\n",
		"empty":               "",
		"inconsistent fields": "Survived,Pclass,Sex,Age,Embarked\n1,1,male\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadSet(strings.NewReader(content), titanicMetadata())
			assert.Error(t, err)
		})
	}
}

func TestWriteCSVSetRoundTrip(t *testing.T) {
	md := titanicMetadata()
	ds, err := ReadSet(strings.NewReader(passengersCSV), md)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, WriteCSVSet(context.Background(), &buf, ds, md))
	assert.Equal(t, "Pclass,Sex,Age,Embarked,Survived\n3,male,22,S,0\n1,female,38,C,1\n1,female,28,S,1\n3,male,35,Q,0\n", buf.String())

	again, err := ReadSet(&buf, md)
	require.NoError(t, err)
	require.Equal(t, ds.Count(), again.Count())
	for i := range ds {
		assert.Equal(t, ds[i].Label(), again[i].Label())
		for _, f := range md.Features {
			assert.Equal(t, value(t, ds[i], f.Name()), value(t, again[i], f.Name()))
		}
	}
}

func TestWriterCount(t *testing.T) {
	md := titanicMetadata()
	w, err := NewWriter(&bytes.Buffer{}, md)
	require.NoError(t, err)
	n, err := w.Write(context.Background(), []dataset.Sample{
		dataset.NewSample(map[string]float64{"Pclass": 1, "Sex": 0, "Age": 3, "Embarked": 0}, 1),
		dataset.NewSample(map[string]float64{"Pclass": 1}, 1),
	})
	assert.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, 1, w.Count())
}

func TestReadSetFromFilePath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "passengers.csv")
	require.NoError(t, os.WriteFile(path, []byte(passengersCSV), 0o644))
	ds, err := ReadSetFromFilePath(path, titanicMetadata())
	require.NoError(t, err)
	assert.Equal(t, 4, ds.Count())

	_, err = ReadSetFromFilePath(filepath.Join(t.TempDir(), "missing.csv"), titanicMetadata())
	assert.Error(t, err)
}
