package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pbanos/copse"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testMetadata = `label: Survived
features:
  Pclass: continuous
  Sex: [male, female]
  Age: continuous
defaults:
  Age: 28
`

const testPassengers = `PassengerId,Survived,Pclass,Name,Sex,Age
1,0,3,"Braund, Mr. Owen Harris",male,22
2,1,1,"Cumings, Mrs. John Bradley",female,38
3,1,3,"Heikkinen, Miss. Laina",female,26
4,1,1,"Futrelle, Mrs. Jacques Heath",female,35
5,0,3,"Allen, Mr. William Henry",male,35
6,0,3,"Moran, Mr. James",male,
7,0,1,"McCarthy, Mr. Timothy J",male,54
8,0,3,"Palsson, Master. Gosta Leonard",male,2
9,1,3,"Johnson, Mrs. Oscar W",female,27
10,1,2,"Nasser, Mrs. Nicholas",female,14
11,,3,"Unknown, Mr. Nobody",male,40
`

func writeTestFiles(t *testing.T) (string, string) {
	t.Helper()
	dir := t.TempDir()
	md := filepath.Join(dir, "titanic.yml")
	require.NoError(t, os.WriteFile(md, []byte(testMetadata), 0o644))
	input := filepath.Join(dir, "train.csv")
	require.NoError(t, os.WriteFile(input, []byte(testPassengers), 0o644))
	return md, input
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	cmd := cliParser()
	out := &bytes.Buffer{}
	cmd.SetOut(out)
	cmd.SetArgs(append([]string{"-c", filepath.Join(t.TempDir(), "missing.yml")}, args...))
	require.NoError(t, cmd.Execute())
	return out.String()
}

func TestEvaluateJSON(t *testing.T) {
	md, input := writeTestFiles(t)
	var report copse.Report
	out := run(t, "evaluate", "-m", md, "-i", input, "--seed", "7", "--json", "-r", "2:Sex == female")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "train", report.View)
	assert.Equal(t, 8, report.Count)
	assert.Equal(t, "Pclass < 3", report.Trees[0].Rule)
	assert.Equal(t, "Sex == female", report.Trees[1].Rule)
	for _, tr := range report.Trees {
		assert.True(t, tr.Configured)
		assert.Len(t, tr.Leaves, 4)
		assert.Equal(t, tr.TrainingAccuracy, tr.Accuracy)
	}

	out = run(t, "evaluate", "-m", md, "-i", input, "--seed", "7", "--json", "--test")
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "test", report.View)
	assert.Equal(t, 2, report.Count)
}

func TestEvaluateText(t *testing.T) {
	md, input := writeTestFiles(t)
	out := run(t, "evaluate", "-m", md, "-i", input, "--seed", "7")
	assert.Contains(t, out, "[Tree 1]")
	assert.Contains(t, out, "[Tree 3]")
	assert.Contains(t, out, "Ensemble train accuracy: ")
	assert.Contains(t, out, "Average individual train accuracy: ")
}

func TestRuleShow(t *testing.T) {
	md, _ := writeTestFiles(t)
	out := run(t, "rule", "show", "-m", md, "-s", "abc")
	assert.Equal(t, "Tree 1: Pclass < 3\nTree 2: Pclass < 3\nTree 3: Pclass < 3\n", out)

	out = run(t, "rule", "show", "-m", md, "-s", "abc", "--json")
	assert.Contains(t, out, `"id": "1"`)
	assert.Contains(t, out, `"f": "Pclass"`)
}

func TestSetSplit(t *testing.T) {
	md, input := writeTestFiles(t)
	dir := t.TempDir()
	train := filepath.Join(dir, "train.csv")
	test := filepath.Join(dir, "test.csv")
	run(t, "set", "split", "-m", md, "-i", input, "-o", train, "-s", test, "-r", "0.5", "--seed", "3")

	lines := func(path string) []string {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		return strings.Split(strings.TrimSpace(string(data)), "\n")
	}
	trainLines, testLines := lines(train), lines(test)
	assert.Equal(t, "Pclass,Sex,Age,Survived", trainLines[0])
	assert.Equal(t, trainLines[0], testLines[0])
	assert.Len(t, trainLines, 6)
	assert.Len(t, testLines, 6)
}

func TestSetDumpsCleanCSV(t *testing.T) {
	md, input := writeTestFiles(t)
	output := filepath.Join(t.TempDir(), "clean.csv")
	run(t, "set", "-m", md, "-i", input, "-o", output)
	data, err := os.ReadFile(output)
	require.NoError(t, err)
	rows := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, rows, 11)
	assert.Equal(t, "3,male,28,0", rows[6])
}

func TestSplitRuleFlag(t *testing.T) {
	n, expr, err := splitRuleFlag("2:Sex == female")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "Sex == female", expr)

	for _, bad := range []string{"Sex == female", "4:Age < 3", "x:Age < 3", "0:Age < 3"} {
		_, _, err = splitRuleFlag(bad)
		assert.Error(t, err, bad)
	}
}

func TestVersion(t *testing.T) {
	assert.Equal(t, "copse v0.1.0\n", run(t, "version"))
}

func TestEvaluateFromSQLite3(t *testing.T) {
	md, input := writeTestFiles(t)
	db := filepath.Join(t.TempDir(), "passengers.db")
	run(t, "set", "-m", md, "-i", input, "-o", db)

	var fromCSV, fromDB copse.Report
	require.NoError(t, json.Unmarshal([]byte(run(t, "evaluate", "-m", md, "-i", input, "--seed", "5", "--json", "-s", "x")), &fromCSV))
	require.NoError(t, json.Unmarshal([]byte(run(t, "evaluate", "-m", md, "-i", db, "--seed", "5", "--json", "-s", "x")), &fromDB))
	assert.Equal(t, fromCSV, fromDB)
}
