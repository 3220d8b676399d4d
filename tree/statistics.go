package tree

import (
	"fmt"
	"math"

	"github.com/pbanos/copse/dataset"
)

/*
Statistics summarize the survival of a group of passengers:
how many there are and how many of them survived.
*/
type Statistics struct {
	Total    int `json:"total"`
	Survived int `json:"survived"`
}

/*
NewStatistics takes a dataset and returns its statistics.
*/
func NewStatistics(ds dataset.Dataset) Statistics {
	s := Statistics{Total: ds.Count()}
	for _, sample := range ds {
		if sample.Label() == 1 {
			s.Survived++
		}
	}
	return s
}

/*
Rate returns the ratio of survivors, which is 0 for empty groups. It is
0 exactly when nobody in the group survived and 1 exactly when everybody
did.
*/
func (s Statistics) Rate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Survived) / float64(s.Total)
}

/*
SurvivalRatePercent returns the survival rate as a percentage rounded to one
decimal. It is meant for display only: large groups with very few survivors
show 0 and ones with very few deaths show 100, so use Rate to tell those
apart.
*/
func (s Statistics) SurvivalRatePercent() float64 {
	return math.Round(s.Rate()*1000) / 10
}

/*
Prediction returns 1 when strictly more than half of the group survived
and 0 otherwise.
*/
func (s Statistics) Prediction() int {
	if 2*s.Survived > s.Total {
		return 1
	}
	return 0
}

func (s Statistics) String() string {
	return fmt.Sprintf("%d passengers, %v%% survived", s.Total, s.SurvivalRatePercent())
}

/*
PredictionLabel returns a human readable name for a prediction
*/
func PredictionLabel(p int) string {
	if p == 1 {
		return "Survived"
	}
	return "Died"
}
