package exam

import (
	"math"

	"github.com/examforge/examforge/internal/model"
)

// Score computes the result for a set of displayed MCQs and the student's
// selections, keyed by display index. Questions with no determinable
// correct label are excluded from both the numerator and denominator and
// counted in Excluded. Pure function: re-invoking with the same inputs
// yields the same result.
func Score(questions []Parsed, selections map[int]string) model.ScoreResult {
	var res model.ScoreResult
	for i, q := range questions {
		if q.Correct == "" {
			res.Excluded++
			continue
		}
		res.Total++
		if selections[i] == q.Correct {
			res.Correct++
		}
	}
	if res.Total == 0 {
		return res
	}
	res.Scoreable = true
	res.Percentage = int(math.Round(float64(res.Correct) / float64(res.Total) * 100))
	return res
}
