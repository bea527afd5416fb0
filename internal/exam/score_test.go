package exam

import (
	"testing"
)

func mcq(correct string) Parsed {
	p := Parsed{
		Stem: "stem",
		Options: []Option{
			{Label: "A", Text: "one"},
			{Label: "B", Text: "two"},
			{Label: "C", Text: "three"},
			{Label: "D", Text: "four"},
		},
	}
	p.Correct = correct
	return p
}

func TestScorePartialSelections(t *testing.T) {
	questions := []Parsed{mcq("A"), mcq("B"), mcq("C")}
	// Question 1 has no selection at all.
	selections := map[int]string{0: "A", 2: "C"}

	res := Score(questions, selections)
	if !res.Scoreable {
		t.Fatal("expected result to be scoreable")
	}
	if res.Correct != 2 || res.Total != 3 {
		t.Errorf("got %d/%d, want 2/3", res.Correct, res.Total)
	}
	if res.Excluded != 0 {
		t.Errorf("excluded = %d, want 0", res.Excluded)
	}
	if res.Percentage != 67 {
		t.Errorf("percentage = %d, want 67 (2/3 rounded)", res.Percentage)
	}
}

func TestScoreExcludesUnmarkedQuestions(t *testing.T) {
	questions := []Parsed{mcq("A"), mcq(""), mcq("C")}
	selections := map[int]string{0: "A", 1: "B", 2: "D"}

	res := Score(questions, selections)
	if res.Total != 2 {
		t.Errorf("total = %d, want 2 (unmarked question excluded)", res.Total)
	}
	if res.Correct != 1 {
		t.Errorf("correct = %d, want 1", res.Correct)
	}
	if res.Excluded != 1 {
		t.Errorf("excluded = %d, want 1", res.Excluded)
	}
	if res.Percentage != 50 {
		t.Errorf("percentage = %d, want 50", res.Percentage)
	}
}

func TestScoreNoScoreableQuestions(t *testing.T) {
	questions := []Parsed{mcq(""), mcq("")}
	res := Score(questions, map[int]string{0: "A", 1: "B"})
	if res.Scoreable {
		t.Error("expected unscoreable result")
	}
	if res.Percentage != 0 || res.Correct != 0 || res.Total != 0 {
		t.Errorf("unexpected counts in unscoreable result: %+v", res)
	}
	if res.Excluded != 2 {
		t.Errorf("excluded = %d, want 2", res.Excluded)
	}
}

func TestScoreEmpty(t *testing.T) {
	res := Score(nil, nil)
	if res.Scoreable {
		t.Error("empty input must not be scoreable")
	}
}

func TestScoreIdempotent(t *testing.T) {
	questions := []Parsed{mcq("A"), mcq("D")}
	selections := map[int]string{0: "A", 1: "B"}
	first := Score(questions, selections)
	second := Score(questions, selections)
	if first != second {
		t.Errorf("scoring not idempotent: %+v vs %+v", first, second)
	}
}
