package archive

import (
	"errors"
	"testing"

	"github.com/examforge/examforge/internal/model"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(":memory:")
	if err != nil {
		t.Fatalf("newTestStore: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func saveTestPaper(t *testing.T, s *Store, kind string, questions ...model.Question) int64 {
	t.Helper()
	id, err := s.SavePaper(model.Paper{
		Board:      model.BoardIGCSE,
		Subject:    model.SubjectPhysics,
		TargetYear: 2026,
		Kind:       kind,
		Questions:  questions,
	})
	if err != nil {
		t.Fatalf("saveTestPaper: %v", err)
	}
	return id
}

func TestSaveAndGetPaper(t *testing.T) {
	s := newTestStore(t)

	count, err := s.PaperCount()
	if err != nil {
		t.Fatalf("PaperCount: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected empty archive, got %d papers", count)
	}

	id := saveTestPaper(t, s, "mcq",
		model.Question{Kind: model.KindMCQ, Text: "Q1\nA) 1\nB) 2*\nC) 3\nD) 4"},
		model.Question{Kind: model.KindMCQ, Text: "Q2\nA) x\nB) y\nC) z*\nD) w"},
	)

	p, err := s.GetPaper(id)
	if err != nil {
		t.Fatalf("GetPaper: %v", err)
	}
	if p.Board != model.BoardIGCSE || p.Subject != model.SubjectPhysics {
		t.Errorf("paper metadata mismatch: %+v", p)
	}
	if p.TargetYear != 2026 {
		t.Errorf("target year = %d, want 2026", p.TargetYear)
	}
	if len(p.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(p.Questions))
	}
	if p.Questions[1].Kind != model.KindMCQ {
		t.Errorf("question kind lost in round trip: %+v", p.Questions[1])
	}
	if p.CreatedAt.IsZero() {
		t.Error("created_at was not set")
	}
}

func TestGetPaperNotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetPaper(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPapersNewestFirst(t *testing.T) {
	s := newTestStore(t)
	first := saveTestPaper(t, s, "mcq", model.Question{Kind: model.KindMCQ, Text: "old"})
	second := saveTestPaper(t, s, "theory",
		model.Question{Kind: model.KindTheory, Text: "new 1"},
		model.Question{Kind: model.KindTheory, Text: "new 2"},
	)

	infos, err := s.ListPapers(10)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(infos) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(infos))
	}
	if infos[0].ID != second || infos[1].ID != first {
		t.Errorf("papers not newest first: %+v", infos)
	}
	if infos[0].QuestionCount != 2 {
		t.Errorf("question count = %d, want 2", infos[0].QuestionCount)
	}
}

func TestListPapersLimit(t *testing.T) {
	s := newTestStore(t)
	for i := 0; i < 5; i++ {
		saveTestPaper(t, s, "mcq", model.Question{Kind: model.KindMCQ, Text: "q"})
	}
	infos, err := s.ListPapers(3)
	if err != nil {
		t.Fatalf("ListPapers: %v", err)
	}
	if len(infos) != 3 {
		t.Errorf("expected 3 papers with limit, got %d", len(infos))
	}
}

func TestExportAllOldestFirst(t *testing.T) {
	s := newTestStore(t)
	first := saveTestPaper(t, s, "mcq", model.Question{Kind: model.KindMCQ, Text: "q1"})
	second := saveTestPaper(t, s, "mcq", model.Question{Kind: model.KindMCQ, Text: "q2"})

	papers, err := s.ExportAll()
	if err != nil {
		t.Fatalf("ExportAll: %v", err)
	}
	if len(papers) != 2 {
		t.Fatalf("expected 2 papers, got %d", len(papers))
	}
	if papers[0].ID != first || papers[1].ID != second {
		t.Errorf("papers not oldest first: %d, %d", papers[0].ID, papers[1].ID)
	}
}
