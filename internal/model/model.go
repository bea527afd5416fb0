package model

import "time"

// ExamBoard identifies the examination board a paper is generated for.
type ExamBoard string

const (
	BoardIGCSE ExamBoard = "IGCSE"
	BoardWAEC  ExamBoard = "WAEC"
)

// Subject is a school subject supported by the generator.
type Subject string

const (
	SubjectMathematics Subject = "Mathematics"
	SubjectBiology     Subject = "Biology"
	SubjectPhysics     Subject = "Physics"
	SubjectChemistry   Subject = "Chemistry"
)

// QuestionKind distinguishes multiple-choice from structured questions.
type QuestionKind string

const (
	KindMCQ    QuestionKind = "MCQ"
	KindTheory QuestionKind = "Theory"
)

// ValidBoard reports whether s names a supported exam board.
func ValidBoard(s string) bool {
	switch ExamBoard(s) {
	case BoardIGCSE, BoardWAEC:
		return true
	}
	return false
}

// ValidSubject reports whether s names a supported subject.
func ValidSubject(s string) bool {
	switch Subject(s) {
	case SubjectMathematics, SubjectBiology, SubjectPhysics, SubjectChemistry:
		return true
	}
	return false
}

// Question is one generated exam question. Immutable after generation;
// the MCQ option structure lives inside Text and is recovered by the
// exam package when needed. DiagramURL is nil when no diagram exists.
type Question struct {
	Kind       QuestionKind `json:"questionType"`
	Text       string       `json:"questionText"`
	DiagramURL *string      `json:"diagramUrl"`
}

// GenerateRequest describes one call to the question generator.
type GenerateRequest struct {
	Board       ExamBoard
	Subject     Subject
	TargetYear  int // 0 means no target year
	Kinds       []QuestionKind
	MCQCount    int
	TheoryCount int
}

// WantsKind reports whether the request asks for questions of kind k.
// An empty Kinds slice means all kinds.
func (r GenerateRequest) WantsKind(k QuestionKind) bool {
	if len(r.Kinds) == 0 {
		return true
	}
	for _, want := range r.Kinds {
		if want == k {
			return true
		}
	}
	return false
}

// Paper is one archived generation result.
type Paper struct {
	ID         int64      `json:"id"`
	Board      ExamBoard  `json:"examBoard"`
	Subject    Subject    `json:"subject"`
	TargetYear int        `json:"targetYear,omitempty"`
	Kind       string     `json:"kind"`
	Questions  []Question `json:"questions"`
	CreatedAt  time.Time  `json:"createdAt"`
}

// PaperInfo is a paper listing entry without the question bodies.
type PaperInfo struct {
	ID            int64     `json:"id"`
	Board         ExamBoard `json:"examBoard"`
	Subject       Subject   `json:"subject"`
	TargetYear    int       `json:"targetYear,omitempty"`
	Kind          string    `json:"kind"`
	QuestionCount int       `json:"questionCount"`
	CreatedAt     time.Time `json:"createdAt"`
}

// ScoreResult is the outcome of scoring a set of MCQ selections.
// Scoreable is false when no question had a determinable correct
// label; Percentage carries no meaning in that case.
type ScoreResult struct {
	Correct    int  `json:"correctCount"`
	Total      int  `json:"totalCount"`
	Excluded   int  `json:"excludedCount"`
	Percentage int  `json:"percentage"`
	Scoreable  bool `json:"scoreable"`
}

// ServerConfig holds runtime parameters set via CLI flags.
type ServerConfig struct {
	MCQCount    int
	TheoryCount int
	CacheTTL    time.Duration
	Diagrams    bool   // render an illustrative diagram when the model asks for one
	StaticDir   string // directory with the SPA build, empty disables static serving
	AdminHash   []byte // bcrypt hash of the admin password, empty disables admin routes
}

// ExamExport is the top-level structure produced by the export command.
type ExamExport struct {
	ExportedAt time.Time `json:"exported_at"`
	Papers     []Paper   `json:"papers"`
}
