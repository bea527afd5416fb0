// Package prompts builds the instruction text sent to the model for
// question generation, solving, and handwritten-answer analysis.
package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"sync"
	"text/template"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// DiagramStyleSuffix is appended to every diagram prompt before it is sent
// to the image model.
const DiagramStyleSuffix = " - simple, clean, black and white, exam-standard, for a test paper"

var (
	loadOnce sync.Once
	loadErr  error
	tmpls    *template.Template
)

func load() error {
	loadOnce.Do(func() {
		tmpls, loadErr = template.ParseFS(templateFS, "templates/*.tmpl")
	})
	return loadErr
}

// GenerateData holds template data for the question-generation prompt.
type GenerateData struct {
	Board       string
	Subject     string
	TargetYear  int
	OnlyMCQ     bool
	OnlyTheory  bool
	MCQCount    int
	TheoryCount int
}

// SolveData holds template data for the solution prompt.
type SolveData struct {
	Question string
	Subject  string
}

// AnalyzeData holds template data for the handwritten-answer analysis prompt.
type AnalyzeData struct {
	Question string
	Subject  string
}

// Generate renders the question-generation prompt.
func Generate(data GenerateData) (string, error) {
	return render("generate.tmpl", data)
}

// Solve renders the step-by-step solution prompt.
func Solve(data SolveData) (string, error) {
	return render("solve.tmpl", data)
}

// Analyze renders the answer-analysis prompt. The student's answer image
// travels separately as a multimodal message part.
func Analyze(data AnalyzeData) (string, error) {
	return render("analyze.tmpl", data)
}

func render(name string, data any) (string, error) {
	if err := load(); err != nil {
		return "", fmt.Errorf("load prompt templates: %w", err)
	}
	var buf bytes.Buffer
	if err := tmpls.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}
