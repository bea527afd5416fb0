package handler

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/examforge/examforge/internal/archive"
	"github.com/examforge/examforge/internal/cache"
	"github.com/examforge/examforge/internal/exam"
	"github.com/examforge/examforge/internal/llm"
	"github.com/examforge/examforge/internal/model"
)

const maxImageBytes = 10 << 20

// Gateway is the generative-AI boundary the handlers call. *llm.Client
// satisfies it; tests substitute a stub.
type Gateway interface {
	GenerateQuestions(ctx context.Context, req model.GenerateRequest) ([]llm.GeneratedQuestion, error)
	GenerateDiagram(ctx context.Context, prompt string) (string, error)
	SolveQuestion(ctx context.Context, question, subject string) (string, error)
	AnalyzeAnswer(ctx context.Context, question, subject, imageDataURI string) (string, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	gw      Gateway
	cache   *cache.Cache
	archive *archive.Store
	config  model.ServerConfig
}

// New creates a new Handler.
func New(gw Gateway, c *cache.Cache, a *archive.Store, cfg model.ServerConfig) *Handler {
	return &Handler{gw: gw, cache: c, archive: a, config: cfg}
}

// Routes registers all HTTP routes. Everything under /api answers with
// permissive cross-origin headers, matching what the browser front end
// expects.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/api", func(api chi.Router) {
		api.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "DELETE", "PATCH", "POST", "PUT", "OPTIONS"},
			AllowedHeaders: []string{"*"},
			MaxAge:         300,
		}))

		api.Get("/questions", h.handleFullPaper)
		api.Get("/questions/mcq", h.handleMCQ)
		api.Get("/questions/theory", h.handleTheory)
		api.Post("/questions/solve", h.handleSolve)
		api.Post("/answers/analyze", h.handleAnalyze)
		api.Post("/answers/theory/evaluate", h.handleEvaluate)
		api.Get("/papers", h.handleListPapers)
		api.Get("/papers/{paperID}", h.handleGetPaper)
		api.Post("/papers/{paperID}/score", h.handleScorePaper)
		api.Post("/admin/cache/purge", h.handlePurgeCache)
	})

	if h.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(h.config.StaticDir)))
	}
}

type questionsResponse struct {
	Questions []model.Question `json:"questions"`
}

func (h *Handler) handleMCQ(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "mcq", []model.QuestionKind{model.KindMCQ})
}

func (h *Handler) handleTheory(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "theory", []model.QuestionKind{model.KindTheory})
}

func (h *Handler) handleFullPaper(w http.ResponseWriter, r *http.Request) {
	h.generate(w, r, "full", nil)
}

func (h *Handler) generate(w http.ResponseWriter, r *http.Request, kindName string, kinds []model.QuestionKind) {
	board := r.URL.Query().Get("examBoard")
	subject := r.URL.Query().Get("subject")
	if board == "" || subject == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameters: examBoard and subject are required")
		return
	}
	if !model.ValidBoard(board) {
		respondError(w, http.StatusBadRequest, "Unknown exam board: "+board)
		return
	}
	if !model.ValidSubject(subject) {
		respondError(w, http.StatusBadRequest, "Unknown subject: "+subject)
		return
	}
	targetYear := 0
	if ys := r.URL.Query().Get("targetYear"); ys != "" {
		y, err := strconv.Atoi(ys)
		if err != nil {
			respondError(w, http.StatusBadRequest, "targetYear must be a number")
			return
		}
		targetYear = y
	}

	key := cache.Key{
		Board:      model.ExamBoard(board),
		Subject:    model.Subject(subject),
		TargetYear: targetYear,
		Kind:       kindName,
	}
	if payload, ok := h.cache.Get(key); ok {
		respondJSON(w, http.StatusOK, payload)
		return
	}

	// Generation outlives a dropped client connection on purpose: the
	// result is cached and archived either way.
	generated, err := h.gw.GenerateQuestions(context.Background(), model.GenerateRequest{
		Board:       model.ExamBoard(board),
		Subject:     model.Subject(subject),
		TargetYear:  targetYear,
		Kinds:       kinds,
		MCQCount:    h.config.MCQCount,
		TheoryCount: h.config.TheoryCount,
	})
	if err != nil {
		slog.Error("question generation failed", "error", err, "board", board, "subject", subject, "kind", kindName)
		respondError(w, http.StatusInternalServerError, "Failed to generate questions")
		return
	}

	questions := make([]model.Question, 0, len(generated))
	for _, g := range generated {
		q := g.Question
		if h.config.Diagrams && g.DiagramPrompt != "" {
			url, err := h.gw.GenerateDiagram(context.Background(), g.DiagramPrompt)
			if err != nil {
				// Never fatal: the question ships without its diagram.
				slog.Warn("diagram generation failed", "error", err)
			} else {
				q.DiagramURL = &url
			}
		}
		questions = append(questions, q)
	}

	payload := questionsResponse{Questions: questions}
	h.cache.Put(key, payload)

	if h.archive != nil {
		if _, err := h.archive.SavePaper(model.Paper{
			Board:      model.ExamBoard(board),
			Subject:    model.Subject(subject),
			TargetYear: targetYear,
			Kind:       kindName,
			Questions:  questions,
		}); err != nil {
			slog.Error("archive paper failed", "error", err)
		}
	}

	respondJSON(w, http.StatusOK, payload)
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	subject := r.FormValue("subject")
	if question == "" || subject == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameters: question and subject are required")
		return
	}

	solution, err := h.gw.SolveQuestion(context.Background(), question, subject)
	if err != nil {
		slog.Error("solve question failed", "error", err, "subject", subject)
		respondError(w, http.StatusInternalServerError, "Failed to solve question")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"solution": solution})
}

func (h *Handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	subject := r.FormValue("subject")
	if question == "" || subject == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameters: question and subject are required")
		return
	}

	dataURI, err := h.answerImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if dataURI == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameter: answerImage")
		return
	}

	feedback, err := h.gw.AnalyzeAnswer(context.Background(), question, subject, dataURI)
	if err != nil {
		slog.Error("answer analysis failed", "error", err, "subject", subject)
		respondError(w, http.StatusInternalServerError, "Failed to analyze answer")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"feedback": feedback})
}

func (h *Handler) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	question := r.FormValue("question")
	subject := r.FormValue("subject")
	answer := r.FormValue("answer")

	dataURI, err := h.answerImage(r)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	hasImage := dataURI != ""

	if question == "" || subject == "" || (answer == "" && !hasImage) {
		respondError(w, http.StatusBadRequest,
			"Missing required parameters: question, subject, and either answer text or image are required")
		return
	}

	var solution string
	if hasImage {
		q := question
		if answer != "" {
			q += "\n\nThe student also typed this answer:\n" + answer
		}
		solution, err = h.gw.AnalyzeAnswer(context.Background(), q, subject, dataURI)
	} else {
		full := fmt.Sprintf("Question: %s\n\nStudent's Answer: %s", question, answer)
		solution, err = h.gw.SolveQuestion(context.Background(), full, subject)
	}
	if err != nil {
		slog.Error("theory evaluation failed", "error", err, "subject", subject, "image", hasImage)
		respondError(w, http.StatusInternalServerError, "Failed to evaluate theory answer")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"solution":      solution,
		"imageReceived": hasImage,
	})
}

func (h *Handler) handleListPapers(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if ls := r.URL.Query().Get("limit"); ls != "" {
		l, err := strconv.Atoi(ls)
		if err != nil {
			respondError(w, http.StatusBadRequest, "limit must be a number")
			return
		}
		limit = l
	}

	infos, err := h.archive.ListPapers(limit)
	if err != nil {
		slog.Error("list papers failed", "error", err)
		respondError(w, http.StatusInternalServerError, "Failed to list papers")
		return
	}
	if infos == nil {
		infos = []model.PaperInfo{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"papers": infos})
}

func (h *Handler) handleGetPaper(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid paper ID")
		return
	}

	paper, err := h.archive.GetPaper(id)
	if errors.Is(err, archive.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Paper not found")
		return
	}
	if err != nil {
		slog.Error("get paper failed", "error", err, "paper_id", id)
		respondError(w, http.StatusInternalServerError, "Failed to load paper")
		return
	}
	respondJSON(w, http.StatusOK, paper)
}

// handleScorePaper grades the submitted label selections against the
// archived paper's MCQs. Selections arrive as a JSON object mapping the
// display index of each MCQ to the chosen label.
func (h *Handler) handleScorePaper(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "paperID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid paper ID")
		return
	}

	raw := r.FormValue("answers")
	if raw == "" {
		respondError(w, http.StatusBadRequest, "Missing required parameter: answers")
		return
	}
	var byIndex map[string]string
	if err := json.Unmarshal([]byte(raw), &byIndex); err != nil {
		respondError(w, http.StatusBadRequest, "answers must be a JSON object of index to label")
		return
	}
	selections := make(map[int]string, len(byIndex))
	for k, v := range byIndex {
		idx, err := strconv.Atoi(k)
		if err != nil {
			respondError(w, http.StatusBadRequest, "answers keys must be question indices")
			return
		}
		selections[idx] = v
	}

	paper, err := h.archive.GetPaper(id)
	if errors.Is(err, archive.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Paper not found")
		return
	}
	if err != nil {
		slog.Error("get paper failed", "error", err, "paper_id", id)
		respondError(w, http.StatusInternalServerError, "Failed to load paper")
		return
	}

	var parsed []exam.Parsed
	for _, q := range paper.Questions {
		if q.Kind != model.KindMCQ {
			continue
		}
		parsed = append(parsed, exam.Parse(q.Text))
	}

	respondJSON(w, http.StatusOK, exam.Score(parsed, selections))
}

// answerImage extracts the uploaded answer image, if any, as a data URI.
// It accepts either a file upload or an already-encoded data URI form
// value under the same field name.
func (h *Handler) answerImage(r *http.Request) (string, error) {
	file, header, err := r.FormFile("answerImage")
	if err != nil {
		if v := r.FormValue("answerImage"); len(v) > 5 && v[:5] == "data:" {
			return v, nil
		}
		return "", nil
	}
	defer file.Close()
	return encodeImage(file, header)
}

func encodeImage(file multipart.File, header *multipart.FileHeader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
	if err != nil {
		return "", fmt.Errorf("read answer image: %w", err)
	}
	if len(data) > maxImageBytes {
		return "", fmt.Errorf("answer image exceeds %d bytes", maxImageBytes)
	}
	mime := header.Header.Get("Content-Type")
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, msg string) {
	respondJSON(w, status, map[string]string{"error": msg})
}
