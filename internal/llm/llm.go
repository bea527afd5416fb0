// Package llm is the gateway to the external generative-AI service for
// question text, solutions, answer feedback, and diagram images.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/examforge/examforge/internal/llm/prompts"
	"github.com/examforge/examforge/internal/model"

	openai "github.com/sashabaranov/go-openai"
)

// ErrGenerationFailed marks any upstream failure of the generation service.
// Callers translate it to a generic error response; the detail stays in
// server logs.
var ErrGenerationFailed = errors.New("generation failed")

// GeneratedQuestion is one question as produced by the model, carrying the
// diagram prompt separately from the question text.
type GeneratedQuestion struct {
	Question      model.Question
	DiagramPrompt string
}

// Client wraps an OpenAI-compatible API client.
type Client struct {
	api        *openai.Client
	model      string
	imageModel string
}

// New creates a new LLM client.
func New(baseURL, apiKey, modelName, imageModel string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:        openai.NewClientWithConfig(config),
		model:      modelName,
		imageModel: imageModel,
	}
}

// Ping verifies the endpoint is reachable and credentials work.
func (c *Client) Ping(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("list models: %w", err)
	}
	return nil
}

// generationOutput mirrors the JSON shape the generation prompt demands.
type generationOutput struct {
	Questions []generatedEntry `json:"questions"`
}

type generatedEntry struct {
	QuestionType  string  `json:"questionType"`
	QuestionText  string  `json:"questionText"`
	DiagramPrompt *string `json:"diagramPrompt"`
}

// GenerateQuestions asks the model for one batch of exam questions. The
// response is validated against a JSON Schema before unmarshalling, then
// filtered and truncated to the requested kinds and counts; the model
// returning fewer questions than asked for is not an error.
func (c *Client) GenerateQuestions(ctx context.Context, req model.GenerateRequest) ([]GeneratedQuestion, error) {
	prompt, err := prompts.Generate(prompts.GenerateData{
		Board:       string(req.Board),
		Subject:     string(req.Subject),
		TargetYear:  req.TargetYear,
		OnlyMCQ:     len(req.Kinds) == 1 && req.Kinds[0] == model.KindMCQ,
		OnlyTheory:  len(req.Kinds) == 1 && req.Kinds[0] == model.KindTheory,
		MCQCount:    req.MCQCount,
		TheoryCount: req.TheoryCount,
	})
	if err != nil {
		return nil, fmt.Errorf("build generation prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: prompt},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Temperature: 0.7,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: chat completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}

	raw := []byte(resp.Choices[0].Message.Content)
	slog.Debug("generation response", "bytes", len(raw))

	if err := validateGeneration(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, err)
	}
	var out generationOutput
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("%w: parse response: %v", ErrGenerationFailed, err)
	}

	return selectQuestions(out, req), nil
}

// selectQuestions applies the request's kind filter and per-kind counts as
// a safety net over whatever the model actually produced, preserving the
// model's relative order.
func selectQuestions(out generationOutput, req model.GenerateRequest) []GeneratedQuestion {
	mcqLeft := req.MCQCount
	theoryLeft := req.TheoryCount

	var selected []GeneratedQuestion
	for _, entry := range out.Questions {
		kind := model.QuestionKind(entry.QuestionType)
		if !req.WantsKind(kind) {
			continue
		}
		switch kind {
		case model.KindMCQ:
			if req.MCQCount > 0 && mcqLeft == 0 {
				continue
			}
			mcqLeft--
		case model.KindTheory:
			if req.TheoryCount > 0 && theoryLeft == 0 {
				continue
			}
			theoryLeft--
		default:
			continue
		}

		var diagramPrompt string
		if entry.DiagramPrompt != nil {
			diagramPrompt = *entry.DiagramPrompt
		}
		selected = append(selected, GeneratedQuestion{
			Question: model.Question{
				Kind: kind,
				Text: entry.QuestionText,
			},
			DiagramPrompt: diagramPrompt,
		})
	}
	return selected
}

// GenerateDiagram renders one exam diagram and returns it as a data URI.
func (c *Client) GenerateDiagram(ctx context.Context, prompt string) (string, error) {
	resp, err := c.api.CreateImage(ctx, openai.ImageRequest{
		Prompt:         prompt + prompts.DiagramStyleSuffix,
		Model:          c.imageModel,
		N:              1,
		Size:           openai.CreateImageSize512x512,
		ResponseFormat: openai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		return "", fmt.Errorf("create image: %w", err)
	}
	if len(resp.Data) == 0 {
		return "", fmt.Errorf("no image in response")
	}
	return "data:image/png;base64," + resp.Data[0].B64JSON, nil
}

// SolveQuestion returns a detailed HTML solution for one question. The
// returned markup comes from an external, only partially trusted source
// and must be treated as display-only content.
func (c *Client) SolveQuestion(ctx context.Context, question, subject string) (string, error) {
	prompt, err := prompts.Solve(prompts.SolveData{Question: question, Subject: subject})
	if err != nil {
		return "", fmt.Errorf("build solve prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}
	return resp.Choices[0].Message.Content, nil
}

// AnalyzeAnswer sends the question together with an image of the student's
// handwritten answer and returns HTML feedback.
func (c *Client) AnalyzeAnswer(ctx context.Context, question, subject, imageDataURI string) (string, error) {
	prompt, err := prompts.Analyze(prompts.AnalyzeData{Question: question, Subject: subject})
	if err != nil {
		return "", fmt.Errorf("build analyze prompt: %w", err)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role: openai.ChatMessageRoleUser,
				MultiContent: []openai.ChatMessagePart{
					{Type: openai.ChatMessagePartTypeText, Text: prompt},
					{
						Type:     openai.ChatMessagePartTypeImageURL,
						ImageURL: &openai.ChatMessageImageURL{URL: imageDataURI},
					},
				},
			},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("%w: chat completion: %v", ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("%w: no choices in response", ErrGenerationFailed)
	}
	return resp.Choices[0].Message.Content, nil
}
