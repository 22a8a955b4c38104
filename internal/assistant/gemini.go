package assistant

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/sadopc/eod/internal/store"
)

const DefaultModel = "gemini-2.5-flash"

// Generator sends a single text prompt and returns the model's text.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type Config struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// Gemini implements Assistant on top of a Generator.
type Gemini struct {
	gen     Generator
	initErr error
	timeout time.Duration
	logger  *zap.Logger
}

// NewGemini builds the Gemini-backed assistant. A missing API key is not an
// error here; it is reported by the first call.
func NewGemini(ctx context.Context, cfg Config, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &Gemini{timeout: cfg.Timeout, logger: logger}
	if cfg.APIKey == "" {
		g.initErr = ErrNotConfigured
		return g
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		g.initErr = fmt.Errorf("create genai client: %w", err)
		return g
	}
	g.gen = &genaiGenerator{client: client, model: model}
	return g
}

// NewWithGenerator wires a custom generator, mostly for tests.
func NewWithGenerator(gen Generator, timeout time.Duration, logger *zap.Logger) *Gemini {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gemini{gen: gen, timeout: timeout, logger: logger}
}

func (g *Gemini) Summarize(ctx context.Context, report store.DailyReport) (string, error) {
	prompt, err := summaryPrompt(report)
	if err != nil {
		return "", err
	}
	return g.call(ctx, OpSummarize, prompt)
}

func (g *Gemini) Answer(ctx context.Context, reports []store.DailyReport, question string) (string, error) {
	if len(reports) == 0 {
		return NoDataAnswer, nil
	}
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	prompt, err := insightsPrompt(reports, question)
	if err != nil {
		return "", err
	}
	return g.call(ctx, OpAnswer, prompt)
}

func (g *Gemini) call(ctx context.Context, op Op, prompt string) (string, error) {
	if g.initErr != nil {
		return "", g.initErr
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := g.gen.Generate(ctx, prompt)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			g.logger.Debug("assistant request cancelled", zap.String("op", string(op)))
			return "", err
		}
		g.logger.Error("assistant request failed",
			zap.String("op", string(op)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err),
		)
		return "", &RequestError{Op: op, Err: err}
	}
	g.logger.Info("assistant request done",
		zap.String("op", string(op)),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("chars", len(text)),
	)
	return text, nil
}

type genaiGenerator struct {
	client *genai.Client
	model  string
}

func (g *genaiGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("empty response from model")
	}
	return text, nil
}
