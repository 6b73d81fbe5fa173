// Package analysis assesses Lastenheft quality and extracts open questions
// and required skills through three concurrent LLM calls joined into one
// structured response.
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/emposo/cvision/internal/llm"
	"github.com/emposo/cvision/internal/types"
)

const (
	analysisTemperature = 0.3
	analysisMaxTokens   = 2000
)

// ErrNotInitialized indicates the analyzer was constructed without an LLM
// client. Deployment configuration error, never retried.
var ErrNotInitialized = errors.New("lastenheft analyzer not initialized")

// Analyzer fans a Lastenheft text out to the quality, question, and skill
// analysis stages.
type Analyzer struct {
	llm    llm.Client
	logger *zap.Logger
}

// NewAnalyzer creates an Analyzer backed by the given LLM client.
func NewAnalyzer(client llm.Client, logger *zap.Logger) *Analyzer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Analyzer{llm: client, logger: logger}
}

// Analyze runs the three analysis stages concurrently and joins them into one
// response. The operation is all-or-nothing: a requirements analysis missing
// any facet is unusable, so the first stage failure cancels the others and
// fails the whole call with the failing stage named.
func (a *Analyzer) Analyze(ctx context.Context, text string) (*types.AnalysisResponse, error) {
	if a.llm == nil {
		return nil, ErrNotInitialized
	}

	var (
		quality   types.QualityScore
		questions []types.OpenQuestion
		skills    []types.ExtractedSkill
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		q, err := a.assessQuality(gctx, text)
		if err != nil {
			return fmt.Errorf("quality assessment: %w", err)
		}
		quality = q
		return nil
	})
	g.Go(func() error {
		qs, err := a.extractQuestions(gctx, text)
		if err != nil {
			return fmt.Errorf("question extraction: %w", err)
		}
		questions = qs
		return nil
	})
	g.Go(func() error {
		sk, err := a.extractSkills(gctx, text)
		if err != nil {
			return fmt.Errorf("skill extraction: %w", err)
		}
		skills = sk
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.logger.Info("lastenheft analyzed",
		zap.Int("quality_overall", quality.Overall),
		zap.Int("questions", len(questions)),
		zap.Int("skills", len(skills)),
	)

	return &types.AnalysisResponse{
		QualityAssessment: quality,
		OpenQuestions:     questions,
		ExtractedSkills:   skills,
	}, nil
}

// callJSON issues one forced-JSON analysis call and decodes the result into
// out. Empty or non-JSON responses are errors; the caller names the stage.
func (a *Analyzer) callJSON(ctx context.Context, systemPrompt, text string, out any) error {
	raw, err := a.llm.GenerateJSON(ctx, systemPrompt, text, llm.GenerateOptions{
		Temperature:     analysisTemperature,
		MaxOutputTokens: analysisMaxTokens,
	})
	if err != nil {
		return fmt.Errorf("llm call failed: %w", err)
	}
	if raw == "" {
		return fmt.Errorf("empty response from llm")
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		return fmt.Errorf("failed to parse llm json response: %w", err)
	}
	return nil
}

func (a *Analyzer) assessQuality(ctx context.Context, text string) (types.QualityScore, error) {
	var quality types.QualityScore
	if err := a.callJSON(ctx, qualitySystemPrompt, text, &quality); err != nil {
		return types.QualityScore{}, err
	}
	return quality, nil
}

func (a *Analyzer) extractQuestions(ctx context.Context, text string) ([]types.OpenQuestion, error) {
	// The questions list may legitimately be empty; only the envelope field
	// is required.
	var payload struct {
		Questions []types.OpenQuestion `json:"questions"`
	}
	if err := a.callJSON(ctx, questionsSystemPrompt, text, &payload); err != nil {
		return nil, err
	}
	if payload.Questions == nil {
		payload.Questions = []types.OpenQuestion{}
	}
	return payload.Questions, nil
}

func (a *Analyzer) extractSkills(ctx context.Context, text string) ([]types.ExtractedSkill, error) {
	var payload struct {
		Skills []types.ExtractedSkill `json:"skills"`
	}
	if err := a.callJSON(ctx, skillsSystemPrompt, text, &payload); err != nil {
		return nil, err
	}
	if payload.Skills == nil {
		payload.Skills = []types.ExtractedSkill{}
	}
	return payload.Skills, nil
}
