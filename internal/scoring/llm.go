package scoring

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"dealflow/internal/models"
	"dealflow/pkg/logger"

	"go.uber.org/zap"
)

var (
	ErrEmptyResponse = errors.New("scoring model returned empty response")
	ErrMissingScore  = errors.New("scoring model response has no numeric score")
)

// Completer sends one prompt to a language model and returns its text answer.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// systemInstruction is shared by every model-backed strategy.
const systemInstruction = `You evaluate resale deals for a deal sourcing team.
Rate how attractive the listing is for a buyer who wants to acquire below market and resell.
Favor urgency, discount and liquidation language, hints of resale margin, and recent postings.
Be conservative when the listing is vague or information is missing.
Respond with strict JSON only, no markdown: {"score": <number between 0 and 1>, "reason": "<one short sentence>"}`

// LLMStrategy scores deals with any Completer.
type LLMStrategy struct {
	name      string
	completer Completer
	logger    *zap.Logger
}

func NewLLMStrategy(name string, completer Completer, log *zap.Logger) *LLMStrategy {
	if log == nil {
		log = zap.NewNop()
	}
	return &LLMStrategy{name: name, completer: completer, logger: log}
}

func (s *LLMStrategy) Name() string { return s.name }

func (s *LLMStrategy) Score(ctx context.Context, deal *models.Deal) (float64, string, error) {
	if s.completer == nil {
		return 0, "", fmt.Errorf("%s: not configured", s.name)
	}

	raw, err := s.completer.Complete(ctx, buildPrompt(deal))
	if err != nil {
		return 0, "", fmt.Errorf("%s: %w", s.name, err)
	}

	score, reason, err := parseScore(raw)
	if err != nil {
		s.logger.Debug("Unparseable scoring response",
			zap.String("strategy", s.name),
			zap.String("raw", logger.TruncateForLog(raw, 300)),
		)
		return 0, "", fmt.Errorf("%s: %w", s.name, err)
	}

	return score, reason, nil
}

type dealSummary struct {
	Category    string   `json:"category"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Price       *float64 `json:"price"`
	Currency    string   `json:"currency,omitempty"`
	Location    string   `json:"location"`
	PostedAt    string   `json:"posted_at,omitempty"`
	SourceURL   string   `json:"source_url"`
}

func buildPrompt(deal *models.Deal) string {
	summary := dealSummary{
		Category:    string(deal.Category),
		Title:       deal.Title,
		Description: logger.TruncateForLog(deal.Description, 2000),
		Price:       deal.Price,
		Currency:    deal.Currency,
		Location:    joinNonEmpty(", ", deal.City, deal.Region, deal.Country),
		SourceURL:   deal.SourceURL,
	}
	if deal.PostedAt != nil {
		summary.PostedAt = deal.PostedAt.UTC().Format("2006-01-02T15:04:05Z")
	}

	payload, _ := json.MarshalIndent(summary, "", "  ")
	return "Deal:\n" + string(payload) + "\n\nJSON Response:"
}

func parseScore(raw string) (float64, string, error) {
	cleaned := extractJSON(raw)
	if cleaned == "" {
		return 0, "", ErrEmptyResponse
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return 0, "", fmt.Errorf("parse scoring response: %w", err)
	}

	score := coerceFloat(data["score"])
	if math.IsNaN(score) || math.IsInf(score, 0) {
		return 0, "", ErrMissingScore
	}

	reason, _ := data["reason"].(string)
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "llm"
	}

	return clamp01(score), reason, nil
}

// extractJSON strips markdown fences and any prose around the first JSON object.
func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
