package classifier

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
	"github.com/carteiralab/risk-engine/pkg/reasoning"
)

// assistedReply is the strict single-JSON-object schema expected from the
// reasoning service.
type assistedReply struct {
	Score                     int    `json:"score"`
	Justification             string `json:"justification"`
	RiskCategory              string `json:"risk_category"`
	CompatibleWithConservador bool   `json:"compatible_with_conservador"`
	CompatibleWithModerado    bool   `json:"compatible_with_moderado"`
	CompatibleWithArrojado    bool   `json:"compatible_with_arrojado"`
}

// assisted runs the reasoning-service strategy under a hard deadline and
// validates the reply against the shared record shape. Any parse or
// validation failure is returned as an error for the reconciliation rule
// to absorb; rate-limit and payment errors pass through untouched.
func (c *Classifier) assisted(ctx context.Context, ind model.RiskIndicators, ranges []model.InvestorProfileRange) (*model.RiskScoreRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.client.Complete(ctx, reasoning.Request{
		Model:       c.cfg.Model,
		MaxTokens:   c.cfg.MaxTokens,
		System:      systemPrompt,
		Prompt:      buildUserPrompt(ind, ranges),
		Temperature: &c.cfg.Temperature,
	})
	if err != nil {
		return nil, err
	}

	reply, err := parseAssistedReply(resp.Text)
	if err != nil {
		return nil, err
	}

	return &model.RiskScoreRecord{
		Score:                     reply.Score,
		Justification:             reply.Justification,
		RiskCategory:              model.RiskCategory(reply.RiskCategory),
		CompatibleWithConservador: reply.CompatibleWithConservador,
		CompatibleWithModerado:    reply.CompatibleWithModerado,
		CompatibleWithArrojado:    reply.CompatibleWithArrojado,
		ScoreSource:               model.ScoreSourceAssisted,
	}, nil
}

// parseAssistedReply strips code fences, parses the JSON object and
// validates it. A parse failure and an out-of-range score are treated
// identically: the reply is discarded whole, never partially salvaged.
func parseAssistedReply(text string) (*assistedReply, error) {
	cleaned := cleanJSON(text)

	var reply assistedReply
	if err := json.Unmarshal([]byte(cleaned), &reply); err != nil {
		return nil, eris.Wrapf(risk.ErrReasoningMalformedReply, "classifier: parse assisted reply: %v", err)
	}
	if reply.Score < minScore || reply.Score > maxScore {
		return nil, eris.Wrapf(risk.ErrReasoningMalformedReply, "classifier: assisted score %d outside [%d,%d]", reply.Score, minScore, maxScore)
	}
	switch model.RiskCategory(reply.RiskCategory) {
	case model.RiskBaixo, model.RiskModerado, model.RiskAlto:
	default:
		return nil, eris.Wrapf(risk.ErrReasoningMalformedReply, "classifier: unknown risk category %q", reply.RiskCategory)
	}
	return &reply, nil
}

// cleanJSON attempts to extract a JSON object from text that may contain
// markdown code fences or other wrapping.
func cleanJSON(text string) string {
	text = strings.TrimSpace(text)

	// Strip markdown code fences.
	if strings.HasPrefix(text, "```json") {
		text = strings.TrimPrefix(text, "```json")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	} else if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
	}

	// Find first { and last }.
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		text = text[start : end+1]
	}

	return strings.TrimSpace(text)
}

// reasonable lower bound so a zero-valued config cannot disable the
// deadline entirely.
const minTimeout = time.Second
