package classifier

import (
	"context"
	"testing"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carteiralab/risk-engine/internal/config"
	"github.com/carteiralab/risk-engine/internal/model"
	"github.com/carteiralab/risk-engine/internal/risk"
	"github.com/carteiralab/risk-engine/pkg/reasoning"
)

// fakeReasoningClient returns a canned reply or error.
type fakeReasoningClient struct {
	text    string
	err     error
	lastReq reasoning.Request
}

func (f *fakeReasoningClient) Complete(_ context.Context, req reasoning.Request) (*reasoning.Response, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &reasoning.Response{Text: f.text}, nil
}

func testReasoningConfig() config.ReasoningConfig {
	return config.ReasoningConfig{
		Model:       "claude-sonnet-4-5-20250929",
		MaxTokens:   1024,
		Temperature: 0.2,
		TimeoutSecs: 15,
	}
}

func testBands() []model.InvestorProfileRange {
	return []model.InvestorProfileRange{
		{ProfileName: model.ProfileConservador, MinScore: 1, MaxScore: 9},
		{ProfileName: model.ProfileModerado, MinScore: 6, MaxScore: 15},
		{ProfileName: model.ProfileArrojado, MinScore: 11, MaxScore: 20},
	}
}

const validReply = `{
	"score": 13,
	"justification": "Volatilidade elevada para o porte do investimento.",
	"risk_category": "Moderado",
	"compatible_with_conservador": false,
	"compatible_with_moderado": true,
	"compatible_with_arrojado": true
}`

func TestClassifyAssistedSuccess(t *testing.T) {
	client := &fakeReasoningClient{text: validReply}
	c := New(client, testReasoningConfig())

	rec, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.NoError(t, err)

	assert.Equal(t, 13, rec.Score)
	assert.Equal(t, model.RiskModerado, rec.RiskCategory)
	assert.Equal(t, model.ScoreSourceAssisted, rec.ScoreSource)
	assert.True(t, rec.CompatibleWithModerado)

	// The request carries the configured model and a capped temperature.
	assert.Equal(t, "claude-sonnet-4-5-20250929", client.lastReq.Model)
	require.NotNil(t, client.lastReq.Temperature)
	assert.Equal(t, 0.2, *client.lastReq.Temperature)
}

func TestClassifyAssistedFencedReply(t *testing.T) {
	client := &fakeReasoningClient{text: "```json\n" + validReply + "\n```"}
	c := New(client, testReasoningConfig())

	rec, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.NoError(t, err)
	assert.Equal(t, 13, rec.Score)
	assert.Equal(t, model.ScoreSourceAssisted, rec.ScoreSource)
}

func TestClassifyMalformedReplyFallsBack(t *testing.T) {
	client := &fakeReasoningClient{text: "desculpe, não consigo responder em JSON"}
	c := New(client, testReasoningConfig())

	ind := indicators(0.95, 0.85, 5.0, 0.08)
	rec, err := c.Classify(context.Background(), ind, testBands())
	require.NoError(t, err, "malformed reply degrades, it does not fail")
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource)
	assert.Equal(t, Deterministic(ind), rec.Score)
}

func TestClassifyOutOfRangeScoreFallsBack(t *testing.T) {
	client := &fakeReasoningClient{text: `{"score": 42, "justification": "x", "risk_category": "Alto"}`}
	c := New(client, testReasoningConfig())

	ind := indicators(0.1, 2.0, 15.0, 0.30)
	rec, err := c.Classify(context.Background(), ind, testBands())
	require.NoError(t, err)
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource, "no partial salvage of an invalid reply")
	assert.Equal(t, Deterministic(ind), rec.Score)
}

func TestClassifyUnknownCategoryFallsBack(t *testing.T) {
	client := &fakeReasoningClient{text: `{"score": 10, "justification": "x", "risk_category": "Altíssimo"}`}
	c := New(client, testReasoningConfig())

	rec, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.NoError(t, err)
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource)
}

func TestClassifyTransportErrorFallsBack(t *testing.T) {
	client := &fakeReasoningClient{err: eris.New("connection reset")}
	c := New(client, testReasoningConfig())

	rec, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.NoError(t, err)
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource)
}

func TestClassifyRateLimitIsTerminal(t *testing.T) {
	client := &fakeReasoningClient{err: reasoning.ErrRateLimited}
	c := New(client, testReasoningConfig())

	_, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.Error(t, err)
	assert.True(t, eris.Is(err, risk.ErrReasoningRateLimited), "rate limit must not silently degrade")
}

func TestClassifyPaymentRequiredIsTerminal(t *testing.T) {
	client := &fakeReasoningClient{err: reasoning.ErrPaymentRequired}
	c := New(client, testReasoningConfig())

	_, err := c.Classify(context.Background(), indicators(0.95, 0.85, 5.0, 0.08), testBands())
	require.Error(t, err)
	assert.True(t, eris.Is(err, risk.ErrReasoningPaymentRequired))
}

func TestClassifyNilClientIsDeterministic(t *testing.T) {
	c := New(nil, testReasoningConfig())

	ind := indicators(2.5, 0.3, 1.0, 0.02)
	rec, err := c.Classify(context.Background(), ind, testBands())
	require.NoError(t, err)
	assert.Equal(t, model.ScoreSourceDeterministic, rec.ScoreSource)
	assert.Equal(t, 3, rec.Score)
	assert.Equal(t, model.RiskBaixo, rec.RiskCategory)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"json fence", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare fence", "```\n{\"a\":1}\n```", `{"a":1}`},
		{"prose wrapped", `Segue o resultado: {"a":1} conforme pedido.`, `{"a":1}`},
		{"no object", "nada aqui", "nada aqui"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cleanJSON(tt.in))
		})
	}
}

func TestBuildUserPromptMentionsIndicatorsAndBands(t *testing.T) {
	prompt := buildUserPrompt(indicators(0.95, 0.85, 5.0, 0.08), testBands())

	assert.Contains(t, prompt, "0.95")
	assert.Contains(t, prompt, "Conservador")
	assert.Contains(t, prompt, "Arrojado")
	assert.Contains(t, prompt, "1 a 9")
}
