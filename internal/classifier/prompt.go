package classifier

import (
	"fmt"
	"strings"

	"github.com/carteiralab/risk-engine/internal/model"
)

// systemPrompt fixes the reply contract: exactly one JSON object, no prose.
const systemPrompt = `Você é um analista de risco de investimentos. Responda APENAS com um único objeto JSON válido, sem texto adicional, no formato:
{"score": <inteiro de 1 a 20>, "justification": "<explicação breve em português>", "risk_category": "<Baixo|Moderado|Alto>", "compatible_with_conservador": <bool>, "compatible_with_moderado": <bool>, "compatible_with_arrojado": <bool>}`

const userPromptTemplate = `Classifique o risco de um investimento usando a metodologia ponderada de quatro indicadores, com pesos: índice de Sharpe 30%%, beta 35%%, VaR 95%% 25%%, desvio padrão 10%%.

Faixas de referência por indicador (quanto maior a faixa, maior o sub-score de risco):
- Índice de Sharpe: acima de 2 risco muito baixo; entre 1 e 2 risco baixo; entre 0,5 e 1 risco moderado; abaixo de 0,5 risco alto.
- Beta: abaixo de 0,5 risco muito baixo; entre 0,5 e 1 risco baixo; entre 1 e 1,5 risco moderado; acima de 1,5 risco alto.
- VaR 95%% (%% do valor investido): abaixo de 3%% risco muito baixo; entre 3%% e 7%% risco baixo; entre 7%% e 12%% risco moderado; acima de 12%% risco alto.
- Desvio padrão anualizado: abaixo de 3%% risco muito baixo; entre 3%% e 6%% risco baixo; entre 6%% e 10%% risco moderado; acima de 10%% risco alto.

Indicadores calculados do investimento:
- Índice de Sharpe: %.4f
- Beta: %.4f
- VaR 95%%: %.2f%% do valor investido (R$ %.2f)
- Desvio padrão anualizado: %.2f%%
- Retorno esperado anualizado: %.2f%%

Faixas de pontuação dos perfis de investidor:
%s

A pontuação final deve ser um inteiro de 1 (risco mínimo) a 20 (risco máximo). Preencha os campos de compatibilidade conforme a pontuação cair dentro de cada faixa de perfil.`

// buildUserPrompt renders the indicator values and current profile bands
// into the natural-language description of the scoring methodology.
func buildUserPrompt(ind model.RiskIndicators, ranges []model.InvestorProfileRange) string {
	var bands strings.Builder
	for _, r := range ranges {
		fmt.Fprintf(&bands, "- %s: %d a %d\n", r.ProfileName, r.MinScore, r.MaxScore)
	}
	return fmt.Sprintf(userPromptTemplate,
		ind.SharpeRatio,
		ind.Beta,
		ind.VaRPct(),
		ind.VaR95,
		ind.StdDeviation*100,
		ind.ExpectedReturn*100,
		strings.TrimRight(bands.String(), "\n"),
	)
}
