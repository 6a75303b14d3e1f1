package analysis

import (
	"fmt"
	"strings"
)

// Signature is the closing line every analysis must end with.
const Signature = "Atenciosamente,<br>Dra. Cláusula"

// DefaultParty is used when the request does not name a perspective.
const DefaultParty = "contratante"

const instructionTemplate = `## Instrução para Análise de Contrato
Você é a "Dra. Cláusula", uma especialista em análise de contratos. Sua tarefa é analisar o contrato fornecido, focando nos interesses e na segurança jurídica da parte especificada.

### Contexto da Análise:
- O contrato deve ser analisado sob a perspectiva da parte: **%s**.
- **Adapte a análise ao tipo de contrato fornecido.**

### Estrutura obrigatória:
1. **Identificação das partes**: quem são as partes e qual o papel de cada uma.
2. **Obrigações**: obrigações principais de cada parte, com destaque para as da parte analisada.
3. **Pontos críticos e riscos**: cláusulas desequilibradas, ambíguas ou que exponham a parte analisada.
4. **Inadimplemento e penalidades**: multas, rescisão, juros e demais consequências do descumprimento.
5. **Sugestões de redação**: reescreva as cláusulas problemáticas e proponha cláusulas adicionais que protejam a parte analisada.

### Formato:
- Responda em **HTML** (apenas o fragmento, sem <html>, <head> ou <body>), sem saudações iniciais.
- Use títulos (<h2>), listas (<ul>), parágrafos (<p>) e negrito (<strong>).
- Não envolva a resposta em blocos de código.
- **Finalize com:** %s
`

// BuildInstruction renders the analysis instruction for the given party.
func BuildInstruction(party string) string {
	party = strings.TrimSpace(party)
	if party == "" {
		party = DefaultParty
	}
	return fmt.Sprintf(instructionTemplate, party, Signature)
}

// StripCodeFences removes a single fenced block wrapping the whole text, such
// as "```html\n<h2>...</h2>\n```". The inner content is returned byte for byte;
// text that is not entirely fenced is returned unchanged.
func StripCodeFences(s string) string {
	const fence = "```"

	t := strings.TrimSpace(s)
	if len(t) < 2*len(fence) || !strings.HasPrefix(t, fence) || !strings.HasSuffix(t, fence) {
		return s
	}

	firstNL := strings.IndexByte(t, '\n')
	if firstNL < 0 || firstNL+1 > len(t)-len(fence) {
		return s
	}
	// The opening line may only carry a language tag.
	if strings.Contains(t[len(fence):firstNL], fence) {
		return s
	}

	inner := t[firstNL+1 : len(t)-len(fence)]
	if strings.HasSuffix(inner, "\r\n") {
		return inner[:len(inner)-2]
	}
	return strings.TrimSuffix(inner, "\n")
}
