package analysis

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeModel struct {
	resp   *genai.GenerateContentResponse
	err    error
	prompt string
}

func (f *fakeModel) GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, p := range parts {
		if t, ok := p.(genai.Text); ok {
			f.prompt += string(t)
		}
	}
	return f.resp, f.err
}

func textResponse(chunks ...string) *genai.GenerateContentResponse {
	parts := make([]genai.Part, 0, len(chunks))
	for _, c := range chunks {
		parts = append(parts, genai.Text(c))
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: parts}}},
	}
}

func writeDoc(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "contrato.txt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestGeminiGenerate(t *testing.T) {
	model := &fakeModel{resp: textResponse("<h2>Análise</h2>", "<p>ok</p>")}
	g := &GeminiGenerator{model: model, name: "test", log: quietLogger()}

	out, err := g.Generate(context.Background(), "INSTRUÇÃO", writeDoc(t, "Contrato de locação"))
	require.NoError(t, err)

	assert.Equal(t, "<h2>Análise</h2><p>ok</p>", out)
	assert.Equal(t, "INSTRUÇÃO\n\nConteúdo do Documento:\n\nContrato de locação", model.prompt)
}

func TestGeminiGenerateErrors(t *testing.T) {
	t.Run("model error", func(t *testing.T) {
		g := &GeminiGenerator{model: &fakeModel{err: errors.New("blocked")}, log: quietLogger()}
		_, err := g.Generate(context.Background(), "x", writeDoc(t, "Contrato"))
		assert.Error(t, err)
	})

	t.Run("unreadable document never reaches the model", func(t *testing.T) {
		model := &fakeModel{resp: textResponse("<p>ok</p>")}
		g := &GeminiGenerator{model: model, log: quietLogger()}
		_, err := g.Generate(context.Background(), "x", filepath.Join(t.TempDir(), "missing"))
		assert.Error(t, err)
		assert.Empty(t, model.prompt)
	})
}

func TestResponseText(t *testing.T) {
	assert.Equal(t, "", responseText(nil))
	assert.Equal(t, "", responseText(&genai.GenerateContentResponse{}))
	assert.Equal(t, "b", responseText(&genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: nil}, {Content: &genai.Content{Parts: []genai.Part{genai.Text("b")}}}},
	}))
}

func TestNewGeminiGeneratorRequiresKey(t *testing.T) {
	_, err := NewGeminiGenerator(context.Background(), "", "", quietLogger())
	assert.Error(t, err)
}
