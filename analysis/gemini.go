package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model name is configured.
const DefaultGeminiModel = "gemini-flash-latest"

type textModel interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiGenerator extracts the document text locally and sends it together
// with the instruction to a Gemini model.
type GeminiGenerator struct {
	client *genai.Client
	model  textModel
	name   string
	log    *slog.Logger
}

// NewGeminiGenerator creates a client for modelName authenticated with apiKey.
func NewGeminiGenerator(ctx context.Context, apiKey, modelName string, log *slog.Logger) (*GeminiGenerator, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if modelName == "" {
		modelName = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiGenerator{
		client: client,
		model:  client.GenerativeModel(modelName),
		name:   modelName,
		log:    log,
	}, nil
}

// Generate implements interfaces.Generator.
func (g *GeminiGenerator) Generate(ctx context.Context, instruction string, filePath string) (string, error) {
	text, err := ExtractText(filePath)
	if err != nil {
		return "", err
	}

	prompt := instruction + "\n\nConteúdo do Documento:\n\n" + text
	g.log.Debug("Sending prompt to Gemini", slog.String("model", g.name), slog.Int("document_chars", len(text)))

	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("gemini request failed: %w", err)
	}
	return responseText(resp), nil
}

// Close releases the underlying client.
func (g *GeminiGenerator) Close() error {
	if g.client == nil {
		return nil
	}
	return g.client.Close()
}

// responseText joins the text parts of the first candidate that has content.
func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		var sb strings.Builder
		for _, part := range cand.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				sb.WriteString(string(t))
			}
		}
		if sb.Len() > 0 {
			return sb.String()
		}
	}
	return ""
}
