package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/metrics"
)

// Invoker turns a staged document into an HTML analysis with a single
// generation attempt.
type Invoker struct {
	gen     interfaces.Generator
	timeout time.Duration
	log     *slog.Logger
}

// NewInvoker creates an invoker. A zero timeout leaves the call bounded only by ctx.
func NewInvoker(gen interfaces.Generator, timeout time.Duration, log *slog.Logger) *Invoker {
	return &Invoker{gen: gen, timeout: timeout, log: log}
}

// Analyze runs the generation for party over the file at filePath. Every
// failure, including a timeout or an empty answer, wraps ErrGenerationFailed.
func (i *Invoker) Analyze(ctx context.Context, party string, filePath string) (string, error) {
	if i.gen == nil {
		return "", fmt.Errorf("%w: generator not configured", interfaces.ErrGenerationFailed)
	}

	if i.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, i.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := i.gen.Generate(ctx, BuildInstruction(party), filePath)
	metrics.RecordGeneration(time.Since(start), err == nil)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			i.log.Warn("Generation timed out", slog.Duration("timeout", i.timeout))
		}
		return "", fmt.Errorf("%w: %v", interfaces.ErrGenerationFailed, err)
	}

	html := StripCodeFences(out)
	if strings.TrimSpace(html) == "" {
		return "", fmt.Errorf("%w: empty response", interfaces.ErrGenerationFailed)
	}

	i.log.Debug("Generation finished", slog.Duration("took", time.Since(start)), slog.Int("chars", len(html)))
	return html, nil
}
