package analysis

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGenerator struct {
	out   string
	err   error
	delay time.Duration

	calls           int
	lastInstruction string
	lastPath        string
}

func (f *fakeGenerator) Generate(ctx context.Context, instruction string, filePath string) (string, error) {
	f.calls++
	f.lastInstruction = instruction
	f.lastPath = filePath
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return f.out, f.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInvokerAnalyze(t *testing.T) {
	testCases := []struct {
		name    string
		gen     *fakeGenerator
		timeout time.Duration
		want    string
		wantErr bool
	}{
		{
			name: "plain html",
			gen:  &fakeGenerator{out: "<h2>Análise</h2>"},
			want: "<h2>Análise</h2>",
		},
		{
			name: "fenced html is stripped",
			gen:  &fakeGenerator{out: "```html\n<h2>Análise</h2>\n```"},
			want: "<h2>Análise</h2>",
		},
		{
			name:    "generator error",
			gen:     &fakeGenerator{err: errors.New("quota exceeded")},
			wantErr: true,
		},
		{
			name:    "empty output",
			gen:     &fakeGenerator{out: "   \n"},
			wantErr: true,
		},
		{
			name:    "empty fenced output",
			gen:     &fakeGenerator{out: "```html\n\n```"},
			wantErr: true,
		},
		{
			name:    "timeout",
			gen:     &fakeGenerator{out: "<p>late</p>", delay: time.Second},
			timeout: 10 * time.Millisecond,
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inv := NewInvoker(tc.gen, tc.timeout, quietLogger())

			got, err := inv.Analyze(context.Background(), "contratante", "/tmp/doc.pdf")
			assert.Equal(t, 1, tc.gen.calls, "exactly one generation attempt")
			if tc.wantErr {
				assert.ErrorIs(t, err, interfaces.ErrGenerationFailed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
			assert.Equal(t, "/tmp/doc.pdf", tc.gen.lastPath)
			assert.Contains(t, tc.gen.lastInstruction, "**contratante**")
		})
	}
}

func TestInvokerWithoutGenerator(t *testing.T) {
	inv := NewInvoker(nil, time.Second, quietLogger())

	_, err := inv.Analyze(context.Background(), "contratante", "/tmp/doc.pdf")
	assert.ErrorIs(t, err, interfaces.ErrGenerationFailed)
}
