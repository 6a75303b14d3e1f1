package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/google/uuid"
	"github.com/ruteri/contract-analysis-backend/delivery"
	"github.com/ruteri/contract-analysis-backend/interfaces"
	"github.com/ruteri/contract-analysis-backend/metrics"
	"github.com/ruteri/contract-analysis-backend/staging"
)

// DefaultAttachmentName is used when the upload carries no filename.
const DefaultAttachmentName = "contrato"

type Authorizer interface {
	Authorize(ctx context.Context, userID, voucher, party string) (interfaces.Decision, error)
}

type Stager interface {
	Acquire(declaredName string, content []byte) (*staging.StagedFile, error)
	Release(f *staging.StagedFile)
}

type Analyzer interface {
	Analyze(ctx context.Context, party string, filePath string) (string, error)
}

// Deliverer must not fail: every delivery problem is reported in the outcome.
type Deliverer interface {
	Send(ctx context.Context, msg interfaces.Message) interfaces.DeliveryOutcome
}

// Dependencies are the collaborators of one Orchestrator, constructed once at
// startup and shared by all requests.
type Dependencies struct {
	Gate     Authorizer
	Stager   Stager
	Analyzer Analyzer
	Notifier Deliverer
	Log      *slog.Logger
}

// Orchestrator runs the gate, stage, analyze, deliver and clean pipeline for
// one analysis request at a time. It holds no per-request state and is safe
// for concurrent use.
type Orchestrator struct {
	deps Dependencies
	log  *slog.Logger
}

func New(deps Dependencies) *Orchestrator {
	return &Orchestrator{deps: deps, log: deps.Log}
}

type run struct {
	log    *slog.Logger
	states []State
}

func (r *run) enter(s State) {
	r.states = append(r.states, s)
	r.log.Debug("Orchestration state", slog.String("state", string(s)))
}

// Run processes req. It never panics and never returns an error: every result,
// including unexpected internal failures, is reported as an Outcome. A staged
// file is always released before Run returns.
func (o *Orchestrator) Run(ctx context.Context, req interfaces.AnalysisRequest) (out Outcome) {
	requestID := uuid.NewString()
	r := &run{log: o.log.With(slog.String("request_id", requestID), slog.String("user_id", req.UserID))}
	r.enter(StateStart)

	var (
		decision interfaces.Decision
		staged   *staging.StagedFile
	)

	defer func() {
		if p := recover(); p != nil {
			r.log.Error("Orchestration panicked", slog.Any("panic", p), slog.String("stack", string(debug.Stack())))
			r.enter(StateInternalError)
			out = Outcome{Kind: OutcomeInternalError, Decision: decision, Err: fmt.Errorf("internal error: %v", p)}
		}

		if staged != nil {
			o.deps.Stager.Release(staged)
			r.enter(StateCleaned)
		}
		r.enter(StateResponded)

		out.RequestID = requestID
		out.Trace = r.states
		metrics.RecordOutcome(string(out.Kind))

		if out.Err != nil {
			r.log.Warn("Analysis request failed", slog.String("outcome", string(out.Kind)), "err", out.Err)
		} else {
			r.log.Info("Analysis request completed",
				slog.String("path", string(out.Decision.Path)),
				slog.Bool("delivered", out.Delivered()))
		}
	}()

	decision, err := o.deps.Gate.Authorize(ctx, req.UserID, req.Voucher, req.Party)
	if err != nil {
		metrics.RecordAuthorization("unavailable")
		if errors.Is(err, interfaces.ErrLedgerUnavailable) {
			r.enter(StateUnavailable)
			return Outcome{Kind: OutcomeUnavailable, Err: err}
		}
		r.enter(StateInternalError)
		return Outcome{Kind: OutcomeInternalError, Err: err}
	}
	metrics.RecordAuthorization(string(decision.Path))

	if !decision.Allow {
		r.enter(StateDenied)
		return Outcome{Kind: OutcomeDenied, Decision: decision, Err: errors.New(decision.Reason)}
	}
	r.enter(StateGateChecked)

	if len(req.FileContent) == 0 {
		r.enter(StateClientError)
		return Outcome{Kind: OutcomeClientError, Decision: decision, Err: interfaces.ErrEmptyUpload}
	}

	staged, err = o.deps.Stager.Acquire(req.FileName, req.FileContent)
	if err != nil {
		if errors.Is(err, interfaces.ErrEmptyUpload) {
			r.enter(StateClientError)
			return Outcome{Kind: OutcomeClientError, Decision: decision, Err: err}
		}
		r.enter(StateInternalError)
		return Outcome{Kind: OutcomeInternalError, Decision: decision, Err: err}
	}
	r.enter(StateFileStaged)

	html, err := o.deps.Analyzer.Analyze(ctx, req.Party, staged.Path())
	if err != nil {
		if !errors.Is(err, interfaces.ErrGenerationFailed) {
			err = fmt.Errorf("%w: %v", interfaces.ErrGenerationFailed, err)
		}
		r.enter(StateGenerationFailed)
		return Outcome{Kind: OutcomeGenerationFailed, Decision: decision, Err: err}
	}
	r.enter(StateAnalyzed)

	attachment, err := staged.ReadAll()
	if err != nil {
		r.enter(StateInternalError)
		return Outcome{Kind: OutcomeInternalError, Decision: decision, Err: fmt.Errorf("failed to read staged file: %w", err)}
	}

	attachmentName := staged.Name()
	if attachmentName == "" {
		attachmentName = DefaultAttachmentName
	}

	result := o.deps.Notifier.Send(ctx, interfaces.Message{
		To:             req.RequesterEmail,
		Subject:        delivery.Subject,
		HTMLBody:       html,
		AttachmentName: attachmentName,
		Attachment:     attachment,
	})
	if result.Delivered {
		r.enter(StateDelivered)
	} else {
		r.enter(StateDeliveryFailed)
	}

	return Outcome{Kind: OutcomeSucceeded, Decision: decision, HTML: html, Delivery: &result}
}
