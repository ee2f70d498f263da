// Package analysis coordinates one capture-analysis request: remote health
// check, streaming upload, remote analyze, and the local-engine fallback.
//
// The flow is an explicit state machine rather than nested error handling,
// so the two load-bearing behaviors — the error-event-then-recover sequence
// and the dual-context failure — hold structurally:
//
//	idle → upload → analyze → done
//	  \________\________\→ fallback → done (local success)
//	                          └→ dual-context failure
package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/pokymono/kisame-sub001/internal/backend"
	"github.com/pokymono/kisame-sub001/internal/engine"
	"github.com/pokymono/kisame-sub001/internal/progress"
)

// Request is one analysis submission. Immutable once passed to Run.
type Request struct {
	Path       string
	ClientID   string
	MaxPackets int
	SkipHash   bool
}

// Remote is the backend reached over HTTP, already bound to a resolved URL.
type Remote interface {
	TsharkVersion(ctx context.Context) (backend.TsharkHealth, error)
	UploadPcap(ctx context.Context, path, clientID string, emit progress.Func) (string, error)
	AnalyzePcap(ctx context.Context, sessionID string, maxPackets int) (json.RawMessage, error)
}

// Local is the subprocess fallback engine.
type Local interface {
	Analyze(ctx context.Context, req engine.Request) (json.RawMessage, error)
}

// FallbackError reports that both execution paths failed. Diagnosing a dual
// failure requires both halves, so neither is ever dropped.
type FallbackError struct {
	Remote error
	Local  error
}

func (e *FallbackError) Error() string {
	return fmt.Sprintf("remote analysis failed (%v); local fallback failed (%v)", e.Remote, e.Local)
}

func (e *FallbackError) Unwrap() []error { return []error{e.Remote, e.Local} }

type state int

const (
	stateIdle state = iota
	stateUpload
	stateAnalyze
	stateFallback
	stateDone
)

// Orchestrator runs analysis requests. Safe for concurrent use; all
// per-request state lives in Run.
type Orchestrator struct {
	remote Remote
	local  Local
}

func New(remote Remote, local Local) *Orchestrator {
	return &Orchestrator{remote: remote, local: local}
}

// Run executes one request to completion, pushing progress events to sink.
// Any remote failure routes through the fallback state instead of
// terminating the request; only a failure of BOTH paths returns an error.
// No timeout is imposed here — the caller bounds latency via ctx.
func (o *Orchestrator) Run(ctx context.Context, req Request, sink progress.Func) (json.RawMessage, error) {
	emit := progress.NewEmitter(sink)

	var (
		payload   json.RawMessage
		remoteErr error
		sessionID string
	)

	st := stateIdle
	for {
		switch st {
		case stateIdle:
			health, err := o.remote.TsharkVersion(ctx)
			switch {
			case err != nil:
				remoteErr = fmt.Errorf("backend health check: %w", err)
				st = stateFallback
			case !health.Resolved:
				remoteErr = errors.New("remote decoder unavailable")
				st = stateFallback
			default:
				log.Debug().Str("tshark_path", health.TsharkPath).Msg("remote decoder available")
				st = stateUpload
			}

		case stateUpload:
			id, err := o.remote.UploadPcap(ctx, req.Path, req.ClientID, emit.Emit)
			if err != nil {
				remoteErr = err
				st = stateFallback
				continue
			}
			sessionID = id
			st = stateAnalyze

		case stateAnalyze:
			emit.Emit(progress.Event{Stage: progress.StageAnalyze, Message: "analyzing capture"})
			p, err := o.remote.AnalyzePcap(ctx, sessionID, req.MaxPackets)
			if err != nil {
				remoteErr = err
				st = stateFallback
				continue
			}
			payload = p
			st = stateDone

		case stateFallback:
			// Surface the remote failure before recovering so the user sees
			// the degraded path even when the request ultimately succeeds.
			log.Warn().Err(remoteErr).Msg("remote analysis failed, invoking local engine")
			emit.Emit(progress.Event{Stage: progress.StageError, Message: remoteErr.Error()})

			p, err := o.local.Analyze(ctx, engine.Request{
				Path:       req.Path,
				MaxPackets: req.MaxPackets,
				SkipHash:   req.SkipHash,
			})
			if err != nil {
				return nil, &FallbackError{Remote: remoteErr, Local: err}
			}
			payload = p
			st = stateDone

		case stateDone:
			emit.Emit(progress.Event{Stage: progress.StageDone, Percent: 100})
			return payload, nil
		}
	}
}
