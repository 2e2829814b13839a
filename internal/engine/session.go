package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/roach88/isolate/internal/ir"
)

// SessionConfig wires a Session.
type SessionConfig struct {
	Registry Registry
	Feedback Feedback
	Store    StateStore

	// IDs generates session IDs. Defaults to UUIDv7Generator.
	IDs SessionIDGenerator

	// Clock stamps session records. Defaults to SystemClock.
	Clock Clock

	// Surface, if set, is opened for the duration of the search.
	Surface Surface

	// Resume continues a pending session instead of refusing to start.
	Resume bool

	Logger *slog.Logger
}

// Outcome is what a finished session reports.
type Outcome struct {
	SessionID string           `json:"session_id"`
	Status    ir.SessionStatus `json:"status"`
	Culprit   *ir.Item         `json:"culprit,omitempty"`
	Steps     []ir.Step        `json:"steps"`
	Resumed   bool             `json:"resumed"`
	Restore   RestoreReport    `json:"restore"`
}

// Session runs one complete search: capture, search, restore.
type Session struct {
	cfg SessionConfig
}

// NewSession creates a Session, filling defaults.
func NewSession(cfg SessionConfig) *Session {
	if cfg.IDs == nil {
		cfg.IDs = UUIDv7Generator{}
	}
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Session{cfg: cfg}
}

// Run executes the session.
//
// Sequence:
//  1. Refuse to start while another snapshot is pending (unless resuming),
//     and refuse to resume while another process holds the surface
//  2. List candidates; failure returns before anything is captured
//  3. Capture and persist the snapshot, record the session as running
//  4. Run the search, journaling each answered step
//  5. Record the session as completed or aborted
//  6. Restore the snapshot, discard it, mark the session restored
//
// Step 6 runs whenever step 3 succeeded, including after an aborted
// question or a cancelled context. The search error, if any, is returned
// alongside an Outcome that carries the restore report.
func (s *Session) Run(ctx context.Context) (Outcome, error) {
	cfg := s.cfg
	log := cfg.Logger

	pending, hasPending, err := cfg.Store.LoadSnapshot(ctx)
	if err != nil {
		return Outcome{}, fmt.Errorf("check pending snapshot: %w", err)
	}
	if hasPending && !cfg.Resume {
		return Outcome{SessionID: pending.SessionID}, pendingError(pending.SessionID)
	}

	items, err := cfg.Registry.ListCandidates(ctx)
	if err != nil {
		return Outcome{}, registryError("list candidates", "", -1, err)
	}

	var (
		snap     ir.Snapshot
		feedback = cfg.Feedback
		resumed  bool
	)
	surfaceOpen := false
	if hasPending {
		snap = pending
		resumed = true
		// A live holder of the surface is still running this session.
		if cfg.Surface != nil {
			if err := cfg.Surface.Open(snap.SessionID); err != nil {
				return Outcome{SessionID: snap.SessionID}, heldError(snap.SessionID, err)
			}
			surfaceOpen = true
		}
		recorded, err := cfg.Store.Steps(ctx, snap.SessionID)
		if err != nil {
			s.closeSurface(snap.SessionID)
			return Outcome{SessionID: snap.SessionID}, fmt.Errorf("load journal: %w", err)
		}
		feedback = newReplayFeedback(recorded, cfg.Feedback)
		if err := cfg.Store.FinishSession(ctx, snap.SessionID, ir.SessionRunning, ""); err != nil {
			s.closeSurface(snap.SessionID)
			return Outcome{SessionID: snap.SessionID}, fmt.Errorf("reopen session: %w", err)
		}
		log.Info("resuming session", "session", snap.SessionID, "journaled_steps", len(recorded))
	} else {
		sessionID := cfg.IDs.Generate()
		snap, err = CaptureSnapshot(ctx, cfg.Registry, items, sessionID, cfg.Store)
		if err != nil {
			return Outcome{SessionID: sessionID}, err
		}
		if err := s.begin(ctx, snap); err != nil {
			if discardErr := cfg.Store.DiscardSnapshot(context.WithoutCancel(ctx), sessionID); discardErr != nil {
				err = errors.Join(err, discardErr)
			}
			return Outcome{SessionID: sessionID}, err
		}
		log.Info("session started", "session", sessionID, "candidates", len(items))
	}

	if cfg.Surface != nil && !surfaceOpen {
		if err := cfg.Surface.Open(snap.SessionID); err != nil {
			log.Warn("could not open session surface", "session", snap.SessionID, "error", err)
		}
	}

	searcher := NewSearcher(cfg.Registry, feedback,
		WithStepRecorder(journalRecorder{journal: cfg.Store, sessionID: snap.SessionID}),
		WithLogger(log))
	result, searchErr := searcher.Run(ctx, items)

	outcome := Outcome{
		SessionID: snap.SessionID,
		Culprit:   result.Culprit,
		Steps:     result.Steps,
		Resumed:   resumed,
	}
	if outcome.Steps == nil {
		outcome.Steps = []ir.Step{}
	}

	cleanupCtx := context.WithoutCancel(ctx)
	status, culpritID := ir.SessionCompleted, ""
	if searchErr != nil {
		status = ir.SessionAborted
		log.Warn("search did not complete", "session", snap.SessionID, "error", searchErr)
	} else if result.Culprit != nil {
		culpritID = result.Culprit.ID
	}
	var errs []error
	if searchErr != nil {
		errs = append(errs, searchErr)
	}
	if err := cfg.Store.FinishSession(cleanupCtx, snap.SessionID, status, culpritID); err != nil {
		errs = append(errs, fmt.Errorf("finish session: %w", err))
	}

	report, err := restoreAndDiscard(cleanupCtx, cfg.Registry, cfg.Store, snap)
	outcome.Restore = report
	if err != nil {
		errs = append(errs, err)
	}
	outcome.Status = status

	s.closeSurface(snap.SessionID)

	return outcome, errors.Join(errs...)
}

func (s *Session) closeSurface(sessionID string) {
	if s.cfg.Surface == nil {
		return
	}
	if err := s.cfg.Surface.Close(); err != nil {
		s.cfg.Logger.Warn("could not close session surface", "session", sessionID, "error", err)
	}
}

func (s *Session) begin(ctx context.Context, snap ir.Snapshot) error {
	digest, err := snap.Digest()
	if err != nil {
		return err
	}
	return s.cfg.Store.BeginSession(ctx, ir.Session{
		ID:             snap.SessionID,
		Status:         ir.SessionRunning,
		SnapshotDigest: digest,
		StartedAt:      s.cfg.Clock.Now(),
	})
}
