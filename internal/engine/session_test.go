package engine

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/store"
)

func newTestSession(reg Registry, fb Feedback, st StateStore, ids ...string) *Session {
	return NewSession(SessionConfig{
		Registry: reg,
		Feedback: fb,
		Store:    st,
		IDs:      NewFixedGenerator(ids...),
		Clock:    fixedClock{now: testNow},
	})
}

func TestSession_CompletesAndRestores(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b", "c", "off-d")
	reg := newMemoryRegistry(items)
	before := reg.Statuses()
	surface := &fakeSurface{}

	sess := NewSession(SessionConfig{
		Registry: reg,
		Feedback: &oracle{culprit: "c"},
		Store:    st,
		IDs:      NewFixedGenerator("s1"),
		Clock:    fixedClock{now: testNow},
		Surface:  surface,
	})
	outcome, err := sess.Run(t.Context())
	require.NoError(t, err)

	assert.Equal(t, "s1", outcome.SessionID)
	assert.Equal(t, ir.SessionCompleted, outcome.Status)
	require.NotNil(t, outcome.Culprit)
	assert.Equal(t, "c", outcome.Culprit.ID)
	assert.Len(t, outcome.Steps, 2)
	assert.False(t, outcome.Resumed)
	assert.True(t, outcome.Restore.OK())

	assert.Equal(t, before, reg.Statuses())
	assert.Equal(t, []string{"s1"}, surface.opened)
	assert.Equal(t, 1, surface.closed)

	_, pending, err := st.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.False(t, pending)

	record, err := st.Session(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, ir.SessionCompleted, record.Status)
	assert.Equal(t, "c", record.CulpritID)
	assert.True(t, record.StartedAt.Equal(testNow))
	assert.NotNil(t, record.RestoredAt)
	assert.NotEmpty(t, record.SnapshotDigest)

	journal, err := st.Steps(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, outcome.Steps, journal)
}

func TestSession_AbortRestores(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "off-b", "c", "d", "off-e")
	reg := newMemoryRegistry(items)
	before := reg.Statuses()

	outcome, err := newTestSession(reg, &scripted{answers: []bool{true}}, st, "s1").Run(t.Context())
	require.Error(t, err)
	assert.True(t, IsAbortError(err))

	assert.Equal(t, ir.SessionAborted, outcome.Status)
	assert.Nil(t, outcome.Culprit)
	assert.Len(t, outcome.Steps, 1)
	assert.Equal(t, before, reg.Statuses())

	_, pending, err := st.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.False(t, pending)

	record, err := st.Session(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, ir.SessionAborted, record.Status)
	assert.NotNil(t, record.RestoredAt)
}

func TestSession_CancelledContextStillRestores(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b", "c")
	reg := newMemoryRegistry(items)
	before := reg.Statuses()

	ctx, cancel := context.WithCancel(t.Context())
	fb := feedbackFunc(func(ctx context.Context, q Question) (bool, error) {
		cancel()
		return false, ctx.Err()
	})

	outcome, err := newTestSession(reg, fb, st, "s1").Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, ir.SessionAborted, outcome.Status)
	assert.Equal(t, before, reg.Statuses())
}

func TestSession_PartialRestoreIsReported(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b")
	reg := newMemoryRegistry(items)

	fb := feedbackFunc(func(ctx context.Context, q Question) (bool, error) {
		// Item b becomes stuck while the question is open.
		reg.FailSet("b", errors.New("stuck"))
		return true, nil
	})

	outcome, err := newTestSession(reg, fb, st, "s1").Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, ir.SessionCompleted, outcome.Status)
	assert.False(t, outcome.Restore.OK())
	require.Len(t, outcome.Restore.Failures, 1)
	assert.Equal(t, "b", outcome.Restore.Failures[0].ID)

	// The snapshot is consumed even when an item could not be restored.
	_, pending, err := st.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.False(t, pending)
}

func TestSession_PendingSnapshotBlocksNewSession(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b")
	reg := newMemoryRegistry(items)
	require.NoError(t, st.SaveSnapshot(t.Context(), ir.NewSnapshot("old", items)))

	// No IDs: generating one would panic.
	outcome, err := newTestSession(reg, &oracle{culprit: "a"}, st).Run(t.Context())
	require.Error(t, err)
	assert.True(t, IsPendingError(err))
	assert.Equal(t, "old", outcome.SessionID)
	assert.Empty(t, reg.Toggles())
}

func TestSession_RegistryUnavailable(t *testing.T) {
	st := createTestStore(t)
	reg := newMemoryRegistry(makeItems("a", "b"))
	reg.FailAll(errors.New("offline"))

	_, err := newTestSession(reg, &oracle{culprit: "a"}, st, "s1").Run(t.Context())
	require.Error(t, err)
	assert.True(t, IsRegistryError(err))

	_, pending, err := st.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.False(t, pending)

	_, err = st.Session(t.Context(), "s1")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestSession_NoCandidates(t *testing.T) {
	st := createTestStore(t)
	reg := newMemoryRegistry(nil)

	outcome, err := newTestSession(reg, &scripted{}, st, "s1").Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, ir.SessionCompleted, outcome.Status)
	assert.Nil(t, outcome.Culprit)
	assert.Empty(t, outcome.Steps)
	assert.NotNil(t, outcome.Steps)
}

// seedInterruptedSession leaves the store as a crashed session would: a
// pending snapshot, a running session, and a partial journal.
func seedInterruptedSession(t *testing.T, st *store.Store, reg Registry, items ir.ItemSet, steps ...ir.Step) {
	t.Helper()
	snap, err := CaptureSnapshot(t.Context(), reg, items, "s1", st)
	require.NoError(t, err)
	digest, err := snap.Digest()
	require.NoError(t, err)
	require.NoError(t, st.BeginSession(t.Context(), ir.Session{
		ID: "s1", Status: ir.SessionRunning, SnapshotDigest: digest, StartedAt: testNow,
	}))
	for _, step := range steps {
		require.NoError(t, st.RecordStep(t.Context(), "s1", step))
	}
}

func TestSession_ResumeReplaysJournal(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b", "c", "d")
	reg := newMemoryRegistry(items)
	before := reg.Statuses()

	seedInterruptedSession(t, st, reg, items, ir.Step{
		Index: 0, FirstHalf: []string{"a", "b"}, SecondHalf: []string{"c", "d"}, Answer: false,
	})
	// The crash left the first half disabled.
	require.NoError(t, reg.SetActive(t.Context(), "a", false))
	require.NoError(t, reg.SetActive(t.Context(), "b", false))

	live := &oracle{culprit: "c"}
	sess := NewSession(SessionConfig{
		Registry: reg,
		Feedback: live,
		Store:    st,
		IDs:      NewFixedGenerator(),
		Clock:    fixedClock{now: testNow},
		Resume:   true,
	})
	outcome, err := sess.Run(t.Context())
	require.NoError(t, err)

	assert.True(t, outcome.Resumed)
	assert.Equal(t, "s1", outcome.SessionID)
	require.NotNil(t, outcome.Culprit)
	assert.Equal(t, "c", outcome.Culprit.ID)
	require.Len(t, live.questions, 1, "only the unanswered step is asked live")
	assert.Equal(t, 1, live.questions[0].Step)
	assert.Equal(t, before, reg.Statuses())

	journal, err := st.Steps(t.Context(), "s1")
	require.NoError(t, err)
	assert.Len(t, journal, 2)
}

func TestSession_ResumeRefusedWhileSurfaceHeld(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b", "c", "d")
	reg := newMemoryRegistry(items)

	seedInterruptedSession(t, st, reg, items, ir.Step{
		Index: 0, FirstHalf: []string{"a", "b"}, SecondHalf: []string{"c", "d"}, Answer: false,
	})
	reg.ResetToggles()

	held := errors.New("lock file held by another process")
	surface := &fakeSurface{openErr: held}
	live := &oracle{culprit: "c"}
	sess := NewSession(SessionConfig{
		Registry: reg,
		Feedback: live,
		Store:    st,
		IDs:      NewFixedGenerator(),
		Clock:    fixedClock{now: testNow},
		Surface:  surface,
		Resume:   true,
	})
	outcome, err := sess.Run(t.Context())
	require.Error(t, err)
	assert.True(t, IsPendingError(err))
	assert.ErrorIs(t, err, held)
	assert.Equal(t, "s1", outcome.SessionID)

	assert.Empty(t, live.questions)
	assert.Empty(t, reg.Toggles(), "nothing may be toggled while another process searches")
	assert.Equal(t, 0, surface.closed, "a surface that was not opened must not be closed")

	_, pending, err := st.LoadSnapshot(t.Context())
	require.NoError(t, err)
	assert.True(t, pending)
	got, err := st.Session(t.Context(), "s1")
	require.NoError(t, err)
	assert.Equal(t, ir.SessionRunning, got.Status)
	journal, err := st.Steps(t.Context(), "s1")
	require.NoError(t, err)
	assert.Len(t, journal, 1)
}

func TestSession_ResumeWithDivergedJournalAsksLive(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b", "c", "d")
	reg := newMemoryRegistry(items)

	seedInterruptedSession(t, st, reg, items, ir.Step{
		Index: 0, FirstHalf: []string{"x", "y"}, SecondHalf: []string{"c", "d"}, Answer: true,
	})

	live := &oracle{culprit: "d"}
	sess := NewSession(SessionConfig{
		Registry: reg,
		Feedback: live,
		Store:    st,
		IDs:      NewFixedGenerator(),
		Clock:    fixedClock{now: testNow},
		Resume:   true,
	})
	outcome, err := sess.Run(t.Context())
	require.NoError(t, err)
	assert.Equal(t, "d", outcome.Culprit.ID)
	assert.Len(t, live.questions, 2)

	// The diverged step was replaced in the journal.
	journal, err := st.Steps(t.Context(), "s1")
	require.NoError(t, err)
	require.Len(t, journal, 2)
	assert.Equal(t, []string{"a", "b"}, journal[0].FirstHalf)
}

func TestSession_ResumeWithoutPendingStartsFresh(t *testing.T) {
	st := createTestStore(t)
	items := makeItems("a", "b")
	reg := newMemoryRegistry(items)

	sess := NewSession(SessionConfig{
		Registry: reg,
		Feedback: &oracle{culprit: "b"},
		Store:    st,
		IDs:      NewFixedGenerator("fresh"),
		Clock:    fixedClock{now: testNow},
		Resume:   true,
	})
	outcome, err := sess.Run(t.Context())
	require.NoError(t, err)
	assert.False(t, outcome.Resumed)
	assert.Equal(t, "fresh", outcome.SessionID)
}
