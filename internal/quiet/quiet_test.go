package quiet

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/isolate/internal/engine"
	"github.com/roach88/isolate/internal/ir"
	"github.com/roach88/isolate/internal/registry"
	"github.com/roach88/isolate/internal/store"
)

func setup(t *testing.T) (*registry.Memory, *store.Store) {
	t.Helper()
	st, err := store.Open(t.TempDir() + "/isolate.db")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := registry.NewMemory("host", "", ir.ItemSet{
		{ID: "host", Kind: ir.DefaultKind, Active: true},
		{ID: "a", Name: "A", Kind: ir.DefaultKind, Active: true},
		{ID: "b", Name: "B", Kind: ir.DefaultKind, Active: false},
		{ID: "c", Name: "C", Kind: ir.DefaultKind, Active: true},
		{ID: "w", Name: "W", Kind: ir.DefaultKind, Active: true},
		{ID: "t", Kind: "theme", Active: true},
	})
	return reg, st
}

func TestToggle_RoundTrip(t *testing.T) {
	reg, st := setup(t)
	require.NoError(t, st.AddWhitelist(t.Context(), "w"))
	before := reg.Statuses()

	report, err := Toggle(t.Context(), reg, st)
	require.NoError(t, err)
	assert.True(t, report.On)
	assert.Equal(t, []string{"a", "b", "c"}, report.Disabled)

	statuses := reg.Statuses()
	assert.False(t, statuses["a"])
	assert.False(t, statuses["c"])
	assert.True(t, statuses["w"], "whitelisted item stays on")
	assert.True(t, statuses["host"], "host is never a candidate")
	assert.True(t, statuses["t"], "other kinds are never candidates")

	on, remembered, err := Status(t.Context(), st)
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"a", "c", "w"}, remembered)

	report, err = Toggle(t.Context(), reg, st)
	require.NoError(t, err)
	assert.False(t, report.On)
	assert.Equal(t, []string{"a", "c", "w"}, report.Enabled)
	assert.Equal(t, before, reg.Statuses())

	on, remembered, err = Status(t.Context(), st)
	require.NoError(t, err)
	assert.False(t, on)
	assert.Empty(t, remembered)
}

func TestToggle_SkipsUninstalledOnRestore(t *testing.T) {
	reg, st := setup(t)

	_, err := Toggle(t.Context(), reg, st)
	require.NoError(t, err)
	reg.Remove("a")

	report, err := Toggle(t.Context(), reg, st)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "w"}, report.Enabled)
}

func TestToggle_ReportsFailuresAndContinues(t *testing.T) {
	reg, st := setup(t)
	reg.FailSet("a", errors.New("locked"))

	report, err := Toggle(t.Context(), reg, st)
	require.NoError(t, err)
	assert.True(t, report.On)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "a", report.Failures[0].ID)
	assert.Equal(t, []string{"b", "c", "w"}, report.Disabled)
}

func TestToggle_RefusedWhileSnapshotPending(t *testing.T) {
	reg, st := setup(t)
	require.NoError(t, st.SaveSnapshot(t.Context(), ir.NewSnapshot("s1", ir.ItemSet{{ID: "a", Active: true}})))

	_, err := Toggle(t.Context(), reg, st)
	require.Error(t, err)
	assert.True(t, engine.IsPendingError(err))
	assert.Empty(t, reg.Toggles())
}

func TestToggle_RegistryUnavailable(t *testing.T) {
	reg, st := setup(t)
	reg.FailAll(errors.New("offline"))

	_, err := Toggle(t.Context(), reg, st)
	require.Error(t, err)
	assert.True(t, engine.IsRegistryError(err))

	on, _, err := Status(t.Context(), st)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestAllow_EnablesAndWhitelists(t *testing.T) {
	reg, st := setup(t)

	require.NoError(t, Allow(t.Context(), reg, st, "b"))
	assert.True(t, reg.Statuses()["b"])

	ids, err := st.Whitelist(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, ids)
}

func TestAllow_RejectsNonCandidates(t *testing.T) {
	reg, st := setup(t)

	for _, id := range []string{"host", "t", "missing"} {
		err := Allow(t.Context(), reg, st, id)
		assert.ErrorIs(t, err, ErrNotCandidate, id)
	}
	ids, err := st.Whitelist(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDisallow_DisablesAndRemoves(t *testing.T) {
	reg, st := setup(t)
	require.NoError(t, Allow(t.Context(), reg, st, "a"))

	require.NoError(t, Disallow(t.Context(), reg, st, "a"))
	assert.False(t, reg.Statuses()["a"])

	ids, err := st.Whitelist(t.Context())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDisallow_UninstalledOnlyRemoves(t *testing.T) {
	reg, st := setup(t)
	require.NoError(t, st.AddWhitelist(t.Context(), "gone"))

	require.NoError(t, Disallow(t.Context(), reg, st, "gone"))
	assert.Empty(t, reg.Toggles())
}

func TestList(t *testing.T) {
	reg, st := setup(t)
	require.NoError(t, st.AddWhitelist(t.Context(), "c"))
	require.NoError(t, st.AddWhitelist(t.Context(), "gone"))

	entries, err := List(t.Context(), reg, st)
	require.NoError(t, err)
	assert.Equal(t, []Entry{
		{ID: "c", Name: "C", Installed: true},
		{ID: "gone", Installed: false},
	}, entries)
}
