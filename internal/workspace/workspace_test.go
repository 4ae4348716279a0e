package workspace

import (
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starford/arbor/internal/apperr"
	"github.com/starford/arbor/internal/overlay"
	"github.com/starford/arbor/internal/state"
	"github.com/starford/arbor/internal/testutil"
	"github.com/starford/arbor/internal/tree"
)

func newWorkspace(t *testing.T) (*Workspace, *state.Memory, string) {
	t.Helper()
	root, store := testutil.Workspace(t)
	ov := overlay.NewStore(root)
	cfg, err := ov.Load()
	require.NoError(t, err)
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	st := state.NewMemory()
	return New(tree.New(store, ov, cfg, tree.WithLogger(logger)), st, logger), st, root
}

func TestSetActiveFile(t *testing.T) {
	w, st, root := newWorkspace(t)
	ctx := context.Background()
	testutil.Notes(t, root, "A/B")

	n, err := w.SetActiveFile(ctx, testutil.NoteFile(root, "A/B"))
	require.NoError(t, err)
	assert.Equal(t, "B", n.Name)

	got, _ := st.Get(ctx, state.ActiveNoteKey)
	assert.Equal(t, testutil.NoteFile(root, "A/B"), got)

	active, err := w.ActiveNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, n.DirPath, active.DirPath)
}

func TestSetActiveFileStray(t *testing.T) {
	w, st, root := newWorkspace(t)
	ctx := context.Background()

	_, err := w.SetActiveFile(ctx, filepath.Join(root, "readme.txt"))
	assert.ErrorIs(t, err, apperr.ErrNotFound)
	got, _ := st.Get(ctx, state.ActiveNoteKey)
	assert.Empty(t, got)
}

func TestActiveNoteUnset(t *testing.T) {
	w, _, _ := newWorkspace(t)
	_, err := w.ActiveNote(context.Background())
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestActiveNoteFollowsRename(t *testing.T) {
	w, _, root := newWorkspace(t)
	ctx := context.Background()
	testutil.Notes(t, root, "A/B")
	_, err := w.SetActiveFile(ctx, testutil.NoteFile(root, "A/B"))
	require.NoError(t, err)

	a, err := w.Tree().Materialize(ctx, testutil.NoteDir(root, "A"))
	require.NoError(t, err)
	renamed, err := w.Tree().Rename(ctx, a, "Z")
	require.NoError(t, err)
	require.NoError(t, w.Relocated(ctx, a.DirPath, renamed.DirPath))

	active, err := w.ActiveNote(ctx)
	require.NoError(t, err)
	assert.Equal(t, testutil.NoteDir(root, "Z/B"), active.DirPath)
}

func TestRemovedClearsActive(t *testing.T) {
	w, st, root := newWorkspace(t)
	ctx := context.Background()
	testutil.Notes(t, root, "A", "C")
	_, err := w.SetActiveFile(ctx, testutil.NoteFile(root, "A"))
	require.NoError(t, err)

	require.NoError(t, w.Removed(ctx, testutil.NoteDir(root, "C")))
	got, _ := st.Get(ctx, state.ActiveNoteKey)
	assert.NotEmpty(t, got, "unrelated delete keeps the active note")

	require.NoError(t, w.Removed(ctx, testutil.NoteDir(root, "A")))
	got, _ = st.Get(ctx, state.ActiveNoteKey)
	assert.Empty(t, got)
}
