package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/workspace"
)

func TestDiskStore(t *testing.T) {
	exerciseStore(t, NewDiskStore(t.TempDir()))
}

func TestDiskStoreLayout(t *testing.T) {
	root := t.TempDir()
	s := NewDiskStore(root)
	require.NoError(t, s.Put(context.Background(), "p1", workspace.FileContent{ID: "n1", Content: "() main() {}"}))

	raw, err := os.ReadFile(filepath.Join(root, "p1", "n1"))
	require.NoError(t, err)
	assert.Equal(t, "() main() {}", string(raw))
}

func TestDiskStoreRequiresRoot(t *testing.T) {
	s := NewDiskStore("  ")
	err := s.Put(context.Background(), "p1", workspace.FileContent{ID: "a"})
	assert.Error(t, err)
}

func TestDiskStoreListSkipsTempFiles(t *testing.T) {
	root := t.TempDir()
	s := NewDiskStore(root)
	require.NoError(t, s.Put(context.Background(), "p1", workspace.FileContent{ID: "n1"}))
	require.NoError(t, os.WriteFile(filepath.Join(root, "p1", ".n2.123"), []byte("partial"), 0o644))

	ids, err := s.List(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids)
}
