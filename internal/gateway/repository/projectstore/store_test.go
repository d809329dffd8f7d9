package projectstore

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tonide/internal/workspace"
)

func sampleNodes() []workspace.TreeNode {
	return []workspace.TreeNode{
		{ID: "d1", Name: "contracts", Type: workspace.NodeDirectory, Path: "contracts"},
		{ID: "f1", Name: "main.fc", Type: workspace.NodeFile, Path: "contracts/main.fc", Parent: "d1", Content: "leak"},
	}
}

func TestStoreCreateGetList(t *testing.T) {
	ctx := context.Background()
	s := New("")

	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p2", Name: "Second", CreatedAt: time.Unix(20, 0)}, nil))
	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p1", CreatedAt: time.Unix(10, 0)}, sampleNodes()))

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Project", p.Name)
	assert.Equal(t, workspace.TemplateBlank, p.Template)
	assert.Nil(t, p.ABI)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "p1", list[0].ID)
	assert.Equal(t, "p2", list[1].ID)

	assert.ErrorIs(t, s.Create(ctx, workspace.Project{ID: "p1"}, nil), ErrAlreadyExists)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStoreNodesNeverCarryContent(t *testing.T) {
	ctx := context.Background()
	s := New("")
	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p1"}, sampleNodes()))

	nodes, err := s.Nodes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Empty(t, n.Content)
	}
}

func TestStorePutAndDeleteNodes(t *testing.T) {
	ctx := context.Background()
	s := New("")
	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p1"}, sampleNodes()))

	renamed := workspace.TreeNode{ID: "f1", Name: "app.fc", Type: workspace.NodeFile, Path: "contracts/app.fc", Parent: "d1"}
	added := workspace.TreeNode{ID: "f2", Type: workspace.NodeFile, Path: "README"}
	require.NoError(t, s.PutNodes(ctx, "p1", renamed, added))

	nodes, err := s.Nodes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, nodes, 3)
	assert.Equal(t, "contracts/app.fc", nodes[1].Path)
	assert.Equal(t, "README", nodes[2].Name)

	require.NoError(t, s.DeleteNodes(ctx, "p1", "d1", "f1"))
	nodes, err = s.Nodes(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "f2", nodes[0].ID)

	assert.ErrorIs(t, s.PutNodes(ctx, "nope", added), ErrNotFound)
	assert.Error(t, s.PutNodes(ctx, "p1", workspace.TreeNode{Path: "x"}))
}

func TestStoreSetBuildOutput(t *testing.T) {
	ctx := context.Background()
	s := New("")
	created := time.Unix(100, 0).UTC()
	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p1", CreatedAt: created}, nil))

	abi := &workspace.ABI{Getters: []workspace.Getter{{Name: "get_counter", ReturnTypes: []string{"int"}}}}
	require.NoError(t, s.SetBuildOutput(ctx, "p1", abi, "te6cc"))

	p, err := s.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, abi, p.ABI)
	assert.Equal(t, "te6cc", p.ContractBOC)
	assert.True(t, p.CreatedAt.Equal(created))
	assert.True(t, p.UpdatedAt.After(created))

	assert.ErrorIs(t, s.SetBuildOutput(ctx, "missing", abi, ""), ErrNotFound)
}

func TestStorePersistsToFile(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "projects.json")

	s := New(path)
	require.NoError(t, s.Create(ctx, workspace.Project{ID: "p1", Name: "Counter", Template: workspace.TemplateCounter}, sampleNodes()))
	require.NoError(t, s.SetBuildOutput(ctx, "p1", &workspace.ABI{Getters: []workspace.Getter{}}, "boc"))

	reloaded := New(path)
	require.NoError(t, reloaded.EnsureLoaded(ctx))
	p, err := reloaded.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Counter", p.Name)
	assert.Equal(t, workspace.TemplateCounter, p.Template)
	require.NotNil(t, p.ABI)
	assert.True(t, p.ABI.Empty())

	nodes, err := reloaded.Nodes(ctx, "p1")
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	require.NoError(t, reloaded.Delete(ctx, "p1"))
	again := New(path)
	_, err = again.Get(ctx, "p1")
	assert.ErrorIs(t, err, ErrNotFound)
}
