package compiler

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sources(files map[string]string) SourceFunc {
	return func(path string) string { return files[path] }
}

func TestCommandCompileSuccess(t *testing.T) {
	c := NewCommand(CommandConfig{
		Bin:     "sh",
		Args:    []string{"-c", "cat {target} lib/util.fc > {out}"},
		Timeout: 5 * time.Second,
	}, nil)

	resp, err := c.Compile(context.Background(), Request{
		Targets: []string{"main.fc"},
		Paths:   []string{"lib/util.fc"},
		Sources: sources(map[string]string{"main.fc": "A", "lib/util.fc": "B"}),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusOK, resp.Status)
	raw, err := base64.StdEncoding.DecodeString(resp.CodeBoc)
	require.NoError(t, err)
	assert.Equal(t, "AB", string(raw))
}

func TestCommandCompileReportsCompilerMessage(t *testing.T) {
	c := NewCommand(CommandConfig{
		Bin:  "sh",
		Args: []string{"-c", "echo 'main.fc:1:1: error: undefined function' >&2; exit 1"},
	}, nil)

	resp, err := c.Compile(context.Background(), Request{
		Targets: []string{"main.fc"},
		Sources: sources(map[string]string{"main.fc": "x"}),
	})
	require.NoError(t, err)
	assert.Equal(t, StatusError, resp.Status)
	assert.Equal(t, "main.fc:1:1: error: undefined function", resp.Message)
}

func TestCommandCompileRejectsBadRequests(t *testing.T) {
	c := NewCommand(CommandConfig{Bin: "sh"}, nil)

	_, err := c.Compile(context.Background(), Request{Sources: sources(nil)})
	assert.Error(t, err)

	_, err = c.Compile(context.Background(), Request{Targets: []string{"../escape.fc"}, Sources: sources(nil)})
	assert.Error(t, err)
}
