package compiler

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"tonide/internal/safeio"
)

// CommandConfig describes an external compiler binary. Args may contain the
// placeholders {target} and {out}; the default matches the func-js CLI.
type CommandConfig struct {
	Bin     string
	Args    []string
	Timeout time.Duration
}

func DefaultCommandConfig() CommandConfig {
	return CommandConfig{
		Bin:     "func-js",
		Args:    []string{"{target}", "--boc", "{out}"},
		Timeout: 60 * time.Second,
	}
}

// Command compiles by writing the known sources into a scratch directory and
// running the configured binary there.
type Command struct {
	cfg    CommandConfig
	logger *zap.Logger
}

func NewCommand(cfg CommandConfig, logger *zap.Logger) *Command {
	def := DefaultCommandConfig()
	if strings.TrimSpace(cfg.Bin) == "" {
		cfg.Bin = def.Bin
	}
	if len(cfg.Args) == 0 {
		cfg.Args = def.Args
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Command{cfg: cfg, logger: logger}
}

func (c *Command) Compile(ctx context.Context, req Request) (Response, error) {
	if len(req.Targets) != 1 {
		return Response{}, fmt.Errorf("exactly one target is required, got %d", len(req.Targets))
	}
	if req.Sources == nil {
		return Response{}, fmt.Errorf("sources are required")
	}
	dir, err := os.MkdirTemp("", "tonide-build-*")
	if err != nil {
		return Response{}, fmt.Errorf("create build dir: %w", err)
	}
	defer os.RemoveAll(dir)

	scratch, err := safeio.New(dir)
	if err != nil {
		return Response{}, err
	}
	for _, p := range append(append([]string(nil), req.Paths...), req.Targets...) {
		rel := strings.Trim(p, "/")
		if rel == "" {
			return Response{}, fmt.Errorf("invalid source path: %q", p)
		}
		if err := scratch.WriteFile(filepath.FromSlash(rel), []byte(req.Sources(p))); err != nil {
			return Response{}, fmt.Errorf("write %s: %w", p, err)
		}
	}

	out := filepath.Join(dir, "out.boc")
	args := make([]string, 0, len(c.cfg.Args))
	for _, a := range c.cfg.Args {
		a = strings.ReplaceAll(a, "{target}", filepath.FromSlash(req.Targets[0]))
		a = strings.ReplaceAll(a, "{out}", out)
		args = append(args, a)
	}

	runCtx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()
	cmd := exec.CommandContext(runCtx, c.cfg.Bin, args...)
	cmd.Dir = dir
	var stderr, stdout bytes.Buffer
	cmd.Stderr = &stderr
	cmd.Stdout = &stdout

	started := time.Now()
	runErr := cmd.Run()
	c.logger.Debug("compiler finished",
		zap.String("bin", c.cfg.Bin),
		zap.String("target", req.Targets[0]),
		zap.Duration("elapsed", time.Since(started)),
		zap.Error(runErr),
	)
	if runErr != nil {
		var exitErr *exec.ExitError
		if errors.As(runErr, &exitErr) {
			msg := strings.TrimSpace(stderr.String())
			if msg == "" {
				msg = strings.TrimSpace(stdout.String())
			}
			return Response{Status: StatusError, Message: msg}, nil
		}
		return Response{}, fmt.Errorf("run %s: %w", c.cfg.Bin, runErr)
	}

	raw, err := os.ReadFile(out)
	if err != nil {
		return Response{}, fmt.Errorf("read compiler output: %w", err)
	}
	return Response{Status: StatusOK, CodeBoc: base64.StdEncoding.EncodeToString(raw)}, nil
}
