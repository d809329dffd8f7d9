// Package compiler defines the contract with the external FunC compiler and a
// command-line adapter for it.
package compiler

import (
	"context"
)

type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// SourceFunc returns the body of a source path, or "" when it is unknown.
type SourceFunc func(path string) string

type Request struct {
	Targets []string
	Sources SourceFunc
	// Paths lists the files known to the caller up front. Adapters that
	// cannot ask for sources lazily materialize these.
	Paths []string
}

type Response struct {
	Status  Status
	Message string
	// CodeBoc is the base64 encoded code cell.
	CodeBoc string
}

// Compiler turns a set of sources into a code cell. A compile failure is
// reported through Response.Status; the error return is reserved for
// failures to run the compiler at all.
type Compiler interface {
	Compile(ctx context.Context, req Request) (Response, error)
}

// Func adapts a function to Compiler.
type Func func(ctx context.Context, req Request) (Response, error)

func (f Func) Compile(ctx context.Context, req Request) (Response, error) { return f(ctx, req) }
