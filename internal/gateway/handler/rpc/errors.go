package rpc

import (
	"context"
	"errors"

	"connectrpc.com/connect"

	"tonide/internal/archive"
	"tonide/internal/build"
	"tonide/internal/gateway/repository/content"
	"tonide/internal/gateway/repository/projectstore"
	"tonide/internal/gateway/service/project"
	"tonide/internal/workspace"
)

// toConnectError maps service and store errors onto connect codes. Compile
// errors keep the compiler message verbatim.
func toConnectError(err error) error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return err
	}
	var compileErr *build.CompileError
	if errors.As(err, &compileErr) {
		return connect.NewError(connect.CodeFailedPrecondition, compileErr)
	}
	switch {
	case errors.Is(err, context.Canceled):
		return connect.NewError(connect.CodeCanceled, err)
	case errors.Is(err, context.DeadlineExceeded):
		return connect.NewError(connect.CodeDeadlineExceeded, err)
	case errors.Is(err, projectstore.ErrNotFound),
		errors.Is(err, content.ErrNotFound),
		errors.Is(err, project.ErrNodeNotFound),
		errors.Is(err, build.ErrEntryNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, build.ErrEntryEmpty):
		return connect.NewError(connect.CodeFailedPrecondition, err)
	case errors.Is(err, projectstore.ErrAlreadyExists),
		errors.Is(err, project.ErrPathExists):
		return connect.NewError(connect.CodeAlreadyExists, err)
	case errors.Is(err, project.ErrInvalidInput),
		errors.Is(err, workspace.ErrInvalidTree),
		errors.Is(err, workspace.ErrUnknownTemplate),
		errors.Is(err, build.ErrNoEntry),
		errors.Is(err, archive.ErrNotArchive),
		errors.Is(err, archive.ErrTooManyEntries),
		errors.Is(err, archive.ErrEntryTooLarge):
		return connect.NewError(connect.CodeInvalidArgument, err)
	}
	return connect.NewError(connect.CodeInternal, err)
}
