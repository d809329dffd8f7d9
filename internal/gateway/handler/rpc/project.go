package rpc

import (
	"context"
	"fmt"
	"strings"

	"connectrpc.com/connect"
	"go.uber.org/zap"

	"tonide/internal/archive"
	"tonide/internal/build"
	"tonide/internal/gateway/service/buildlog"
	"tonide/internal/gateway/service/project"
	"tonide/internal/workspace"
)

type ProjectHandler struct {
	svc    *project.Service
	logs   *buildlog.Hub
	limits archive.Limits
	logger *zap.Logger
}

func NewProjectHandler(svc *project.Service, logs *buildlog.Hub, limits archive.Limits, logger *zap.Logger) *ProjectHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectHandler{svc: svc, logs: logs, limits: limits, logger: logger}
}

func requireProjectID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("project_id is required"))
	}
	return id, nil
}

func (h *ProjectHandler) CreateProject(ctx context.Context, req *connect.Request[CreateProjectRequest]) (*connect.Response[ProjectResponse], error) {
	p, err := h.svc.CreateProject(ctx, project.CreateRequest{
		Name:     req.Msg.Name,
		Template: workspace.Template(strings.TrimSpace(req.Msg.Template)),
		Files:    req.Msg.Files,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProjectResponse{Project: p}), nil
}

func (h *ProjectHandler) ImportProject(ctx context.Context, req *connect.Request[ImportProjectRequest]) (*connect.Response[ProjectResponse], error) {
	if len(req.Msg.Archive) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, fmt.Errorf("archive is required"))
	}
	p, err := h.svc.CreateProject(ctx, project.CreateRequest{
		Name:     req.Msg.Name,
		Template: workspace.TemplateImport,
		Archive:  archive.Upload{Name: req.Msg.Filename, Data: req.Msg.Archive, Limits: h.limits},
	})
	if err != nil {
		h.logger.Warn("import failed", zap.String("filename", req.Msg.Filename), zap.Error(err))
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProjectResponse{Project: p}), nil
}

func (h *ProjectHandler) ListProjects(ctx context.Context, _ *connect.Request[ListProjectsRequest]) (*connect.Response[ListProjectsResponse], error) {
	projects, err := h.svc.ListProjects(ctx)
	if err != nil {
		return nil, toConnectError(err)
	}
	if projects == nil {
		projects = []workspace.Project{}
	}
	return connect.NewResponse(&ListProjectsResponse{Projects: projects}), nil
}

func (h *ProjectHandler) GetProject(ctx context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[ProjectResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	p, err := h.svc.GetProject(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ProjectResponse{Project: p}), nil
}

func (h *ProjectHandler) DeleteProject(ctx context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[Empty], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	if err := h.svc.DeleteProject(ctx, id); err != nil {
		return nil, toConnectError(err)
	}
	h.logs.Clear(id)
	return connect.NewResponse(&Empty{}), nil
}

func (h *ProjectHandler) GetTree(ctx context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[GetTreeResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	nodes, err := h.svc.Tree(ctx, id)
	if err != nil {
		return nil, toConnectError(err)
	}
	if nodes == nil {
		nodes = []workspace.TreeNode{}
	}
	return connect.NewResponse(&GetTreeResponse{Nodes: nodes}), nil
}

func (h *ProjectHandler) ReadFile(ctx context.Context, req *connect.Request[ReadFileRequest]) (*connect.Response[ReadFileResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	rec, err := h.svc.ReadFile(ctx, id, req.Msg.Path)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&ReadFileResponse{File: rec}), nil
}

func (h *ProjectHandler) WriteFile(ctx context.Context, req *connect.Request[WriteFileRequest]) (*connect.Response[NodeResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	node, err := h.svc.WriteFile(ctx, id, req.Msg.Path, req.Msg.Content)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&NodeResponse{Node: node}), nil
}

func (h *ProjectHandler) CreateNode(ctx context.Context, req *connect.Request[CreateNodeRequest]) (*connect.Response[NodeResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	node, err := h.svc.CreateNode(ctx, id, project.CreateNodeRequest{
		ParentPath: req.Msg.ParentPath,
		Name:       req.Msg.Name,
		Type:       workspace.NodeType(strings.TrimSpace(req.Msg.Type)),
		Content:    req.Msg.Content,
	})
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&NodeResponse{Node: node}), nil
}

func (h *ProjectHandler) DeleteNode(ctx context.Context, req *connect.Request[DeleteNodeRequest]) (*connect.Response[DeleteNodeResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	removed, err := h.svc.DeleteNode(ctx, id, req.Msg.Path)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&DeleteNodeResponse{RemovedIDs: removed}), nil
}

func (h *ProjectHandler) RenameNode(ctx context.Context, req *connect.Request[RenameNodeRequest]) (*connect.Response[NodeResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	node, err := h.svc.RenameNode(ctx, id, req.Msg.Path, req.Msg.NewName)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&NodeResponse{Node: node}), nil
}

func (h *ProjectHandler) Build(ctx context.Context, req *connect.Request[BuildRequest]) (*connect.Response[BuildResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	res, err := h.svc.Build(ctx, id, req.Msg.EntryPath)
	if err != nil {
		return nil, toConnectError(err)
	}
	return connect.NewResponse(&BuildResponse{
		ABI:         res.ABI,
		ContractBOC: res.ContractBOC,
		Files:       res.Files,
	}), nil
}

func (h *ProjectHandler) GetBuildLog(_ context.Context, req *connect.Request[BuildLogRequest]) (*connect.Response[BuildLogResponse], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	events := h.logs.History(id, buildlog.Filter{
		Type: build.EventType(strings.TrimSpace(req.Msg.Type)),
		Text: req.Msg.Text,
	})
	out := &BuildLogResponse{Events: make([]LogEvent, 0, len(events))}
	for _, ev := range events {
		out.Events = append(out.Events, toLogEvent(ev))
	}
	return connect.NewResponse(out), nil
}

func (h *ProjectHandler) ClearBuildLog(_ context.Context, req *connect.Request[ProjectRequest]) (*connect.Response[Empty], error) {
	id, err := requireProjectID(req.Msg.ProjectID)
	if err != nil {
		return nil, err
	}
	h.logs.Clear(id)
	return connect.NewResponse(&Empty{}), nil
}

func toLogEvent(ev build.Event) LogEvent {
	return LogEvent{
		ProjectID: ev.ProjectID,
		Type:      string(ev.Type),
		Message:   ev.Message,
		Time:      ev.Time,
	}
}
