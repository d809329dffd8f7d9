package rpc

import (
	"net/http"

	"connectrpc.com/connect"
)

const ProjectServiceName = "tonide.v1.ProjectService"

const (
	CreateProjectProcedure = "/" + ProjectServiceName + "/CreateProject"
	ImportProjectProcedure = "/" + ProjectServiceName + "/ImportProject"
	ListProjectsProcedure  = "/" + ProjectServiceName + "/ListProjects"
	GetProjectProcedure    = "/" + ProjectServiceName + "/GetProject"
	DeleteProjectProcedure = "/" + ProjectServiceName + "/DeleteProject"
	GetTreeProcedure       = "/" + ProjectServiceName + "/GetTree"
	ReadFileProcedure      = "/" + ProjectServiceName + "/ReadFile"
	WriteFileProcedure     = "/" + ProjectServiceName + "/WriteFile"
	CreateNodeProcedure    = "/" + ProjectServiceName + "/CreateNode"
	DeleteNodeProcedure    = "/" + ProjectServiceName + "/DeleteNode"
	RenameNodeProcedure    = "/" + ProjectServiceName + "/RenameNode"
	BuildProcedure         = "/" + ProjectServiceName + "/Build"
	GetBuildLogProcedure   = "/" + ProjectServiceName + "/GetBuildLog"
	ClearBuildLogProcedure = "/" + ProjectServiceName + "/ClearBuildLog"
)

// NewProjectServiceHandler mounts every procedure of h and returns the
// path prefix to register on a mux.
func NewProjectServiceHandler(h *ProjectHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = append([]connect.HandlerOption{connect.WithCodec(jsonCodec{})}, opts...)
	mux := http.NewServeMux()
	mux.Handle(CreateProjectProcedure, connect.NewUnaryHandler(CreateProjectProcedure, h.CreateProject, opts...))
	mux.Handle(ImportProjectProcedure, connect.NewUnaryHandler(ImportProjectProcedure, h.ImportProject, opts...))
	mux.Handle(ListProjectsProcedure, connect.NewUnaryHandler(ListProjectsProcedure, h.ListProjects, opts...))
	mux.Handle(GetProjectProcedure, connect.NewUnaryHandler(GetProjectProcedure, h.GetProject, opts...))
	mux.Handle(DeleteProjectProcedure, connect.NewUnaryHandler(DeleteProjectProcedure, h.DeleteProject, opts...))
	mux.Handle(GetTreeProcedure, connect.NewUnaryHandler(GetTreeProcedure, h.GetTree, opts...))
	mux.Handle(ReadFileProcedure, connect.NewUnaryHandler(ReadFileProcedure, h.ReadFile, opts...))
	mux.Handle(WriteFileProcedure, connect.NewUnaryHandler(WriteFileProcedure, h.WriteFile, opts...))
	mux.Handle(CreateNodeProcedure, connect.NewUnaryHandler(CreateNodeProcedure, h.CreateNode, opts...))
	mux.Handle(DeleteNodeProcedure, connect.NewUnaryHandler(DeleteNodeProcedure, h.DeleteNode, opts...))
	mux.Handle(RenameNodeProcedure, connect.NewUnaryHandler(RenameNodeProcedure, h.RenameNode, opts...))
	mux.Handle(BuildProcedure, connect.NewUnaryHandler(BuildProcedure, h.Build, opts...))
	mux.Handle(GetBuildLogProcedure, connect.NewUnaryHandler(GetBuildLogProcedure, h.GetBuildLog, opts...))
	mux.Handle(ClearBuildLogProcedure, connect.NewUnaryHandler(ClearBuildLogProcedure, h.ClearBuildLog, opts...))
	return "/" + ProjectServiceName + "/", mux
}

// ProjectServiceClient calls the project service over HTTP.
type ProjectServiceClient struct {
	CreateProject *connect.Client[CreateProjectRequest, ProjectResponse]
	ImportProject *connect.Client[ImportProjectRequest, ProjectResponse]
	ListProjects  *connect.Client[ListProjectsRequest, ListProjectsResponse]
	GetProject    *connect.Client[ProjectRequest, ProjectResponse]
	DeleteProject *connect.Client[ProjectRequest, Empty]
	GetTree       *connect.Client[ProjectRequest, GetTreeResponse]
	ReadFile      *connect.Client[ReadFileRequest, ReadFileResponse]
	WriteFile     *connect.Client[WriteFileRequest, NodeResponse]
	CreateNode    *connect.Client[CreateNodeRequest, NodeResponse]
	DeleteNode    *connect.Client[DeleteNodeRequest, DeleteNodeResponse]
	RenameNode    *connect.Client[RenameNodeRequest, NodeResponse]
	Build         *connect.Client[BuildRequest, BuildResponse]
	GetBuildLog   *connect.Client[BuildLogRequest, BuildLogResponse]
	ClearBuildLog *connect.Client[ProjectRequest, Empty]
}

func NewProjectServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) *ProjectServiceClient {
	opts = append([]connect.ClientOption{connect.WithCodec(jsonCodec{})}, opts...)
	return &ProjectServiceClient{
		CreateProject: connect.NewClient[CreateProjectRequest, ProjectResponse](httpClient, baseURL+CreateProjectProcedure, opts...),
		ImportProject: connect.NewClient[ImportProjectRequest, ProjectResponse](httpClient, baseURL+ImportProjectProcedure, opts...),
		ListProjects:  connect.NewClient[ListProjectsRequest, ListProjectsResponse](httpClient, baseURL+ListProjectsProcedure, opts...),
		GetProject:    connect.NewClient[ProjectRequest, ProjectResponse](httpClient, baseURL+GetProjectProcedure, opts...),
		DeleteProject: connect.NewClient[ProjectRequest, Empty](httpClient, baseURL+DeleteProjectProcedure, opts...),
		GetTree:       connect.NewClient[ProjectRequest, GetTreeResponse](httpClient, baseURL+GetTreeProcedure, opts...),
		ReadFile:      connect.NewClient[ReadFileRequest, ReadFileResponse](httpClient, baseURL+ReadFileProcedure, opts...),
		WriteFile:     connect.NewClient[WriteFileRequest, NodeResponse](httpClient, baseURL+WriteFileProcedure, opts...),
		CreateNode:    connect.NewClient[CreateNodeRequest, NodeResponse](httpClient, baseURL+CreateNodeProcedure, opts...),
		DeleteNode:    connect.NewClient[DeleteNodeRequest, DeleteNodeResponse](httpClient, baseURL+DeleteNodeProcedure, opts...),
		RenameNode:    connect.NewClient[RenameNodeRequest, NodeResponse](httpClient, baseURL+RenameNodeProcedure, opts...),
		Build:         connect.NewClient[BuildRequest, BuildResponse](httpClient, baseURL+BuildProcedure, opts...),
		GetBuildLog:   connect.NewClient[BuildLogRequest, BuildLogResponse](httpClient, baseURL+GetBuildLogProcedure, opts...),
		ClearBuildLog: connect.NewClient[ProjectRequest, Empty](httpClient, baseURL+ClearBuildLogProcedure, opts...),
	}
}
