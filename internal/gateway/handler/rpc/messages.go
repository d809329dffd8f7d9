package rpc

import (
	"time"

	"tonide/internal/workspace"
)

type CreateProjectRequest struct {
	Name     string               `json:"name"`
	Template string               `json:"template"`
	Files    []workspace.TreeNode `json:"files,omitempty"`
}

type ImportProjectRequest struct {
	Name     string `json:"name"`
	Filename string `json:"filename"`
	Archive  []byte `json:"archive"`
}

type ProjectResponse struct {
	Project workspace.Project `json:"project"`
}

type ListProjectsRequest struct{}

type ListProjectsResponse struct {
	Projects []workspace.Project `json:"projects"`
}

type ProjectRequest struct {
	ProjectID string `json:"projectId"`
}

type Empty struct{}

type GetTreeResponse struct {
	Nodes []workspace.TreeNode `json:"nodes"`
}

type ReadFileRequest struct {
	ProjectID string `json:"projectId"`
	Path      string `json:"path"`
}

type ReadFileResponse struct {
	File workspace.FileRecord `json:"file"`
}

type WriteFileRequest struct {
	ProjectID string `json:"projectId"`
	Path      string `json:"path"`
	Content   string `json:"content"`
}

type NodeResponse struct {
	Node workspace.TreeNode `json:"node"`
}

type CreateNodeRequest struct {
	ProjectID  string `json:"projectId"`
	ParentPath string `json:"parentPath"`
	Name       string `json:"name"`
	Type       string `json:"type"`
	Content    string `json:"content,omitempty"`
}

type DeleteNodeRequest struct {
	ProjectID string `json:"projectId"`
	Path      string `json:"path"`
}

type DeleteNodeResponse struct {
	RemovedIDs []string `json:"removedIds"`
}

type RenameNodeRequest struct {
	ProjectID string `json:"projectId"`
	Path      string `json:"path"`
	NewName   string `json:"newName"`
}

type BuildRequest struct {
	ProjectID string `json:"projectId"`
	EntryPath string `json:"entryPath"`
}

type BuildResponse struct {
	ABI         *workspace.ABI `json:"abi"`
	ContractBOC string         `json:"contractBOC"`
	Files       []string       `json:"files"`
}

type BuildLogRequest struct {
	ProjectID string `json:"projectId"`
	Type      string `json:"type,omitempty"`
	Text      string `json:"text,omitempty"`
}

type BuildLogResponse struct {
	Events []LogEvent `json:"events"`
}

type LogEvent struct {
	ProjectID string    `json:"projectId"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Time      time.Time `json:"time"`
}
