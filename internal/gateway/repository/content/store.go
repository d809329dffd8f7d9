package content

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tonide/internal/workspace"
)

// Store persists file bodies keyed by node id, scoped by project.
type Store interface {
	Put(ctx context.Context, projectID string, files ...workspace.FileContent) error
	Get(ctx context.Context, projectID, id string) (workspace.FileContent, error)
	Delete(ctx context.Context, projectID string, ids ...string) error
	List(ctx context.Context, projectID string) ([]string, error)
}

var ErrNotFound = errors.New("file content not found")

func validateKey(projectID, id string) (string, string, error) {
	projectID = strings.TrimSpace(projectID)
	id = strings.TrimSpace(id)
	if projectID == "" {
		return "", "", fmt.Errorf("project_id is required")
	}
	if id == "" {
		return "", "", fmt.Errorf("id is required")
	}
	if strings.ContainsAny(projectID, "/\\") || strings.ContainsAny(id, "/\\") || strings.Contains(projectID+id, "..") {
		return "", "", fmt.Errorf("invalid content key: %s/%s", projectID, id)
	}
	return projectID, id, nil
}

func contentKey(projectID, id string) string {
	return strings.TrimSpace(projectID) + "/" + strings.TrimSpace(id)
}
