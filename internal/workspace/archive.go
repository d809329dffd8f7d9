package workspace

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ArchiveEntry is one record of a decoded archive. Directory names usually
// carry a trailing separator.
type ArchiveEntry struct {
	Filename    string
	IsDirectory bool
	ReadContent func(ctx context.Context) (string, error)
}

// Archive yields the entries of an uploaded project archive in archive order.
type Archive interface {
	Entries(ctx context.Context) ([]ArchiveEntry, error)
}

// ArchiveEntries adapts a plain slice to Archive.
type ArchiveEntries []ArchiveEntry

func (a ArchiveEntries) Entries(context.Context) ([]ArchiveEntry, error) {
	return a, nil
}

// DefaultIgnoreList holds substrings of archive names that are never imported.
var DefaultIgnoreList = []string{
	"._.DS_Store",
	".DS_Store",
	"node_modules",
	"build",
	".git",
	".zip",
}

// Importer rebuilds a project tree from a flat archive listing.
type Importer struct {
	Ignore []string
	Logger *zap.Logger
}

func NewImporter(logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{
		Ignore: append([]string(nil), DefaultIgnoreList...),
		Logger: logger,
	}
}

// Import converts archive entries into nodes and contents, then merges the
// common project files. Directories are collected first so that parent ids
// do not depend on the order in which the archive lists its entries.
// Directories that only appear as a prefix of another entry are created.
func (im *Importer) Import(ctx context.Context, archive Archive) (Instantiation, error) {
	if archive == nil {
		return Instantiation{}, fmt.Errorf("archive is nil")
	}
	logger := im.logger()
	entries, err := archive.Entries(ctx)
	if err != nil {
		return Instantiation{}, fmt.Errorf("read archive entries: %w", err)
	}

	kept := make([]ArchiveEntry, 0, len(entries))
	dirIDs := map[string]string{}
	dirOrder := make([]string, 0, 16)
	addDir := func(p string) {
		if p == "" {
			return
		}
		if _, ok := dirIDs[p]; ok {
			return
		}
		dirIDs[p] = uuid.NewString()
		dirOrder = append(dirOrder, p)
	}
	addAncestors := func(p string) {
		parts := strings.Split(p, "/")
		for i := 1; i < len(parts); i++ {
			addDir(strings.Join(parts[:i], "/"))
		}
	}

	for _, entry := range entries {
		if im.skip(entry.Filename) {
			logger.Debug("archive entry skipped", zap.String("filename", entry.Filename))
			continue
		}
		p := NormalizePath(entry.Filename)
		if p == "" {
			continue
		}
		addAncestors(p)
		if entry.IsDirectory {
			addDir(p)
			continue
		}
		kept = append(kept, entry)
	}

	out := Instantiation{
		Files:       make([]TreeNode, 0, len(dirOrder)+len(kept)),
		FilesWithID: make([]FileContent, 0, len(kept)),
	}
	seen := make(map[string]string, len(dirOrder)+len(kept))
	for _, p := range dirOrder {
		id := dirIDs[p]
		out.Files = append(out.Files, TreeNode{
			ID:     id,
			Name:   Base(p),
			Type:   NodeDirectory,
			Path:   p,
			Parent: dirIDs[Dir(p)],
		})
		seen[p] = id
	}

	for _, entry := range kept {
		p := NormalizePath(entry.Filename)
		if _, dup := seen[p]; dup {
			logger.Debug("archive entry duplicated", zap.String("path", p))
			continue
		}
		content := ""
		if entry.ReadContent != nil {
			content, err = entry.ReadContent(ctx)
			if err != nil {
				return Instantiation{}, fmt.Errorf("read %s: %w", entry.Filename, err)
			}
		}
		id := uuid.NewString()
		out.Files = append(out.Files, TreeNode{
			ID:     id,
			Name:   Base(p),
			Type:   NodeFile,
			Path:   p,
			Parent: dirIDs[Dir(p)],
		})
		out.FilesWithID = append(out.FilesWithID, FileContent{ID: id, Content: content})
		seen[p] = id
	}

	common, err := Instantiate(TemplateImport, CommonProjectFiles())
	if err != nil {
		return Instantiation{}, err
	}
	mergeCommon(&out, common, seen)

	logger.Info("archive imported",
		zap.Int("entries", len(entries)),
		zap.Int("nodes", len(out.Files)),
		zap.Int("files", len(out.FilesWithID)),
	)
	return out, nil
}

// mergeCommon appends the common files whose paths the archive did not
// already provide.
func mergeCommon(out *Instantiation, common Instantiation, seen map[string]string) {
	contents := make(map[string]FileContent, len(common.FilesWithID))
	for _, fc := range common.FilesWithID {
		contents[fc.ID] = fc
	}
	remap := map[string]string{}
	for _, n := range common.Files {
		if existing, ok := seen[n.Path]; ok {
			remap[n.ID] = existing
			continue
		}
		if to, ok := remap[n.Parent]; ok {
			n.Parent = to
		}
		out.Files = append(out.Files, n)
		if n.IsFile() {
			out.FilesWithID = append(out.FilesWithID, contents[n.ID])
		}
		seen[n.Path] = n.ID
	}
}

func (im *Importer) skip(filename string) bool {
	return Ignored(filename, im.Ignore)
}

// Ignored reports whether filename contains any of the patterns.
func Ignored(filename string, patterns []string) bool {
	for _, pattern := range patterns {
		if pattern != "" && strings.Contains(filename, pattern) {
			return true
		}
	}
	return false
}

func (im *Importer) logger() *zap.Logger {
	if im == nil || im.Logger == nil {
		return zap.NewNop()
	}
	return im.Logger
}
