package archive

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"tonide/internal/safeio"
	"tonide/internal/workspace"
)

// skippedDirs are never descended into when importing a directory.
var skippedDirs = map[string]bool{
	".git": true, ".hg": true, ".svn": true,
	"node_modules": true, "vendor": true, "build": true, ".cache": true,
}

// Dir is a project checked out on the local filesystem. Files are read
// lazily through a root-confined filesystem. Skip works as it does for
// Upload.
type Dir struct {
	Root   string
	Limits Limits
	Skip   func(name string) bool
}

// Entries implements workspace.Archive. Entries come in walk order, so
// parents precede children.
func (d Dir) Entries(ctx context.Context) ([]workspace.ArchiveEntry, error) {
	limits := d.Limits.withDefaults()
	info, err := os.Stat(d.Root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", d.Root)
	}
	fsys, err := safeio.New(d.Root)
	if err != nil {
		return nil, err
	}

	var entries []workspace.ArchiveEntry
	err = fs.WalkDir(fsys, ".", func(name string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if name == "." {
			return nil
		}
		skip := defaultSkip
		if d.Skip != nil {
			skip = d.Skip
		}
		if e.IsDir() {
			if skippedDirs[e.Name()] || skip(name) {
				return fs.SkipDir
			}
		} else if skip(name) || !e.Type().IsRegular() {
			return nil
		}
		if len(entries) >= limits.MaxEntries {
			return ErrTooManyEntries
		}
		if e.IsDir() {
			entries = append(entries, workspace.ArchiveEntry{Filename: name + "/", IsDirectory: true})
			return nil
		}
		info, err := e.Info()
		if err != nil {
			return err
		}
		if info.Size() > limits.MaxFileBytes {
			return fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
		}
		rel := filepath.FromSlash(name)
		entries = append(entries, workspace.ArchiveEntry{
			Filename: name,
			ReadContent: func(context.Context) (string, error) {
				raw, err := fsys.ReadFile(rel)
				if err != nil {
					return "", err
				}
				return string(raw), nil
			},
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}
