// Package archive decodes uploaded project archives (zip, tar and the
// compressed tar variants) into workspace archive entries.
package archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/mholt/archives"

	"tonide/internal/workspace"
)

var (
	ErrNotArchive     = errors.New("unsupported archive format")
	ErrTooManyEntries = errors.New("archive has too many entries")
	ErrEntryTooLarge  = errors.New("archive entry too large")
)

type Limits struct {
	MaxEntries   int
	MaxFileBytes int64
}

func DefaultLimits() Limits {
	return Limits{
		MaxEntries:   2000,
		MaxFileBytes: 1 << 20, // 1MiB
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxEntries <= 0 {
		l.MaxEntries = def.MaxEntries
	}
	if l.MaxFileBytes <= 0 {
		l.MaxFileBytes = def.MaxFileBytes
	}
	return l
}

// Upload is an archive held in memory. Name is only used to help format
// detection. Entries matched by Skip are dropped before limits are checked
// and their bodies are never read; a nil Skip uses workspace.DefaultIgnoreList.
type Upload struct {
	Name   string
	Data   []byte
	Limits Limits
	Skip   func(name string) bool
}

func (u Upload) skip(name string) bool {
	if u.Skip != nil {
		return u.Skip(name)
	}
	return defaultSkip(name)
}

func defaultSkip(name string) bool {
	return workspace.Ignored(name, workspace.DefaultIgnoreList)
}

// Entries implements workspace.Archive. File bodies are read while the
// archive is walked, so ReadContent never touches the archive again.
func (u Upload) Entries(ctx context.Context) ([]workspace.ArchiveEntry, error) {
	limits := u.Limits.withDefaults()

	format, _, err := archives.Identify(ctx, u.Name, bytes.NewReader(u.Data))
	if err != nil {
		if errors.Is(err, archives.NoMatch) {
			return nil, ErrNotArchive
		}
		return nil, fmt.Errorf("identify archive: %w", err)
	}
	ex, ok := format.(archives.Extractor)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotArchive, format.Extension())
	}

	entries := make([]workspace.ArchiveEntry, 0, 64)
	err = ex.Extract(ctx, bytes.NewReader(u.Data), func(ctx context.Context, f archives.FileInfo) error {
		name := strings.ReplaceAll(f.NameInArchive, "\\", "/")
		if u.skip(name) {
			return nil
		}
		if len(entries) >= limits.MaxEntries {
			return ErrTooManyEntries
		}
		if f.IsDir() {
			entries = append(entries, workspace.ArchiveEntry{Filename: name, IsDirectory: true})
			return nil
		}
		if !f.Mode().IsRegular() {
			return nil
		}
		if f.Size() > limits.MaxFileBytes {
			return fmt.Errorf("%w: %s", ErrEntryTooLarge, name)
		}
		body, err := readAll(f, limits.MaxFileBytes)
		if err != nil {
			return fmt.Errorf("%s: %w", name, err)
		}
		entries = append(entries, workspace.ArchiveEntry{
			Filename:    name,
			ReadContent: staticContent(body),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func readAll(f archives.FileInfo, max int64) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()
	raw, err := io.ReadAll(io.LimitReader(rc, max+1))
	if err != nil {
		return "", err
	}
	if int64(len(raw)) > max {
		return "", ErrEntryTooLarge
	}
	return string(raw), nil
}

func staticContent(body string) func(context.Context) (string, error) {
	return func(context.Context) (string, error) { return body, nil }
}
