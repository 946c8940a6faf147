package replicate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sdejongh/makeuniversal/pkg/logging"
	"github.com/sdejongh/makeuniversal/pkg/storage"
)

// Native replicates trees in-process through the local storage backend
type Native struct {
	logger logging.Logger
}

// NewNative creates an in-process replicator
func NewNative(logger logging.Logger) *Native {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &Native{logger: logger}
}

// Name returns the replicator name
func (n *Native) Name() string {
	return "native"
}

// Replicate copies directories, symlinks and regular files from sourceRoot.
// Existing destination files are overwritten; extra destination entries are kept
func (n *Native) Replicate(ctx context.Context, sourceRoot, destinationRoot string) error {
	source, err := storage.NewLocal(sourceRoot)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer source.Close()

	if err := os.MkdirAll(destinationRoot, 0755); err != nil {
		return fmt.Errorf("failed to create destination: %w", err)
	}
	dest, err := storage.NewLocal(destinationRoot)
	if err != nil {
		return fmt.Errorf("failed to open destination: %w", err)
	}
	defer dest.Close()

	entries, err := source.List(ctx, "")
	if err != nil {
		return err
	}

	var dirs []storage.FileInfo
	for i := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}

		entry := &entries[i]
		switch {
		case entry.IsDir():
			// Writable while populating; final modes applied afterwards
			if err := dest.MkdirAll(ctx, entry.RelativePath, 0755); err != nil {
				return err
			}
			dirs = append(dirs, *entry)

		case entry.IsSymlink():
			if err := dest.Symlink(ctx, entry.LinkTarget, entry.RelativePath); err != nil {
				return err
			}

		case entry.IsRegular():
			if err := copyFile(ctx, source, dest, entry); err != nil {
				return err
			}

		default:
			n.logger.Warn(ctx, "Skipping special file", logging.Fields{
				"path": entry.RelativePath,
				"mode": entry.Mode.String(),
			})
		}
	}

	// Deepest first so a read-only parent never blocks its children
	for i := len(dirs) - 1; i >= 0; i-- {
		full := filepath.Join(dest.Root(), dirs[i].RelativePath)
		if err := os.Chmod(full, dirs[i].Mode.Perm()); err != nil {
			return fmt.Errorf("failed to set directory permissions: %w", err)
		}
		if err := os.Chtimes(full, dirs[i].ModTime, dirs[i].ModTime); err != nil {
			return fmt.Errorf("failed to set directory times: %w", err)
		}
	}

	return nil
}

func copyFile(ctx context.Context, source, dest *storage.Local, entry *storage.FileInfo) error {
	reader, err := source.Read(ctx, entry.RelativePath)
	if err != nil {
		return fmt.Errorf("failed to read source: %w", err)
	}
	defer reader.Close()

	if err := dest.Write(ctx, entry.RelativePath, reader, entry.Size, entry); err != nil {
		return fmt.Errorf("failed to write %s: %w", entry.RelativePath, err)
	}
	return nil
}
