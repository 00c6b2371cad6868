package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"vet-clinic-scheduler/internal/infra"
)

// writeJSONAtomic replaces path with the JSON encoding of v. The data is written to a temporary
// file in the same directory, flushed to stable storage and renamed over path, so readers see
// either the old or the new content.
func writeJSONAtomic(logger *slog.Logger, path string, v any) error {
	data, err := json.MarshalIndent(v, "", "    ")
	if err != nil {
		return infra.WrapStoreErr(logger, infra.KindEncodeFailure, "failed to encode "+filepath.Base(path), err)
	}

	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to create temporary file for "+filepath.Base(path), err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if tmpPath != "" {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to write "+filepath.Base(path), err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to flush "+filepath.Base(path), err)
	}
	if err := tmp.Close(); err != nil {
		return infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to close "+filepath.Base(path), err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return infra.WrapStoreErr(logger, infra.KindIOFailure, "failed to replace "+filepath.Base(path), err)
	}
	tmpPath = ""

	syncDir(logger, dir)
	return nil
}

// syncDir persists the rename itself. Not every platform supports fsync on directories.
func syncDir(logger *slog.Logger, dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		logger.Debug("directory sync not supported", "dir", dir, "error", err)
	}
}

// readFile returns (nil, false, nil) when path does not exist yet.
func readFile(path string) ([]byte, bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}
