package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

type CompletionMeta struct {
	FinalTier   string `json:"final_tier"`
	FinalCount  int64  `json:"final_count"`
	Target      int64  `json:"target"`
	BaseUnits   int64  `json:"base_units"`
	ChainDigest string `json:"chain_digest"`
	Snapshot    string `json:"snapshot"`
	CreatedAt   string `json:"created_at"`
}

// Dir returns the archive directory for a given final-tier count.
func Dir(dataDir string, finalCount int64) string {
	return filepath.Join(dataDir, "archives", fmt.Sprintf("asu_%03d", finalCount))
}

// ArchiveCompletion copies the snapshot into `dataDir/archives/asu_<NNN>/`
// once meta.FinalCount has reached meta.Target. An archive that already exists
// for the same count is left as is and reported with archived=false.
func ArchiveCompletion(dataDir, snapshotPath string, meta CompletionMeta, now time.Time) (archivedPath string, archived bool, err error) {
	if meta.Target <= 0 || meta.FinalCount < meta.Target {
		return "", false, nil
	}

	archiveDir := Dir(dataDir, meta.FinalCount)
	if _, err := os.Stat(archiveDir); err == nil {
		return "", false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", false, err
	}
	if err := os.MkdirAll(archiveDir, 0o755); err != nil {
		return "", false, err
	}

	dst := filepath.Join(archiveDir, filepath.Base(snapshotPath))
	if err := copyFile(snapshotPath, dst); err != nil {
		return "", false, err
	}

	meta.Snapshot = filepath.Base(dst)
	meta.CreatedAt = now.UTC().Format(time.RFC3339Nano)
	b, err := json.MarshalIndent(meta, "", "  ")
	if err != nil {
		return "", false, err
	}
	if err := os.WriteFile(filepath.Join(archiveDir, "meta.json"), b, 0o644); err != nil {
		return "", false, err
	}
	return dst, true, nil
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()

	if _, err := io.Copy(out, in); err != nil {
		return err
	}
	return out.Close()
}
