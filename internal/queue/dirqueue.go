// Package queue implements the directory-backed work queue shared by the
// ingress and worker processes. A file's presence in the watch directory is
// the enqueue signal; the job id encoded in the filename is the join key.
package queue

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
)

const (
	overlayMarker = ".overlay"
	resultSuffix  = "_redacted"
)

// Entry is one discovered work item.
type Entry struct {
	JobID       uuid.UUID
	Path        string
	OverlayPath string // empty when the job supplied no overlay
	Ext         string
}

// Dir binds the three coordination directories. The ingress process only
// ever writes into Watch; the worker is the sole reader and remover.
type Dir struct {
	Watch   string
	Output  string
	ArchiveDir string
}

func New(watch, output, archive string) *Dir {
	return &Dir{Watch: watch, Output: output, ArchiveDir: archive}
}

func (d *Dir) EnsureDirs() error {
	for _, p := range []string{d.Watch, d.Output, d.ArchiveDir} {
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("mkdir %s: %w", p, err)
		}
	}
	return nil
}

// Put writes the input image for jobID into the watch directory. The write
// goes through a dot-prefixed temp file and a rename so a concurrent Scan
// never observes a partial file.
func (d *Dir) Put(jobID uuid.UUID, ext string, data []byte) (string, error) {
	return d.place(jobID.String()+ext, data)
}

// PutOverlay writes a caller-supplied overlay next to the input. Overlay
// files are never scanned as work items.
func (d *Dir) PutOverlay(jobID uuid.UUID, ext string, data []byte) (string, error) {
	return d.place(jobID.String()+overlayMarker+ext, data)
}

func (d *Dir) place(name string, data []byte) (string, error) {
	tmp, err := os.CreateTemp(d.Watch, ".put-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp: %w", err)
	}
	final := filepath.Join(d.Watch, name)
	if err := os.Rename(tmp.Name(), final); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename into queue: %w", err)
	}
	return final, nil
}

// Scan lists pending work items. Dot files, overlay files and files whose
// stem is not a job id are skipped. A missing or empty watch directory is a
// no-op, not an error. Entries come back in name order so processing is
// reproducible across platforms regardless of directory listing order.
func (d *Dir) Scan() ([]Entry, error) {
	listing, err := os.ReadDir(d.Watch)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan %s: %w", d.Watch, err)
	}

	overlays := map[string]string{} // job id -> overlay path
	var entries []Entry
	for _, item := range listing {
		if item.IsDir() {
			continue
		}
		name := item.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		ext := filepath.Ext(name)
		stem := strings.TrimSuffix(name, ext)
		if cut, ok := strings.CutSuffix(stem, overlayMarker); ok {
			if id, err := uuid.Parse(cut); err == nil {
				overlays[id.String()] = filepath.Join(d.Watch, name)
			}
			continue
		}
		id, err := uuid.Parse(stem)
		if err != nil {
			continue
		}
		entries = append(entries, Entry{
			JobID: id,
			Path:  filepath.Join(d.Watch, name),
			Ext:   ext,
		})
	}

	for i := range entries {
		entries[i].OverlayPath = overlays[entries[i].JobID.String()]
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries, nil
}

// Archive moves a consumed input (and its overlay, if any) out of the watch
// directory so it is never reprocessed, succeeding or not.
func (d *Dir) Archive(e Entry) error {
	if err := os.Rename(e.Path, filepath.Join(d.ArchiveDir, filepath.Base(e.Path))); err != nil {
		return fmt.Errorf("archive input: %w", err)
	}
	if e.OverlayPath != "" {
		if err := os.Rename(e.OverlayPath, filepath.Join(d.ArchiveDir, filepath.Base(e.OverlayPath))); err != nil {
			return fmt.Errorf("archive overlay: %w", err)
		}
	}
	return nil
}

// WriteResult persists the redacted output and returns its path.
func (d *Dir) WriteResult(jobID uuid.UUID, ext string, data []byte) (string, error) {
	path := d.OutputPath(jobID, ext)
	tmp, err := os.CreateTemp(d.Output, ".out-*")
	if err != nil {
		return "", fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close temp: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("rename result: %w", err)
	}
	return path, nil
}

// OutputPath returns where a job's redacted image lands.
func (d *Dir) OutputPath(jobID uuid.UUID, ext string) string {
	return filepath.Join(d.Output, jobID.String()+resultSuffix+ext)
}
