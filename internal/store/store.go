package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound    = errors.New("not found")
	ErrInvalidPath = errors.New("invalid path")
)

const (
	jobsDir     = "jobs"
	exportsDir  = "exports"
	uploadsDir  = "uploads"
	manifestKey = "manifest.json"
)

type FS struct{ Root string }

func New(root string) (*FS, error) {
	for _, d := range []string{jobsDir, exportsDir} {
		if err := os.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return nil, err
		}
	}
	return &FS{Root: root}, nil
}

// NewID returns a fresh job or export id.
func NewID() string { return uuid.NewString() }

func validID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: id %q", ErrInvalidPath, id)
	}
	return nil
}

// cleanRel rejects names that would escape their directory.
func cleanRel(name string) (string, error) {
	clean := filepath.ToSlash(filepath.Clean(name))
	if name == "" || clean == "." || strings.HasPrefix(clean, "../") || clean == ".." || filepath.IsAbs(name) || strings.HasPrefix(clean, "/") {
		return "", fmt.Errorf("%w: %q", ErrInvalidPath, name)
	}
	return clean, nil
}

func (s *FS) JobDir(id string) string { return filepath.Join(s.Root, jobsDir, id) }

func (s *FS) MkJob(id string) (string, error) {
	if err := validID(id); err != nil {
		return "", err
	}
	j := s.JobDir(id)
	return j, os.MkdirAll(filepath.Join(j, uploadsDir), 0o755)
}

// SaveUpload stores an uploaded file under the job, keeping only its base name.
// Files are prefixed with their arrival ordinal so repeated names never
// overwrite each other and Uploads can return them in upload order.
func (s *FS) SaveUpload(id, name string, data []byte) error {
	if err := validID(id); err != nil {
		return err
	}
	base := filepath.Base(filepath.Clean("/" + name))
	if base == "/" || base == "." {
		return fmt.Errorf("%w: upload name %q", ErrInvalidPath, name)
	}
	dir := filepath.Join(s.JobDir(id), uploadsDir)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	stored := fmt.Sprintf("%04d_%s", len(entries), base)
	return os.WriteFile(filepath.Join(dir, stored), data, 0o644)
}

// RemoveJob deletes a job directory and everything uploaded into it.
func (s *FS) RemoveJob(id string) error {
	if err := validID(id); err != nil {
		return err
	}
	return os.RemoveAll(s.JobDir(id))
}

type Upload struct {
	Name string
	Data []byte
}

// splitOrdinal separates the arrival prefix written by SaveUpload from the
// original name. Files without a prefix sort last.
func splitOrdinal(stored string) (int, string) {
	prefix, name, ok := strings.Cut(stored, "_")
	if !ok {
		return math.MaxInt, stored
	}
	n, err := strconv.Atoi(prefix)
	if err != nil {
		return math.MaxInt, stored
	}
	return n, name
}

// Uploads returns the job's files in the order they were uploaded.
func (s *FS) Uploads(id string) ([]Upload, error) {
	if err := validID(id); err != nil {
		return nil, err
	}
	dir := filepath.Join(s.JobDir(id), uploadsDir)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	type ordered struct {
		n int
		Upload
	}
	var all []ordered
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		b, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		n, name := splitOrdinal(e.Name())
		all = append(all, ordered{n: n, Upload: Upload{Name: name, Data: b}})
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].n < all[j].n })
	out := make([]Upload, 0, len(all))
	for _, u := range all {
		out = append(out, u.Upload)
	}
	return out, nil
}

type File struct {
	Name        string
	ContentType string
	Body        []byte
}

type Manifest struct {
	ID        string         `json:"id"`
	Project   string         `json:"project"`
	CreatedAt time.Time      `json:"createdAt"`
	Files     []ManifestFile `json:"files"`
}

type ManifestFile struct {
	Name        string `json:"name"`
	ContentType string `json:"contentType"`
	Size        int    `json:"size"`
}

func (s *FS) exportDir(id string) string { return filepath.Join(s.Root, exportsDir, id) }

// SaveExport writes every file of an export plus a manifest describing them.
func (s *FS) SaveExport(id, project string, files []File) (Manifest, error) {
	if err := validID(id); err != nil {
		return Manifest{}, err
	}
	dir := s.exportDir(id)
	m := Manifest{ID: id, Project: project, CreatedAt: time.Now().UTC()}
	for _, f := range files {
		rel, err := cleanRel(f.Name)
		if err != nil {
			return Manifest{}, err
		}
		p := filepath.Join(dir, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			return Manifest{}, err
		}
		if err := os.WriteFile(p, f.Body, 0o644); err != nil {
			return Manifest{}, fmt.Errorf("write %s: %w", rel, err)
		}
		m.Files = append(m.Files, ManifestFile{Name: rel, ContentType: f.ContentType, Size: len(f.Body)})
	}
	sort.Slice(m.Files, func(i, j int) bool { return m.Files[i].Name < m.Files[j].Name })

	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := os.WriteFile(filepath.Join(dir, manifestKey), b, 0o644); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func (s *FS) Manifest(id string) (Manifest, error) {
	if err := validID(id); err != nil {
		return Manifest{}, err
	}
	b, err := os.ReadFile(filepath.Join(s.exportDir(id), manifestKey))
	if errors.Is(err, fs.ErrNotExist) {
		return Manifest{}, ErrNotFound
	}
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := json.Unmarshal(b, &m); err != nil {
		return Manifest{}, fmt.Errorf("decode manifest: %w", err)
	}
	return m, nil
}

// ReadExportFile returns one stored file. Only names listed in the manifest
// are served.
func (s *FS) ReadExportFile(id, name string) (File, error) {
	m, err := s.Manifest(id)
	if err != nil {
		return File{}, err
	}
	rel, err := cleanRel(name)
	if err != nil {
		return File{}, err
	}
	for _, mf := range m.Files {
		if mf.Name != rel {
			continue
		}
		b, err := os.ReadFile(filepath.Join(s.exportDir(id), filepath.FromSlash(rel)))
		if err != nil {
			return File{}, err
		}
		return File{Name: rel, ContentType: mf.ContentType, Body: b}, nil
	}
	return File{}, ErrNotFound
}
