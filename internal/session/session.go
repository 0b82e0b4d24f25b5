// Package session persists named analyses: the dataset, its target, the type
// hints a user has pinned and a log of past runs.
package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/KaramelBytes/tabloom-cli/internal/detect"
	"github.com/KaramelBytes/tabloom-cli/internal/utils"
)

// FileName is the session file stored in each session directory.
const FileName = "session.json"

// Session represents a saved analysis persisted on disk.
type Session struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Dataset   string            `json:"dataset"`
	Target    string            `json:"target,omitempty"`
	Hints     map[string]string `json:"hints"`
	Runs      []Run             `json:"runs"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`

	// Not serialized: on-disk location of the session.json
	rootDir string `json:"-"`
}

// Run records the outputs of one analysis.
type Run struct {
	ID       string    `json:"id"`
	At       time.Time `json:"at"`
	Dataset  string    `json:"dataset"`
	Rows     int       `json:"rows"`
	Report   string    `json:"report,omitempty"`
	Plots    []string  `json:"plots,omitempty"`
	Features string    `json:"features,omitempty"`
	Width    int       `json:"width,omitempty"`
	Warnings int       `json:"warnings,omitempty"`
}

// New constructs an in-memory session. Call Save to persist.
func New(name, dataset, rootDir string) *Session {
	now := time.Now()
	return &Session{
		ID:        uuid.NewString(),
		Name:      name,
		Dataset:   dataset,
		Hints:     make(map[string]string),
		CreatedAt: now,
		UpdatedAt: now,
		rootDir:   rootDir,
	}
}

// Load reads session.json from dir.
func Load(dir string) (*Session, error) {
	path := filepath.Join(dir, FileName)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("session not found at %s: %w", path, err)
		}
		return nil, fmt.Errorf("read session: %w", err)
	}
	var s Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	if s.Hints == nil {
		s.Hints = make(map[string]string)
	}
	s.rootDir = dir
	return &s, nil
}

// Find locates the session containing start by walking up the directory
// tree.
func Find(start string) (*Session, error) {
	dir, err := utils.FindRoot(start, FileName)
	if err != nil {
		return nil, err
	}
	return Load(dir)
}

// List loads every session stored directly under root, sorted by name.
// Subdirectories without a session file are skipped.
func List(root string) ([]*Session, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read sessions dir: %w", err)
	}
	var out []*Session
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := filepath.Join(root, e.Name())
		if _, err := os.Stat(filepath.Join(dir, FileName)); err != nil {
			continue
		}
		s, err := Load(dir)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// RootDir returns the on-disk session directory path.
func (s *Session) RootDir() string { return s.rootDir }

// Save writes session.json using atomic write.
func (s *Session) Save() error {
	if s.rootDir == "" {
		return errors.New("session root directory not set")
	}
	if err := utils.EnsureDir(s.rootDir); err != nil {
		return fmt.Errorf("ensure dir: %w", err)
	}
	s.UpdatedAt = time.Now()
	data, err := utils.PrettyJSON(s)
	if err != nil {
		return err
	}
	return utils.SafeWriteFile(filepath.Join(s.rootDir, FileName), data)
}

// SetTarget records the target column; "" clears it.
func (s *Session) SetTarget(target string) {
	s.Target = strings.TrimSpace(target)
	s.UpdatedAt = time.Now()
}

// SetHint pins column to a type. The type name is validated and stored in
// canonical form.
func (s *Session) SetHint(column, typ string) error {
	column = strings.TrimSpace(column)
	if column == "" {
		return errors.New("hint column is required")
	}
	ct, err := detect.ParseColumnType(typ)
	if err != nil {
		return err
	}
	if s.Hints == nil {
		s.Hints = make(map[string]string)
	}
	s.Hints[column] = ct.String()
	s.UpdatedAt = time.Now()
	return nil
}

// ClearHint removes the hint for column and reports whether one existed.
func (s *Session) ClearHint(column string) bool {
	if _, ok := s.Hints[column]; !ok {
		return false
	}
	delete(s.Hints, column)
	s.UpdatedAt = time.Now()
	return true
}

// TypedHints returns the hints as column types ready for detect.Detect.
func (s *Session) TypedHints() (map[string]detect.ColumnType, error) {
	return detect.ParseHints(s.Hints)
}

// AddRun appends r, assigning a fresh ID and timestamp.
func (s *Session) AddRun(r Run) Run {
	r.ID = uuid.NewString()
	r.At = time.Now()
	if r.Dataset == "" {
		r.Dataset = s.Dataset
	}
	s.Runs = append(s.Runs, r)
	s.UpdatedAt = r.At
	return r
}

// LastRun returns the most recent run.
func (s *Session) LastRun() (Run, bool) {
	if len(s.Runs) == 0 {
		return Run{}, false
	}
	return s.Runs[len(s.Runs)-1], true
}
