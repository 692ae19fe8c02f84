package tagstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"github.com/tailscale/hujson"

	"github.com/starford/foldertags/internal/models"
)

// Version is written into every saved state blob.
const Version = "1"

// State is the persisted engine configuration: settings plus the folder
// tag map.
type State struct {
	Settings   models.Settings     `json:"settings"`
	FolderTags map[string][]string `json:"folderTags"`
	Version    string              `json:"version"`
}

// Blob stores one opaque configuration document. Load returns
// os.ErrNotExist when nothing has been saved yet.
type Blob interface {
	Load(ctx context.Context) ([]byte, error)
	Save(ctx context.Context, data []byte) error
}

// Load reads and decodes the state held by blob. A missing or unreadable
// blob yields fallback settings and an empty map; the failure is logged
// and never returned.
func Load(ctx context.Context, blob Blob, fallback models.Settings, logger *slog.Logger) State {
	empty := State{Settings: fallback.Clone(), FolderTags: map[string][]string{}, Version: Version}

	data, err := blob.Load(ctx)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("tagstore: no saved state, using defaults")
		} else {
			logger.Warn("tagstore: load state failed, using defaults", slog.String("error", err.Error()))
		}
		return empty
	}
	st, err := Decode(data, fallback)
	if err != nil {
		logger.Warn("tagstore: corrupt state, using defaults", slog.String("error", err.Error()))
		return empty
	}
	return st
}

// Decode parses a state document. Comments and trailing commas are
// accepted. Fields absent from the document keep the fallback values.
func Decode(data []byte, fallback models.Settings) (State, error) {
	standardized, err := hujson.Standardize(data)
	if err != nil {
		return State{}, fmt.Errorf("tagstore: decode: %w", err)
	}
	st := State{Settings: fallback.Clone()}
	dec := json.NewDecoder(bytes.NewReader(standardized))
	if err := dec.Decode(&st); err != nil {
		return State{}, fmt.Errorf("tagstore: decode: %w", err)
	}
	if st.FolderTags == nil {
		st.FolderTags = map[string][]string{}
	}
	if st.Settings.ExcludedFolders == nil {
		st.Settings.ExcludedFolders = []string{}
	}
	if !st.Settings.InheritanceMode.Valid() {
		st.Settings.InheritanceMode = fallback.InheritanceMode
	}
	if st.Version == "" {
		st.Version = Version
	}
	return st, nil
}

// Encode serialises st as indented JSON.
func Encode(st State) ([]byte, error) {
	if st.Version == "" {
		st.Version = Version
	}
	if st.FolderTags == nil {
		st.FolderTags = map[string][]string{}
	}
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("tagstore: encode: %w", err)
	}
	return append(data, '\n'), nil
}

// Save encodes st and writes it to blob.
func Save(ctx context.Context, blob Blob, st State) error {
	data, err := Encode(st)
	if err != nil {
		return err
	}
	if err := blob.Save(ctx, data); err != nil {
		return fmt.Errorf("tagstore: save: %w", err)
	}
	return nil
}

// FileBlob keeps the state document in a single file.
type FileBlob struct {
	Path string
}

// Load reads the file. A missing file reports os.ErrNotExist.
func (f FileBlob) Load(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("tagstore: read %s: %w", f.Path, err)
	}
	return data, nil
}

// Save replaces the file atomically, creating parent directories.
func (f FileBlob) Save(_ context.Context, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
		return fmt.Errorf("tagstore: mkdir: %w", err)
	}
	if err := atomic.WriteFile(f.Path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("tagstore: write %s: %w", f.Path, err)
	}
	return nil
}
