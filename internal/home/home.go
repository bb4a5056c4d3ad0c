package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the scribe home directory.
	DefaultDirName = ".scribe"

	// DataDirName is the subdirectory for generated document artifacts.
	DataDirName = "data"

	// PromptsDirName is the subdirectory for prompt override templates.
	PromptsDirName = "prompts"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"
)

// Dir represents the scribe home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.scribe).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// DataPath returns the path to the artifact data directory.
func (d *Dir) DataPath() string {
	return filepath.Join(d.path, DataDirName)
}

// PromptsPath returns the directory holding prompt override templates.
func (d *Dir) PromptsPath() string {
	return filepath.Join(d.path, PromptsDirName)
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// SpecDocPath returns the path to a job's requirement specification DOCX.
func (d *Dir) SpecDocPath(jobID string) string {
	return filepath.Join(d.DataPath(), fmt.Sprintf("Functional_Spec_%s.docx", jobID))
}

// CodeDocPath returns the path to a job's generated ABAP code DOCX.
func (d *Dir) CodeDocPath(jobID string) string {
	return filepath.Join(d.DataPath(), fmt.Sprintf("ABAP_Code_%s.docx", jobID))
}

// EnsureExists creates the home directory and subdirectories if they don't exist.
func (d *Dir) EnsureExists() error {
	// Create data directory (this also creates the parent)
	if err := os.MkdirAll(d.DataPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
