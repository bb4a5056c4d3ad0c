package prompts

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// validKeyPattern matches valid prompt keys (alphanumeric with dots, underscores).
var validKeyPattern = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9._]*$`)

// overrideExt is the file extension for prompt override files.
const overrideExt = ".tmpl"

// LoadOverrides reads prompt override files from a directory.
// Each <key>.tmpl file overrides the embedded prompt with that key.
// A missing directory is not an error; files with invalid key names are
// skipped.
func LoadOverrides(dir string) (map[string]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read prompt override dir: %w", err)
	}

	overrides := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), overrideExt) {
			continue
		}

		key := strings.TrimSuffix(entry.Name(), overrideExt)
		if !validKeyPattern.MatchString(key) {
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("failed to read prompt override %s: %w", entry.Name(), err)
		}
		overrides[key] = string(data)
	}

	return overrides, nil
}

// LoadOverrideDir loads override files from dir into the resolver.
// Returns the number of overrides installed.
func (r *Resolver) LoadOverrideDir(dir string) (int, error) {
	overrides, err := LoadOverrides(dir)
	if err != nil {
		return 0, err
	}

	for key, text := range overrides {
		r.SetOverride(key, text)
		r.logger.Debug("loaded prompt override", "key", key, "dir", dir)
	}
	return len(overrides), nil
}
