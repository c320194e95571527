// Package template loads perspective definitions from YAML files and turns
// them into heuristic agents.
//
// A template looks like:
//
//	perspective: compliance
//	description: Regulatory exposure and audit burden.
//	focus: regulatory exposure
//	base_confidence: 0.6
//	support_signals: [audit log, retention policy, encrypt]
//	oppose_signals: [offshore, personal data, unlogged]
package template

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Iron-Ham/council/internal/agent"
	"github.com/Iron-Ham/council/internal/agent/heuristic"
	"github.com/Iron-Ham/council/internal/util"
)

// File pairs a parsed template with its on-disk source.
type File struct {
	Profile heuristic.Profile
	Path    string
}

// Parse decodes and validates a single template payload.
func Parse(data []byte) (heuristic.Profile, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return heuristic.Profile{}, fmt.Errorf("template: payload is empty")
	}
	var p heuristic.Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return heuristic.Profile{}, fmt.Errorf("template: decode: %w", err)
	}
	if err := validate(p); err != nil {
		return heuristic.Profile{}, err
	}
	return normalize(p), nil
}

func validate(p heuristic.Profile) error {
	name := strings.TrimSpace(p.Perspective)
	if name == "" {
		return fmt.Errorf("template: perspective is required")
	}
	if util.Slug(name) != name {
		return fmt.Errorf("template: perspective %q must be lowercase letters, digits and hyphens", name)
	}
	if len(p.SupportSignals)+len(p.OpposeSignals) == 0 {
		return fmt.Errorf("template: %s: at least one support or oppose signal is required", name)
	}
	if p.BaseConfidence < 0 || p.BaseConfidence > 1 {
		return fmt.Errorf("template: %s: base_confidence must be within [0, 1]", name)
	}
	return nil
}

func normalize(p heuristic.Profile) heuristic.Profile {
	p.Perspective = strings.TrimSpace(p.Perspective)
	p.Description = strings.TrimSpace(p.Description)
	p.Focus = strings.TrimSpace(p.Focus)
	p.SupportSignals = cleanSignals(p.SupportSignals)
	p.OpposeSignals = cleanSignals(p.OpposeSignals)
	return p
}

func cleanSignals(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}

// LoadFile reads and parses one template file.
func LoadFile(path string) (File, error) {
	info, err := os.Stat(path)
	if err != nil {
		return File{}, fmt.Errorf("template: stat %s: %w", path, err)
	}
	if info.IsDir() {
		return File{}, fmt.Errorf("template: %s is a directory", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return File{}, fmt.Errorf("template: read %s: %w", path, err)
	}
	p, err := Parse(data)
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", path, err)
	}
	return File{Profile: p, Path: filepath.Clean(path)}, nil
}

// LoadDir parses every *.yaml and *.yml file in dir, sorted by path. A missing
// or empty dir yields no templates and no error. Two files defining the same
// perspective are an error.
func LoadDir(dir string) ([]File, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("template: read %s: %w", trimmed, err)
	}

	var files []File
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		f, err := LoadFile(filepath.Join(trimmed, entry.Name()))
		if err != nil {
			return nil, err
		}
		files = append(files, f)
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })

	defined := make(map[string]string, len(files))
	for _, f := range files {
		if prev, ok := defined[f.Profile.Perspective]; ok {
			return nil, fmt.Errorf("template: perspective %q defined in both %s and %s", f.Profile.Perspective, prev, f.Path)
		}
		defined[f.Profile.Perspective] = f.Path
	}
	return files, nil
}

// Register binds each template to a heuristic factory, replacing any
// built-in profile of the same name.
func Register(r *agent.Registry, files []File) error {
	for _, f := range files {
		if err := r.Register(f.Profile.Perspective, heuristic.Factory(f.Profile)); err != nil {
			return fmt.Errorf("template: register %s: %w", f.Path, err)
		}
	}
	return nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
