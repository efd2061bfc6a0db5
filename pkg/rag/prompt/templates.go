package prompt

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Template names.
const (
	Input                  = "input"
	GetJSON                = "get_json"
	Clarification          = "clarification"
	UserStories            = "user_stories"
	BusinessRules          = "business_rules"
	FunctionalRequirements = "functional_requirements"
	InceptionBrief         = "inception_brief"
)

// ManifestFile maps template names to file names inside a prompts directory.
const ManifestFile = "prompts.yaml"

//go:embed defaults/*
var defaultFS embed.FS

type Manifest struct {
	Version   string            `yaml:"version"`
	Templates map[string]string `yaml:"templates"`
}

// Registry holds the loaded instruction templates.
type Registry struct {
	templates map[string]string
	sources   map[string]string // name -> "default" or file path
}

// ParseManifest decodes a prompts.yaml payload.
func ParseManifest(data []byte) (Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return Manifest{}, fmt.Errorf("prompt: decode manifest: %w", err)
	}
	if len(m.Templates) == 0 {
		return Manifest{}, fmt.Errorf("prompt: manifest lists no templates")
	}
	return m, nil
}

// Defaults returns a registry built from the embedded templates only.
func Defaults() *Registry {
	r, err := load(defaultFS, "defaults")
	if err != nil {
		// embedded files are part of the build
		panic(err)
	}
	return r
}

// Load starts from the embedded defaults and overrides every template for
// which dir holds a non-empty file. dir may carry its own prompts.yaml to
// rename files; otherwise the default file names are used. A missing dir
// is not an error.
func Load(dir string) (*Registry, error) {
	r := Defaults()
	if dir == "" {
		return r, nil
	}

	manifest, err := defaultManifest()
	if err != nil {
		return nil, err
	}
	if data, err := os.ReadFile(filepath.Join(dir, ManifestFile)); err == nil {
		custom, err := ParseManifest(data)
		if err != nil {
			return nil, fmt.Errorf("prompt: %s: %w", dir, err)
		}
		for name, file := range custom.Templates {
			manifest.Templates[name] = file
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("prompt: read manifest: %w", err)
	}

	for name, file := range manifest.Templates {
		path := filepath.Join(dir, file)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("prompt: read %s: %w", path, err)
		}
		if text := strings.TrimSpace(string(data)); text != "" {
			r.templates[name] = text
			r.sources[name] = path
		}
	}
	return r, nil
}

func defaultManifest() (Manifest, error) {
	data, err := defaultFS.ReadFile("defaults/" + ManifestFile)
	if err != nil {
		return Manifest{}, err
	}
	return ParseManifest(data)
}

func load(fsys fs.FS, root string) (*Registry, error) {
	data, err := fs.ReadFile(fsys, root+"/"+ManifestFile)
	if err != nil {
		return nil, fmt.Errorf("prompt: read default manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, err
	}

	r := &Registry{templates: map[string]string{}, sources: map[string]string{}}
	for name, file := range m.Templates {
		text, err := fs.ReadFile(fsys, root+"/"+file)
		if err != nil {
			return nil, fmt.Errorf("prompt: read default %s: %w", file, err)
		}
		r.templates[name] = strings.TrimSpace(string(text))
		r.sources[name] = "default"
	}
	return r, nil
}

// Get returns the template text, or "" for unknown names.
func (r *Registry) Get(name string) string {
	return r.templates[name]
}

// Source reports where a template came from.
func (r *Registry) Source(name string) string {
	return r.sources[name]
}

// AnalysisInstruction is the input template followed by the clarification
// guidance, when there is any.
func (r *Registry) AnalysisInstruction() string {
	input := r.Get(Input)
	extra := r.Get(Clarification)
	if extra == "" {
		return input
	}
	if input == "" {
		return extra
	}
	return input + "\n\n" + extra
}
