package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/pipeline"
)

// Project is the YAML project file: the preset table plus generation
// defaults shared by every job.
type Project struct {
	Presets       domain.Table `yaml:"presets"`
	Name          string       `yaml:"name"`
	PublicPathVar string       `yaml:"public_path_var"`
	Export        string       `yaml:"export"`
	OutputDir     string       `yaml:"output_dir"`
}

// LoadProject reads and decodes a project file. An empty path yields a
// zero Project so callers can run with inline presets only.
func LoadProject(path string) (Project, error) {
	if path == "" {
		return Project{}, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Project{}, fmt.Errorf("read project file: %w", err)
	}
	var project Project
	if err := yaml.Unmarshal(data, &project); err != nil {
		return Project{}, fmt.Errorf("parse project file %s: %w", path, err)
	}
	return project, nil
}

// Options maps the project defaults onto pipeline options.
func (p Project) Options() pipeline.Options {
	return pipeline.Options{
		Presets:       p.Presets,
		NameTemplate:  p.Name,
		PublicPathVar: p.PublicPathVar,
		ExportExpr:    p.Export,
	}
}
