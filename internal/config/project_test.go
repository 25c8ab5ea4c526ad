package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadProjectEmptyPath(t *testing.T) {
	project, err := LoadProject("")
	if err != nil {
		t.Fatalf("LoadProject(\"\") returned error: %v", err)
	}
	if project.Presets.Len() != 0 {
		t.Fatalf("expected empty preset table, got %d presets", project.Presets.Len())
	}
}

func TestLoadProjectDecodesPresetsInOrder(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "imageset.yaml")
	doc := `name: "[name]-[width]w.[ext]"
public_path_var: __webpack_public_path__
export: module.exports
output_dir: dist/img
presets:
  thumb:
    format: webp
    width: 160
  hero:
    density: [1, 2]
    format: [webp, jpeg]
`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write project file: %v", err)
	}

	project, err := LoadProject(path)
	if err != nil {
		t.Fatalf("LoadProject returned error: %v", err)
	}
	if project.Name != "[name]-[width]w.[ext]" {
		t.Fatalf("unexpected name template %q", project.Name)
	}
	if project.OutputDir != "dist/img" {
		t.Fatalf("unexpected output dir %q", project.OutputDir)
	}

	names := project.Presets.Names()
	if len(names) != 2 || names[0] != "thumb" || names[1] != "hero" {
		t.Fatalf("preset order not preserved: %v", names)
	}

	hero, ok := project.Presets.Get("hero")
	if !ok {
		t.Fatal("hero preset missing")
	}
	if hero.Len() != 2 || hero.Options[0].Key != "density" {
		t.Fatalf("hero option order not preserved: %+v", hero.Options)
	}

	opts := project.Options()
	if opts.NameTemplate != project.Name || opts.ExportExpr != "module.exports" {
		t.Fatalf("options mapping wrong: %+v", opts)
	}
}

func TestLoadProjectRejectsBadYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	if err := os.WriteFile(path, []byte("presets: [unclosed"), 0o644); err != nil {
		t.Fatalf("write project file: %v", err)
	}
	if _, err := LoadProject(path); err == nil {
		t.Fatal("expected parse error")
	}
}
