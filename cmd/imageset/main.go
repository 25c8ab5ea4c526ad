package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/pixelsmith/imageset/internal/config"
	"github.com/pixelsmith/imageset/internal/domain"
	"github.com/pixelsmith/imageset/internal/pipeline"
)

func main() {
	var (
		configPath    = flag.String("config", "imageset.yaml", "project file with the preset table and generation defaults")
		presetName    = flag.String("preset", "", "generate one named preset instead of all")
		presetNames   = flag.String("presets", "", "comma-separated preset names to generate")
		outputDir     = flag.String("out", "", "directory for emitted variants (overrides the project file)")
		modulePath    = flag.String("module", "", "write the generated module to this file instead of stdout")
		nameTemplate  = flag.String("name", "", "variant name template (overrides the project file)")
		publicPathVar = flag.String("public-path-var", "", "runtime expression prefixed to emitted variant URLs")
		exportExpr    = flag.String("export", "", "assignment target of the generated module")
		quiet         = flag.Bool("quiet", false, "suppress per-variant logging")
	)
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: imageset [flags] <source image> [<source image>...]\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	logger := log.New(os.Stderr, "[imageset] ", 0)
	if *quiet {
		logger.SetOutput(io.Discard)
	}

	sources := flag.Args()
	if len(sources) == 0 {
		flag.Usage()
		os.Exit(2)
	}

	if err := pipeline.Startup(); err != nil {
		logger.Fatalf("pipeline startup failed: %v", err)
	}
	defer pipeline.Shutdown()

	project, err := config.LoadProject(*configPath)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	opts := project.Options()
	if *nameTemplate != "" {
		opts.NameTemplate = *nameTemplate
	}
	if *publicPathVar != "" {
		opts.PublicPathVar = *publicPathVar
	}
	if *exportExpr != "" {
		opts.ExportExpr = *exportExpr
	}

	dir := project.OutputDir
	if *outputDir != "" {
		dir = *outputDir
	}
	if dir == "" {
		dir = "dist"
	}

	selector, err := buildSelector(*presetName, *presetNames)
	if err != nil {
		logger.Fatalf("%v", err)
	}

	processor, err := pipeline.NewLocalProcessor(dir, opts)
	if err != nil {
		logger.Fatalf("processor setup failed: %v", err)
	}

	ctx := context.Background()
	var moduleOut strings.Builder
	for _, source := range sources {
		result, err := processor.Process(ctx, pipeline.Request{
			SourceType: domain.SourceTypeLocalFile,
			ObjectKey:  source,
			Selector:   selector,
		})
		if err != nil {
			logger.Fatalf("%s: %v", source, err)
		}

		for _, asset := range result.Assets {
			delivery := filepath.Join(dir, asset.Name)
			if asset.Inline {
				delivery = "inline"
			}
			logger.Printf("%s %s %dx%d %s", asset.Preset, asset.Name, asset.Meta.Width, asset.Meta.Height, delivery)
		}
		moduleOut.WriteString(result.Module)
	}

	if *modulePath == "" {
		fmt.Print(moduleOut.String())
		return
	}
	if err := os.WriteFile(*modulePath, []byte(moduleOut.String()), 0o644); err != nil {
		logger.Fatalf("write module: %v", err)
	}
	logger.Printf("module written to %s", *modulePath)
}

func buildSelector(one, many string) (domain.Selector, error) {
	one = strings.TrimSpace(one)
	many = strings.TrimSpace(many)
	if one != "" && many != "" {
		return domain.Selector{}, fmt.Errorf("-preset and -presets are mutually exclusive")
	}
	if one != "" {
		return domain.OnePreset(one), nil
	}
	if many != "" {
		names := strings.Split(many, ",")
		for i := range names {
			names[i] = strings.TrimSpace(names[i])
			if names[i] == "" {
				return domain.Selector{}, fmt.Errorf("empty preset name in -presets")
			}
		}
		return domain.ManyPresets(names), nil
	}
	return domain.AllPresets(), nil
}
