package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"xray-enhancer/internal/logger"
	"xray-enhancer/internal/models"
	"xray-enhancer/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "xray-enhancer: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	input := flag.String("input", "", "path to X-ray image (PNG or JPEG)")
	outDir := flag.String("out", ".", "output directory")
	configPath := flag.String("config", "", "optional TOML parameter file")
	clusters := flag.Int("clusters", 8, "number of intensity clusters (2-12)")
	alpha := flag.Float64("alpha", 0.7, "fraction of the clustered image kept in the blend (0-1)")
	mode := flag.String("mode", "global", "contrast normalization mode: global or adaptive")
	clipLimit := flag.Float64("clip-limit", 3.0, "CLAHE clip limit (adaptive mode)")
	tileSize := flag.Int("tile-size", 8, "CLAHE tile grid size (adaptive mode)")
	optimizeLarge := flag.Bool("optimize-large", false, "downsample large images before processing")
	maxDimension := flag.Int("max-dimension", 1000, "maximum dimension when -optimize-large is set")
	seed := flag.Int64("seed", models.DefaultSeed, "clustering seed")
	zipOutput := flag.Bool("zip", false, "bundle all artifacts into one zip archive")
	basename := flag.String("basename", "", "artifact basename (default: input file name without extension)")
	logLevel := flag.String("log-level", "info", "log level: debug, info, warn, error")
	logJSON := flag.Bool("log-json", false, "emit JSON log lines instead of console output")
	flag.Parse()

	if *input == "" {
		flag.Usage()
		return fmt.Errorf("missing required -input")
	}

	var log logger.Logger
	if *logJSON {
		log = logger.NewJSONLogger(os.Stderr, logger.ParseLevel(*logLevel))
	} else {
		log = logger.NewConsoleLogger(logger.ParseLevel(*logLevel))
	}

	params, err := resolveParameters(*configPath, flagOverrides{
		clusters:      *clusters,
		alpha:         *alpha,
		mode:          *mode,
		clipLimit:     *clipLimit,
		tileSize:      *tileSize,
		optimizeLarge: *optimizeLarge,
		maxDimension:  *maxDimension,
		seed:          *seed,
	})
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	data, err := os.ReadFile(*input)
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	loader := pipeline.NewImageLoader(log)
	src, err := loader.LoadFromBytes(data)
	if err != nil {
		return err
	}
	defer src.Close()

	processor := pipeline.NewProcessor(log)
	result, err := processor.Enhance(ctx, src, params)
	if err != nil {
		return err
	}
	defer result.Close()

	name := *basename
	if name == "" {
		name = strings.TrimSuffix(filepath.Base(*input), filepath.Ext(*input))
	}

	if *zipOutput {
		return writeArchive(result, *outDir, name, log)
	}

	return writeArtifacts(result, *outDir, name, log)
}

// flagOverrides carries the flag values that may override a config file.
type flagOverrides struct {
	clusters      int
	alpha         float64
	mode          string
	clipLimit     float64
	tileSize      int
	optimizeLarge bool
	maxDimension  int
	seed          int64
}

// resolveParameters layers settings: built-in defaults, then the config
// file, then any flag the user explicitly set on the command line.
func resolveParameters(configPath string, overrides flagOverrides) (models.EnhancementParameters, error) {
	params := models.DefaultParameters()

	if configPath != "" {
		loaded, err := models.LoadParameters(configPath)
		if err != nil {
			return params, err
		}
		params = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "clusters":
			params.ClusterCount = overrides.clusters
		case "alpha":
			params.BlendAlpha = overrides.alpha
		case "mode":
			params.NormalizationMode = models.NormalizationMode(overrides.mode)
		case "clip-limit":
			params.ClipLimit = overrides.clipLimit
		case "tile-size":
			params.TileGridSize = overrides.tileSize
		case "optimize-large":
			params.OptimizeLargeImages = overrides.optimizeLarge
		case "max-dimension":
			params.MaxDimension = overrides.maxDimension
		case "seed":
			params.Seed = overrides.seed
		}
	})

	if err := params.Validate(); err != nil {
		return params, err
	}

	return params, nil
}

func writeArtifacts(result *pipeline.Result, outDir, basename string, log logger.Logger) error {
	for _, artifact := range result.Names() {
		data, err := result.EncodePNG(artifact)
		if err != nil {
			return err
		}

		path := filepath.Join(outDir, fmt.Sprintf("%s_%s.png", basename, artifact))
		if err := os.WriteFile(path, data, 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		log.Info("CLI", "artifact written", map[string]interface{}{
			"artifact": artifact,
			"path":     path,
			"bytes":    len(data),
		})
	}

	return nil
}

func writeArchive(result *pipeline.Result, outDir, basename string, log logger.Logger) error {
	data, err := result.Archive(basename)
	if err != nil {
		return err
	}

	path := filepath.Join(outDir, basename+".zip")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	log.Info("CLI", "archive written", map[string]interface{}{
		"path":      path,
		"artifacts": result.Names(),
		"bytes":     len(data),
	})

	return nil
}
