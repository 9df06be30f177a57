package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/fullbleed/fullbleed/engine"
)

func main() {
	input := flag.String("in", "examples/demo.html", "HTML input path")
	cssPath := flag.String("css", "", "stylesheet path, concatenated after any CSS assets")
	assetsDir := flag.String("assets", "", "directory of font/image/pdf assets to register, keyed by file name without extension")
	output := flag.String("out", "output/demo.pdf", "PDF output path")
	debug := flag.String("debug", "", "diagnostics JSON output path")
	perf := flag.String("perf", "", "per-stage timing JSON output path")
	rasterDPMM := flag.Float64("raster-dpmm", 0, "also rasterize every page to PNG at this dots-per-mm resolution")
	failFast := flag.Bool("fail-fast", false, "abort on the first overflow, missing-glyph, font-substitution, or budget diagnostic")
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		// The logger itself failed to build; there's nothing to log to yet.
		panic(err)
	}
	defer logger.Sync()

	opts := engine.Options{
		Perf:                 *perf,
		RasterDotsPerMM:      *rasterDPMM,
		FailFastOverflow:     *failFast,
		FailFastMissingGlyph: *failFast,
		FailFastFontSubst:    *failFast,
		FailFastBudget:       *failFast,
		Logger:               logger,
	}

	if err := run(*input, *cssPath, *assetsDir, *output, *debug, opts); err != nil {
		logger.Fatal("render failed", zap.Error(err))
	}
	fmt.Printf("wrote %s\n", *output)
}

// run strings together asset loading, Render, and output writing, the way
// main.go's run() strings together parse, layout, and render.
func run(inputPath, cssPath, assetsDir, outputPath, debugPath string, opts engine.Options) error {
	html, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}

	var css string
	if cssPath != "" {
		b, err := os.ReadFile(cssPath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", cssPath, err)
		}
		css = string(b)
	}

	assets := engine.NewAssetRegistry()
	if assetsDir != "" {
		if err := loadAssets(assets, assetsDir); err != nil {
			return err
		}
	}

	result, err := engine.Render(context.Background(), string(html), css, assets, opts)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}
	if err := os.WriteFile(outputPath, result.PDF, 0o644); err != nil {
		return fmt.Errorf("writing PDF: %w", err)
	}

	for i, png := range result.PageImages {
		pngPath := fmt.Sprintf("%s.page%d.png", strings.TrimSuffix(outputPath, filepath.Ext(outputPath)), i+1)
		if err := os.WriteFile(pngPath, png, 0o644); err != nil {
			return fmt.Errorf("writing %s: %w", pngPath, err)
		}
	}

	if debugPath != "" {
		if err := writeJSON(debugPath, result.Diagnostics); err != nil {
			return fmt.Errorf("writing diagnostics: %w", err)
		}
	}
	if opts.Perf != "" && result.Perf != nil {
		if err := writeJSON(opts.Perf, result.Perf); err != nil {
			return fmt.Errorf("writing perf report: %w", err)
		}
	}

	return nil
}

// assetKindFor classifies a file by extension, the CLI's only way to tell
// fonts from images from template PDFs short of sniffing content.
func assetKindFor(ext string) (engine.AssetKind, bool) {
	switch strings.ToLower(ext) {
	case ".css":
		return engine.AssetCSS, true
	case ".ttf", ".otf", ".woff", ".woff2":
		return engine.AssetFont, true
	case ".png", ".jpg", ".jpeg", ".gif":
		return engine.AssetImage, true
	case ".svg":
		return engine.AssetSVG, true
	case ".pdf":
		return engine.AssetPDF, true
	default:
		return engine.AssetOther, false
	}
}

func loadAssets(reg *engine.AssetRegistry, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("reading assets dir %s: %w", dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := filepath.Ext(entry.Name())
		kind, known := assetKindFor(ext)
		if !known {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading asset %s: %w", path, err)
		}
		name := strings.TrimSuffix(entry.Name(), ext)
		if err := reg.Register(engine.Asset{Bytes: data, Kind: kind, Name: name, Trusted: true}); err != nil {
			return fmt.Errorf("registering asset %s: %w", path, err)
		}
	}
	return nil
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
