package main

import (
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"vmmfrc/internal/logging"
	"vmmfrc/internal/models"
	"vmmfrc/pkg/adjustment"
	"vmmfrc/pkg/config"
	"vmmfrc/pkg/persistence"
	"vmmfrc/pkg/visualization"
	"vmmfrc/pkg/volumeio"
)

func main() {
	// Parse command line arguments
	configPath := flag.String("config", "vmmadjust.yaml", "YAML configuration file")
	initConfig := flag.Bool("init-config", false, "Write a default configuration file to -config and exit")
	inputPath := flag.String("input", "", "Raw volume file or directory of slice images")
	outputPath := flag.String("output", "", "Output raw file or slice directory")
	settingsFile := flag.String("settings", "", "Import adjustment settings from a previously exported file")
	exportSettings := flag.String("export-settings", "", "Export the applied settings to this file")
	brightness := flag.Float64("brightness", 0, "Brightness offset (-100 to 100)")
	contrast := flag.Float64("contrast", 1, "Contrast factor (0.1 to 3.0)")
	gamma := flag.Float64("gamma", 1, "Gamma (0.1 to 3.0)")
	sharpness := flag.Float64("sharpness", 0, "Unsharp mask amount (0 to 100)")
	invert := flag.Bool("invert", false, "Invert intensities")
	previewPath := flag.String("preview", "", "Write an adjusted preview PNG of one slice")
	previewAxis := flag.String("preview-axis", "", "Preview axis: x, y or z")
	previewPos := flag.Int("preview-pos", -1, "Preview slice position (default: middle)")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *initConfig {
		if err := config.CreateDefaultConfigFile(*configPath); err != nil {
			log.Fatalf("Failed to write config: %v", err)
		}
		fmt.Printf("Default configuration written to %s\n", *configPath)
		return
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Command line flags override the configuration file
	set := map[string]bool{}
	flag.Visit(func(f *flag.Flag) { set[f.Name] = true })

	if *inputPath != "" {
		cfg.Input.Path = *inputPath
		if info, err := os.Stat(*inputPath); err == nil && info.IsDir() {
			cfg.Input.Format = "stack"
		}
	}
	if *outputPath != "" {
		cfg.Output.Path = *outputPath
	}
	if *exportSettings != "" {
		cfg.Output.SettingsFile = *exportSettings
	}
	if *previewPath != "" {
		cfg.Output.PreviewPath = *previewPath
	}
	if *previewAxis != "" {
		cfg.Output.PreviewAxis = *previewAxis
	}
	if set["preview-pos"] {
		cfg.Output.PreviewPosition = *previewPos
	}
	if *verbose {
		cfg.Logging.Verbose = true
	}

	if cfg.Input.Path == "" {
		flag.Usage()
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.Verbose {
		level = slog.LevelDebug
	}
	logging.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	// Resolve settings: config, then imported file, then explicit flags
	settings := cfg.Adjustment
	if *settingsFile != "" {
		imported, err := persistence.Import(*settingsFile)
		if err != nil {
			log.Fatalf("Failed to import settings: %v", err)
		}
		settings = imported
	}
	if set["brightness"] {
		settings.Brightness = *brightness
	}
	if set["contrast"] {
		settings.Contrast = *contrast
	}
	if set["gamma"] {
		settings.Gamma = *gamma
	}
	if set["sharpness"] {
		settings.Sharpness = *sharpness
	}
	if set["invert"] {
		settings.Invert = *invert
	}

	fmt.Println("================================")
	fmt.Println("VMM-FRC VOLUME IMAGE ADJUSTMENT")
	fmt.Println("================================")

	vol, err := loadVolume(cfg)
	if err != nil {
		log.Fatalf("Failed to load volume: %v", err)
	}
	summary := vol.Summarize()
	fmt.Printf("Loaded %dx%dx%d %s volume, range [%g, %g]\n",
		vol.Width, vol.Height, vol.Depth, vol.DType, summary.Min, summary.Max)

	adj := adjustment.NewAdjuster()
	adj.RegisterOriginal(vol)
	adj.SetSettings(settings)

	fmt.Printf("Brightness: %+.1f  Contrast: %.2f  Gamma: %.2f  Sharpness: %.1f  Invert: %v\n",
		settings.Brightness, settings.Contrast, settings.Gamma, settings.Sharpness, settings.Invert)

	if cfg.Output.PreviewPath != "" {
		if err := writePreview(vol, adj, cfg); err != nil {
			log.Fatalf("Failed to write preview: %v", err)
		}
		fmt.Printf("Preview saved to: %s\n", cfg.Output.PreviewPath)
	}

	startTime := time.Now()
	adjusted, err := adj.ApplyToVolume()
	if err != nil {
		log.Fatalf("Adjustment failed: %v", err)
	}
	fmt.Printf("Adjusted %d voxels in %.2f seconds\n", adjusted.Len(), time.Since(startTime).Seconds())

	if err := saveVolume(cfg, adjusted); err != nil {
		log.Fatalf("Failed to save adjusted volume: %v", err)
	}
	fmt.Printf("Adjusted volume saved to: %s\n", cfg.Output.Path)

	if cfg.Output.SettingsFile != "" {
		metadata := []persistence.Entry{
			{Key: "Source", Value: filepath.Base(cfg.Input.Path)},
			{Key: "Dimensions", Value: fmt.Sprintf("%d x %d x %d", vol.Width, vol.Height, vol.Depth)},
			{Key: "Data type", Value: vol.DType},
			{Key: "Value range", Value: fmt.Sprintf("%g to %g", summary.Min, summary.Max)},
			{Key: "Mean", Value: fmt.Sprintf("%.3f", summary.Mean)},
			{Key: "Std dev", Value: fmt.Sprintf("%.3f", summary.StdDev)},
		}
		if err := persistence.Export(settings, cfg.Output.SettingsFile, metadata...); err != nil {
			log.Fatalf("Failed to export settings: %v", err)
		}
		fmt.Printf("Settings exported to: %s\n", cfg.Output.SettingsFile)
	}
}

func loadVolume(cfg *config.Config) (*models.Volume, error) {
	if cfg.Input.Format == "stack" {
		return volumeio.LoadStack(cfg.Input.Path)
	}
	order, err := volumeio.ParseByteOrder(cfg.Input.ByteOrder)
	if err != nil {
		return nil, err
	}
	return volumeio.LoadRaw(cfg.Input.Path, cfg.Input.Width, cfg.Input.Height, cfg.Input.Depth, cfg.Input.DType, order)
}

func saveVolume(cfg *config.Config, vol *models.Volume) error {
	if cfg.Output.Format != "raw" {
		return volumeio.SaveStack(cfg.Output.Path, vol, cfg.Output.Format)
	}
	order, err := volumeio.ParseByteOrder(cfg.Input.ByteOrder)
	if err != nil {
		return err
	}
	return volumeio.SaveRaw(cfg.Output.Path, vol, order)
}

func writePreview(vol *models.Volume, adj *adjustment.Adjuster, cfg *config.Config) error {
	viewer := visualization.NewViewer(vol, adj)

	pos := cfg.Output.PreviewPosition
	if pos < 0 {
		switch cfg.Output.PreviewAxis {
		case "x":
			pos = vol.Width / 2
		case "y":
			pos = vol.Height / 2
		default:
			pos = vol.Depth / 2
		}
	}

	img, err := viewer.Preview(cfg.Output.PreviewAxis, pos, adj.Settings())
	if err != nil {
		return err
	}
	return viewer.SaveSlice(img, cfg.Output.PreviewPath)
}
