package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fabio-echegaray/compartment-segmentation/internal/models"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/cache"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/clustering"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/config"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/segmentation"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/stack"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/texture"
	"github.com/fabio-echegaray/compartment-segmentation/pkg/visualization"
)

func main() {
	inputDir := flag.String("input", "", "Directory containing z-stack slice images")
	configPath := flag.String("config", "compartments.yaml", "Path to YAML configuration file")
	outputCSV := flag.String("output", "compartments.csv", "Output CSV filename for the labeled table")
	channel := flag.Int("channel", -1, "Channel to segment (overrides config when >= 0)")
	frame := flag.Int("frame", -1, "Frame to segment (overrides config when >= 0)")
	eps := flag.Float64("eps", 0, "DBSCAN neighborhood radius (overrides config when > 0)")
	minSamples := flag.Int("min-samples", 0, "DBSCAN minimum neighborhood size (overrides config when > 0)")
	cacheDir := flag.String("cache-dir", "", "Cache directory for per-slice results (overrides config)")
	overlays := flag.Bool("overlays", false, "Render per-z cluster overlays")
	verbose := flag.Bool("v", false, "Enable debug logging")
	flag.Parse()

	if *inputDir == "" {
		flag.Usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	if *channel >= 0 {
		cfg.Processing.Channel = *channel
	}
	if *frame >= 0 {
		cfg.Processing.Frame = *frame
	}
	if *eps > 0 {
		cfg.Clustering.Eps = *eps
	}
	if *minSamples > 0 {
		cfg.Clustering.MinSamples = *minSamples
	}
	if *cacheDir != "" {
		cfg.Processing.CacheDir = *cacheDir
	}
	if *overlays {
		cfg.Output.SaveOverlays = true
	}

	log := initLogger(*verbose || cfg.Output.Verbose)
	log.WithFields(logrus.Fields{
		"input":   *inputDir,
		"channel": cfg.Processing.Channel,
		"frame":   cfg.Processing.Frame,
	}).Info("starting compartment segmentation")

	source, err := stack.NewDirectorySource(*inputDir)
	if err != nil {
		log.Fatalf("failed to index input directory: %v", err)
	}

	var store stack.Cache = cache.Nop{}
	if cfg.Processing.CacheDir != "" {
		disk, err := cache.NewDisk(cfg.Processing.CacheDir, log)
		if err != nil {
			log.Fatalf("failed to open cache: %v", err)
		}
		store = disk
	}

	segParams := segmentation.Params{
		OffsetStart: cfg.Segmentation.OffsetStart,
		OffsetStop:  cfg.Segmentation.OffsetStop,
		BlockSize:   cfg.Segmentation.BlockSize,
		IsoLevel:    cfg.Segmentation.IsoLevel,
		NumWorkers:  cfg.Processing.NumCores,
	}
	texParams := texture.Params{
		EntropyRadius: cfg.Texture.EntropyRadius,
		SmoothSigma:   cfg.Texture.SmoothSigma,
	}
	var post []stack.PostProcessor
	if cfg.Segmentation.MinArea > 0 {
		post = append(post, stack.SimplifyPolygons(cfg.Segmentation.MinArea))
	}

	driver := stack.NewDriver(source, store, segmentation.NewSegmenter(segParams, log), texParams, post, log)

	start := time.Now()
	table, err := driver.SegmentStack(cfg.Processing.Channel, cfg.Processing.Frame)
	if err != nil {
		log.Fatalf("stack segmentation failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"rows":    len(table),
		"zslices": len(table.ZValues()),
		"elapsed": time.Since(start).Round(time.Millisecond),
	}).Info("stack segmented")

	clustered, err := clustering.Cluster(table, cfg.Clustering.Eps, cfg.Clustering.MinSamples)
	if err != nil {
		log.Fatalf("clustering failed: %v", err)
	}
	log.WithFields(logrus.Fields{
		"clusters": clustered.NumClusters(),
		"noise":    clustered.NumNoise(),
	}).Info("centroids clustered")

	if err := writeCSV(*outputCSV, clustered); err != nil {
		log.Fatalf("failed to write output table: %v", err)
	}
	fmt.Printf("Segmented %d candidate boundaries across %d z slices\n", len(table), len(table.ZValues()))
	fmt.Printf("Found %d clusters (%d rows labeled noise)\n", clustered.NumClusters(), clustered.NumNoise())
	fmt.Printf("Labeled table written to %s\n", *outputCSV)

	if cfg.Output.SaveOverlays {
		width, height, err := stackDimensions(source, cfg.Processing.Channel, cfg.Processing.Frame)
		if err != nil {
			log.Fatalf("failed to determine overlay dimensions: %v", err)
		}
		overlay := visualization.NewOverlay(clustered, width, height)
		if err := overlay.SaveOverlaySequence(cfg.Output.OverlayDir); err != nil {
			log.Fatalf("failed to save overlays: %v", err)
		}
		fmt.Printf("Cluster overlays written to %s\n", cfg.Output.OverlayDir)
	}
}

// initLogger initializes the logger with the appropriate level and format.
func initLogger(debug bool) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if debug {
		log.SetLevel(logrus.DebugLevel)
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		log.SetLevel(logrus.InfoLevel)
		log.SetFormatter(&logrus.JSONFormatter{})
	}
	return log
}

// stackDimensions reads the first available slice of the segmented
// channel/frame to size overlay canvases.
func stackDimensions(source stack.ImageSource, channel, frame int) (int, int, error) {
	for _, z := range source.ZIndices() {
		h, ok := source.IndexAt(channel, z, frame)
		if !ok {
			continue
		}
		md, err := source.Image(h)
		if err != nil {
			return 0, 0, err
		}
		b := md.Image.Bounds()
		return b.Dx(), b.Dy(), nil
	}
	return 0, 0, fmt.Errorf("no readable slices for channel %d frame %d", channel, frame)
}

// writeCSV exports the labeled table: one row per hypothesis with its
// sweep offset, z index, cluster label and centroid.
func writeCSV(path string, table models.ClusteredTable) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	defer w.Flush()

	if err := w.Write([]string{"offset", "z", "cluster", "centroid_x", "centroid_y", "area", "vertices"}); err != nil {
		return err
	}
	for _, row := range table {
		c := row.Boundary.Centroid()
		rec := []string{
			strconv.Itoa(row.Offset),
			strconv.Itoa(row.Z),
			strconv.Itoa(row.Cluster),
			strconv.FormatFloat(c.X, 'f', 3, 64),
			strconv.FormatFloat(c.Y, 'f', 3, 64),
			strconv.FormatFloat(row.Boundary.Area(), 'f', 3, 64),
			strconv.Itoa(row.Boundary.NumVertices()),
		}
		if err := w.Write(rec); err != nil {
			return err
		}
	}
	return w.Error()
}
