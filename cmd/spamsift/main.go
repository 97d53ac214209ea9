package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/spamsift/spamsift/internal/batchscore"
	"github.com/spamsift/spamsift/internal/config"
	"github.com/spamsift/spamsift/internal/core"
	"github.com/spamsift/spamsift/internal/factory"
	"github.com/spamsift/spamsift/internal/logging"
)

var (
	// Model flags
	modelPath = flag.String("model", "models/bundle_svm.json.gz", "Path to the model bundle")

	// Classification flags
	profileName = flag.String("profile", "", "Decision profile (default from config)")
	text        = flag.String("text", "", "Classify a single text and exit")

	// Batch scoring flags
	inputFile  = flag.String("input", "", "Input file for batch scoring (CSV or plain text)")
	outputFile = flag.String("output", "", "Output CSV file (stdout if not specified)")
	textColumn = flag.String("text-column", "", "CSV column holding the text (auto-detected if empty)")
	format     = flag.String("format", "auto", "Input format (auto, csv, lines)")
	encoding   = flag.String("encoding", "auto", "Input encoding (auto, utf-8, windows-1252, latin-1)")
	chunkSize  = flag.Int("chunk-size", 500, "Rows scored per batch")
	workers    = flag.Int("workers", 4, "Concurrent scoring workers")

	// General flags
	verbose    = flag.Bool("verbose", false, "Enable verbose logging")
	jsonLog    = flag.Bool("json-log", false, "Output logs in JSON format")
	configFile = flag.String("config", "", "Path to config file (overrides command line flags)")
)

func main() {
	flag.Parse()

	// Initialize logger
	logger, err := logging.InitConsoleLogger(*verbose, *jsonLog)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	// Load configuration from file if specified
	var cfg *config.Config
	if *configFile != "" {
		cfg, err = config.NewFromFile(*configFile)
		if err != nil {
			logger.Fatal("Failed to load configuration", zap.Error(err))
		}
		logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
	} else {
		// Create config from command line flags
		cfg = createConfigFromFlags()
	}

	// Resolve the profile up front so a typo fails before the model loads
	profile, err := core.LookupProfile(resolveProfileName(cfg))
	if err != nil {
		logger.Fatal("Unknown profile", zap.Error(err))
	}

	// Load the model and build the scorer
	scorerFactory := factory.NewScorerFactory(cfg, logger)
	scorer, info, err := scorerFactory.CreateScorer()
	if err != nil {
		logger.Fatal("Failed to load model", zap.Error(err))
	}

	// The CLI scores fresh every run, so no cache is wired in
	svc := core.NewClassifierService(scorer, nil, logger, false, 0, profile.Name, cfg.GetBatch().Workers)

	fmt.Printf("\n=== Model ===\n")
	fmt.Printf("Path: %s\n", info.Path)
	fmt.Printf("SHA-256: %s\n", info.SHA256)
	fmt.Printf("Size: %d bytes\n", info.SizeBytes)
	fmt.Printf("Profile: %s (threshold %.2f)\n", profile.Name, profile.Threshold)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case *inputFile != "":
		if err := runBatch(ctx, svc, logger, cfg); err != nil {
			logger.Fatal("Batch scoring failed", zap.Error(err))
		}
	case *text != "":
		classifyOne(ctx, svc, logger, *text)
	default:
		// No -text and no -input: read the text from stdin
		raw, err := io.ReadAll(os.Stdin)
		if err != nil {
			logger.Fatal("Failed to read stdin", zap.Error(err))
		}
		classifyOne(ctx, svc, logger, string(raw))
	}
}

// classifyOne scores a single text and prints the verdict
func classifyOne(ctx context.Context, svc *core.ClassifierService, logger *zap.Logger, text string) {
	startTime := time.Now()
	verdict, err := svc.Decide(ctx, text, *profileName)
	if err != nil {
		logger.Fatal("Failed to classify text", zap.Error(err))
	}

	fmt.Printf("\n=== Results ===\n")
	fmt.Printf("Label: %s\n", verdict.Label)
	fmt.Printf("Probability: %.4f\n", verdict.Probability)
	fmt.Printf("Profile: %s\n", verdict.Profile)
	fmt.Printf("Threshold: %.2f\n", verdict.Threshold)
	fmt.Printf("Processing time: %v\n", time.Since(startTime))
}

// runBatch scores a whole file and writes the results as CSV
func runBatch(ctx context.Context, svc *core.ClassifierService, logger *zap.Logger, cfg *config.Config) error {
	in, err := os.Open(*inputFile)
	if err != nil {
		return fmt.Errorf("failed to open input file: %w", err)
	}
	defer in.Close()

	var out io.Writer = os.Stdout
	if *outputFile != "" {
		f, err := os.Create(*outputFile)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		out = f
	}

	runner := batchscore.NewRunner(svc, logger, cfg.GetBatch().ChunkSize)
	opts := batchscore.Options{
		Profile:    *profileName,
		TextColumn: *textColumn,
		Encoding:   *encoding,
	}

	var stats *batchscore.Stats
	if useLinesFormat() {
		stats, err = runner.ScoreLines(ctx, in, out, opts)
	} else {
		stats, err = runner.ScoreCSV(ctx, in, out, opts)
	}
	if err != nil {
		return err
	}

	fmt.Fprintf(os.Stderr, "\n=== Batch Summary ===\n")
	fmt.Fprintf(os.Stderr, "Rows: %d\n", stats.Rows)
	fmt.Fprintf(os.Stderr, "Spam: %d\n", stats.Spam)
	fmt.Fprintf(os.Stderr, "Legitimate: %d\n", stats.Legitimate)
	fmt.Fprintf(os.Stderr, "Failed: %d\n", stats.Failed)
	fmt.Fprintf(os.Stderr, "Elapsed: %v\n", stats.Elapsed)
	return nil
}

// useLinesFormat decides between CSV and line-per-text input
func useLinesFormat() bool {
	switch *format {
	case "lines":
		return true
	case "csv":
		return false
	default:
		return strings.EqualFold(filepath.Ext(*inputFile), ".txt")
	}
}

// resolveProfileName picks the profile flag over the configured default
func resolveProfileName(cfg *config.Config) string {
	if *profileName != "" {
		return *profileName
	}
	return cfg.GetSpam().Profile
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags() *config.Config {
	v := config.NewEmptyViper()

	v.Set("model.path", *modelPath)
	if *profileName != "" {
		v.Set("spam.profile", *profileName)
	}
	v.Set("batch.workers", *workers)
	v.Set("batch.chunk_size", *chunkSize)

	// One-shot runs never benefit from a score cache
	v.Set("cache.enabled", false)

	return config.NewFromViper(v)
}
