package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/acm19/webpics/internal/config"
	"github.com/acm19/webpics/internal/logger"
	"github.com/acm19/webpics/internal/pics"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:     "webpics",
	Short:   "Compress site images and build responsive derivatives",
	Long:    `Webpics shrinks a directory of JPEG and PNG images in place, builds a responsive derivative set (web, thumbnail, medium), and publishes it to S3.`,
	Version: version,
}

var compressCmd = &cobra.Command{
	Use:   "compress [DIR]",
	Short: "Re-encode images in place when the result is smaller",
	Long:  `Re-encodes every JPEG and PNG in DIR with a single profile and replaces the original only when the new file is strictly smaller.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runCompress,
}

var responsiveCmd = &cobra.Command{
	Use:   "responsive [DIR]",
	Short: "Build the responsive derivative set",
	Long:  `Writes <name>_web.jpg, _web.webp, _web.avif, _thumb.webp, _medium.webp and _ultra.jpg for every image in DIR into its output directory. Originals are never modified.`,
	Args:  cobra.MaximumNArgs(1),
	Run:   runResponsive,
}

var publishCmd = &cobra.Command{
	Use:   "publish [DIR] [BUCKET]",
	Short: "Upload the derivative set to S3",
	Long:  `Uploads the derivatives of DIR to an S3 bucket, skipping objects whose content is unchanged (MD5 hash comparison).`,
	Args:  cobra.MaximumNArgs(2),
	Run:   runPublish,
}

var watchCmd = &cobra.Command{
	Use:   "watch [DIR]",
	Short: "Rebuild the responsive set when images change",
	Args:  cobra.MaximumNArgs(1),
	Run:   runWatch,
}

var profilesCmd = &cobra.Command{
	Use:   "profiles",
	Short: "List encoding profiles",
	Args:  cobra.NoArgs,
	Run:   runProfiles,
}

var (
	configPath    string
	maxConcurrent int
	profileName   string
	publishPrefix string
	showProgress  bool
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().IntVarP(&maxConcurrent, "max-concurrent", "c", 0, "Maximum files processed concurrently (0 = from config)")
	rootCmd.PersistentFlags().BoolVar(&showProgress, "progress", false, "Show a progress bar")

	compressCmd.Flags().StringVarP(&profileName, "profile", "p", "", "Profile used for in-place compression (default from config)")
	publishCmd.Flags().StringVar(&publishPrefix, "prefix", "", "Key prefix in the bucket (default from config)")

	rootCmd.AddCommand(compressCmd, responsiveCmd, publishCmd, watchCmd, profilesCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCompress(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	opts := batchOptions(cfg, pics.ModeReplace)
	if profileName != "" {
		opts.ReplaceProfile = profileName
	}
	runBatch(resolveDir(args, cfg), opts)
}

func runResponsive(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	runBatch(resolveDir(args, cfg), batchOptions(cfg, pics.ModeResponsive))
}

func runPublish(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	dir := resolveDir(args, cfg)
	bucket := cfg.Publish.Bucket
	if len(args) == 2 {
		bucket = args[1]
	}
	if bucket == "" {
		logger.Error("No bucket given", "usage", "webpics publish DIR BUCKET or publish.bucket in config")
		os.Exit(1)
	}
	prefix := cfg.Publish.Prefix
	if publishPrefix != "" {
		prefix = publishPrefix
	}

	ctx := context.Background()
	publisher, err := pics.NewS3Publisher(ctx)
	if err != nil {
		logger.Error("Failed to initialise publisher", "error", err)
		os.Exit(1)
	}

	outDir := filepath.Join(dir, cfg.OutputDir)
	logger.Info("Starting publish", "source", outDir, "bucket", bucket, "prefix", prefix, "max_concurrent", cfg.Publish.MaxConcurrent)
	if _, err := publisher.Publish(ctx, outDir, bucket, prefix, cfg.Publish.MaxConcurrent); err != nil {
		logger.Error("Publish failed", "error", err)
		os.Exit(1)
	}
}

func runWatch(cmd *cobra.Command, args []string) {
	cfg := loadConfig()
	dir := resolveDir(args, cfg)
	opts := batchOptions(cfg, pics.ModeResponsive)
	registry := pics.NewProfileRegistry()

	driver, err := pics.NewBatchDriver(pics.NewCodec(), registry, opts)
	if err != nil {
		logger.Error("Failed to initialise batch", "error", err)
		os.Exit(1)
	}
	if _, err := driver.Run(context.Background(), dir); err != nil {
		logger.Error("Initial batch failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	exclusion := pics.NewExclusion(opts.Exclude, pics.NewPlanner(registry, opts.OutputDirName))
	watcher := pics.NewWatcher(dir, exclusion, pics.DefaultDebounce, func(ctx context.Context) error {
		report, err := driver.Run(ctx, dir)
		if err != nil {
			return err
		}
		logger.Info("Summary", "total", report.Summary.String())
		return nil
	})
	if err := watcher.Watch(ctx); err != nil {
		logger.Error("Watch failed", "error", err)
		os.Exit(1)
	}
}

func runProfiles(cmd *cobra.Command, args []string) {
	registry := pics.NewProfileRegistry()
	for _, name := range registry.Names() {
		profile, err := registry.Get(name)
		if err != nil {
			continue
		}
		fmt.Fprintln(cmd.OutOrStdout(), describeProfile(profile))
	}
}

func runBatch(dir string, opts pics.BatchOptions) {
	var bar *progressbar.ProgressBar
	if showProgress {
		progress := make(chan pics.ProgressEvent, 100)
		opts.ProgressChan = progress
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionSetDescription(opts.Mode.String()),
			progressbar.OptionShowCount(),
		)
		go renderProgress(bar, progress)
		defer close(progress)
	}

	driver, err := pics.NewBatchDriver(pics.NewCodec(), pics.NewProfileRegistry(), opts)
	if err != nil {
		logger.Error("Failed to initialise batch", "error", err)
		os.Exit(1)
	}

	logger.Info("Starting image compression", "dir", dir, "mode", opts.Mode.String())
	report, err := driver.Run(context.Background(), dir)
	if err != nil {
		logger.Error("Error compressing images", "error", err)
		os.Exit(1)
	}
	if bar != nil {
		_ = bar.Finish()
	}

	s := report.Summary
	logger.Info("Summary",
		"total_original_mb", fmt.Sprintf("%.2f", float64(s.TotalOriginal)/(1024*1024)),
		"total_compressed_mb", fmt.Sprintf("%.2f", float64(s.TotalKept)/(1024*1024)),
		"percent_saved", fmt.Sprintf("%.1f", s.PercentSaved),
		"failed", s.Failed)
}

// renderProgress drives the progress bar from batch events until the channel is closed.
func renderProgress(bar *progressbar.ProgressBar, events <-chan pics.ProgressEvent) {
	for event := range events {
		if bar.GetMax() != event.Total {
			bar.ChangeMax(event.Total)
		}
		_ = bar.Set(event.Current)
	}
}

func loadConfig() *config.Config {
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "path", configPath, "error", err)
		os.Exit(1)
	}
	if maxConcurrent > 0 {
		cfg.MaxConcurrency = maxConcurrent
	}
	if err := cfg.Validate(pics.NewProfileRegistry().Names()); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	return cfg
}

// resolveDir returns the directory argument, falling back to the configured source directory.
func resolveDir(args []string, cfg *config.Config) string {
	if len(args) > 0 && args[0] != "" {
		return args[0]
	}
	return cfg.SourceDir
}

func batchOptions(cfg *config.Config, mode pics.Mode) pics.BatchOptions {
	opts := pics.DefaultBatchOptions()
	opts.Mode = mode
	opts.ReplaceProfile = cfg.ReplaceProfile
	opts.OutputDirName = cfg.OutputDir
	opts.Exclude = cfg.Exclude
	opts.MaxConcurrency = cfg.MaxConcurrency
	return opts
}

// describeProfile renders a profile as a single line.
func describeProfile(p pics.EncodingProfile) string {
	size := "original size"
	if p.Resize != nil {
		size = fmt.Sprintf("%dx%d %s", p.Resize.Width, p.Resize.Height, p.Resize.Fit)
	}
	line := fmt.Sprintf("%-10s %-18s", p.Name, size)
	for _, f := range []pics.Format{pics.FormatJPEG, pics.FormatPNG, pics.FormatWebP, pics.FormatAVIF} {
		opts, ok := p.Options(f)
		if !ok {
			continue
		}
		line += fmt.Sprintf(" %s(q%d", f, opts.Quality)
		if opts.Progressive {
			line += ",progressive"
		}
		if opts.Palette {
			line += ",palette"
		}
		if opts.Effort > 0 {
			line += fmt.Sprintf(",effort%d", opts.Effort)
		}
		line += ")"
	}
	return line
}
