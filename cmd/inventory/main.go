// Inventory - собирает описания вещей по фотографиям в clothing_inventory.csv.
//
// Каждая подпапка data/ - одна вещь. Если в папке уже есть description.txt,
// он берётся как есть; иначе фото отправляются в vision модель, а ответ
// сохраняется рядом с фото и попадает в таблицу.
//
//	inventory                          # data/ -> clothing_inventory.csv
//	inventory -data ./wardrobe -tui    # с прогрессом в терминале
//	inventory -folder shirt1 -force    # перегенерировать одну вещь
//	inventory -publish                 # выложить результат в S3
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/ilkoid/poncho-inventory/pkg/cache"
	"github.com/ilkoid/poncho-inventory/pkg/config"
	"github.com/ilkoid/poncho-inventory/pkg/describer"
	"github.com/ilkoid/poncho-inventory/pkg/events"
	"github.com/ilkoid/poncho-inventory/pkg/factory"
	"github.com/ilkoid/poncho-inventory/pkg/images"
	"github.com/ilkoid/poncho-inventory/pkg/inventory"
	"github.com/ilkoid/poncho-inventory/pkg/prompt"
	"github.com/ilkoid/poncho-inventory/pkg/s3storage"
	"github.com/ilkoid/poncho-inventory/pkg/tui"
	"github.com/ilkoid/poncho-inventory/pkg/utils"
)

var (
	configFlag   = flag.String("config", "", "Path to config.yaml (default: ./config.yaml, then next to binary)")
	dataFlag     = flag.String("data", "", "Folder with one sub-folder per item (overrides inventory.data_dir)")
	outFlag      = flag.String("out", "", "Output CSV path (overrides inventory.output_csv)")
	folderFlag   = flag.String("folder", "", "Comma-separated item folders to process (default: all)")
	forceFlag    = flag.Bool("force", false, "Regenerate descriptions even if description.txt exists")
	policyFlag   = flag.String("policy", "", "Cache policy: presence | content_hash (overrides inventory.cache_policy)")
	failFastFlag = flag.Bool("fail-fast", false, "Stop on the first failed folder, do not write the table")
	tuiFlag      = flag.Bool("tui", false, "Show progress in an interactive terminal UI")
	publishFlag  = flag.Bool("publish", false, "Upload the table and descriptions to S3 (requires s3 config)")
)

func main() {
	flag.Parse()
	os.Exit(run())
}

func run() int {
	// === КОНФИГ ===
	finder := config.PathFinder{ConfigFlag: *configFlag}
	cfgPath := finder.FindConfigPath()

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		return 1
	}
	if err := applyFlags(cfg); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	// === ЛОГГЕР ===
	if err := utils.InitLogger(cfg.App.LogDir); err != nil {
		fmt.Fprintf(os.Stderr, "Logger init failed: %v\n", err)
	}
	utils.SetDebug(cfg.App.Debug)

	ctx, shutdown := utils.SetupGracefulShutdownWithContext()
	defer shutdown()

	if cfgPath == "" {
		utils.Info("Config not found, using defaults")
	} else {
		utils.Info("Config loaded", "path", cfgPath)
	}

	if *publishFlag && !cfg.S3.Enabled() {
		fmt.Fprintln(os.Stderr, "-publish requires s3.endpoint and s3.bucket in config")
		return 1
	}

	folderCache, err := newFolderCache(cfg)
	if err != nil {
		utils.Error("Initialization failed", "error", err)
		fmt.Fprintf(os.Stderr, "Initialization failed: %v\n", err)
		return 1
	}

	opts := inventory.Options{
		Root:       cfg.Inventory.DataDir,
		OutputPath: cfg.Inventory.OutputCSV,
		FailFast:   cfg.Inventory.FailFast,
		Folders:    splitFolders(*folderFlag),
	}

	// === ПРОГОН ===
	var report *inventory.Report
	if *tuiFlag {
		report, err = buildWithTUI(ctx, folderCache, opts)
	} else {
		report, err = inventory.NewBuilder(folderCache, opts).Build(ctx)
	}

	if !*tuiFlag {
		printReport(report)
	}
	if err != nil {
		utils.Error("Inventory run failed", "error", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	if !*tuiFlag && report.OutputPath != "" {
		fmt.Printf("Table: %s\n", report.OutputPath)
	}

	// === ПУБЛИКАЦИЯ ===
	if *publishFlag {
		if err := publish(ctx, cfg, report); err != nil {
			utils.Error("Publish failed", "error", err)
			fmt.Fprintf(os.Stderr, "Publish failed: %v\n", err)
			return 1
		}
	}

	return 0
}

// applyFlags перекрывает конфиг флагами командной строки.
func applyFlags(cfg *config.AppConfig) error {
	if *dataFlag != "" {
		cfg.Inventory.DataDir = *dataFlag
	}
	if *outFlag != "" {
		cfg.Inventory.OutputCSV = *outFlag
	}
	if *failFastFlag {
		cfg.Inventory.FailFast = true
	}
	if *policyFlag != "" {
		switch *policyFlag {
		case config.CachePolicyPresence, config.CachePolicyContentHash:
			cfg.Inventory.CachePolicy = *policyFlag
		default:
			return fmt.Errorf("-policy must be %q or %q, got %q",
				config.CachePolicyPresence, config.CachePolicyContentHash, *policyFlag)
		}
	}
	return nil
}

// newFolderCache собирает цепочку: провайдер -> генератор -> кэш.
func newFolderCache(cfg *config.AppConfig) (*cache.Cache, error) {
	modelDef, ok := cfg.GetVisionModel("")
	if !ok {
		return nil, fmt.Errorf("vision model %q is not defined", cfg.Models.DefaultVision)
	}
	if modelDef.APIKey == "" {
		// не фатально: папки с готовым description.txt обработаются без API
		utils.Warn("API key is empty, only cached folders will succeed", "model", cfg.Models.DefaultVision)
	}

	provider, err := factory.NewVisionProvider(modelDef)
	if err != nil {
		return nil, err
	}

	pf, err := prompt.LoadOrDefault(cfg.Prompt.Path)
	if err != nil {
		return nil, err
	}

	gen := describer.New(provider, describer.Options{
		Prompt: pf,
		Encoder: images.Encoder{
			MaxWidth: cfg.ImageProcessing.MaxWidth,
			Quality:  cfg.ImageProcessing.Quality,
		},
		LastOutputPath: cfg.LastDescriptionPath(),
		RequireImages:  cfg.RequireImagesEnabled(),
	})

	return cache.New(gen, cache.Options{
		FileName: cfg.Inventory.DescriptionFile,
		Policy:   cache.Policy(cfg.Inventory.CachePolicy),
		Force:    *forceFlag,
	}), nil
}

// buildWithTUI запускает Builder в горутине, а прогресс рисует в текущей.
func buildWithTUI(ctx context.Context, d inventory.FolderDescriber, opts inventory.Options) (*inventory.Report, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	emitter := events.NewChanEmitter(64)
	opts.Emitter = emitter

	type result struct {
		report *inventory.Report
		err    error
	}
	done := make(chan result, 1)

	go func() {
		defer emitter.Close()
		report, err := inventory.NewBuilder(d, opts).Build(runCtx)
		done <- result{report: report, err: err}
	}()

	if err := tui.RunProgress(runCtx, emitter.Subscribe(), tui.WithCancel(cancel)); err != nil {
		utils.Error("TUI failed", "error", err)
		cancel()
	}

	// TUI мог закрыться раньше; дочитываем канал, чтобы Builder не встал на Emit
	go func() {
		for range emitter.Subscribe().Events() {
		}
	}()

	res := <-done
	return res.report, res.err
}

func publish(ctx context.Context, cfg *config.AppConfig, report *inventory.Report) error {
	client, err := s3storage.New(cfg.S3)
	if err != nil {
		return err
	}
	p := &s3storage.Publisher{Uploader: client, Prefix: cfg.S3.Prefix}
	res, err := p.Publish(ctx, report, report.OutputPath)
	if err != nil {
		return err
	}
	fmt.Printf("Published %d objects to s3://%s/%s\n", len(res.Keys), client.Bucket(), strings.TrimPrefix(cfg.S3.Prefix+"/"+res.RunID, "/"))
	return nil
}

// splitFolders разбирает "a, b,,c" в [a b c].
func splitFolders(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func printReport(report *inventory.Report) {
	if report == nil {
		return
	}
	for _, o := range report.Outcomes {
		fmt.Println(o.String())
	}
	fmt.Printf("\nDescribed: %d (generated %d), skipped: %d, failed: %d\n",
		report.Count(inventory.StatusDescribed), report.Generated(),
		report.Count(inventory.StatusSkipped), report.Count(inventory.StatusFailed))
}
