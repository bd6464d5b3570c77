package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"alfredoptarigan/coach-client/internal/config"
	"alfredoptarigan/coach-client/internal/handlers"
	"alfredoptarigan/coach-client/internal/repositories"
	"alfredoptarigan/coach-client/internal/services"
	"alfredoptarigan/coach-client/internal/ui"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Load configuration
	cfg := config.Load()

	closeLog, err := cfg.SetupLogging()
	if err != nil {
		ui.PrintError(os.Stderr, "%v", err)
		return 1
	}
	defer closeLog()
	log.Println("✅ Config loaded successfully")

	// Initialize the review archive
	var reviewRepo repositories.ReviewRepository
	if cfg.Archive.Enabled {
		db, err := config.InitDatabase(cfg)
		if err != nil {
			log.Printf("❌ Failed to initialize archive database: %v\n", err)
			ui.PrintWarning(os.Stderr, "review archive unavailable: %v", err)
		} else {
			reviewRepo = repositories.NewReviewRepository(db)
			log.Println("✅ Review archive initialized")
		}
	}

	// Initialize services
	apiClient, err := services.NewAPIClient(cfg.API.BaseURL, cfg.API.Timeout)
	if err != nil {
		log.Printf("❌ Failed to create API client: %v\n", err)
		ui.PrintError(os.Stderr, "failed to create client: %v", err)
		return 1
	}

	reviewer := services.NewReviewerService(
		apiClient,
		services.NewDocumentService(cfg.Review.MaxFileSize),
		services.NewMarkdownRenderer(),
		reviewRepo,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	worker := services.NewWorker(cfg.Pitch.MaxInFlight)
	worker.Start(ctx)
	defer worker.Stop()

	coach := services.NewCoachService(
		apiClient,
		worker,
		services.NewStorageService(cfg.Pitch.ExportDir),
		cfg.API.UserID,
	)
	log.Println("✅ Services initialized successfully")

	// Initialize Handlers
	root := handlers.NewRootCommand(
		handlers.NewReviewHandler(reviewer, reviewRepo, services.NewStorageService(cfg.Review.OutputDir), os.Stdout),
		handlers.NewPitchHandler(coach, os.Stdin, os.Stdout),
	)

	if err := root.ExecuteContext(ctx); err != nil {
		log.Printf("❌ %v\n", err)
		if strings.Contains(err.Error(), "unknown command") || strings.Contains(err.Error(), "flag") {
			ui.PrintError(os.Stderr, "%s", err)
			fmt.Fprintln(os.Stderr, "\nRun 'coach --help' for usage.")
		}
		return 1
	}
	return 0
}
