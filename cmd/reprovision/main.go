package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/safesuite/provisioning/internal/config"
	"github.com/safesuite/provisioning/internal/domain/entity"
	"github.com/safesuite/provisioning/internal/infrastructure/database"
	"github.com/safesuite/provisioning/internal/infrastructure/provider/apps"
	"github.com/safesuite/provisioning/internal/usecase"
	"github.com/safesuite/provisioning/pkg/retry"
)

// Operator CLI for customers stuck behind a failed provisioning run.
//
//	reprovision -email a@x.com -check
//	reprovision -email a@x.com -apps safetunes,safetube -operator ops@safesuite.app
func main() {
	var (
		email    = flag.String("email", "", "customer email (required)")
		appsList = flag.String("apps", "", "comma-separated apps to re-grant")
		operator = flag.String("operator", "", "operator email, recorded as the audit actor")
		check    = flag.Bool("check", false, "only query current status across all apps")
	)
	flag.Parse()

	if *email == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	repos := database.NewRepositories(db, logger)

	provisioner := apps.NewClient(&cfg.Apps, retry.DefaultPolicy(), logger)
	syncService := usecase.NewSyncService(provisioner, repos.Audit, logger)
	remediation := usecase.NewRemediationService(provisioner, syncService, repos.Audit, logger)

	ctx := context.Background()

	if *check {
		statuses := remediation.CheckStatus(ctx, *email)
		fmt.Printf("Status for %s:\n", *email)
		for _, s := range statuses {
			switch {
			case s.Error != "":
				fmt.Printf("  %-10s check failed: %s\n", s.App, s.Error)
			case !s.Found:
				fmt.Printf("  %-10s no record\n", s.App)
			default:
				fmt.Printf("  %-10s %s (created %s)\n", s.App, s.Status, s.CreatedAt)
			}
		}
		return
	}

	if *appsList == "" {
		log.Fatal("either -check or -apps is required")
	}
	if *operator == "" {
		log.Fatal("-operator is required when re-granting")
	}

	var selected []entity.App
	for _, raw := range strings.Split(*appsList, ",") {
		app, ok := entity.ParseApp(strings.TrimSpace(raw))
		if !ok {
			log.Fatalf("unknown app: %q", raw)
		}
		selected = append(selected, app)
	}

	result := remediation.Reprovision(ctx, *operator, *email, selected)

	fmt.Printf("Reprovision %s:\n", *email)
	for _, r := range result.Results {
		switch {
		case r.Success && r.Note != "":
			fmt.Printf("  %-10s ok (%s)\n", r.App, r.Note)
		case r.Success:
			fmt.Printf("  %-10s ok (%d attempts)\n", r.App, r.Attempts)
		default:
			fmt.Printf("  %-10s FAILED after %d attempts: %s\n", r.App, r.Attempts, r.Error)
		}
	}

	if !result.Success() {
		os.Exit(1)
	}
}
