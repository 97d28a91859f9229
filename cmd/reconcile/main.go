// Command reconcile recomputes tag and author question counters from the questions
// collection and repairs any drift left by best-effort bookkeeping.
package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/askly/askly/backend/go-services/internal/app"
	"github.com/askly/askly/backend/go-services/internal/config"
	"github.com/askly/askly/backend/go-services/internal/database"
	"github.com/askly/askly/backend/go-services/internal/reconcile"
	"github.com/askly/askly/backend/go-services/pkg/logger"
)

func main() {
	dryRun := flag.Bool("dry-run", false, "report drift without writing")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall deadline")
	flag.Parse()

	logger.Init(os.Getenv("LOG_LEVEL"))
	cfg, err := config.LoadConfig()
	if err != nil {
		logger.Fatalf("failed to load config: %v", err)
	}
	if cfg.MongoDB.URI == "" {
		logger.Fatalf("MONGODB_URI is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client, err := database.ConnectWithRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, 3, time.Second)
	if err != nil {
		logger.Fatalf("%v", err)
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repos := app.MongoRepositories(client.Database(cfg.MongoDB.Database))
	rep, err := reconcile.New(repos.Questions, repos.Tags, repos.Users).Run(ctx, *dryRun)
	if err != nil {
		logger.Fatalf("reconcile failed: %v", err)
	}
	for _, f := range rep.Fixes {
		logger.Infof("%s %s: %d -> %d", f.Collection, f.ID.Hex(), f.Was, f.Now)
	}
	logger.Infof("checked %d tags, %d users; %d counters drifted (dry-run=%v)", rep.TagsChecked, rep.UsersChecked, len(rep.Fixes), *dryRun)
}
