package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/dmitrijs2005/moodkeeper/internal/server"
	"github.com/dmitrijs2005/moodkeeper/internal/server/config"
	"github.com/dmitrijs2005/moodkeeper/internal/server/models"
)

const usage = `usage:
  server [flags]                          run the HTTP API
  server export-retraining journal|selfie [flags]
                                          print the retraining corpus as JSON`

func main() {
	ctx := context.Background()

	args := os.Args[1:]
	export := ""
	if len(args) > 0 && args[0] == "export-retraining" {
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		export = args[1]
		os.Args = append(os.Args[:1], args[2:]...)
	}

	cfg := config.LoadConfig()
	app, err := server.NewApp(ctx, cfg)
	if err != nil {
		log.Printf("%v", err)
		os.Exit(1)
	}

	if export != "" {
		if err := app.ExportRetraining(ctx, models.RetrainingKind(export), os.Stdout); err != nil {
			log.Printf("%v", err)
			os.Exit(1)
		}
		return
	}

	app.Run(ctx)
}
