package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"book-scraper/cmd"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cmd.RootCmd.ExecuteContext(ctx); err != nil {
		stop()
		log.Fatalf("Error executing command: %v", err)
	}
}
