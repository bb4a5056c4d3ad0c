package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	// Registers the generated swagger spec with the swag runtime.
	_ "github.com/abapscribe/scribe/docs"
)

//go:generate swag init -g main.go -o ../../docs

// @title Scribe API
// @version 1.0
// @description Requirement-to-ABAP generation API for section mapping, bundle generation, and background jobs.
// @contact.name API Support
// @contact.url https://github.com/abapscribe/scribe
// @license.name MIT
// @license.url https://opensource.org/licenses/MIT
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	// Set up context with signal handling for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}
