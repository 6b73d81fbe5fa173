// Package main provides the entry point for the CVision HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "cvision",
	Short: "CVision HR assistant API server",
	Long:  "CVision exposes a REST API for requirements document analysis, deterministic candidate matching and a streaming employee chat backed by hybrid CV search.",
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
