package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func main() {
	// Secrets come from the environment; a local .env is optional.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:   "deepresearch",
		Short: "Deep research agent: a manager agent that delegates web browsing to a search agent",
	}
	root.AddCommand(askCMD(), serveCMD())
	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
