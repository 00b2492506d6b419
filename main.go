package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"swap-loop/cmd"
)

func main() {
	// .env is optional; the environment itself may carry the config.
	_ = godotenv.Load()

	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
