package main

import (
	"os"

	"github.com/joho/godotenv"

	rewindcmder "github.com/papercomputeco/rewind/cmd/rewind"
)

func main() {
	_ = godotenv.Load()

	cmd := rewindcmder.NewRewindCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
