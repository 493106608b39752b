// Command mnemolet ingests local documents into Qdrant and answers questions
// about them with a local or hosted language model.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/mnemolet/mnemolet/internal/adapters/driving/cli"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	// A missing .env is fine; the environment and config file still apply.
	_ = godotenv.Load()

	cli.SetVersion(version)
	cli.SetBootstrap(build)
	cli.SetSettingsOpener(openSettings)

	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
