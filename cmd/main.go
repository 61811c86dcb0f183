package main

import (
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	app := cli.NewApp()
	app.Name = "phishguard"
	app.Usage = "Classify URLs as phishing or safe with a random forest."
	app.Version = version
	app.Commands = commands()

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
