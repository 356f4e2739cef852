// Command speedstats scrapes speedrun.com leaderboards into JSON run dumps.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

func main() {
	_ = godotenv.Load()

	ctx, stop := signalContext()
	err := newRootCmd(newApp(loadConfig())).ExecuteContext(ctx)
	stop()
	if err != nil {
		log.Error().Err(err).Msg("Scrape failed")
		os.Exit(1)
	}
}
