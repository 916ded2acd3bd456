package main

import (
	"os"

	flag "github.com/spf13/pflag"

	"github.com/degenlabs/purge-predictor-go/pkg/economy"
)

func main() {
	levels := flag.Int("levels", 100, "number of levels to project")
	sampleEvery := flag.Int("sample", 5, "capture a table row every N levels")
	flag.Parse()

	rows := economy.Project(*levels, *sampleEvery)
	economy.RenderTable(os.Stdout, rows)
}
