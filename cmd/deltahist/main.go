package main

import (
	"os"

	"github.com/roach88/deltahist/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
