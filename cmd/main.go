package main

import (
	"log"
	"os"

	"wordsprint/internal/cli"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)
	log.SetPrefix("wordsprint: ")
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
