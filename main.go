package main

import (
	"log"

	"github.com/changared/dispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatalf("dispatch: %v", err)
	}
}
