package main

import (
	"os"

	demoforgecmder "github.com/demoforge/demoforge/cmd/demoforge"
)

func main() {
	cmd := demoforgecmder.NewDemoforgeCmd()
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
