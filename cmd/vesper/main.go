package main

import (
	"fmt"
	"os"
)

const (
	appName    = "vesper"
	appVersion = "0.1.0"
)

func main() {
	if err := NewRootCommand().Execute(); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
