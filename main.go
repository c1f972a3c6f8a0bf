package main

import (
	"embed"
	"os"

	"github.com/msalah0e/flowviz/cmd"
)

//go:embed web
var webFS embed.FS

func main() {
	cmd.SetWebFS(webFS)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
