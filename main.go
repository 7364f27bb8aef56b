package main

import (
	"github.com/joeberkovitz/gmnx-viewer/cmd"
)

func main() {
	cmd.Execute()
}
