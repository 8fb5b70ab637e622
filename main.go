package main

import (
	"github.com/ellraiser/love-zip/cmd"
)

// version is overridden at build time with -ldflags.
var version = "dev"

func main() {
	cmd.Execute(version)
}
