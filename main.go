package main

import (
	"os"

	"github.com/ashrobertsdragon/lorebinder/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
