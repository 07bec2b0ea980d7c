package main

import (
	"os"

	"github.com/GreenNest/GreenNest/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
