package main

import (
	"os"

	"horse.fit/localwire/internal/app"
)

func main() {
	os.Exit(app.Run(os.Args[1:]))
}
