package main

import (
	"os"

	"github.com/tenantcore/tenantcore/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
