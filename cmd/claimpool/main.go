package main

import (
	"fmt"
	"os"

	"github.com/malhajri07/real-estate-CRM-project-sub000/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
