package main

import (
	"context"
	"os"

	"github.com/arthur-debert/ariamove/internal/cli"
	"github.com/arthur-debert/ariamove/pkg/logging"
)

func main() {
	code := cli.Execute(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
	logging.CloseLogFile()
	os.Exit(code)
}
