package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/dataagent/dataagent/internal/cli/dataagentctl"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		_, _ = fmt.Fprintf(os.Stderr, "load .env: %v\n", err)
	}

	options, warnings := dataagentctl.OptionsFromEnv(os.LookupEnv)
	for _, warning := range warnings {
		_, _ = fmt.Fprintln(os.Stderr, warning)
	}
	options.Stdout = os.Stdout
	options.Stderr = os.Stderr

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := dataagentctl.Run(ctx, os.Args[1:], options)
	stop()
	os.Exit(code)
}
