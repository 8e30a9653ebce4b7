// Command geodiff compares two CSV exports of the same layer, both sorted by a key attribute, and
// logs every record that differs between them.
//
// Usage:
//
//	geodiff -source before.csv -other after.csv -key OBJECTID [-config geodiff.yml]
//
// The exit code is 0 when the exports are equal, 1 when differences were found and 2 on error.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	code, err := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()

	if err != nil {
		fmt.Fprintf(os.Stderr, "geodiff: %v\n", err)
	}

	os.Exit(code)
}
