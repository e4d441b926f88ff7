// Command tablemerge merges a directory of delimited files sharing a key
// column into one table, optionally collapses and coalesces it, shrinks its
// numeric storage, and writes the result to a file or database.
//
//	tablemerge run --dir ./teamdata --key "TEAM NO" --output merged_team_data.csv
//	tablemerge run --config pipeline.yaml --preview 10
//	tablemerge validate --config pipeline.yaml
//	tablemerge backends
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "tablemerge/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newApp().rootCommand().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
