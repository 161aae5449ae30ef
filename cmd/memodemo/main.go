// Command memodemo runs the memoization and lazy field demonstrations.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/apex/log"
	"github.com/urfave/cli/v3"

	"github.com/goliatone/go-memo-cache/demo"
	"github.com/goliatone/go-memo-cache/internal/logging"
	"github.com/goliatone/go-memo-cache/pkg/di"
)

func main() {
	os.Exit(realMain(context.Background(), os.Args, os.Stdout, os.Stderr))
}

func realMain(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := logging.Init(stderr, logging.Level()); err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	if err := newCommand(stdout, stderr).Run(ctx, args); err != nil {
		fmt.Fprintln(stderr, err)
		var setupErr setupError
		if errors.As(err, &setupErr) {
			return 1
		}
		return 2
	}
	return 0
}

// setupError marks failures that happen before any scenario starts.
type setupError struct{ error }

func (e setupError) Unwrap() error { return e.error }

func newCommand(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name:      "memodemo",
		Usage:     "show a shared memoized computation next to a per-object lazy field",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "scenario",
				Usage: fmt.Sprintf("scenario to run, one of %v", demo.Scenarios),
				Value: demo.ScenarioAll,
				Validator: func(s string) error {
					if !slices.Contains(demo.Scenarios, s) {
						return fmt.Errorf("unknown scenario %q, want one of %v", s, demo.Scenarios)
					}
					return nil
				},
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "log level written to stderr (debug, info, warn, error)",
				Value: logging.Level(),
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if err := logging.Init(stderr, cmd.String("log-level")); err != nil {
				return setupError{err}
			}

			container, err := di.NewContainerWithDefaults()
			if err != nil {
				return setupError{fmt.Errorf("failed to create DI container: %w", err)}
			}

			bigFunc, err := di.NewMemo(container, "execute_big_func", demo.BigFunc(stdout))
			if err != nil {
				return setupError{err}
			}

			scenario := cmd.String("scenario")
			log.WithField("scenario", scenario).Debug("running")
			return demo.Run(ctx, scenario, bigFunc, stdout)
		},
	}
}
