package main

import (
	"context"
)

const unknownCommand = `httpwire %s: unknown command
For a list of commands available, run 'httpwire help'.`

func unknown(ctx context.Context, cmd string) error {
	return usageError(unknownCommand, cmd)
}
