package main

import (
	"context"
	"fmt"
)

const helpUsage = `
Usage:	httpwire <command> [options]

Wire Commands:
   decode   Print the request or header list carried by a frame
   encode   Encode a request or header list to a frame

Network Commands:
   send     Send the request carried by a frame

Other Commands:
   config   View or edit the httpwire configuration
   help     Show usage information about httpwire commands
   version  Show the httpwire version information

For a description of each command, run 'httpwire help <command>'.`

func help(ctx context.Context, args []string) error {
	flagSet := newFlagSet("httpwire help", helpUsage)

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}

	var cmd string
	var msg string

	if len(args) > 0 {
		cmd = args[0]
	}

	switch cmd {
	case "config":
		msg = configUsage
	case "decode":
		msg = decodeUsage
	case "encode":
		msg = encodeUsage
	case "help", "":
		msg = helpUsage
	case "send":
		msg = sendUsage
	case "version":
		msg = versionUsage
	default:
		return usageError("httpwire help %s: unknown command", cmd)
	}

	fmt.Fprintln(stdout, msg[1:])
	return nil
}
