package main

// Notes on program structure
// --------------------------
//
// httpwire uses subcommands to invoke specific functionalities of the program.
// Each subcommand is implemented by a function named after the command, in a
// file of the same name (e.g. the "help" command is implemented by the help
// function in help.go).
//
// The usage message for each command is declared by a constant starting with
// the command name and followed by the suffix "Usage". For example, the usage
// message for the "help" command is declared by the constant helpUsage.
//
// The usage message contains a "Usage:	httpwire <command>" section presenting
// the structure of the command. Note the tabulation separating "Usage:" and
// "httpwire".

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/stealthrocket/httpwire/internal/config"
	"github.com/stealthrocket/httpwire/internal/logging"
	"golang.org/x/exp/slices"
)

const rootUsage = `httpwire - HTTP request wire frames

   httpwire converts HTTP requests to and from the binary frames exchanged
   with foreign runtimes, and sends them with request bodies produced by
   files or WebAssembly modules.

Example:

   $ httpwire encode request.yaml > request.bin
   $ httpwire decode request.bin
   GET /a HTTP/1.1
   Host: example.com

   $ httpwire send --url http://localhost:8080 --body-wasm body.wasm request.bin
   ...

For a list of commands available, run 'httpwire help'.`

var (
	stdin  io.Reader = os.Stdin
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr

	configPath config.Path
)

// root is the httpwire entrypoint.
func root(ctx context.Context, args ...string) int {
	configPath = config.DefaultConfigPath()

	if len(args) == 0 {
		fmt.Fprintln(stdout, rootUsage)
		return 0
	}
	cmd, args := args[0], args[1:]

	var err error
	switch cmd {
	case "config":
		err = configCommand(ctx, args)
	case "decode":
		err = decode(ctx, args)
	case "encode":
		err = encode(ctx, args)
	case "help", "-h", "--help":
		err = help(ctx, args)
	case "send":
		err = send(ctx, args)
	case "version":
		err = version(ctx, args)
	default:
		err = unknown(ctx, cmd)
	}

	switch e := err.(type) {
	case nil:
		return 0
	case exitCode:
		return int(e)
	case usage:
		fmt.Fprintf(stderr, "%s\n", e)
		return 2
	default:
		fmt.Fprintf(stderr, "ERR: httpwire %s: %s\n", cmd, err)
		return 1
	}
}

// exitCode is an error type returned from command functions to indicate the
// exit code that should be returned by the program.
type exitCode int

func (e exitCode) Error() string {
	return fmt.Sprintf("exit: %d", e)
}

// usage is an error type returned from command functions to indicate a usage
// error.
//
// Usage errors cause the program to exit with status code 2.
type usage string

func usageError(msg string, args ...any) error {
	return usage(fmt.Sprintf(msg, args...))
}

func (e usage) Error() string {
	return string(e)
}

func setEnum[T ~string](enum *T, typ string, value string, options ...string) error {
	for _, option := range options {
		if option == value {
			*enum = T(option)
			return nil
		}
	}
	return fmt.Errorf("unsupported %s: %q (not one of %s)", typ, value, strings.Join(options, ", "))
}

type outputFormat string

func (o outputFormat) String() string {
	return string(o)
}

func (o *outputFormat) Set(value string) error {
	return setEnum(o, "output format", value, "text", "json", "yaml")
}

func newFlagSet(cmd, usage string) *flag.FlagSet {
	usage = strings.TrimSpace(usage)
	flagSet := flag.NewFlagSet(cmd, flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.Usage = func() { fmt.Fprintln(stdout, usage) }
	customVar(flagSet, &configPath, "c", "config")
	return flagSet
}

// parseFlags is a greedy parser which consumes all options known to f and
// returns the remaining arguments.
func parseFlags(f *flag.FlagSet, args []string) ([]string, error) {
	var unknownArgs []string
	for {
		if err := f.Parse(args); err != nil {
			if errors.Is(err, flag.ErrHelp) {
				return nil, exitCode(0)
			}
			return nil, usageError("%s: %s", f.Name(), err)
		}
		if args = f.Args(); len(args) == 0 {
			return unknownArgs, nil
		}
		i := slices.IndexFunc(args, func(s string) bool {
			return strings.HasPrefix(s, "-") && s != "-"
		})
		if i < 0 {
			i = len(args)
		}
		unknownArgs = append(unknownArgs, args[:i]...)
		args = args[i:]
	}
}

func boolVar(f *flag.FlagSet, dst *bool, name string, alias ...string) {
	f.BoolVar(dst, name, *dst, "")
	for _, name := range alias {
		f.BoolVar(dst, name, *dst, "")
	}
}

func stringVar(f *flag.FlagSet, dst *string, name string, alias ...string) {
	f.StringVar(dst, name, *dst, "")
	for _, name := range alias {
		f.StringVar(dst, name, *dst, "")
	}
}

func customVar(f *flag.FlagSet, dst flag.Value, name string, alias ...string) {
	f.Var(dst, name, "")
	for _, name := range alias {
		f.Var(dst, name, "")
	}
}

// setup loads the configuration and creates the logger of a command.
func setup() (*config.Config, zerolog.Logger, error) {
	c, err := config.Load(configPath)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	logger, err := logging.New(stderr, c.Log.Level)
	if err != nil {
		return nil, zerolog.Nop(), err
	}
	return c, logger, nil
}

// readInput reads the content of the file at path, or stdin when path is "-".
func readInput(path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(stdin)
	}
	return os.ReadFile(path)
}

// oneArg returns the only positional argument of a command.
func oneArg(cmd string, args []string) (string, error) {
	switch len(args) {
	case 0:
		return "", usageError("httpwire %s: missing input (use - for stdin)", cmd)
	case 1:
		return args[0], nil
	default:
		return "", usageError("httpwire %s: too many arguments: %s", cmd, strings.Join(args, " "))
	}
}
