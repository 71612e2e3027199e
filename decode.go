package main

import (
	"context"

	"github.com/stealthrocket/httpwire/format/httpformat"
	"github.com/stealthrocket/httpwire/internal/print/jsonprint"
	"github.com/stealthrocket/httpwire/internal/print/textprint"
	"github.com/stealthrocket/httpwire/internal/print/yamlprint"
	"github.com/stealthrocket/httpwire/internal/stream"
	"github.com/stealthrocket/httpwire/pkg/httpbridge"
)

const decodeUsage = `
Usage:	httpwire decode [options] <frame|->

   Decodes a wire frame and prints the request it carries. With --headers,
   the frame is a header-only frame and the header list is printed.

Options:
   -c, --config path    Path to the httpwire configuration file (overrides HTTPWIRECONFIG)
       --headers        Decode a header-only frame
   -h, --help           Show this usage information
   -o, --output format  Output format, one of: text, json, yaml (default from configuration)
`

func decode(ctx context.Context, args []string) error {
	var (
		headers bool
		output  outputFormat
	)

	flagSet := newFlagSet("httpwire decode", decodeUsage)
	boolVar(flagSet, &headers, "headers")
	customVar(flagSet, &output, "o", "output")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	input, err := oneArg("decode", args)
	if err != nil {
		return err
	}

	c, logger, err := setup()
	if err != nil {
		return err
	}
	if output == "" {
		output = outputFormat(c.Output)
	}
	frame, err := readInput(input)
	if err != nil {
		return err
	}

	bridge := &httpbridge.Bridge{Logger: &logger}
	if headers {
		h, err := bridge.HeadersFromWire(frame)
		if err != nil {
			return err
		}
		return printValues(output, httpformat.MakeHeaderList(h))
	}

	req, err := bridge.BuildFromWire(frame, nil, nil)
	if err != nil {
		return err
	}
	defer req.Close()
	return printValues(output, httpformat.MakeRequest(req))
}

// printValues writes values to stdout in the output format.
func printValues[T any](output outputFormat, values ...T) error {
	var w stream.WriteCloser[T]
	switch output {
	case "json":
		w = jsonprint.NewWriter[T](stdout)
	case "yaml":
		w = yamlprint.NewWriter[T](stdout)
	default:
		w = textprint.NewWriter[T](stdout)
	}
	return stream.WriteAll(w, values...)
}
