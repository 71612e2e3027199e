package main

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/stealthrocket/httpwire/format/httpformat"
	"github.com/stealthrocket/httpwire/pkg/httpbridge"
	"gopkg.in/yaml.v3"
)

const encodeUsage = `
Usage:	httpwire encode [options] <request.yaml|->

   Encodes the request read from a YAML or JSON document to its wire frame.
   The document has the following structure:

      protocol: HTTP/1.1
      method: GET
      path: /
      header:
        - name: Host
          value: example.com

   With --headers, the document is a list of name/value pairs instead, and
   the output is a header-only frame.

Options:
   -c, --config path  Path to the httpwire configuration file (overrides HTTPWIRECONFIG)
       --headers      Encode a header list instead of a request
   -h, --help         Show this usage information
   -o, --output path  Write the frame to a file instead of stdout
`

func encode(ctx context.Context, args []string) error {
	var (
		headers bool
		output  string
	)

	flagSet := newFlagSet("httpwire encode", encodeUsage)
	boolVar(flagSet, &headers, "headers")
	stringVar(flagSet, &output, "o", "output")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	input, err := oneArg("encode", args)
	if err != nil {
		return err
	}

	c, logger, err := setup()
	if err != nil {
		return err
	}
	b, err := readInput(input)
	if err != nil {
		return err
	}

	bridge := &httpbridge.Bridge{Logger: &logger, Limits: c.Limits()}
	frame, err := encodeDocument(bridge, b, headers)
	if err != nil {
		return err
	}
	logger.Debug().Int("size", len(frame)).Msg("encoded wire frame")

	if output == "" || output == "-" {
		_, err = stdout.Write(frame)
		return err
	}
	return os.WriteFile(output, frame, 0666)
}

func encodeDocument(bridge *httpbridge.Bridge, b []byte, headers bool) ([]byte, error) {
	if headers {
		var list httpformat.HeaderList
		if err := decodeDocument(b, &list); err != nil {
			return nil, err
		}
		return bridge.EncodeHeadersToWire(list.Headers())
	}
	var req httpformat.Request
	if err := decodeDocument(b, &req); err != nil {
		return nil, err
	}
	r, err := req.NewRequest()
	if err != nil {
		return nil, err
	}
	return bridge.EncodeToWire(r)
}

// decodeDocument parses a YAML document into v. JSON documents are accepted
// since YAML is a superset of JSON.
func decodeDocument(b []byte, v any) error {
	d := yaml.NewDecoder(bytes.NewReader(b))
	d.KnownFields(true)
	if err := d.Decode(v); err != nil {
		return fmt.Errorf("malformed input document: %w", err)
	}
	return nil
}
