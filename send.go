package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"

	"github.com/stealthrocket/httpwire/pkg/bodystream"
	"github.com/stealthrocket/httpwire/pkg/httpbridge"
	"github.com/stealthrocket/httpwire/pkg/httpmsg"
	"github.com/stealthrocket/httpwire/pkg/wasmbody"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

const sendUsage = `
Usage:	httpwire send [options] --url <base> <frame|->

   Sends the request carried by a wire frame and prints the response. The
   request path is resolved against the base URL.

   The request body is read from a file with --body, or produced by a
   WebAssembly module with --body-wasm. The module exports body_send,
   body_reset and body_length, and writes chunks with http_body.write.

Options:
   -c, --config path     Path to the httpwire configuration file (overrides HTTPWIRECONFIG)
       --body path       Read the request body from a file
       --body-wasm path  Produce the request body with a WebAssembly module
   -h, --help            Show this usage information
   -u, --url base        Base URL to send the request to
`

func send(ctx context.Context, args []string) error {
	var (
		target   string
		body     string
		bodyWasm string
	)

	flagSet := newFlagSet("httpwire send", sendUsage)
	stringVar(flagSet, &target, "u", "url")
	stringVar(flagSet, &body, "body")
	stringVar(flagSet, &bodyWasm, "body-wasm")

	args, err := parseFlags(flagSet, args)
	if err != nil {
		return err
	}
	input, err := oneArg("send", args)
	if err != nil {
		return err
	}
	if target == "" {
		return usageError("httpwire send: missing base URL (use --url)")
	}
	if body != "" && bodyWasm != "" {
		return usageError("httpwire send: --body and --body-wasm cannot be used together")
	}
	base, err := url.Parse(target)
	if err != nil {
		return usageError("httpwire send: malformed base URL: %s", err)
	}

	c, logger, err := setup()
	if err != nil {
		return err
	}
	frame, err := readInput(input)
	if err != nil {
		return err
	}

	var host bodystream.Host
	var producer bodystream.Producer
	switch {
	case body != "":
		f, err := os.Open(body)
		if err != nil {
			return err
		}
		defer f.Close()
		h := bodystream.NewLocalHost(ctx)
		defer h.Shutdown()
		host, producer = h, bodystream.ReaderProducer(f)

	case bodyWasm != "":
		wasm, err := os.ReadFile(bodyWasm)
		if err != nil {
			return err
		}
		runtime, err := c.NewRuntime(ctx)
		if err != nil {
			return err
		}
		defer runtime.Close(ctx)

		bodies, err := wasmbody.NewRuntime(ctx, runtime)
		if err != nil {
			return err
		}
		defer bodies.Close(ctx)

		p, err := bodies.Load(ctx, wasm)
		if err != nil {
			return err
		}
		defer p.Close(ctx)
		logger.Debug().Str("module", p.Name()).Msg("loaded body producer")
		host, producer = p, p
	}

	bridge := &httpbridge.Bridge{Logger: &logger, Limits: c.Limits()}
	req, err := bridge.BuildFromWire(frame, host, producer)
	if err != nil {
		return err
	}
	defer req.Close()

	httpReq, err := httpmsg.ToHTTP(ctx, req, base)
	if err != nil {
		return err
	}
	logger.Debug().
		Str("method", httpReq.Method).
		Str("url", httpReq.URL.String()).
		Int64("length", httpReq.ContentLength).
		Msg("sending request")

	res, err := http.DefaultClient.Do(httpReq)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return printResponse(stdout, res)
}

func printResponse(w io.Writer, res *http.Response) error {
	if _, err := fmt.Fprintf(w, "%s %s\n", res.Proto, res.Status); err != nil {
		return err
	}
	names := maps.Keys(res.Header)
	slices.Sort(names)
	for _, name := range names {
		for _, value := range res.Header[name] {
			if _, err := fmt.Fprintf(w, "%s: %s\n", name, value); err != nil {
				return err
			}
		}
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	_, err := io.Copy(w, res.Body)
	return err
}
