// Command ask sends one prompt to the Messages API and prints the streamed
// response as it arrives.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pmehra/claude-relay/internal/anthropic"
	"github.com/pmehra/claude-relay/internal/stream"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		model     = flag.String("model", "claude-sonnet-4-20250514", "model to query")
		maxTokens = flag.Int("max-tokens", 1024, "maximum tokens to generate")
		system    = flag.String("system", "", "optional system prompt")
		baseURL   = flag.String("base-url", anthropic.DefaultBaseURL, "API endpoint (point at a relay to record the exchange)")
		verbose   = flag.Bool("v", false, "debug logging")
	)
	flag.Parse()

	level := zerolog.InfoLevel
	if *verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	prompt := strings.Join(flag.Args(), " ")
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "usage: ask [flags] <prompt>")
		os.Exit(2)
	}

	client := anthropic.NewClient(os.Getenv("ANTHROPIC_API_KEY"))
	client.BaseURL = *baseURL

	req := anthropic.NewRequest(*model, *maxTokens).User(prompt)
	if *system != "" {
		req.SetSystem(*system)
	}

	acc, err := run(context.Background(), client, req)
	if err != nil {
		log.Fatal().Err(err).Msg("request failed")
	}

	log.Info().
		Str("model", acc.Model()).
		Str("stop_reason", acc.StopReason()).
		Int("input_tokens", tokenCount(acc, true)).
		Int("output_tokens", tokenCount(acc, false)).
		Msg("done")

	if !acc.IsComplete() {
		log.Error().Msg("stream truncated: no stop reason received")
		os.Exit(1)
	}
}

func run(ctx context.Context, client *anthropic.Client, req *anthropic.Request) (*stream.Accumulator, error) {
	body, err := client.Stream(ctx, req)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	scanner := stream.NewScanner()
	acc := stream.NewAccumulator()
	buf := make([]byte, 32*1024)

	for {
		n, readErr := body.Read(buf)
		if n > 0 {
			for _, frame := range scanner.Feed(buf[:n]) {
				if frame.Err != nil {
					log.Warn().Err(frame.Err).Msg("skipping malformed frame")
					continue
				}
				ev := frame.Event
				if ev == nil {
					continue
				}
				if ev.Type == stream.EventError && ev.Error != nil {
					return acc, fmt.Errorf("upstream error (%s): %s", ev.Error.Type, ev.Error.Message)
				}
				if ev.Type == stream.EventContentBlockDelta && ev.Delta != nil && ev.Delta.Type == stream.DeltaText {
					fmt.Print(ev.Delta.Text)
				}
				acc.Process(ev)
			}
		}
		if readErr != nil {
			break
		}
	}
	fmt.Println()
	return acc, nil
}

func tokenCount(acc *stream.Accumulator, input bool) int {
	u := acc.Usage()
	if u == nil {
		return 0
	}
	if input {
		return u.InputTokens
	}
	return u.OutputTokens
}
