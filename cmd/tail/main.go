// Command tail follows one of the panel's live log streams from a terminal.
// It subscribes to the audit trail or an xray log stream over SSE using the
// shared reconnecting stream client, prints snapshot lines to stdout and
// reports connection state transitions on stderr.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"one-ui-backend/internal/dto"
	"one-ui-backend/internal/stream"
)

func main() {
	var (
		server   = flag.String("server", "http://localhost:8080", "panel base URL")
		name     = flag.String("stream", "audit", "stream to follow: audit, access or error")
		token    = flag.String("token", os.Getenv("ONE_UI_TOKEN"), "bearer token (defaults to ONE_UI_TOKEN)")
		search   = flag.String("search", "", "substring filter")
		level    = flag.String("level", "", "level/status filter")
		ip       = flag.String("ip", "", "IP filter")
		user     = flag.String("user", "", "user filter")
		limit    = flag.Int("limit", 0, "maximum lines per snapshot")
		interval = flag.Duration("interval", time.Second, "snapshot pacing hint")
		raw      = flag.Bool("raw", false, "print raw snapshot JSON instead of lines")
	)
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	endpoint, kind, err := resolveStream(*server, *name)
	if err != nil {
		log.Fatal().Err(err).Msg("Cannot resolve stream")
	}

	req := stream.Request{
		Endpoint: endpoint,
		Token:    *token,
		Filters: stream.Filters{
			Search:   *search,
			Level:    *level,
			Kind:     kind,
			IP:       *ip,
			User:     *user,
			Limit:    *limit,
			Interval: *interval,
		},
	}

	done := make(chan int, 1)
	var printed printedWindow

	cancel := stream.Start(req,
		func(payload json.RawMessage) {
			if *raw {
				fmt.Println(string(payload))
				return
			}
			var snapshot dto.StreamSnapshot
			if err := json.Unmarshal(payload, &snapshot); err != nil {
				log.Warn().Err(err).Msg("Snapshot payload did not match the expected schema")
				return
			}
			for _, line := range printed.fresh(snapshot.Lines) {
				fmt.Println(line)
			}
		},
		func(state stream.State, detail string) {
			event := log.Info()
			if state == stream.StateError {
				event = log.Error()
			}
			event.Str("state", state.String()).Str("detail", detail).Msg("Stream state changed")

			// Terminal failures: exhausted retries or a rejected start.
			if state == stream.StateError &&
				(detail == "stream unavailable after multiple retries" || detail == "missing authentication token") {
				done <- 1
			}
		},
	)
	defer cancel()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case code := <-done:
		os.Exit(code)
	case <-sig:
		log.Info().Msg("Interrupted, closing stream")
	}
}

func resolveStream(server, name string) (endpoint, kind string, err error) {
	base := strings.TrimRight(server, "/")
	switch name {
	case "audit":
		return base + "/api/v1/audit/stream", "", nil
	case "access", "error":
		return base + "/api/v1/xray/logs/stream", name, nil
	default:
		return "", "", fmt.Errorf("unknown stream %q (want audit, access or error)", name)
	}
}

// printedWindow suppresses lines already shown. Snapshots overlap heavily
// between ticks since each carries the whole window; only the new suffix is
// printed.
type printedWindow struct {
	last []string
}

func (p *printedWindow) fresh(lines []string) []string {
	start := 0
	if len(p.last) > 0 {
		// Find the longest suffix of last that prefixes lines.
		for overlap := min(len(p.last), len(lines)); overlap > 0; overlap-- {
			if equalLines(p.last[len(p.last)-overlap:], lines[:overlap]) {
				start = overlap
				break
			}
		}
	}
	p.last = lines
	return lines[start:]
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
