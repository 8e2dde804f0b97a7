// Standalone mock server for trying the CLI.
//
// Usage:
//
//	go run ./example/cmd/mockserver
//
// Then in another terminal:
//
//	go run ./cmd/sitepulse check -c example/config.yaml
package main

import (
	"flag"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
)

func main() {
	addr := flag.String("addr", ":9999", "listen address")
	flag.Parse()

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.TimeOnly}).
		With().Timestamp().Logger()

	fmt.Printf("Mock server starting on %s\n", *addr)
	fmt.Println("Paths: /health?svc=&env=  /status/{code}  /slow")
	fmt.Println("Press Ctrl+C to stop")
	fmt.Println()

	mux := http.NewServeMux()

	// health replies 200 for most combinations and 503 for the rest,
	// stable per svc/env so repeated runs agree
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		svc := r.URL.Query().Get("svc")
		env := r.URL.Query().Get("env")

		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		code := http.StatusOK
		if (len(svc)+len(env))%3 == 0 {
			code = http.StatusServiceUnavailable
		}
		logger.Debug().Str("svc", svc).Str("env", env).Int("status", code).Msg("health")
		w.WriteHeader(code)
	})
	mux.HandleFunc("/status/{code}", func(w http.ResponseWriter, r *http.Request) {
		code, err := strconv.Atoi(r.PathValue("code"))
		if err != nil || code < 100 || code > 599 {
			http.Error(w, "bad status code", http.StatusBadRequest)
			return
		}
		w.WriteHeader(code)
	})
	mux.HandleFunc("/slow", func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(30 * time.Second):
			w.WriteHeader(http.StatusOK)
		case <-r.Context().Done():
		}
	})

	if err := http.ListenAndServe(*addr, mux); err != nil {
		logger.Error().Err(err).Msg("server error")
		os.Exit(1)
	}
}
