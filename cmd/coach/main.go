// Command coach is a terminal front end for the Socratic coaching server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"socratic-coach/backend/internal/client"
)

func main() {
	var (
		serverURL  = flag.String("server", envOr("COACH_SERVER", "http://localhost:8000"), "coaching server base URL")
		file       = flag.String("file", "", "start from the text of this document (txt, pdf, doc, docx)")
		cookieName = flag.String("cookie-name", "connect.sid", "session cookie name")
		cookie     = flag.String("cookie", os.Getenv("COACH_SESSION"), "session cookie value")
		token      = flag.String("token", os.Getenv("COACH_TOKEN"), "bearer token")
		outDir     = flag.String("out", ".", "directory for /export files")
		timeout    = flag.Duration("timeout", 90*time.Second, "per-request timeout")
		verbose    = flag.Bool("v", false, "log warnings and failed saves to stderr")
	)
	flag.Parse()

	level := slog.LevelError
	if *verbose {
		level = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	opts := []client.Option{client.WithHTTPClient(newHTTPClient(*timeout))}
	if *cookie != "" {
		opts = append(opts, client.WithSessionCookie(*cookieName, *cookie))
	}
	if *token != "" {
		opts = append(opts, client.WithBearerToken(*token))
	}
	api := client.New(*serverURL, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	r := newRepl(api, os.Stdin, os.Stdout, *outDir)
	if *file != "" {
		if err := r.loadDocument(ctx, *file); err != nil {
			fmt.Fprintf(os.Stderr, "could not use %s: %v\n", filepath.Base(*file), err)
			os.Exit(1)
		}
	}
	if err := r.run(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
