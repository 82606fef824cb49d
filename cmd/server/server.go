package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/render"
	"github.com/Wartets/Julia-Set/worker"
)

// main runs a render worker reachable over a websocket and, optionally,
// plain TCP. Clients call julia.Renderer over irpc.
func main() {
	if err := run(); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run() error {
	port := flag.Int("port", 8080, "http port")
	threads := flag.Int("threads", runtime.NumCPU(), "render goroutines per connection")
	tcpPort := flag.Int("tcp", 0, "also serve irpc on this tcp port (0 disables)")
	verbose := flag.Bool("v", false, "log every request")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	julia.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv, err := worker.NewServer()
	if err != nil {
		return fmt.Errorf("worker.NewServer: %w", err)
	}
	defer srv.Close()
	srv.NewRenderer = func() *render.Renderer {
		return &render.Renderer{Workers: *threads}
	}

	wsListener, httpServer := webServer(ctx, *port, srv)

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("httpServer: %v", err)
		}
	}()

	// the same server can serve several listeners; here websocket and tcp
	if *tcpPort != 0 {
		tcpListener, err := net.Listen("tcp", fmt.Sprintf(":%d", *tcpPort))
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}
		defer tcpListener.Close()
		log.Printf("tcp listening on port: %d", *tcpPort)
		go func() {
			if err := srv.Serve(ctx, tcpListener); err != nil && ctx.Err() == nil {
				log.Fatalf("srv.Serve tcp: %v", err)
			}
		}()
	}

	go func() {
		<-ctx.Done()
		wsListener.Close()
		httpServer.Shutdown(context.Background())
	}()

	log.Printf("worker waiting for connections")
	if err := srv.Serve(ctx, wsListener); err != nil && ctx.Err() == nil {
		return fmt.Errorf("srv.Serve: %w", err)
	}
	log.Printf("shutting down")
	return nil
}
