package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	julia "github.com/Wartets/Julia-Set"
	"github.com/Wartets/Julia-Set/palette"
	"github.com/Wartets/Julia-Set/worker"
)

// webServer wires the websocket endpoint and the read-only catalog
// endpoints. It returns the listener that yields worker connections.
func webServer(ctx context.Context, port int, srv *worker.Server) (*worker.Listener, *http.Server) {
	l := worker.NewListener(ctx, fmt.Sprintf(":%d/ws", port))
	mux := http.NewServeMux()
	mux.Handle("/ws", l.Handler())
	mux.HandleFunc("/presets", presetsHandler)
	mux.HandleFunc("/palettes", palettesHandler)
	mux.HandleFunc("/status", statusHandler(srv))

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	log.Printf("listening on ws://localhost%s", l.Addr())
	return l, httpServer
}

type presetJSON struct {
	Name             string         `json:"name"`
	Equation         string         `json:"equation"`
	Viewport         julia.Viewport `json:"viewport"`
	MaxIterations    int            `json:"maxIter"`
	ResolutionFactor int            `json:"resolutionFactor"`
}

func presetsHandler(w http.ResponseWriter, r *http.Request) {
	var out []presetJSON
	for _, p := range julia.Presets() {
		out = append(out, presetJSON(p))
	}
	writeJSON(w, out)
}

type paletteJSON struct {
	Name    string `json:"name"`
	Display string `json:"display"`
}

func palettesHandler(w http.ResponseWriter, r *http.Request) {
	var out []paletteJSON
	for _, name := range palette.Names() {
		out = append(out, paletteJSON{Name: name, Display: palette.DisplayName(name)})
	}
	writeJSON(w, out)
}

func statusHandler(srv *worker.Server) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, map[string]int{"sessions": srv.Sessions()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write json: %v", err)
	}
}
