package main

import (
	"bytes"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// Exercises the playback API end to end: registers a synthetic asset,
// loads it, starts playback, and prints the websocket event feed until
// interrupted or the watch duration elapses.
func main() {
	var (
		addr     string
		assetID  string
		fps      float64
		duration float64
		watch    time.Duration
	)
	flag.StringVar(&addr, "addr", "localhost:8090", "server host:port")
	flag.StringVar(&assetID, "asset", "test-asset", "asset ID to register")
	flag.Float64Var(&fps, "fps", 30, "synthetic asset frame rate")
	flag.Float64Var(&duration, "duration", 10, "synthetic asset duration in seconds")
	flag.DurationVar(&watch, "watch", 15*time.Second, "how long to watch the event feed")
	flag.Parse()

	client := &http.Client{Timeout: 10 * time.Second}
	base := "http://" + addr + "/api/v1"

	post := func(path string, body interface{}) {
		var buf io.Reader
		if body != nil {
			data, err := json.Marshal(body)
			if err != nil {
				log.Fatalf("marshal %s: %v", path, err)
			}
			buf = bytes.NewReader(data)
		}
		resp, err := client.Post(base+path, "application/json", buf)
		if err != nil {
			log.Fatalf("POST %s: %v", path, err)
		}
		defer resp.Body.Close()
		out, _ := io.ReadAll(resp.Body)
		fmt.Printf("POST %s -> %s\n%s\n", path, resp.Status, string(out))
		if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
			os.Exit(1)
		}
	}

	post("/assets", map[string]interface{}{
		"id":        assetID,
		"synthetic": true,
		"metadata": map[string]interface{}{
			"fps":      fps,
			"duration": duration,
			"width":    1920,
			"height":   1080,
		},
	})
	post("/playback/load", map[string]string{"asset_id": assetID})

	// Connect the event feed before starting playback so no
	// state transition is missed.
	wsURL := url.URL{Scheme: "ws", Host: addr, Path: "/api/v1/events"}
	conn, _, err := websocket.DefaultDialer.Dial(wsURL.String(), nil)
	if err != nil {
		log.Fatalf("websocket dial: %v", err)
	}
	defer conn.Close()

	post("/playback/play", nil)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			conn.SetReadDeadline(time.Now().Add(watch + 5*time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			fmt.Printf("event: %s\n", string(msg))
		}
	}()

	select {
	case <-time.After(watch):
	case <-sigCh:
	case <-done:
	}

	post("/playback/pause", nil)
	conn.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
