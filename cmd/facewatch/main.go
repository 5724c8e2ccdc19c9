// facewatch connects to a facefilter dashboard and prints face
// detected/not-detected transitions.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
)

// status is the part of the dashboard status payload facewatch reads.
type status struct {
	CameraOn    bool   `json:"camera_on"`
	FacePresent bool   `json:"face_present"`
	SessionID   string `json:"session_id"`
	LastError   string `json:"last_error"`
}

func main() {
	url := flag.String("url", "ws://localhost:8181/ws/status", "Dashboard status websocket")
	all := flag.Bool("all", false, "Print every status update, not just transitions")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := watch(ctx, *url, *all, os.Stdout); err != nil && ctx.Err() == nil {
		log.Fatalf("❌ %v", err)
	}
}

// watch reads status updates until ctx is done or the connection drops.
func watch(ctx context.Context, url string, all bool, out io.Writer) error {
	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	conn, _, err := dialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", url, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	var last *status
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var st status
		if err := json.Unmarshal(data, &st); err != nil {
			continue
		}
		if all || last == nil || changed(*last, st) {
			fmt.Fprintln(out, describe(st, time.Now()))
		}
		last = &st
	}
}

func changed(prev, next status) bool {
	return prev.FacePresent != next.FacePresent ||
		prev.CameraOn != next.CameraOn ||
		prev.LastError != next.LastError
}

func describe(st status, now time.Time) string {
	stamp := now.Format("15:04:05")
	switch {
	case st.LastError != "":
		return fmt.Sprintf("%s ⚠️  %s", stamp, st.LastError)
	case !st.CameraOn:
		return fmt.Sprintf("%s 📷 camera off", stamp)
	case st.FacePresent:
		return fmt.Sprintf("%s 👤 face detected", stamp)
	default:
		return fmt.Sprintf("%s 🫥 no face", stamp)
	}
}
