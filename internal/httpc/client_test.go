package httpc

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("sticker"))
	}))
	defer srv.Close()

	body, err := Fetch(context.Background(), srv.URL+"/ok")
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if string(body) != "sticker" {
		t.Errorf("body = %q", body)
	}

	_, err = Fetch(context.Background(), srv.URL+"/missing")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404 StatusError, got %v", err)
	}
}

func TestFetch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Fetch(ctx, "http://127.0.0.1:1/never"); err == nil {
		t.Error("expected error for canceled context")
	}
}
