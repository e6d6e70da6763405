package geo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestResolve(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "Chuo, Tokyo" {
			t.Errorf("expected query 'Chuo, Tokyo', got %q", got)
		}
		if got := r.Header.Get("User-Agent"); got != "machivoice-test" {
			t.Errorf("expected custom user agent, got %q", got)
		}
		w.Write([]byte(`[{"lat":"35.6706","lon":"139.7720","display_name":"Chuo, Tokyo, Japan"}]`))
	}))
	defer ts.Close()

	c := NewNominatimClient(ts.URL, "machivoice-test")
	loc, err := c.Resolve(context.Background(), "Chuo, Tokyo")
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if loc.Latitude != 35.6706 || loc.Longitude != 139.7720 {
		t.Errorf("unexpected location %+v", loc)
	}
}

func TestResolveNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer ts.Close()

	c := NewNominatimClient(ts.URL, "")
	_, err := c.Resolve(context.Background(), "nowhere at all")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestResolveServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer ts.Close()

	c := NewNominatimClient(ts.URL, "")
	_, err := c.Resolve(context.Background(), "anywhere")
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) {
		t.Fatal("server error must not be reported as not-found")
	}
}
