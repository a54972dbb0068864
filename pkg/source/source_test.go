// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/spf13/afero"
)

func TestFile_FetchText(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/mods/a.sh", []byte("provide x 1\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	f := NewFile(fs)

	got, err := f.FetchText(context.Background(), "file:///mods/a.sh")
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if string(got) != "provide x 1\n" {
		t.Errorf("FetchText() = %q", got)
	}

	_, err = f.FetchText(context.Background(), "file:///mods/missing.sh")
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want os.ErrNotExist", err)
	}
}

func TestPathFromURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{"file:///srv/a.sh", "/srv/a.sh", false},
		{"file://localhost/srv/a.sh", "/srv/a.sh", false},
		{"file:///srv/my%20mods/a.sh", "/srv/my mods/a.sh", false},
		{"file://server/share/a.sh", "", true},
		{"https://example.com/a.sh", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			t.Parallel()
			got, err := PathFromURL(tt.url)
			if (err != nil) != tt.wantErr {
				t.Fatalf("PathFromURL(%q) error = %v, wantErr %v", tt.url, err, tt.wantErr)
			}
			if !tt.wantErr && got != tt.want {
				t.Errorf("PathFromURL(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestHTTP_FetchText(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/lib/a.sh" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("provide name a\n"))
	}))
	t.Cleanup(srv.Close)

	h := NewHTTP(srv.Client(), 0)

	got, err := h.FetchText(context.Background(), srv.URL+"/lib/a.sh")
	if err != nil {
		t.Fatalf("FetchText() error = %v", err)
	}
	if string(got) != "provide name a\n" {
		t.Errorf("FetchText() = %q", got)
	}

	if _, err := h.FetchText(context.Background(), srv.URL+"/nope.sh"); !errors.Is(err, ErrStatus) {
		t.Errorf("404 error = %v, want ErrStatus", err)
	}
}

func TestHTTP_HonorsContext(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := NewHTTP(srv.Client(), 0).FetchText(ctx, srv.URL+"/a.sh"); !errors.Is(err, context.Canceled) {
		t.Errorf("FetchText() error = %v, want context.Canceled", err)
	}
}

func TestMux(t *testing.T) {
	t.Parallel()

	fs := afero.NewMemMapFs()
	if err := afero.WriteFile(fs, "/a.json", []byte(`{}`), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	m := Default(fs, nil)

	if _, err := m.FetchText(context.Background(), "FILE:///a.json"); err != nil {
		t.Errorf("file scheme error = %v", err)
	}
	if _, err := m.FetchText(context.Background(), "ftp://example.com/a.sh"); !errors.Is(err, ErrUnsupportedScheme) {
		t.Errorf("ftp error = %v, want ErrUnsupportedScheme", err)
	}
}
