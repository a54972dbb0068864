// SPDX-License-Identifier: MPL-2.0

package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/afero"

	"sysmod-cli/pkg/loader"
)

// DefaultTimeout bounds a single HTTP fetch when no client is supplied.
const DefaultTimeout = 30 * time.Second

var (
	// ErrUnsupportedScheme is returned by Mux for a URL scheme without a provider.
	ErrUnsupportedScheme = errors.New("unsupported url scheme")

	// ErrStatus is returned by HTTP for a non-2xx response.
	ErrStatus = errors.New("unexpected http status")
)

type (
	// File reads file URLs from a filesystem.
	File struct {
		Fs afero.Fs
	}

	// HTTP fetches http and https URLs.
	HTTP struct {
		Client *http.Client
	}

	// Mux dispatches on the URL scheme.
	Mux struct {
		providers map[string]loader.SourceProvider
	}
)

// NewFile returns a File provider backed by fs, or by the OS filesystem when
// fs is nil.
func NewFile(fs afero.Fs) *File {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &File{Fs: fs}
}

// FetchText reads the file named by a file URL.
func (f *File) FetchText(_ context.Context, rawURL string) ([]byte, error) {
	path, err := PathFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	return afero.ReadFile(f.Fs, path)
}

// PathFromURL converts a file URL into a local path.
func PathFromURL(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", err
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("%w: %q is not a file url", ErrUnsupportedScheme, rawURL)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", fmt.Errorf("file url %q names a remote host", rawURL)
	}

	p := u.Path
	// file:///C:/dir -> C:/dir
	if runtime.GOOS == "windows" && len(p) > 2 && p[0] == '/' && p[2] == ':' {
		p = p[1:]
	}
	return filepath.FromSlash(p), nil
}

// NewHTTP returns an HTTP provider using client, or a client with timeout
// when client is nil. A zero timeout means DefaultTimeout.
func NewHTTP(client *http.Client, timeout time.Duration) *HTTP {
	if client == nil {
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &HTTP{Client: client}
}

// FetchText performs a GET request for rawURL.
func (h *HTTP) FetchText(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, err
	}

	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%w: %s", ErrStatus, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// NewMux returns an empty Mux.
func NewMux() *Mux {
	return &Mux{providers: make(map[string]loader.SourceProvider)}
}

// Handle registers p for each scheme.
func (m *Mux) Handle(p loader.SourceProvider, schemes ...string) *Mux {
	for _, s := range schemes {
		m.providers[strings.ToLower(s)] = p
	}
	return m
}

// FetchText forwards to the provider registered for the URL's scheme.
func (m *Mux) FetchText(ctx context.Context, rawURL string) ([]byte, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	p, ok := m.providers[strings.ToLower(u.Scheme)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	return p.FetchText(ctx, rawURL)
}

// Default returns a Mux serving file URLs from fs and http(s) URLs with client.
func Default(fs afero.Fs, client *http.Client) *Mux {
	h := NewHTTP(client, 0)
	return NewMux().
		Handle(NewFile(fs), "file").
		Handle(h, "http", "https")
}
