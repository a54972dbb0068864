// SPDX-License-Identifier: MPL-2.0

package bootstrap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"iter"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/net/html"

	"sysmod-cli/internal/issue"
	"sysmod-cli/pkg/importmap"
	"sysmod-cli/pkg/loader"
	"sysmod-cli/pkg/source"
)

// ConfigBaseName is the file name, without extension, of the configuration
// documents looked up in the scan directory.
const ConfigBaseName = "system.config"

// ConfigExtensions lists the scan-directory extensions, in lookup order.
var ConfigExtensions = []string{"cue", "json", "yaml"}

const importPrefix = "import:"

type (
	// Options selects the bootstrap sources.
	Options struct {
		// ScanDir is searched for system.config.* files. Empty skips the scan.
		ScanDir string
		// ImportMaps are import-map documents applied after the scanned configs.
		ImportMaps []string
		// HTML is a page whose script elements carry import maps and modules.
		HTML string
		// Preload lists module ids imported after the discovered ones.
		Preload []string

		// Fs defaults to the OS filesystem.
		Fs afero.Fs
		// Source fetches <script src> import maps. Defaults to source.Default(Fs, nil).
		Source loader.SourceProvider
		Logger *log.Logger
	}

	// Provider implements loader.BootstrapProvider. Sources are read once;
	// later calls return the same results.
	Provider struct {
		opts   Options
		fs     afero.Fs
		source loader.SourceProvider
		logger *log.Logger

		scanned bool
		configs []loader.Configuration
		modules []string
		err     error
	}
)

var _ loader.BootstrapProvider = (*Provider)(nil)

// New returns a Provider reading from opts.
func New(opts Options) *Provider {
	p := &Provider{opts: opts, fs: opts.Fs, source: opts.Source, logger: opts.Logger}
	if p.fs == nil {
		p.fs = afero.NewOsFs()
	}
	if p.source == nil {
		p.source = source.Default(p.fs, nil)
	}
	if p.logger == nil {
		p.logger = log.New(io.Discard)
	}
	return p
}

// Configurations returns the discovered configurations. Malformed scanned
// config files are logged and skipped; failures of explicitly named import
// maps or the HTML page are returned alongside whatever was discovered.
func (p *Provider) Configurations(ctx context.Context) ([]loader.Configuration, error) {
	p.scan(ctx)
	return p.configs, p.err
}

// ModuleIDs returns the initial module ids: modules from scanned configs,
// then from the HTML page, then the preload list.
func (p *Provider) ModuleIDs(ctx context.Context) ([]string, error) {
	p.scan(ctx)
	return p.modules, p.err
}

func (p *Provider) scan(ctx context.Context) {
	if p.scanned {
		return
	}
	p.scanned = true

	var errs []error
	if p.opts.ScanDir != "" {
		p.scanDir()
	}
	for _, name := range p.opts.ImportMaps {
		if err := p.readImportMap(name); err != nil {
			errs = append(errs, err)
		}
	}
	if p.opts.HTML != "" {
		if err := p.readHTML(ctx, p.opts.HTML); err != nil {
			errs = append(errs, err)
		}
	}
	p.modules = append(p.modules, p.opts.Preload...)
	p.err = errors.Join(errs...)
}

func (p *Provider) scanDir() {
	for _, ext := range ConfigExtensions {
		name := filepath.Join(p.opts.ScanDir, ConfigBaseName+"."+ext)
		data, err := afero.ReadFile(p.fs, name)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			p.logger.Warn("cannot read config", "path", name, "err", err)
			continue
		}

		cfg, err := decodeConfig(name, data)
		if err != nil {
			p.logger.Warn("skipping malformed config", "path", name, "err", err)
			continue
		}
		p.logger.Debug("config", "path", name, "modules", len(cfg.Modules))
		p.configs = append(p.configs, loader.Configuration{BaseURL: cfg.BaseURL, Map: cfg.Map})
		p.modules = append(p.modules, cfg.Modules...)
	}
}

func (p *Provider) readImportMap(name string) error {
	data, err := afero.ReadFile(p.fs, name)
	if err == nil {
		var m *importmap.Map
		if m, err = decodeImportMap(name, data); err == nil {
			p.configs = append(p.configs, loader.Configuration{Map: anchored(m, fileURL(name))})
			return nil
		}
	}
	return issue.NewErrorContext().
		WithOperation("read import map").
		WithResource(name).
		WithSuggestion("Import-map files hold {imports: {...}, scopes: {...}} in CUE, JSON or YAML").
		Wrap(err).
		BuildError()
}

func (p *Provider) readHTML(ctx context.Context, name string) error {
	data, err := afero.ReadFile(p.fs, name)
	if err != nil {
		return fmt.Errorf("read html %s: %w", name, err)
	}
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("parse html %s: %w", name, err)
	}

	pageURL := fileURL(name)

	var errs []error
	for script := range scripts(doc) {
		kind, src := attr(script, "type"), attr(script, "src")
		switch kind {
		case "importmap", "systemjs-importmap":
			m, err := p.scriptImportMap(ctx, pageURL, src, text(script))
			if err != nil {
				errs = append(errs, err)
				continue
			}
			p.configs = append(p.configs, loader.Configuration{Map: m})
		case "module", "systemjs-module":
			if id, ok := strings.CutPrefix(src, importPrefix); ok && id != "" {
				p.modules = append(p.modules, id)
			}
		}
	}
	return errors.Join(errs...)
}

func (p *Provider) scriptImportMap(ctx context.Context, pageURL, src, inline string) (*importmap.Map, error) {
	if src == "" {
		m, err := decodeImportMapAs("json", pageURL, []byte(inline))
		if err != nil {
			return nil, err
		}
		return anchored(m, pageURL), nil
	}

	target, ok := importmap.ParseURL(src, pageURL)
	if !ok {
		return nil, fmt.Errorf("import map %q: invalid src", src)
	}
	data, err := p.source.FetchText(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("import map %s: %w", target, err)
	}
	f := format(target)
	if f == "" {
		f = "json"
	}
	m, err := decodeImportMapAs(f, target, data)
	if err != nil {
		return nil, err
	}
	return anchored(m, target), nil
}

// anchored resolves the relative entries of m against the document it was
// read from, so they do not depend on the loader base URL.
func anchored(m *importmap.Map, docURL string) *importmap.Map {
	parsed := importmap.Parse(*m, docURL)
	return &parsed
}

func fileURL(name string) string {
	abs, err := filepath.Abs(name)
	if err != nil {
		abs = name
	}
	return loader.FileURL(abs)
}

// scripts yields the <script> elements of doc in document order.
func scripts(doc *html.Node) iter.Seq[*html.Node] {
	return func(yield func(*html.Node) bool) {
		var walk func(*html.Node) bool
		walk = func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == "script" && !yield(n) {
				return false
			}
			for c := n.FirstChild; c != nil; c = c.NextSibling {
				if !walk(c) {
					return false
				}
			}
			return true
		}
		walk(doc)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func text(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}
