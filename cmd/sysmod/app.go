// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"

	"sysmod-cli/internal/bootstrap"
	"sysmod-cli/internal/config"
	"sysmod-cli/pkg/evaluator"
	"sysmod-cli/pkg/evaluator/shell"
	"sysmod-cli/pkg/loader"
	"sysmod-cli/pkg/source"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: every command handler receives an App and asks
	// it for a session.
	App struct {
		Config config.Provider
		stdout io.Writer
		stderr io.Writer
		// workDir anchors relative config paths and the default base URL.
		workDir   string
		configDir string
		fs        afero.Fs
	}

	// Dependencies defines the injection points for building an App. Nil
	// fields are replaced with production defaults by NewApp.
	Dependencies struct {
		Config    config.Provider
		Stdout    io.Writer
		Stderr    io.Writer
		WorkDir   string
		ConfigDir string
		Fs        afero.Fs
	}

	// rootFlagValues holds the persistent flags of the root command.
	rootFlagValues struct {
		verbose    bool
		configPath string
		logLevel   string
	}

	// session is one invocation's view of the effective configuration: a
	// loader with its collaborators, built fresh for every run.
	session struct {
		cfg       *config.Config
		logger    *log.Logger
		shell     *shell.Evaluator
		bootstrap *bootstrap.Provider
		loader    *loader.Loader
	}

	// sessionOptions adjusts a session before its loader is built.
	sessionOptions struct {
		allowExec bool
		quiet     bool
	}
)

// NewApp creates an App with defaults for omitted dependencies.
func NewApp(deps Dependencies) (*App, error) {
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}
	if deps.Config == nil {
		deps.Config = config.NewProvider()
	}
	if deps.Fs == nil {
		deps.Fs = afero.NewOsFs()
	}
	if deps.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		deps.WorkDir = wd
	}

	return &App{
		Config:    deps.Config,
		stdout:    deps.Stdout,
		stderr:    deps.Stderr,
		workDir:   deps.WorkDir,
		configDir: deps.ConfigDir,
		fs:        deps.Fs,
	}, nil
}

func (a *App) loadOptions(flags *rootFlagValues) config.LoadOptions {
	return config.LoadOptions{
		ConfigFilePath: a.path(flags.configPath),
		ConfigDirPath:  a.configDir,
		WorkDir:        a.workDir,
	}
}

// loadConfig returns the effective configuration with the root flags applied.
func (a *App) loadConfig(ctx context.Context, flags *rootFlagValues) (*config.Config, error) {
	cfg, err := a.Config.Load(ctx, a.loadOptions(flags))
	if err != nil {
		return nil, err
	}
	if flags.logLevel != "" {
		cfg.LogLevel = config.LogLevel(flags.logLevel)
		if ok, errs := cfg.LogLevel.IsValid(); !ok {
			return nil, errors.Join(errs...)
		}
	}
	if flags.verbose {
		cfg.LogLevel = config.LogLevelDebug
	}
	return cfg, nil
}

// newSession builds the loader for one command invocation.
func (a *App) newSession(ctx context.Context, flags *rootFlagValues, opts sessionOptions) (*session, error) {
	cfg, err := a.loadConfig(ctx, flags)
	if err != nil {
		return nil, err
	}
	if opts.allowExec {
		cfg.Shell.AllowExec = true
	}
	return a.sessionFor(cfg, opts)
}

func (a *App) sessionFor(cfg *config.Config, opts sessionOptions) (*session, error) {
	logger := newLogger(a.stderr, cfg.LogLevel)

	src := source.Default(a.fs, &http.Client{Timeout: cfg.HTTP.Timeout})

	sh := shell.New(cfg.Shell.AllowExec, cfg.Shell.InheritEnv)
	sh.Stdout = a.stdout
	sh.Stderr = a.stderr
	sh.Logger = logger
	if opts.quiet {
		sh.Stdout = io.Discard
	}

	bp := bootstrap.New(bootstrap.Options{
		ScanDir:    a.path(cfg.Bootstrap.ScanDir),
		ImportMaps: a.paths(cfg.ImportMaps),
		HTML:       a.path(cfg.Bootstrap.HTML),
		Preload:    cfg.Preload,
		Fs:         a.fs,
		Source:     src,
		Logger:     logger,
	})

	ld, err := loader.New(loader.Config{
		Source:    src,
		Evaluator: evaluator.Default(sh),
		Bootstrap: bp,
		BaseURL:   loader.DirURL(a.workDir),
		Logger:    logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.BaseURL != "" {
		ld.Configure(loader.Configuration{BaseURL: cfg.BaseURL})
	}

	return &session{cfg: cfg, logger: logger, shell: sh, bootstrap: bp, loader: ld}, nil
}

// path makes p absolute against the working directory.
func (a *App) path(p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(a.workDir, p)
}

func (a *App) paths(ps []string) []string {
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = a.path(p)
	}
	return out
}

// watchedFiles returns the local files a session read: the fetched file://
// modules plus the bootstrap inputs that exist.
func (s *session) watchedFiles(app *App) []string {
	var files []string
	for _, r := range s.loader.Records() {
		if p, err := source.PathFromURL(r.URL()); err == nil {
			files = append(files, p)
		}
	}
	if dir := app.path(s.cfg.Bootstrap.ScanDir); dir != "" {
		for _, ext := range bootstrap.ConfigExtensions {
			files = append(files, filepath.Join(dir, bootstrap.ConfigBaseName+"."+ext))
		}
	}
	files = append(files, app.paths(s.cfg.ImportMaps)...)
	if html := app.path(s.cfg.Bootstrap.HTML); html != "" {
		files = append(files, html)
	}

	existing := files[:0]
	for _, f := range files {
		if ok, _ := afero.Exists(app.fs, f); ok {
			existing = append(existing, f)
		}
	}
	return existing
}
