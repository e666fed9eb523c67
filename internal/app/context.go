package app

import (
	"os"

	"go.uber.org/zap"

	"github.com/wapmhq/wapm/internal/config"
	"github.com/wapmhq/wapm/internal/errs"
	"github.com/wapmhq/wapm/internal/keys"
	"github.com/wapmhq/wapm/internal/layout"
	"github.com/wapmhq/wapm/internal/logging"
	"github.com/wapmhq/wapm/internal/registry"
)

var errNoProject = errs.New(errs.Manifest, "no wapm.toml found in this directory or any parent; pass -g for the global scope or run `wapm init`")

// appContext bundles everything a subcommand needs, built once in the root
// command's PersistentPreRunE (spec.md's centralization note: every command
// shares one config load, one registry client, one key store).
type appContext struct {
	homeDir string
	cfg     *config.Store
	logger  *zap.Logger

	client    *registry.Client
	keyStore  *keys.Store
	confirmer keys.Confirmer

	project    layout.Scope
	hasProject bool
	global     layout.Scope

	yes      bool
	forceYes bool
	offline  bool
	quiet    bool
}

func newAppContext(yes, forceYes, offline, quiet bool) (*appContext, error) {
	homeDir, err := layout.HomeDir()
	if err != nil {
		return nil, err
	}

	cfgStore, err := config.Open(layout.ConfigPath(homeDir))
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(logging.LogPath(homeDir), os.Getenv("RUST_BACKTRACE") != "")
	if err != nil {
		logger = zap.NewNop()
	}

	proxyURL := cfgStore.Config().Proxy.URL
	if proxyURL == "" {
		proxyURL = registry.ProxyFromEnv()
	}
	client := registry.New(registry.Options{
		Endpoint: cfgStore.Config().Registry.URL,
		Token:    cfgStore.Config().Registry.Token,
		ProxyURL: proxyURL,
		OnAuthFailure: func() {
			cfgStore.Config().Registry.Token = ""
			_ = config.Save(layout.ConfigPath(homeDir), cfgStore.Config())
		},
	})

	keyStore, err := keys.Open(layout.KeyDBPath(homeDir))
	if err != nil {
		return nil, err
	}
	if err := keyStore.CreateSchema(); err != nil {
		return nil, err
	}

	var confirmer keys.Confirmer = keys.InteractiveConfirmer{In: os.Stdin, Out: os.Stderr}
	if forceYes {
		confirmer = keys.ForceConfirmer{}
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	project, hasProject := layout.FindProjectScope(cwd)
	global := layout.GlobalScope(homeDir)

	return &appContext{
		homeDir:    homeDir,
		cfg:        cfgStore,
		logger:     logger,
		client:     client,
		keyStore:   keyStore,
		confirmer:  confirmer,
		project:    project,
		hasProject: hasProject,
		global:     global,
		yes:        yes,
		forceYes:   forceYes,
		offline:    offline,
		quiet:      quiet,
	}, nil
}

func (c *appContext) close() {
	if c.keyStore != nil {
		c.keyStore.Close()
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

// scopeFor returns the global scope if global is true, else the project
// scope (requiring one to exist).
func (c *appContext) scopeFor(global bool) (layout.Scope, error) {
	if global {
		return c.global, nil
	}
	if !c.hasProject {
		return layout.Scope{}, errNoProject
	}
	return c.project, nil
}
