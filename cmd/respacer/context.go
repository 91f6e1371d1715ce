package main

import (
	"strings"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/daniellittledev/ReSpacer/internal/config"
	"github.com/daniellittledev/ReSpacer/internal/logging"
	"github.com/daniellittledev/ReSpacer/internal/settings/store"
)

type commandContext struct {
	configFlag *string
	verbosity  *int

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string, verbosity *int) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		verbosity:  verbosity,
	}
}

// ensureConfig loads the configuration once and sets up logging from it.
// The -v count wins over a lower configured verbosity.
func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}

		verbosity := cfg.Log.Verbosity
		if c.verbosity != nil && *c.verbosity > verbosity {
			verbosity = *c.verbosity
		}
		logging.Setup(verbosity, cfg.Log.File)
		c.config = cfg
	})
	return c.config, c.configErr
}

// store returns a document store honouring the configured write lock.
func (c *commandContext) store() (*store.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	return store.New(afero.NewOsFs(),
		store.WithLockDir(cfg.Settings.LockDir),
		store.WithLockTimeout(cfg.Settings.LockTimeout),
	), nil
}

// documentPath picks the document a command acts on: an explicit argument,
// else the project's document when project is set, else the global one.
func (c *commandContext) documentPath(args []string, project string) (string, error) {
	if len(args) > 0 {
		return store.Normalize(args[0]), nil
	}
	st, err := c.store()
	if err != nil {
		return "", err
	}
	cfg, _ := c.ensureConfig()
	resolver := store.NewResolver(st, cfg.Settings.GlobalDir, cfg.Settings.FileName)
	if project = strings.TrimSpace(project); project != "" {
		return resolver.ScopedPath(project), nil
	}
	return resolver.GlobalPath(), nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
