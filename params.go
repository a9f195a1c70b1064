package main

import (
	"os"

	"github.com/conduit-qa/conduit-test-harness/config"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"

	"github.com/spf13/cobra"
)

type commandParams struct {
	configFile     string
	dotEnvFile     string
	env            string
	apiURL         string
	uiURL          string
	schemaDir      string
	updateSchemas  bool
	workers        int
	timeoutMs      int
	ui             bool
	headless       bool
	screenshotDir  string
	filters        apitest.RegexFilters
	skipFile       string
	debug          bool
	debugAll       bool
	jUnitFile      string
	recordFailures string
}

// addConfigFlags registers the flags that override configuration settings. They are shared by the
// root command and the schema commands, which need to reach the same API.
func (c *commandParams) addConfigFlags(cmd *cobra.Command) {
	fs := cmd.PersistentFlags()
	fs.StringVar(&c.configFile, "config", "", "JSON or YAML configuration file")
	fs.StringVar(&c.dotEnvFile, "env-file", config.DefaultDotEnv, "file of environment variables to load if it exists")
	fs.StringVar(&c.env, "env", "", `target environment, "qa" or "prod" (overrides `+config.VarTestEnv+`)`)
	fs.StringVar(&c.apiURL, "api-url", "", "base URL of the API (overrides "+config.VarAPIURL+")")
	fs.StringVar(&c.uiURL, "ui-url", "", "base URL of the web front end (overrides "+config.VarUIURL+")")
	fs.StringVar(&c.schemaDir, "schemas", "", "directory of response schemas")
	fs.IntVar(&c.timeoutMs, "timeout", 0, "request timeout in milliseconds")
}

func (c *commandParams) addRunFlags(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.Var(&c.filters.MustMatch, "run", "regex pattern(s) to select tests to run")
	fs.Var(&c.filters.MustNotMatch, "skip", "regex pattern(s) to select tests not to run")
	fs.StringVar(&c.skipFile, "skip-from", "", "file of test IDs, one per line, to skip")
	fs.BoolVar(&c.debug, "debug", false, "enable debug logging for failed tests")
	fs.BoolVar(&c.debugAll, "debug-all", false, "enable debug logging for all tests")
	fs.StringVar(&c.jUnitFile, "junit", "", "write JUnit XML output to the specified path")
	fs.StringVar(&c.recordFailures, "record-failures", "", "write the IDs of failed tests to the specified path")
	fs.BoolVar(&c.updateSchemas, "update-schemas", false, "rewrite every checked schema from the observed response")
	fs.IntVar(&c.workers, "workers", 0, "number of test groups to run at once (overrides "+config.VarWorkers+")")
	fs.BoolVar(&c.ui, "ui", false, "run the browser tests")
	fs.BoolVar(&c.headless, "headless", true, "hide the browser window")
	fs.StringVar(&c.screenshotDir, "screenshots", "", "save a screenshot of each failed browser test to this directory")
}

// resolveConfig builds the configuration from, in increasing order of precedence: defaults, the
// configuration file, the environment and the flags that were set explicitly.
func (c *commandParams) resolveConfig(cmd *cobra.Command) (config.Config, error) {
	if err := config.LoadDotEnv(c.dotEnvFile); err != nil {
		return config.Config{}, err
	}
	cfg := config.Default()
	if c.configFile != "" {
		var err error
		if cfg, err = cfg.LoadFile(c.configFile); err != nil {
			return config.Config{}, err
		}
	}
	cfg, err := cfg.ApplyEnv(os.Getenv)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("env") {
		cfg.Env = c.env
	}
	if flags.Changed("api-url") {
		cfg.APIURL = c.apiURL
	}
	if flags.Changed("ui-url") {
		cfg.UIURL = c.uiURL
	}
	if flags.Changed("schemas") {
		cfg.SchemaDir = c.schemaDir
	}
	if flags.Changed("timeout") {
		cfg.RequestTimeoutMs = c.timeoutMs
	}
	if flags.Changed("update-schemas") {
		cfg.UpdateSchemas = c.updateSchemas
	}
	if flags.Changed("workers") {
		cfg.Workers = c.workers
	}
	if flags.Changed("ui") {
		cfg.UI.Enabled = c.ui
	}
	if flags.Changed("headless") {
		cfg.UI.Headless = c.headless
	}
	if flags.Changed("screenshots") {
		cfg.UI.ScreenshotDir = c.screenshotDir
	}
	return cfg.Validate()
}
