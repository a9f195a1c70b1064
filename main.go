package main

import (
	"bufio"
	_ "embed" // this is required in order for go:embed to work
	"errors"
	"fmt"
	"log"
	"os"
	"regexp"
	"strings"
	"time"

	"github.com/conduit-qa/conduit-test-harness/conduit"
	"github.com/conduit-qa/conduit-test-harness/config"
	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/apitest"
	"github.com/conduit-qa/conduit-test-harness/framework/harness"

	"github.com/spf13/cobra"
)

const statusQueryTimeout = time.Second * 10

const junitSuiteName = "conduit-test-harness"

//go:embed VERSION
var versionString string // comes from the VERSION file which we update for each release

// errTestsFailed makes the process exit with a non-zero status without printing anything more;
// the test logger has already reported the failures.
var errTestsFailed = errors.New("some tests failed")

func main() {
	fmt.Printf("conduit-test-harness v%s\n", strings.TrimSpace(versionString))

	if err := newRootCommand().Execute(); err != nil {
		if !errors.Is(err, errTestsFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var params commandParams
	cmd := &cobra.Command{
		Use:           "conduit-test-harness",
		Short:         "Runs the Conduit API and UI test suite",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := params.resolveConfig(cmd)
			if err != nil {
				return err
			}
			results, err := run(params, cfg)
			if err != nil {
				return err
			}
			if !results.OK() {
				return errTestsFailed
			}
			return nil
		},
	}
	params.addConfigFlags(cmd)
	params.addRunFlags(cmd)
	cmd.AddCommand(newSchemaCommand(&params))
	return cmd
}

func newHarness(cfg config.Config, debugLogger framework.Logger) (*harness.TestHarness, error) {
	return harness.NewTestHarness(
		harness.Params{
			APIBaseURL:         cfg.APIURL,
			UIBaseURL:          cfg.UIURL,
			SchemaDir:          cfg.SchemaDir,
			UpdateSchemas:      cfg.UpdateSchemas,
			StatusQueryTimeout: statusQueryTimeout,
		},
		debugLogger,
		os.Stdout,
	)
}

func run(params commandParams, cfg config.Config) (*apitest.Results, error) {
	if params.skipFile != "" {
		if err := loadSuppressions(&params); err != nil {
			return nil, err
		}
	}

	mainDebugLogger := framework.NullLogger()
	if params.debugAll {
		mainDebugLogger = log.New(os.Stdout, "", log.LstdFlags)
	}

	fmt.Printf("Running against the %s environment\n", cfg.Env)
	harness, err := newHarness(cfg, framework.LoggerWithPrefix(mainDebugLogger, "[harness] "))
	if err != nil {
		return nil, err
	}
	defer harness.Close()

	var testLogger apitest.TestLogger
	consoleLogger := apitest.ConsoleTestLogger{
		DebugOutputOnFailure: params.debug || params.debugAll,
		DebugOutputOnSuccess: params.debugAll,
	}
	if params.jUnitFile == "" {
		testLogger = consoleLogger
	} else {
		testLogger = &apitest.MultiTestLogger{Loggers: []apitest.TestLogger{
			consoleLogger,
			apitest.NewJUnitTestLogger(params.jUnitFile, junitSuiteName, harness.ServiceInfo().Properties(), params.filters),
		}}
	}

	results := conduit.RunConduitTestSuite(harness, conduit.SuiteParams{
		Credentials: conduit.Credentials{Email: cfg.UserEmail, Password: cfg.UserPassword},
		Workers:     cfg.Workers,
		UIEnabled:   cfg.UI.Enabled,
		UI: conduit.UIParams{
			Headless:      cfg.UI.Headless,
			ScreenshotDir: cfg.UI.ScreenshotDir,
		},
		RequestTimeoutMs: cfg.RequestTimeoutMs,
		Filter:           params.filters,
		TestLogger:       testLogger,
	})

	fmt.Println()
	if err := testLogger.EndLog(results); err != nil {
		return nil, fmt.Errorf("error writing log: %v", err)
	}

	if params.recordFailures != "" {
		f, err := os.Create(params.recordFailures)
		if err != nil {
			return nil, fmt.Errorf("cannot create suppression file: %v", err)
		}
		for _, test := range results.Failures {
			fmt.Fprintln(f, test.TestID)
		}
		_ = f.Close()
	}

	return &results, nil
}

func loadSuppressions(params *commandParams) error {
	file, err := os.Open(params.skipFile)
	if err != nil {
		return fmt.Errorf("cannot open provided suppression file: %v", err)
	}
	defer func() { _ = file.Close() }()
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		escaped := regexp.QuoteMeta(line)
		if err := params.filters.MustNotMatch.Set(escaped); err != nil {
			return fmt.Errorf("cannot parse suppression: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("while processing suppression file: %v", err)
	}
	return nil
}
