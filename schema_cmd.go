package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/conduit-qa/conduit-test-harness/conduit"
	"github.com/conduit-qa/conduit-test-harness/framework"
	"github.com/conduit-qa/conduit-test-harness/framework/api"
	"github.com/conduit-qa/conduit-test-harness/framework/schema"

	"github.com/spf13/cobra"
)

func newSchemaCommand(params *commandParams) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Inspect or regenerate the response schemas",
	}
	cmd.AddCommand(newSchemaListCommand(params), newSchemaGenerateCommand(params))
	return cmd
}

func newSchemaListCommand(params *commandParams) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every known schema and whether its file exists",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := params.resolveConfig(cmd)
			if err != nil {
				return err
			}
			validator := schema.NewValidator(cfg.SchemaDir, nil)
			for _, f := range schema.Files() {
				status := "ok"
				if _, err := validator.Load(f); err != nil {
					var fe *schema.FileError
					if errors.As(err, &fe) && fe.Kind == schema.FileNotFound {
						status = "missing"
					} else {
						status = err.Error()
					}
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-45s %s\n", f, status)
			}
			return nil
		},
	}
}

func newSchemaGenerateCommand(params *commandParams) *cobra.Command {
	var dir, file, path string
	var noAuth bool
	cmd := &cobra.Command{
		Use:   "generate",
		Short: "Write a schema inferred from a live GET response",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := schema.Lookup(dir, file)
			if err != nil {
				return err
			}
			cfg, err := params.resolveConfig(cmd)
			if err != nil {
				return err
			}
			debugLogger := framework.NullLogger()
			h, err := newHarness(cfg, debugLogger)
			if err != nil {
				return err
			}
			defer h.Close()

			token := ""
			if !noAuth {
				if !cfg.HasCredentials() {
					return fmt.Errorf("no credentials are configured for the %s environment; use --no-auth", cfg.Env)
				}
				token, err = conduit.CreateToken(context.Background(), h.Transport(), h.APIBaseURL(),
					cfg.UserEmail, cfg.UserPassword, debugLogger)
				if err != nil {
					return err
				}
			}
			body, err := h.NewRequestHandler(api.NewLogger(debugLogger), token).Path(path).
				Do(http.MethodGet, api.ExpectedStatus{http.StatusOK})
			if err != nil {
				return err
			}
			if err := h.Validator().Generate(f, body); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", h.Validator().Path(f))
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "schema directory, such as "+string(schema.Articles))
	cmd.Flags().StringVar(&file, "file", "", "schema name, such as "+schema.ArticlesGET.Name())
	cmd.Flags().StringVar(&path, "path", "", "API path to request, such as "+conduit.EndpointArticles)
	cmd.Flags().BoolVar(&noAuth, "no-auth", false, "send the request without logging in")
	_ = cmd.MarkFlagRequired("dir")
	_ = cmd.MarkFlagRequired("file")
	_ = cmd.MarkFlagRequired("path")
	return cmd
}
