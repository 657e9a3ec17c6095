package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/getmockd/bankmock/pkg/apidocs"
	"github.com/getmockd/bankmock/pkg/cli/internal/output"
	"github.com/getmockd/bankmock/pkg/engine"
)

var docsKeys = map[string]string{
	"max-page-size": "pagination.maxPageSize",
}

func newDocsCmd(g *globalFlags) *cobra.Command {
	var validate bool

	cmd := &cobra.Command{
		Use:   "docs",
		Short: "Print the OpenAPI document of the served API",
		Long: `Print the OpenAPI document served at /apidocs/openapi.json. Pagination
limits come from the same configuration serve uses.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, g, docsKeys)
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			opts := []apidocs.Option{apidocs.WithMaxPageSize(a.cfg.Pagination.MaxPageSize)}
			if validate {
				if err := apidocs.Validate(cmd.Context(), engine.Version, opts...); err != nil {
					return err
				}
				fmt.Fprintln(a.out, "OpenAPI document is valid")
				return nil
			}
			return output.JSON(a.out, apidocs.Build(engine.Version, opts...))
		},
	}

	cmd.Flags().BoolVar(&validate, "validate", false, "Validate the document instead of printing it")
	cmd.Flags().Int("max-page-size", 0, "Maximum list page size")
	return cmd
}
