// Package nlq assembles the natural-language query service.
package nlq

import (
	"context"
	"fmt"

	"github.com/kart-io/sentinel-nlq/pkg/infra/app"
)

// commandDesc is the description of the command.
const commandDesc = `NLQ Server

Answers natural-language questions over a relational database and a corpus
of uploaded documents.

This server provides:
  - Database connection with schema discovery (postgresql, mysql, sqlite)
  - Rule-based SQL synthesis and execution
  - Document ingestion (pdf, docx, csv, txt) with semantic search
  - Hybrid answers with result caching and query history`

// NewApp creates and returns a new App object with default parameters.
func NewApp() *app.App {
	opts := NewOptions()
	return app.NewApp(
		app.WithName(Name),
		app.WithShortDescription("Natural-language query server"),
		app.WithDescription(commandDesc),
		app.WithOptions(opts),
		app.WithRunFunc(run(opts)),
	)
}

func run(opts *Options) app.RunFunc {
	return func(ctx context.Context) error {
		cfg, err := opts.Config()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		srv, err := cfg.NewServer(ctx)
		if err != nil {
			return fmt.Errorf("failed to create server: %w", err)
		}
		return srv.Run(ctx)
	}
}
