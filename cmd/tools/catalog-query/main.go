// cmd/tools/catalog-query/main.go
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"catalog-lookup-workers/internal/catalog"
	"catalog-lookup-workers/internal/common/config"
	"catalog-lookup-workers/internal/common/errors"
	"catalog-lookup-workers/internal/common/logger"
	"catalog-lookup-workers/pkg/registry"

	ris "catalog-lookup-workers/internal/workers/lookup/resolve-item-specs"
	sc "catalog-lookup-workers/internal/workers/lookup/search-categories"
	sp "catalog-lookup-workers/internal/workers/lookup/search-products"
)

// Exit codes.
const (
	exitFailure = 1
	exitUsage   = 2
)

func main() {
	if err := newApp(os.Stdout, os.Stderr).Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		code := exitFailure
		if ec, ok := err.(cli.ExitCoder); ok {
			code = ec.ExitCode()
		}
		os.Exit(code)
	}
}

func referenceFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "products",
			Usage:   "Product catalog CSV (product type, product code)",
			Value:   "data/products.csv",
			EnvVars: []string{"REFERENCE_PRODUCTS_PATH"},
		},
		&cli.StringFlag{
			Name:    "categories",
			Usage:   "Category tree CSV (category path, code)",
			Value:   "data/categories.csv",
			EnvVars: []string{"REFERENCE_CATEGORIES_PATH"},
		},
		&cli.StringFlag{
			Name:    "specs",
			Usage:   "Item specs workbook",
			Value:   "data/item_specs.xlsx",
			EnvVars: []string{"REFERENCE_SPECS_PATH"},
		},
	}
}

func searchFlags(nameFlag, usage string) []cli.Flag {
	return append([]cli.Flag{
		&cli.StringFlag{Name: nameFlag, Aliases: []string{"q"}, Usage: usage},
		&cli.IntFlag{Name: "n", Usage: "Number of results", Value: config.DefaultResults},
		&cli.StringFlag{Name: "strategy", Aliases: []string{"s"}, Usage: "combined, partial or token", Value: "combined"},
	}, referenceFlags()...)
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "catalog-query",
		Usage:     "Query the product catalog, category tree and item specs from the command line",
		Writer:    stdout,
		ErrWriter: stderr,
		// main decides the exit code; keep Run from calling os.Exit.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			{
				Name:   "products",
				Usage:  "Rank product types against a free-text query",
				Flags:  searchFlags("query", "Free-text product query"),
				Action: productsCommand,
			},
			{
				Name:   "categories",
				Usage:  "Rank category paths against a selected product name",
				Flags:  searchFlags("name", "Selected product name"),
				Action: categoriesCommand,
			},
			{
				Name:   "specs",
				Usage:  "List the attribute specs of a category code",
				Flags:  append([]cli.Flag{&cli.StringFlag{Name: "code", Usage: "Category code"}}, referenceFlags()...),
				Action: specsCommand,
			},
			{
				Name:  "activities",
				Usage: "Validate and print the activity registry",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "registry", Usage: "Activity registry JSON", Value: "configs/activity-registry.json"},
				},
				Action: activitiesCommand,
			},
		},
	}
}

func productsCommand(c *cli.Context) error {
	dataset := loadDataset(c)
	n := c.Int("n")
	handler := sp.NewHandler(sp.DefaultConfig(), dataset, nil, quietLogger())
	output, err := handler.Execute(c.Context, &sp.Input{
		Query:    c.String("query"),
		N:        &n,
		Strategy: c.String("strategy"),
	})
	if err != nil {
		return exitError(err)
	}
	return writeOutput(c, output)
}

func categoriesCommand(c *cli.Context) error {
	dataset := loadDataset(c)
	n := c.Int("n")
	handler := sc.NewHandler(sc.DefaultConfig(), dataset, nil, quietLogger())
	output, err := handler.Execute(c.Context, &sc.Input{
		SelectedName: c.String("name"),
		N:            &n,
		Strategy:     c.String("strategy"),
	})
	if err != nil {
		return exitError(err)
	}
	return writeOutput(c, output)
}

func specsCommand(c *cli.Context) error {
	store := catalog.NewTemplateStore(c.String("specs"), false, quietLogger())
	defer store.Close()

	handler := ris.NewHandler(ris.DefaultConfig(), store, quietLogger())
	output, err := handler.Execute(c.Context, &ris.Input{CategoryCode: c.String("code")})
	if err != nil {
		return exitError(err)
	}
	return writeOutput(c, output)
}

func activitiesCommand(c *cli.Context) error {
	reg, err := registry.LoadRegistry(c.String("registry"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("failed to load registry: %v", err), exitFailure)
	}
	if err := reg.Validate(); err != nil {
		return cli.Exit(fmt.Sprintf("registry validation failed: %v", err), exitFailure)
	}
	return writeOutput(c, reg)
}

// loadDataset loads both tables. A table that fails only matters to the
// command that searches it, which reports REFERENCE_LOAD_FAILED itself.
func loadDataset(c *cli.Context) *catalog.Dataset {
	dataset, _ := catalog.LoadDataset(c.Context, config.ReferenceConfig{
		Source:         catalog.SourceFile,
		ProductsPath:   c.String("products"),
		CategoriesPath: c.String("categories"),
	}, nil, quietLogger())
	return dataset
}

func exitError(err error) error {
	stdErr := errors.Normalize(err)
	code := exitFailure
	if errors.GetErrorCategory(stdErr.Code) == "VALIDATION" {
		code = exitUsage
	}
	msg := fmt.Sprintf("%s: %s", stdErr.Code, stdErr.Message)
	if stdErr.Details != "" {
		msg += " (" + stdErr.Details + ")"
	}
	return cli.Exit(msg, code)
}

func writeOutput(c *cli.Context, v interface{}) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func quietLogger() logger.Logger {
	return logger.NewZapAdapter(logger.NewWithOutput("warn", "console", "stderr"))
}
