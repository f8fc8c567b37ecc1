package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tordrt/xataschema"
	"github.com/tordrt/xataschema/internal/config"
)

var (
	configPath    string
	dbURL         string
	mysqlURL      string
	sqlitePath    string
	schemaName    string
	excludeModels string
	format        string
	strict        bool
	quiet         bool
)

var rootCmd = &cobra.Command{
	Use:   "xataschema [schema.prisma] [xataSchema.json]",
	Short: "Convert a Prisma schema into a Xata schema",
	Long: `xataschema reads a Prisma schema (schema.prisma or a DMMF JSON document) or
introspects a PostgreSQL, MySQL or SQLite database, and writes the equivalent
Xata table schema.

Defaults: ./prisma/schema.prisma is read and ./xataSchema.json is written.
Use "-" as the output path to write to stdout.`,
	Args:          cobra.MaximumNArgs(2),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          run,
}

func init() {
	rootCmd.Flags().StringVar(&configPath, "config", "", "YAML or TOML config file")
	rootCmd.Flags().StringVar(&dbURL, "db-url", "", "PostgreSQL connection string to introspect instead of a schema file")
	rootCmd.Flags().StringVar(&mysqlURL, "mysql-url", "", "MySQL connection string to introspect instead of a schema file")
	rootCmd.Flags().StringVar(&sqlitePath, "sqlite", "", "SQLite database file to introspect instead of a schema file")
	rootCmd.Flags().StringVarP(&schemaName, "schema", "s", "", "Database schema name (default: public for PostgreSQL, DSN database for MySQL)")
	rootCmd.Flags().StringVarP(&excludeModels, "exclude-models", "x", "", "Models to leave out (comma-separated)")
	rootCmd.Flags().StringVarP(&format, "format", "f", config.DefaultFormat, "Output format: json, text or markdown")
	rootCmd.Flags().BoolVar(&strict, "strict", false, "Fail instead of writing when a field cannot be converted faithfully")
	rootCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Do not print warnings or progress")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("xataschema: ")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func run(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg := config.Default()
	if configPath != "" {
		var err error
		if cfg, err = config.Load(configPath); err != nil {
			return err
		}
	} else {
		cfg.ApplyEnv()
	}

	// Positional args and explicit flags override the config file
	applyArgs(cfg, args)
	if cmd.Flags().Changed("format") {
		cfg.Format = format
	}
	if cmd.Flags().Changed("strict") {
		cfg.Strict = strict
	}
	if cmd.Flags().Changed("schema") {
		cfg.Database.Schema = schemaName
	}
	if cmd.Flags().Changed("exclude-models") {
		cfg.ExcludeModels = splitList(excludeModels)
	}

	url, err := databaseURL(dbURL, mysqlURL, sqlitePath)
	if err != nil {
		return err
	}
	if url != "" {
		cfg.Database.URL = url
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	opts := &xataschema.Options{
		ExcludeModels: cfg.ExcludeModels,
		Strict:        cfg.Strict,
		SchemaName:    cfg.Database.Schema,
	}
	outOpts := &xataschema.OutputOptions{Format: cfg.Format, Path: cfg.Output}

	var res *xataschema.Result
	if cfg.Database.URL != "" {
		if !quiet {
			log.Printf("introspecting database...")
		}
		res, err = xataschema.ConvertDatabase(ctx, cfg.Database.URL, opts, outOpts)
	} else {
		res, err = xataschema.ConvertFile(ctx, cfg.Source, "", opts, outOpts)
	}

	if res != nil && !quiet {
		for _, w := range res.Warnings {
			log.Printf("warning: %s", w)
		}
	}
	if err != nil {
		return err
	}

	if !quiet && cfg.Output != "-" {
		log.Printf("wrote %d table(s) to %s", len(res.Schema.Tables), cfg.Output)
	}
	return nil
}

// applyArgs sets source and output from positional arguments. A source
// argument selects file mode over any configured database.
func applyArgs(cfg *config.Config, args []string) {
	if len(args) > 0 {
		cfg.Source = args[0]
		cfg.Database.URL = ""
	}
	if len(args) > 1 {
		cfg.Output = args[1]
	}
}

// databaseURL turns the database flags into one connection URL. An empty
// result means no database flag was given.
func databaseURL(pgURL, mysqlDSN, sqliteFile string) (string, error) {
	count := 0
	for _, v := range []string{pgURL, mysqlDSN, sqliteFile} {
		if v != "" {
			count++
		}
	}
	if count > 1 {
		return "", fmt.Errorf("only one of --db-url, --mysql-url, or --sqlite can be specified")
	}

	switch {
	case pgURL != "":
		return pgURL, nil
	case mysqlDSN != "":
		if strings.HasPrefix(mysqlDSN, "mysql://") {
			return mysqlDSN, nil
		}
		return "mysql://" + mysqlDSN, nil
	case sqliteFile != "":
		if strings.HasPrefix(sqliteFile, "sqlite://") {
			return sqliteFile, nil
		}
		return "sqlite://" + sqliteFile, nil
	}
	return "", nil
}

// splitList parses a comma-separated flag value, dropping empty entries
func splitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
