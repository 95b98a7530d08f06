package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/franceroutage/annuaire/internal/cmd/alerts"
	"github.com/franceroutage/annuaire/internal/cmd/output"
	"github.com/franceroutage/annuaire/internal/config"
	"github.com/franceroutage/annuaire/internal/ingest"
	"github.com/franceroutage/annuaire/pkg/constants"
	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/logging"
	"github.com/franceroutage/annuaire/pkg/phases"
	"github.com/franceroutage/annuaire/pkg/reconcile"
	"github.com/franceroutage/annuaire/pkg/table"
)

// inputFlags names the three input files of a run.
type inputFlags struct {
	roster    string
	lines     string
	catalog   string
	delimiter string
}

func (f *inputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.roster, "roster", "", "client roster export (CSV)")
	cmd.Flags().StringVar(&f.lines, "lines", "", "document lines export (CSV)")
	cmd.Flags().StringVar(&f.catalog, "catalog", "", "phase catalog export (CSV)")
	cmd.Flags().StringVar(&f.delimiter, "delimiter", "", "field separator (default: detected from the header line)")
}

func (f *inputFlags) delim() (rune, error) {
	switch f.delimiter {
	case "":
		return 0, nil
	case `\t`, "tab":
		return '\t', nil
	}
	r := []rune(f.delimiter)
	if len(r) != 1 {
		return 0, errors.NewValidationError("delimiter", f.delimiter, "must be a single character")
	}
	return r[0], nil
}

// read loads one input table. Empty paths yield nil.
func (f *inputFlags) read(path, name string) (*table.Table, error) {
	if path == "" {
		return nil, nil
	}
	d, err := f.delim()
	if err != nil {
		return nil, err
	}
	return ingest.ReadFile(path, ingest.Options{Delimiter: d, Name: name})
}

// inputs loads all three tables.
func (f *inputFlags) inputs() (reconcile.Inputs, error) {
	var in reconcile.Inputs
	var err error
	if in.Roster, err = f.read(f.roster, "roster"); err != nil {
		return in, err
	}
	if in.OrderLines, err = f.read(f.lines, "order_lines"); err != nil {
		return in, err
	}
	if in.Catalog, err = f.read(f.catalog, "phase_catalog"); err != nil {
		return in, err
	}
	return in, nil
}

// NewReconcileCommand creates the reconcile command.
func (a *App) NewReconcileCommand() *cobra.Command {
	var (
		in            inputFlags
		outputFile    string
		rows          bool
		failOnFlagged bool
	)

	cmd := &cobra.Command{
		Use:     "reconcile",
		GroupID: "core",
		Short:   "Build the client directory from the three exports",
		Example: `  annuaire reconcile --roster F_COMPTET.csv --lines F_DOCLIGNE.csv --catalog phases.csv
  annuaire reconcile --roster clients.csv --lines lignes.csv --catalog phases.csv -f annuaire.csv
  annuaire reconcile --roster clients.csv --lines lignes.csv --catalog phases.csv --fuzzy -o markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tables, err := in.inputs()
			if err != nil {
				return err
			}

			an, err := a.Annuaire()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), constants.CommandTimeout)
			defer cancel()
			ctx = logging.WithLogger(ctx, a.logger)

			res, err := an.Reconcile(ctx, tables)
			if err != nil {
				return err
			}

			w := a.alertWriter()
			if err := a.writeResult(w, res, outputFile, rows); err != nil {
				return err
			}
			if err := alerts.WriteAll(w, alerts.FromResult(res)); err != nil {
				return err
			}

			if failOnFlagged && res.Quality.Flagged() {
				err := fmt.Errorf("directory quality is %s", res.Quality)
				_ = w.WriteAlert(alerts.NewError("Directory rejected").
					WithError(err).
					WithDetails(fmt.Sprintf("%d clients from %d roster rows", res.Quality.OutputCount, res.Quality.RosterCount)))
				return err
			}
			return nil
		},
	}

	in.register(cmd)
	for _, name := range []string{"roster", "lines", "catalog"} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.Flags().String("policy", phases.PolicyStrict, "ambiguity policy for phase codes shared by several clients: strict, permissive")
	cmd.Flags().Bool("fuzzy", false, "resolve unmatched notes by approximate phase code matching")
	cmd.Flags().Float64("fuzzy-threshold", constants.DefaultFuzzyThreshold, "minimum similarity score (0-100) of a fuzzy match")
	cmd.Flags().Float64("tolerance", constants.AcceptableDiscrepancyPercent, "acceptable discrepancy percentage")
	cmd.Flags().String("aliases", "", "YAML file with extra column aliases")
	a.bindFlags(cmd, map[string]string{
		"policy":          config.KeyPolicy,
		"fuzzy":           config.KeyFuzzyEnabled,
		"fuzzy-threshold": config.KeyFuzzyThreshold,
		"tolerance":       config.KeyTolerance,
		"aliases":         config.KeyAliasesFile,
	})

	cmd.Flags().StringVarP(&outputFile, "output-file", "f", "", "write the directory to a file; the format follows the extension unless --format is set")
	cmd.Flags().BoolVar(&rows, "rows", false, "include the directory in markdown reports")
	cmd.Flags().BoolVar(&failOnFlagged, "fail-on-flagged", false, "exit with an error when the discrepancy exceeds the tolerance")

	return cmd
}

// bindFlags binds command flags to viper keys so that flags override the
// environment and the config file.
func (a *App) bindFlags(cmd *cobra.Command, keys map[string]string) {
	for flag, key := range keys {
		if err := a.viper.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			panic("programming error: failed to bind flag " + flag + ": " + err.Error())
		}
	}
}

// writeResult writes the directory to the output file, or to stdout.
func (a *App) writeResult(w alerts.Writer, res *reconcile.Result, path string, rows bool) error {
	doc := output.NewDocument(res)

	if path == "" {
		format, err := output.ParseFormat(string(output.DetectFormat(a.config.Format)))
		if err != nil {
			return err
		}
		return formatterFor(format, rows).Format(a.stdout, doc)
	}

	format, err := fileFormat(path, a.config.Format)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, constants.FilePermissions)
	if err != nil {
		return errors.WrapIO("create", path, err)
	}
	if err := formatterFor(format, rows).Format(f, doc); err != nil {
		_ = f.Close()
		return errors.WrapIO("write", path, err)
	}
	if err := f.Close(); err != nil {
		return errors.WrapIO("close", path, err)
	}

	a.logger.Info().Str("file", path).Str("format", string(format)).Int("rows", res.Directory.Len()).Msg("Directory written")
	return w.WriteAlert(alerts.NewInfo("Directory written to " + path))
}

func formatterFor(format output.Format, rows bool) output.Formatter {
	if format == output.FormatMarkdown {
		return &output.MarkdownFormatter{Rows: rows}
	}
	return output.NewFormatter(format)
}

// fileFormat picks the format of an output file: the explicit format when
// set, otherwise the one matching the extension, CSV by default.
func fileFormat(path, explicit string) (output.Format, error) {
	if explicit != "" {
		return output.ParseFormat(explicit)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return output.FormatJSON, nil
	case ".yaml", ".yml":
		return output.FormatYAML, nil
	case ".md":
		return output.FormatMarkdown, nil
	case ".txt":
		return output.FormatTable, nil
	default:
		return output.FormatCSV, nil
	}
}

// alertWriter reports alerts on stderr. Quiet runs discard them.
func (a *App) alertWriter() alerts.Writer {
	if a.config.Quiet {
		return alerts.DiscardWriter
	}
	w := alerts.NewFormatWriter(a.stderr, "")
	if a.config.NoColor {
		w = w.WithConfig(alerts.WriterConfig{ShowDetails: true})
	}
	return w
}
