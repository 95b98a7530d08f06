package app

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/franceroutage/annuaire/internal/cmd/output"
	"github.com/franceroutage/annuaire/internal/config"
	"github.com/franceroutage/annuaire/pkg/columns"
	"github.com/franceroutage/annuaire/pkg/table"
)

// columnReport is the column resolution of one input table.
type columnReport struct {
	Table   string          `json:"table" yaml:"table"`
	Kind    columns.Kind    `json:"kind" yaml:"kind"`
	Columns []columns.Match `json:"columns" yaml:"columns"`
}

type columnReports []columnReport

// TableData flattens the reports into one table.
func (r columnReports) TableData() output.Data {
	data := output.Data{Headers: []string{"Table", "Field", "Column", "Required", "Found"}}
	for _, rep := range r {
		for _, m := range rep.Columns {
			data.Rows = append(data.Rows, []string{
				rep.Table, string(m.Field), m.Column,
				strconv.FormatBool(m.Required), strconv.FormatBool(m.Found),
			})
		}
	}
	return data
}

// missing counts required fields that did not resolve.
func (r columnReports) missing() int {
	n := 0
	for _, rep := range r {
		for _, m := range rep.Columns {
			if m.Required && !m.Found {
				n++
			}
		}
	}
	return n
}

// NewColumnsCommand creates the columns command.
func (a *App) NewColumnsCommand() *cobra.Command {
	var (
		in      inputFlags
		aliases string
	)

	cmd := &cobra.Command{
		Use:     "columns",
		GroupID: "core",
		Short:   "Show how the input headers resolve to logical fields",
		Long: `Columns resolves the headers of each given export against the alias
table and reports the column bound to every logical field. It fails when a
required field cannot be resolved.`,
		RunE: func(_ *cobra.Command, _ []string) error {
			aliasTable := columns.DefaultAliases()
			if aliases == "" {
				aliases = a.config.Pipeline.AliasesFile
			}
			if aliases != "" {
				extra, err := config.ReadAliases(aliases)
				if err != nil {
					return err
				}
				aliasTable = aliasTable.Extend(extra)
			}
			resolver := columns.NewResolver(aliasTable)

			var reports columnReports
			for _, input := range []struct {
				path string
				kind columns.Kind
			}{
				{in.roster, columns.Roster},
				{in.lines, columns.OrderLines},
				{in.catalog, columns.Catalog},
			} {
				t, err := in.read(input.path, string(input.kind))
				if err != nil {
					return err
				}
				if t == nil {
					continue
				}
				reports = append(reports, reportFor(resolver, t, input.kind, input.path))
			}
			if len(reports) == 0 {
				return fmt.Errorf("no input given: use --roster, --lines or --catalog")
			}

			format, err := output.ParseFormat(string(output.DetectFormat(a.config.Format)))
			if err != nil {
				return err
			}
			if format == output.FormatMarkdown {
				format = output.FormatTable
			}
			if err := output.NewFormatter(format).Format(a.stdout, reports); err != nil {
				return err
			}

			if n := reports.missing(); n > 0 {
				return fmt.Errorf("%d required columns not found", n)
			}
			return nil
		},
	}

	in.register(cmd)
	cmd.Flags().StringVar(&aliases, "aliases", "", "YAML file with extra column aliases")

	return cmd
}

func reportFor(r *columns.Resolver, t *table.Table, kind columns.Kind, path string) columnReport {
	return columnReport{Table: path, Kind: kind, Columns: r.Report(t, kind)}
}
