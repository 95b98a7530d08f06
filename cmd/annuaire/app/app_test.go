package app

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/franceroutage/annuaire/internal/cmd/output"
	"github.com/franceroutage/annuaire/pkg/errors"
	"github.com/franceroutage/annuaire/pkg/logging"
)

// fixture writes the three exports of a two-client run and returns their paths.
func fixture(t *testing.T, roster string) (string, string, string) {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
		return path
	}
	return write("roster.csv", roster),
		write("lines.csv", "CT_Num;AR_Ref;DL_Design\nA1;Note;{note}1000\nA2;Facture;9999\n"),
		write("catalog.csv", "Phase;Titre\n1000;Réparation\n")
}

const twoClients = "CT_Num;CT_Intitule\nA1;Dupont\nA2;Martin\n"

// newTestApp creates an app writing to buffers.
func newTestApp(t *testing.T) (*App, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app, err := New("1.0.0", "abc123", "2026-01-01", "test",
		WithOutput(&stdout, &stderr),
		WithLogger(logging.NewNopLogger()))
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	return app, &stdout, &stderr
}

// TestApp_New verifies app initialization.
func TestApp_New(t *testing.T) {
	app, _, _ := newTestApp(t)

	if app.Version() != "1.0.0" {
		t.Errorf("Version() = %s, want 1.0.0", app.Version())
	}
	if app.Commit() != "abc123" {
		t.Errorf("Commit() = %s, want abc123", app.Commit())
	}
	if app.Date() != "2026-01-01" {
		t.Errorf("Date() = %s, want 2026-01-01", app.Date())
	}
	if app.BuiltBy() != "test" {
		t.Errorf("BuiltBy() = %s, want test", app.BuiltBy())
	}
	if app.Logger() == nil {
		t.Error("Logger() returned nil")
	}
	if app.Config() == nil {
		t.Fatal("Config() returned nil")
	}
	if app.Config().Pipeline.Policy != "strict" {
		t.Errorf("default policy = %q, want strict", app.Config().Pipeline.Policy)
	}
}

// TestApp_Annuaire_Singleton verifies that Annuaire() returns the same instance.
func TestApp_Annuaire_Singleton(t *testing.T) {
	app, _, _ := newTestApp(t)

	const goroutines = 50
	var wg sync.WaitGroup
	errs := make([]error, goroutines)
	for i := 0; i < goroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			_, errs[idx] = app.Annuaire()
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("goroutine %d: Annuaire() failed: %v", i, err)
		}
	}

	an1, _ := app.Annuaire()
	an2, _ := app.Annuaire()
	if an1 != an2 {
		t.Error("Annuaire() returned different instances, expected singleton")
	}
}

func TestReconcileCommand_JSON(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	roster, lines, catalog := fixture(t, twoClients)

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog,
		"--format", "json", "--quiet"})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	var doc struct {
		Quality struct {
			Status string `json:"status"`
		} `json:"quality"`
		Rows []struct {
			ClientID string `json:"client_id"`
			Name     string `json:"name"`
			Titles   string `json:"titles"`
		} `json:"rows"`
	}
	if err := json.Unmarshal(stdout.Bytes(), &doc); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}

	if doc.Quality.Status != "exact" {
		t.Errorf("status = %q, want exact", doc.Quality.Status)
	}
	if len(doc.Rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(doc.Rows))
	}
	if doc.Rows[0].ClientID != "A1" || doc.Rows[0].Titles != "Réparation" {
		t.Errorf("row 0 = %+v, want A1 with Réparation", doc.Rows[0])
	}
	if doc.Rows[1].ClientID != "A2" || doc.Rows[1].Titles != "Aucun titre" {
		t.Errorf("row 1 = %+v, want A2 with Aucun titre", doc.Rows[1])
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet run wrote alerts: %q", stderr.String())
	}

	if app.Session().Runs() != 1 {
		t.Errorf("session runs = %d, want 1", app.Session().Runs())
	}
}

func TestReconcileCommand_OutputFile(t *testing.T) {
	app, stdout, stderr := newTestApp(t)
	roster, lines, catalog := fixture(t, twoClients)
	out := filepath.Join(t.TempDir(), "annuaire.csv")

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog,
		"--output-file", out, "--no-color"})
	if err != nil {
		t.Fatalf("reconcile failed: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	content := string(data)
	if !strings.HasPrefix(content, "\xEF\xBB\xBF") {
		t.Error("CSV output does not start with a byte order mark")
	}
	for _, want := range []string{"Numéro client", "Réparation", "Aucun titre", ";"} {
		if !strings.Contains(content, want) {
			t.Errorf("CSV output missing %q:\n%s", want, content)
		}
	}

	if stdout.Len() != 0 {
		t.Errorf("file output also wrote to stdout: %q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "Directory exact") {
		t.Errorf("alerts missing quality line: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "Directory written to "+out) {
		t.Errorf("alerts missing written file: %q", stderr.String())
	}
}

func TestReconcileCommand_FailOnFlagged(t *testing.T) {
	app, _, stderr := newTestApp(t)
	roster, lines, catalog := fixture(t, "CT_Num;CT_Intitule\nA1;Dupont\nA1;Dupont\nA2;Martin\n")

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog,
		"--format", "json", "--fail-on-flagged"})
	if err == nil {
		t.Fatal("expected an error for a flagged run")
	}
	if !strings.Contains(err.Error(), "flagged") {
		t.Errorf("error = %v, want flagged status", err)
	}
	if !strings.Contains(stderr.String(), "duplicate") {
		t.Errorf("alerts missing duplicate warning: %q", stderr.String())
	}
	if !strings.Contains(stderr.String(), "Directory rejected: directory quality is flagged") {
		t.Errorf("alerts missing rejection: %q", stderr.String())
	}
}

func TestReconcileCommand_QuietFailOnFlagged(t *testing.T) {
	app, _, stderr := newTestApp(t)
	roster, lines, catalog := fixture(t, "CT_Num;CT_Intitule\nA1;Dupont\nA1;Dupont\nA2;Martin\n")

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog,
		"--format", "json", "--fail-on-flagged", "-q"})
	if err == nil {
		t.Fatal("expected an error for a flagged run")
	}
	if stderr.Len() != 0 {
		t.Errorf("quiet run wrote alerts: %q", stderr.String())
	}
}

func TestReconcileCommand_MissingInput(t *testing.T) {
	app, _, _ := newTestApp(t)
	_, lines, catalog := fixture(t, twoClients)

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", filepath.Join(t.TempDir(), "absent.csv"), "--lines", lines, "--catalog", catalog, "-q"})
	if !errors.IsNotFound(err) {
		t.Fatalf("error = %v, want a not found error", err)
	}
	if !strings.Contains(err.Error(), "absent.csv not found") {
		t.Errorf("error = %v, want the missing path", err)
	}
}

func TestReconcileCommand_MissingColumn(t *testing.T) {
	app, _, _ := newTestApp(t)
	roster, lines, catalog := fixture(t, "Reference;Nom\nA1;Dupont\n")

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog, "-q"})
	if !errors.IsColumnNotFound(err) {
		t.Fatalf("error = %v, want a column error", err)
	}
}

func TestReconcileCommand_InvalidPolicy(t *testing.T) {
	app, _, _ := newTestApp(t)
	roster, lines, catalog := fixture(t, twoClients)

	err := app.Execute(context.Background(), []string{"reconcile",
		"--roster", roster, "--lines", lines, "--catalog", catalog, "--policy", "lenient"})
	if !errors.IsConfiguration(err) {
		t.Fatalf("error = %v, want a configuration error", err)
	}
}

func TestColumnsCommand(t *testing.T) {
	app, stdout, _ := newTestApp(t)
	roster, lines, _ := fixture(t, twoClients)

	err := app.Execute(context.Background(), []string{"columns",
		"--roster", roster, "--lines", lines, "--format", "json"})
	if err != nil {
		t.Fatalf("columns failed: %v", err)
	}

	var reports []columnReport
	if err := json.Unmarshal(stdout.Bytes(), &reports); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, stdout.String())
	}
	if len(reports) != 2 {
		t.Fatalf("got %d reports, want 2", len(reports))
	}
	if got := reports[0].Columns[0]; got.Column != "CT_Num" || !got.Found {
		t.Errorf("roster client id = %+v, want CT_Num", got)
	}
}

func TestColumnsCommand_MissingRequired(t *testing.T) {
	app, _, _ := newTestApp(t)
	_, _, catalog := fixture(t, twoClients)
	bad := filepath.Join(t.TempDir(), "roster.csv")
	if err := os.WriteFile(bad, []byte("Reference;Nom\nA1;Dupont\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	err := app.Execute(context.Background(), []string{"columns",
		"--roster", bad, "--catalog", catalog, "--format", "table"})
	if err == nil || !strings.Contains(err.Error(), "1 required columns not found") {
		t.Fatalf("error = %v, want one missing column", err)
	}
}

func TestVersionCommand(t *testing.T) {
	app, stdout, _ := newTestApp(t)

	if err := app.Execute(context.Background(), []string{"version", "-o", "json"}); err != nil {
		t.Fatalf("version failed: %v", err)
	}
	var info versionInfo
	if err := json.Unmarshal(stdout.Bytes(), &info); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if info.Version != "1.0.0" || info.Commit != "abc123" {
		t.Errorf("version info = %+v", info)
	}
}

func TestFileFormat(t *testing.T) {
	tests := []struct {
		path     string
		explicit string
		want     output.Format
	}{
		{"annuaire.csv", "", output.FormatCSV},
		{"annuaire.JSON", "", output.FormatJSON},
		{"annuaire.yml", "", output.FormatYAML},
		{"rapport.md", "", output.FormatMarkdown},
		{"annuaire", "", output.FormatCSV},
		{"annuaire.csv", "yaml", output.FormatYAML},
	}
	for _, tt := range tests {
		got, err := fileFormat(tt.path, tt.explicit)
		if err != nil {
			t.Errorf("fileFormat(%q, %q) failed: %v", tt.path, tt.explicit, err)
			continue
		}
		if got != tt.want {
			t.Errorf("fileFormat(%q, %q) = %s, want %s", tt.path, tt.explicit, got, tt.want)
		}
	}

	if _, err := fileFormat("annuaire.csv", "xml"); err == nil {
		t.Error("expected an error for an unknown format")
	}
}

// TestReconcileCommand_FuzzyHelp verifies the fuzzy flag describes what it compares.
func TestReconcileCommand_FuzzyHelp(t *testing.T) {
	app, _, _ := newTestApp(t)
	flag := app.NewReconcileCommand().Flags().Lookup("fuzzy")
	if flag == nil {
		t.Fatal("reconcile has no --fuzzy flag")
	}
	if !strings.Contains(flag.Usage, "phase code") || strings.Contains(flag.Usage, "title") {
		t.Errorf("--fuzzy usage = %q, want phase code matching", flag.Usage)
	}
}
