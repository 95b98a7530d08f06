package alerts_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/franceroutage/annuaire/internal/cmd/alerts"
	"github.com/franceroutage/annuaire/internal/cmd/output"
	"github.com/franceroutage/annuaire/pkg/quality"
	"github.com/franceroutage/annuaire/pkg/reconcile"
	"github.com/franceroutage/annuaire/pkg/table"
)

func TestLevelFor(t *testing.T) {
	assert.Equal(t, alerts.LevelSuccess, alerts.LevelFor(quality.StatusExact))
	assert.Equal(t, alerts.LevelInfo, alerts.LevelFor(quality.StatusAcceptable))
	assert.Equal(t, alerts.LevelWarning, alerts.LevelFor(quality.StatusFlagged))
}

func TestFromResult(t *testing.T) {
	r, err := reconcile.New()
	require.NoError(t, err)
	res, err := r.Reconcile(context.Background(), reconcile.Inputs{
		Roster:     table.New("roster", []string{"CT_Num"}, [][]string{{"A1"}, {"A1"}}),
		OrderLines: table.New("lines", []string{"CT_Num", "AR_Ref", "DL_Design"}, nil),
		Catalog:    table.New("catalog", []string{"Phase", "Titre"}, nil),
	})
	require.NoError(t, err)

	list := alerts.FromResult(res)
	require.Len(t, list, 1+len(res.Warnings))
	assert.Equal(t, alerts.LevelWarning, list[0].Level)
	assert.Contains(t, list[0].Message, "flagged")
	for _, a := range list[1:] {
		assert.Equal(t, alerts.LevelWarning, a.Level)
	}
}

func TestFormatWriter(t *testing.T) {
	a := alerts.NewWarning("roster has 1 duplicate rows").
		WithDetails("kind: roster_duplicates").
		WithError(errors.New("boom"))

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, alerts.NewFormatWriter(&buf, output.FormatJSON).WriteAlert(a))
		assert.Contains(t, buf.String(), `"level": "warning"`)
		assert.Contains(t, buf.String(), `"error": "boom"`)
	})

	t.Run("yaml", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, alerts.NewFormatWriter(&buf, output.FormatYAML).WriteAlert(a))
		assert.Contains(t, buf.String(), "level: warning")
		assert.Contains(t, buf.String(), "kind: roster_duplicates")
	})

	t.Run("table", func(t *testing.T) {
		var buf bytes.Buffer
		require.NoError(t, alerts.NewFormatWriter(&buf, output.FormatTable).WriteAlert(a))
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		require.Len(t, lines, 2)
		assert.Equal(t, "⚠️ roster has 1 duplicate rows: boom", lines[0])
	})

	t.Run("plain without details", func(t *testing.T) {
		var buf bytes.Buffer
		w := alerts.NewFormatWriter(&buf, output.FormatCSV).WithConfig(alerts.WriterConfig{})
		require.NoError(t, alerts.WriteAll(w, []*alerts.Alert{a, alerts.NewSuccess("done")}))
		assert.Equal(t, "⚠️ roster has 1 duplicate rows: boom\n✅ done\n", buf.String())
	})
}
