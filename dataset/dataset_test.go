package dataset

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angas/riskplot-go/types"
)

const header = "state,abbr,poverty,age,income,healthcare,smokes,obesity\n"

func TestLoadFile(t *testing.T) {
	res, err := LoadFile(filepath.Join("testdata", "data.csv"), PolicyAbort)
	require.NoError(t, err)
	require.Len(t, res.Records, 3)
	assert.Empty(t, res.Skipped)

	al := res.Records[0]
	assert.Equal(t, types.Record{
		State:      "Alabama",
		Abbr:       "AL",
		Poverty:    19.3,
		Age:        38.6,
		Income:     42830,
		Healthcare: 13.9,
		Smokes:     21.1,
		Obesity:    33.5,
	}, al)
	assert.Equal(t, "AK", res.Records[1].Abbr)
	assert.Equal(t, "AZ", res.Records[2].Abbr)
}

func TestLoadColumnOrderAndCase(t *testing.T) {
	input := "Obesity, Smokes,HEALTHCARE,income,age,poverty,abbr,state\n" +
		"30,20,12.1,40000,38,18.5,AL,Alabama\n"

	res, err := Load(strings.NewReader(input), PolicyAbort)
	require.NoError(t, err)
	require.Len(t, res.Records, 1)
	assert.Equal(t, 18.5, res.Records[0].Poverty)
	assert.Equal(t, 30.0, res.Records[0].Obesity)
	assert.Equal(t, "Alabama", res.Records[0].State)
}

func TestLoadMissingColumn(t *testing.T) {
	_, err := Load(strings.NewReader("state,abbr,poverty,age\nAlabama,AL,18.5,38\n"), PolicyAbort)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "income")
	assert.Contains(t, err.Error(), "obesity")
}

func TestLoadEmptyInput(t *testing.T) {
	_, err := Load(strings.NewReader(""), PolicyAbort)
	require.Error(t, err)
}

func TestLoadHeaderOnly(t *testing.T) {
	_, err := Load(strings.NewReader(header), PolicyAbort)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestLoadAllRowsSkipped(t *testing.T) {
	input := header +
		"Alabama,AL,n/a,38,40000,12.1,20,30\n" +
		"Alaska,AK,11.2,33.3,,15,19.9,29.7\n"

	_, err := Load(strings.NewReader(input), PolicySkip)
	require.ErrorIs(t, err, ErrNoRecords)
	var malformed *MalformedRecordError
	require.ErrorAs(t, err, &malformed)
	assert.Equal(t, 2, malformed.Line)
	assert.Contains(t, err.Error(), "all 2 rows")

	path := filepath.Join(t.TempDir(), "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(header), 0o644))
	_, err = LoadFile(path, PolicySkip)
	assert.ErrorIs(t, err, ErrNoRecords)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name   string
		row    string
		line   int
		column string
	}{
		{name: "not a number", row: "Alaska,AK,n/a,33,71583,15,19.9,29.7", line: 3, column: "poverty"},
		{name: "missing value", row: "Alaska,AK,11.2,33,,15,19.9,29.7", line: 3, column: "income"},
		{name: "missing state", row: ",AK,11.2,33,71583,15,19.9,29.7", line: 3, column: "state"},
		{name: "field count", row: "Alaska,AK,11.2", line: 3, column: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := header +
				"Alabama,AL,18.5,38,40000,12.1,20,30\n" +
				tt.row + "\n" +
				"Arizona,AZ,18.2,36.9,50068,14.4,16.5,28.9\n"

			_, err := Load(strings.NewReader(input), PolicyAbort)
			var malformed *MalformedRecordError
			require.ErrorAs(t, err, &malformed)
			assert.Equal(t, tt.line, malformed.Line)
			assert.Equal(t, tt.column, malformed.Column)

			res, err := Load(strings.NewReader(input), PolicySkip)
			require.NoError(t, err)
			require.Len(t, res.Records, 2)
			assert.Equal(t, "AL", res.Records[0].Abbr)
			assert.Equal(t, "AZ", res.Records[1].Abbr)
			require.Len(t, res.Skipped, 1)
			assert.Equal(t, tt.line, res.Skipped[0].Line)
		})
	}
}

func TestWatcherReload(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Alabama,AL,18.5,38,40000,12.1,20,30\n"), 0o644))

	w, err := NewWatcher(slog.Default(), path, PolicyAbort)
	require.NoError(t, err)

	reloaded := make(chan Result, 4)
	w.OnReload = func(res Result) { reloaded <- res }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	content := header +
		"Alabama,AL,18.5,38,40000,12.1,20,30\n" +
		"Alaska,AK,11.2,33.3,71583,15,19.9,29.7\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	deadline := time.After(5 * time.Second)
	for {
		select {
		case res := <-reloaded:
			// A write may surface as several events, wait for the complete file.
			if res.Records.Len() == 2 {
				assert.Equal(t, "AK", res.Records[1].Abbr)
				return
			}
		case <-deadline:
			t.Fatal("dataset was not reloaded")
		}
	}
}

func TestWatcherKeepsDatasetWithoutRecords(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+"Alabama,AL,18.5,38,40000,12.1,20,30\n"), 0o644))

	w, err := NewWatcher(slog.Default(), path, PolicySkip)
	require.NoError(t, err)

	reloaded := make(chan Result, 4)
	w.OnReload = func(res Result) { reloaded <- res }

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx)

	require.NoError(t, os.WriteFile(path, []byte(header+"Alaska,AK,n/a,33.3,71583,15,19.9,29.7\n"), 0o644))
	assert.Never(t, func() bool { return len(reloaded) > 0 }, 500*time.Millisecond, 20*time.Millisecond)
}
