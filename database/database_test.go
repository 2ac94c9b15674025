package database

import (
	"archive/zip"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDatabase(t *testing.T) (*Database, string) {
	t.Helper()
	dir := t.TempDir()
	db, err := New(context.Background(), filepath.Join(dir, "test.db"))
	require.NoError(t, err)
	t.Cleanup(db.Close)
	return db, dir
}

func TestMigrate(t *testing.T) {
	db, dir := newTestDatabase(t)

	v, err := db.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, v)

	_, err = os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err), "fresh database should not be backed up")
}

func TestLogEntries(t *testing.T) {
	db, _ := newTestDatabase(t)
	ctx := context.Background()
	ts := time.Date(2025, 2, 1, 8, 30, 0, 0, time.UTC)

	levels := []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}
	for i, lvl := range levels {
		require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{
			Timestamp: ts.Add(time.Duration(i) * time.Second),
			Level:     int(lvl),
			Module:    "www",
			Message:   fmt.Sprintf("entry %d", i),
			Attrs:     `[{"axis":"x"}]`,
		}))
	}

	entries, err := db.GetLogEntries(ctx, slog.LevelInfo, 1, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "entry 3", entries[0].Message)
	assert.Equal(t, "www", entries[0].Module)
	assert.Equal(t, ts.Add(3*time.Second), entries[0].Timestamp)

	page2, err := db.GetLogEntries(ctx, slog.LevelDebug, 2, 3)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, "entry 0", page2[0].Message)

	n, err := db.CountLogEntries(ctx, slog.LevelWarn)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	require.NoError(t, db.PurgeLog(ctx, 2))
	n, err = db.CountLogEntries(ctx, slog.LevelDebug)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestBackupSkipsEmptyLog(t *testing.T) {
	db, dir := newTestDatabase(t)

	require.NoError(t, db.Backup(context.Background()))
	_, err := os.Stat(filepath.Join(dir, "backups"))
	assert.True(t, os.IsNotExist(err), "empty log should not be backed up")

	backups, err := db.Backups()
	require.NoError(t, err)
	assert.Empty(t, backups)
}

func TestBackup(t *testing.T) {
	db, dir := newTestDatabase(t)
	ctx := context.Background()
	require.NoError(t, db.SaveLogEntry(ctx, LogEntryRow{
		Timestamp: time.Now(),
		Level:     int(slog.LevelInfo),
		Module:    "www",
		Message:   "starting server...",
	}))

	require.NoError(t, db.Backup(ctx))
	files, err := os.ReadDir(filepath.Join(dir, "backups"))
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Regexp(t, `^\d{8}_\d{6}_riskplot_v2\.db\.zip$`, files[0].Name())

	zr, err := zip.OpenReader(filepath.Join(dir, "backups", files[0].Name()))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, "test.db", zr.File[0].Name)

	backups, err := db.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 1)
	assert.Equal(t, 2, backups[0].Version)
	assert.WithinDuration(t, time.Now(), backups[0].TakenAt, time.Minute)
}

func TestPurgeBackups(t *testing.T) {
	db, dir := newTestDatabase(t)
	ctx := context.Background()
	backupDir := filepath.Join(dir, "backups")
	require.NoError(t, os.MkdirAll(backupDir, 0o755))

	recent := time.Now().Add(-24 * time.Hour).Format("20060102_150405") + "_riskplot_v2.db.zip"
	for _, name := range []string{
		"20000101_000000_riskplot.db.zip",
		"20000101_000000_riskplot_v1.db.zip",
		recent,
		"notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(backupDir, name), []byte("zip"), 0o644))
	}

	backups, err := db.Backups()
	require.NoError(t, err)
	require.Len(t, backups, 3)

	require.NoError(t, db.PurgeBackups(ctx, 30))

	files, err := os.ReadDir(backupDir)
	require.NoError(t, err)
	var names []string
	for _, f := range files {
		names = append(names, f.Name())
	}
	assert.ElementsMatch(t, []string{recent, "notes.txt"}, names)

	require.NoError(t, db.PurgeBackups(ctx, 0))
	files, err = os.ReadDir(backupDir)
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
