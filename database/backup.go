package database

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"time"
)

const backupTimeFormat = "20060102_150405"

// Backup file names carry the time and the schema version they were taken
// at, e.g. 20250301_030000_riskplot_v2.db.zip.
var backupName = regexp.MustCompile(`^(\d{8}_\d{6})_riskplot(?:_v(\d+))?\.db\.zip$`)

// BackupInfo describes one file in the backup directory.
type BackupInfo struct {
	Path    string
	TakenAt time.Time
	Version int // 0 for backups without a version in the name
}

func (d *Database) backupDir() string {
	return filepath.Join(filepath.Dir(d.path), "backups")
}

// Backup writes a zipped copy of the database into the backups directory.
// The log table is all the database holds, so an empty log is not backed up.
func (d *Database) Backup(ctx context.Context) error {
	n, err := d.CountLogEntries(ctx, slog.LevelDebug)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}
	if n == 0 {
		d.logger.Debug("log is empty, skipping database backup")
		return nil
	}

	ver, err := d.Version(ctx)
	if err != nil {
		return fmt.Errorf("backup: %w", err)
	}

	dir := d.backupDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create backup directory: %w", err)
	}

	name := fmt.Sprintf("%s_riskplot_v%d.db", time.Now().Format(backupTimeFormat), ver)
	dest := filepath.Join(dir, name)
	if _, err := d.write.ExecContext(ctx, "VACUUM INTO ?", dest); err != nil {
		return fmt.Errorf("vacuuming database into '%s': %w", dest, err)
	}
	defer func() {
		if err := os.Remove(dest); err != nil {
			d.logger.Warn("could not remove uncompressed backup", slog.Any("error", err))
		}
	}()

	zipPath := dest + ".zip"
	if err := compress(dest, zipPath, filepath.Base(d.path)); err != nil {
		_ = os.Remove(zipPath)
		return err
	}

	d.logger.Info("database backup complete",
		slog.String("filename", zipPath),
		slog.Int("version", ver),
		slog.Int("logEntries", n))
	return nil
}

// compress writes src as the single entry called entry of the zip file dst.
func compress(src, dst, entry string) error {
	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("open database backup for compression: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return fmt.Errorf("get file info: %w", err)
	}
	header, err := zip.FileInfoHeader(info)
	if err != nil {
		return fmt.Errorf("create zip header: %w", err)
	}
	header.Name = entry
	header.Method = zip.Deflate

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create zip file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	w, err := zw.CreateHeader(header)
	if err != nil {
		return fmt.Errorf("create zip file entry: %w", err)
	}
	if _, err := io.Copy(w, in); err != nil {
		return fmt.Errorf("write database to zip: %w", err)
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize zip file: %w", err)
	}
	return out.Close()
}

// Backups lists the backups in the backup directory, oldest first. Files
// that do not look like backups are ignored.
func (d *Database) Backups() ([]BackupInfo, error) {
	dir := d.backupDir()
	files, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read backup directory: %w", err)
	}

	var backups []BackupInfo
	for _, f := range files {
		m := backupName.FindStringSubmatch(f.Name())
		if m == nil {
			d.logger.Debug("this is not a backup file", slog.String("filename", f.Name()))
			continue
		}
		t, err := time.ParseInLocation(backupTimeFormat, m[1], time.Local)
		if err != nil {
			d.logger.Debug("failed to parse backup timestamp", slog.String("filename", f.Name()), slog.Any("error", err))
			continue
		}
		ver, _ := strconv.Atoi(m[2])
		backups = append(backups, BackupInfo{Path: filepath.Join(dir, f.Name()), TakenAt: t, Version: ver})
	}
	return backups, nil
}

// PurgeBackups deletes backups older than retentionDays. Values below one
// keep everything.
func (d *Database) PurgeBackups(ctx context.Context, retentionDays int) error {
	if retentionDays < 1 {
		return nil
	}
	cutoff := time.Now().Add(-time.Duration(retentionDays) * 24 * time.Hour)

	backups, err := d.Backups()
	if err != nil {
		return err
	}

	purged := 0
	for _, b := range backups {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !b.TakenAt.Before(cutoff) {
			continue
		}
		d.logger.Debug("deleting old backup", slog.String("path", b.Path))
		if err := os.Remove(b.Path); err != nil {
			return fmt.Errorf("remove old backup '%s': %w", b.Path, err)
		}
		purged++
	}

	d.logger.Info("backup purge complete", slog.Int("purged", purged))
	return nil
}
