package logger

import (
	"archive/zip"
	"log"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerService_WritesAndAudits(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerService(map[string]interface{}{"folder_path": dir, "max_file_mb": 5, "retention_days": 7})
	assert.Equal(t, int64(5*1024*1024), l.maxFileBytes)
	require.NoError(t, l.Start())

	l.LogAudit("collection overview refreshed")
	path := l.CurrentFile()
	require.NoError(t, l.Stop())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "[AUDIT] collection overview refreshed")
	assert.True(t, strings.HasPrefix(filepath.Base(path), "app_"))
	assert.NoError(t, l.Stop())
}

func TestLoggerService_Rotate(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerService(map[string]interface{}{"folder_path": dir})
	require.NoError(t, l.Start())
	defer l.Stop()

	first := l.CurrentFile()
	log.Println(strings.Repeat("x", 64))
	l.maxFileBytes = 16
	require.NoError(t, l.rotateIfNeeded())
	assert.NotEqual(t, first, l.CurrentFile())
}

func TestLoggerService_ZipsOldLogs(t *testing.T) {
	dir := t.TempDir()
	l := NewLoggerService(map[string]interface{}{"folder_path": dir, "retention_days": 2})

	old := filepath.Join(dir, "app_old.log")
	fresh := filepath.Join(dir, "app_fresh.log")
	require.NoError(t, os.WriteFile(old, []byte("old"), 0644))
	require.NoError(t, os.WriteFile(fresh, []byte("fresh"), 0644))
	now := time.Now()
	require.NoError(t, os.Chtimes(old, now.AddDate(0, 0, -5), now.AddDate(0, 0, -5)))

	assert.Equal(t, 1, l.zipAndCleanOldLogs(now))
	assert.NoFileExists(t, old)
	assert.FileExists(t, fresh)

	zips, err := filepath.Glob(filepath.Join(dir, "logs_*.zip"))
	require.NoError(t, err)
	require.Len(t, zips, 1)
	r, err := zip.OpenReader(zips[0])
	require.NoError(t, err)
	defer r.Close()
	require.Len(t, r.File, 1)
	assert.Equal(t, "app_old.log", r.File[0].Name)
}

func TestLoggerService_NoRetentionKeepsEverything(t *testing.T) {
	l := NewLoggerService(map[string]interface{}{"folder_path": t.TempDir()})
	assert.Equal(t, 0, l.zipAndCleanOldLogs(time.Now()))
}
