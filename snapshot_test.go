package propbind

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var snapshotTime = time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)

func snapshotSources() *PropertySources {
	return NewPropertySources(
		NewMapSource("env", map[string]any{"app.db.password": "hunter2"}),
		NewMapSource("file:app.yaml", map[string]any{
			"app.name":        "demo",
			"app.db.host":     "localhost",
			"app.db.password": "from-file",
			"app.debug":       true,
		}),
	)
}

func TestCreateSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(snapshotTime)

	snap, err := CreateSnapshot(snapshotSources(), " app. ", WithClock(clock), WithExcludeKeys("DEBUG"))
	require.NoError(t, err)

	assert.Equal(t, SnapshotVersion, snap.Version)
	_, err = uuid.Parse(snap.ID)
	assert.NoError(t, err)
	assert.Equal(t, snapshotTime, snap.Timestamp)
	assert.Equal(t, "app", snap.Prefix)
	assert.Equal(t, []string{"db.password", "db.host", "name"}, snap.Properties.Keys())

	pw, _ := snap.Properties.Get("db.password")
	assert.Equal(t, Redacted, pw)
	assert.Equal(t, map[string]string{
		"db.password": "env",
		"db.host":     "file:app.yaml",
		"name":        "file:app.yaml",
	}, snap.Origins)
}

func TestCreateSnapshot_NilSources(t *testing.T) {
	_, err := CreateSnapshot(nil, "")
	assert.ErrorIs(t, err, ErrNilSources)
}

func TestWriteAndReadSnapshot(t *testing.T) {
	clock := clockwork.NewFakeClockAt(snapshotTime)
	snap, err := CreateSnapshot(snapshotSources(), "app", WithClock(clock))
	require.NoError(t, err)

	template := filepath.Join(t.TempDir(), "nested", "props-{{timestamp}}.json")
	path, err := WriteSnapshot(snap, template)
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(path, "props-20260314-092653.json"), path)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(path), "*.tmp.*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	read, err := ReadSnapshot(path)
	require.NoError(t, err)
	assert.Equal(t, snap.ID, read.ID)
	assert.Equal(t, snap.Prefix, read.Prefix)
	assert.True(t, snap.Timestamp.Equal(read.Timestamp))
	assert.Equal(t, snap.Properties.Keys(), read.Properties.Keys())
	assert.Equal(t, snap.Origins, read.Origins)
}

func TestWriteSnapshot_Nil(t *testing.T) {
	_, err := WriteSnapshot(nil, filepath.Join(t.TempDir(), "x.json"))
	assert.ErrorIs(t, err, ErrNilSnapshot)
}

func TestReadSnapshot_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := ReadSnapshot(filepath.Join(dir, "missing.json"))
	assert.True(t, errors.Is(err, os.ErrNotExist))

	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0600))
	_, err = ReadSnapshot(bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse snapshot")

	future := filepath.Join(dir, "future.json")
	data, err := json.Marshal(map[string]any{"version": "9.9", "properties": map[string]any{}})
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(future, data, 0600))
	_, err = ReadSnapshot(future)
	assert.ErrorIs(t, err, ErrUnsupportedVersion)

	empty := filepath.Join(dir, "empty.json")
	require.NoError(t, os.WriteFile(empty, []byte(`{"version":"1.0"}`), 0600))
	snap, err := ReadSnapshot(empty)
	require.NoError(t, err)
	assert.Equal(t, 0, snap.Properties.Len())
}

func TestExpandPathWithTime(t *testing.T) {
	tests := []struct {
		template string
		want     string
	}{
		{"snap.json", "snap.json"},
		{"snap-{{timestamp}}.json", "snap-20260314-092653.json"},
		{"{{timestamp}}/{{timestamp}}.json", "20260314-092653/20260314-092653.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ExpandPathWithTime(tt.template, snapshotTime))
	}

	local := snapshotTime.In(time.FixedZone("UTC+2", 2*60*60))
	assert.Equal(t, "20260314-092653", ExpandPathWithTime("{{timestamp}}", local), "timestamps are rendered in UTC")
	assert.NotContains(t, ExpandPath("{{timestamp}}"), "{{")
}

func TestGenerateTempFileName(t *testing.T) {
	a, err := generateTempFileName("/tmp/x.json")
	require.NoError(t, err)
	b, err := generateTempFileName("/tmp/x.json")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(a, "/tmp/x.json.tmp."))
	assert.Len(t, strings.TrimPrefix(a, "/tmp/x.json.tmp."), 16)
	assert.NotEqual(t, a, b)
}
