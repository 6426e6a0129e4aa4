package propbind

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
)

// MaxSnapshotSize is the maximum allowed snapshot size (100MB).
const MaxSnapshotSize = 100 * 1024 * 1024

// SnapshotVersion is the current snapshot format version.
const SnapshotVersion = "1.0"

// Snapshot errors.
var (
	// ErrSnapshotTooLarge is returned when a snapshot exceeds MaxSnapshotSize.
	ErrSnapshotTooLarge = errors.New("propbind: snapshot exceeds 100MB size limit")

	// ErrNilSnapshot is returned when WriteSnapshot receives a nil snapshot.
	ErrNilSnapshot = errors.New("propbind: snapshot is nil")

	// ErrUnsupportedVersion is returned when reading a snapshot with unknown version.
	ErrUnsupportedVersion = errors.New("propbind: unsupported snapshot version")
)

// supportedVersions lists snapshot format versions that can be read.
var supportedVersions = map[string]bool{
	"1.0": true,
}

// ConfigSnapshot is a point-in-time capture of the properties under a prefix.
type ConfigSnapshot struct {
	// Version is the snapshot format version (currently "1.0")
	Version string `json:"version"`

	// ID uniquely identifies the snapshot.
	ID string `json:"id"`

	// Timestamp is when the snapshot was created
	Timestamp time.Time `json:"timestamp"`

	// Prefix the properties were extracted with. Empty means all keys.
	Prefix string `json:"prefix,omitempty"`

	// Properties holds the extracted values in order, sensitive ones redacted.
	Properties *Properties `json:"properties"`

	// Origins maps each key to the layer that supplied it.
	Origins map[string]string `json:"origins"`
}

// SnapshotOption configures snapshot creation behavior.
type SnapshotOption func(*snapshotConfig)

type snapshotConfig struct {
	excludeKeys []string
	clock       clockwork.Clock
}

// WithExcludeKeys leaves the given keys out of the snapshot.
// Keys are relative to the prefix and matched case-insensitively.
func WithExcludeKeys(keys ...string) SnapshotOption {
	return func(cfg *snapshotConfig) {
		cfg.excludeKeys = append(cfg.excludeKeys, keys...)
	}
}

// WithClock sets the clock used for the snapshot timestamp.
func WithClock(clock clockwork.Clock) SnapshotOption {
	return func(cfg *snapshotConfig) {
		if clock != nil {
			cfg.clock = clock
		}
	}
}

// CreateSnapshot captures the properties under prefix with their origins.
// Sensitive values are redacted.
func CreateSnapshot(sources *PropertySources, prefix string, opts ...SnapshotOption) (*ConfigSnapshot, error) {
	if sources == nil {
		return nil, ErrNilSources
	}

	snapCfg := &snapshotConfig{clock: clockwork.NewRealClock()}
	for _, opt := range opts {
		opt(snapCfg)
	}

	excluded := make(map[string]bool, len(snapCfg.excludeKeys))
	for _, key := range snapCfg.excludeKeys {
		excluded[strings.ToLower(key)] = true
	}

	props := NewProperties()
	origins := make(map[string]string)
	allOrigins := Origins(sources, prefix)
	for key, value := range redact(Scope(sources, prefix)).All() {
		if excluded[strings.ToLower(key)] {
			continue
		}
		props.Set(key, value)
		origins[key] = allOrigins[key]
	}

	return &ConfigSnapshot{
		Version:    SnapshotVersion,
		ID:         uuid.NewString(),
		Timestamp:  snapCfg.clock.Now().UTC(),
		Prefix:     strings.Trim(strings.TrimSpace(prefix), "."),
		Properties: props,
		Origins:    origins,
	}, nil
}

// ExpandPath expands template variables using current time.
// Prefer WriteSnapshot, which uses the snapshot's own timestamp.
func ExpandPath(template string) string {
	return ExpandPathWithTime(template, time.Now())
}

// ExpandPathWithTime replaces all {{timestamp}} occurrences with t formatted as 20060102-150405.
func ExpandPathWithTime(template string, t time.Time) string {
	timestamp := t.UTC().Format("20060102-150405")
	return strings.ReplaceAll(template, "{{timestamp}}", timestamp)
}

// WriteSnapshot persists a snapshot to disk with atomic write semantics.
// {{timestamp}} in pathTemplate expands to the snapshot's Timestamp.
// Returns the written path.
func WriteSnapshot(snapshot *ConfigSnapshot, pathTemplate string) (string, error) {
	if snapshot == nil {
		return "", ErrNilSnapshot
	}

	targetPath := ExpandPathWithTime(pathTemplate, snapshot.Timestamp)

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	if len(data) > MaxSnapshotSize {
		return "", ErrSnapshotTooLarge
	}

	dir := filepath.Dir(targetPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return "", err
		}
	}

	// Temp file in the same directory so the rename stays on one filesystem
	tempPath, err := generateTempFileName(targetPath)
	if err != nil {
		return "", err
	}

	if err := os.WriteFile(tempPath, data, 0600); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}

	if err := os.Rename(tempPath, targetPath); err != nil {
		_ = os.Remove(tempPath)
		return "", err
	}

	return targetPath, nil
}

// ReadSnapshot loads a snapshot written by WriteSnapshot.
func ReadSnapshot(path string) (*ConfigSnapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.Size() > MaxSnapshotSize {
		return nil, ErrSnapshotTooLarge
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snapshot ConfigSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("parse snapshot %s: %w", path, err)
	}

	if !supportedVersions[snapshot.Version] {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedVersion, snapshot.Version)
	}

	if snapshot.Properties == nil {
		snapshot.Properties = NewProperties()
	}
	return &snapshot, nil
}

// generateTempFileName returns targetPath + ".tmp." + 16 random hex chars.
func generateTempFileName(targetPath string) (string, error) {
	randomBytes := make([]byte, 8)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", err
	}
	return targetPath + ".tmp." + hex.EncodeToString(randomBytes), nil
}
