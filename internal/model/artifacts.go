// Resonate - Audio Similarity and Music Recommendation Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/resonate

// Package model holds the fitted similarity-index artifacts and the pure
// transforms built on them: feature scaling, linear projection into the
// reduced embedding space, and nearest-centroid partition assignment.
//
// Artifacts are produced by a one-time offline training job and are
// strictly read-only for the process lifetime. They are serialized with
// gob, gzip-compressed, and checksummed; each artifact is stored
// separately under a versioned filename ({name}_v{version}.gob.gz) so the
// trainer can publish new versions atomically.
package model

import (
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Artifact names. Each maps to a versioned file in the artifact directory.
const (
	ArtifactTempoScaler   = "scaler_tempo"
	ArtifactFeatureScaler = "scaler_features"
	ArtifactProjection    = "projection"
	ArtifactCentroids     = "centroids"
	ArtifactFeatureNames  = "feature_names"
	ArtifactCatalog       = "catalog"
)

// requiredArtifacts are the artifacts a process cannot start without.
var requiredArtifacts = []string{
	ArtifactTempoScaler,
	ArtifactFeatureScaler,
	ArtifactProjection,
	ArtifactCentroids,
	ArtifactFeatureNames,
	ArtifactCatalog,
}

// Metadata describes a stored artifact.
type Metadata struct {
	// Name is the artifact name (e.g., "projection", "catalog").
	Name string `json:"name"`

	// Version is the artifact version (monotonically increasing).
	Version int `json:"version"`

	// TrainedAt is when the offline training job produced the artifact.
	TrainedAt time.Time `json:"trained_at"`

	// SavedAt is when the artifact was written.
	SavedAt time.Time `json:"saved_at"`

	// TrackCount is the catalog row count at training time.
	TrackCount int `json:"track_count"`

	// ComponentCount is the embedding dimensionality, where applicable.
	ComponentCount int `json:"component_count"`

	// Checksum is the SHA-256 checksum of the uncompressed artifact data.
	Checksum string `json:"checksum"`

	// SizeBytes is the compressed artifact size in bytes.
	SizeBytes int64 `json:"size_bytes"`
}

// storedFile is the on-disk format for artifact files.
type storedFile struct {
	Metadata       Metadata
	CompressedData []byte
}

// Store manages artifact persistence in a single directory.
type Store struct {
	baseDir string
	mu      sync.RWMutex

	// latest known version per artifact name
	versions map[string]int
}

// NewStore opens an artifact store at the given directory, creating it if
// absent, and scans for existing artifact files.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o750); err != nil {
		return nil, fmt.Errorf("create artifact directory: %w", err)
	}

	s := &Store{
		baseDir:  baseDir,
		versions: make(map[string]int),
	}

	if err := s.scan(); err != nil {
		return nil, fmt.Errorf("scan artifact directory: %w", err)
	}

	return s, nil
}

// scan indexes existing artifact files by name and latest version.
func (s *Store) scan() error {
	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		name := entry.Name()
		if len(name) > 7 && name[len(name)-7:] == ".gob.gz" {
			name = name[:len(name)-7]
		} else {
			continue
		}

		artName, version := parseArtifactFilename(name)
		if artName == "" {
			continue
		}

		if current, ok := s.versions[artName]; !ok || version > current {
			s.versions[artName] = version
		}
	}

	return nil
}

// parseArtifactFilename extracts name and version from a filename stem
// like "projection_v2".
func parseArtifactFilename(name string) (artName string, version int) {
	lastVIdx := -1
	for i := len(name) - 1; i >= 1; i-- {
		if name[i] == 'v' && name[i-1] == '_' {
			lastVIdx = i - 1
			break
		}
	}
	if lastVIdx < 0 {
		return "", 0
	}

	artName = name[:lastVIdx]
	versionStr := name[lastVIdx+2:]

	if _, err := fmt.Sscanf(versionStr, "%d", &version); err != nil {
		return "", 0
	}

	return artName, version
}

// Save stores an artifact under the given name and version.
func (s *Store) Save(name string, version int, data interface{}, meta Metadata) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("encode artifact: %w", err)
	}

	rawData := buf.Bytes()

	hash := sha256.Sum256(rawData)
	meta.Checksum = hex.EncodeToString(hash[:])

	var compressed bytes.Buffer
	gzw := gzip.NewWriter(&compressed)
	if _, err := gzw.Write(rawData); err != nil {
		return fmt.Errorf("compress artifact: %w", err)
	}
	if err := gzw.Close(); err != nil {
		return fmt.Errorf("finalize compression: %w", err)
	}

	meta.SizeBytes = int64(compressed.Len())
	meta.SavedAt = time.Now()
	meta.Name = name
	meta.Version = version

	filename := s.artifactPath(name, version)
	f, err := os.Create(filename) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		return fmt.Errorf("create artifact file: %w", err)
	}
	defer func() { _ = f.Close() }()

	sf := storedFile{
		Metadata:       meta,
		CompressedData: compressed.Bytes(),
	}
	fileEnc := gob.NewEncoder(f)
	if err := fileEnc.Encode(sf); err != nil {
		return fmt.Errorf("write artifact file: %w", err)
	}

	if current, ok := s.versions[name]; !ok || version > current {
		s.versions[name] = version
	}

	return nil
}

// Load reads an artifact by name into target, verifying the checksum.
// If version is 0, the latest version is loaded. A missing artifact
// yields ErrMissingArtifact naming the expected file.
func (s *Store) Load(name string, version int, target interface{}) (*Metadata, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if version == 0 {
		var ok bool
		version, ok = s.versions[name]
		if !ok {
			return nil, fmt.Errorf("%w: no %s_v*.gob.gz in %s", ErrMissingArtifact, name, s.baseDir)
		}
	}

	filename := s.artifactPath(name, version)
	f, err := os.Open(filename) //nolint:gosec // filename is constructed from trusted name parameter
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrMissingArtifact, filename)
		}
		return nil, fmt.Errorf("open artifact file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var sf storedFile
	fileDec := gob.NewDecoder(f)
	if err := fileDec.Decode(&sf); err != nil {
		return nil, fmt.Errorf("read artifact file %s: %w", filename, err)
	}

	gzr, err := gzip.NewReader(bytes.NewReader(sf.CompressedData))
	if err != nil {
		return nil, fmt.Errorf("decompress artifact %s: %w", name, err)
	}
	defer func() { _ = gzr.Close() }()

	rawData, err := io.ReadAll(gzr)
	if err != nil {
		return nil, fmt.Errorf("read decompressed artifact %s: %w", name, err)
	}

	hash := sha256.Sum256(rawData)
	checksum := hex.EncodeToString(hash[:])
	if checksum != sf.Metadata.Checksum {
		return nil, fmt.Errorf("artifact %s checksum mismatch: expected %s, got %s", name, sf.Metadata.Checksum, checksum)
	}

	dec := gob.NewDecoder(bytes.NewReader(rawData))
	if err := dec.Decode(target); err != nil {
		return nil, fmt.Errorf("decode artifact %s: %w", name, err)
	}

	return &sf.Metadata, nil
}

// LatestVersion returns the latest known version for an artifact.
func (s *Store) LatestVersion(name string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	version, ok := s.versions[name]
	return version, ok
}

// List returns metadata for the latest version of every stored artifact.
func (s *Store) List() []Metadata {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Metadata

	for name, version := range s.versions {
		filename := s.artifactPath(name, version)
		f, err := os.Open(filename) //nolint:gosec // filename is constructed from trusted name parameter
		if err != nil {
			continue
		}

		var sf storedFile
		dec := gob.NewDecoder(f)
		if err := dec.Decode(&sf); err != nil {
			_ = f.Close()
			continue
		}
		_ = f.Close()

		out = append(out, sf.Metadata)
	}

	return out
}

// CheckRequired verifies every required artifact has at least one stored
// version. All absent artifacts are named in a single error so an operator
// can fix the directory in one pass.
func (s *Store) CheckRequired() error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var missing []string
	for _, name := range requiredArtifacts {
		if _, ok := s.versions[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: no versions of %s in %s", ErrMissingArtifact, strings.Join(missing, ", "), s.baseDir)
	}

	return nil
}

// artifactPath returns the file path for an artifact version.
func (s *Store) artifactPath(name string, version int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s_v%d.gob.gz", name, version))
}

// LoadTransformer assembles the fitted Transformer from its artifacts and
// validates dimensional consistency. Fails fast; never called after startup.
func LoadTransformer(store *Store) (*Transformer, error) {
	var tempoScaler MinMaxScaler
	if _, err := store.Load(ArtifactTempoScaler, 0, &tempoScaler); err != nil {
		return nil, err
	}

	var featureScaler StandardScaler
	if _, err := store.Load(ArtifactFeatureScaler, 0, &featureScaler); err != nil {
		return nil, err
	}

	var projection Projection
	if _, err := store.Load(ArtifactProjection, 0, &projection); err != nil {
		return nil, err
	}

	var featureNames []string
	if _, err := store.Load(ArtifactFeatureNames, 0, &featureNames); err != nil {
		return nil, err
	}

	t := &Transformer{
		TempoScaler:  &tempoScaler,
		Scaler:       &featureScaler,
		Projection:   &projection,
		FeatureNames: featureNames,
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}

	return t, nil
}

// LoadAssigner reads the fitted centroids and validates them against the
// transformer's embedding dimensionality.
func LoadAssigner(store *Store, embeddingDim int) (*Assigner, error) {
	var assigner Assigner
	if _, err := store.Load(ArtifactCentroids, 0, &assigner); err != nil {
		return nil, err
	}

	if err := assigner.Validate(); err != nil {
		return nil, err
	}
	if assigner.Dim() != embeddingDim {
		return nil, fmt.Errorf("%w: centroids have %d dimensions, embeddings have %d", ErrDimensionMismatch, assigner.Dim(), embeddingDim)
	}

	return &assigner, nil
}

// Register gob types for serialization.
//
//nolint:gochecknoinits // gob.Register must be called in init for type registration
func init() {
	gob.Register(MinMaxScaler{})
	gob.Register(StandardScaler{})
	gob.Register(Projection{})
	gob.Register(Assigner{})
	gob.Register(Metadata{})
	gob.Register(storedFile{})
}
