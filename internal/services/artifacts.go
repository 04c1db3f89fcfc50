package services

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// ArtifactKind names one persisted pipeline output.
type ArtifactKind string

const (
	ArtifactSkillSetCV     ArtifactKind = "skillset_cv"
	ArtifactSkillSetJD     ArtifactKind = "skillset_jd"
	ArtifactMatchResult    ArtifactKind = "matchresult"
	ArtifactATSScore       ArtifactKind = "atsscore"
	ArtifactRecommendation ArtifactKind = "recommendation"
	ArtifactTailoredCV     ArtifactKind = "tailored_cv"
)

// ArtifactStore persists timestamped pipeline outputs per company. The
// coordinator only ever reads through ReadLatest; no directory layout
// assumptions leak into the pipeline.
type ArtifactStore interface {
	Write(company string, kind ArtifactKind, payload []byte, ts time.Time) (string, error)
	ReadLatest(company string, kind ArtifactKind) ([]byte, error)
}

type fsArtifactStore struct {
	root string
}

func NewArtifactStore(root string) (ArtifactStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create artifact root: %w", err)
	}
	return &fsArtifactStore{root: root}, nil
}

// Write implements ArtifactStore. The payload lands in a temp file first
// and is renamed into place, so readers never observe a partial artifact.
func (s *fsArtifactStore) Write(company string, kind ArtifactKind, payload []byte, ts time.Time) (string, error) {
	dir := filepath.Join(s.root, sanitizeCompany(company))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create company directory: %w", err)
	}

	// Zero-padded nanosecond timestamp keeps lexical order == time order.
	name := fmt.Sprintf("%s_%020d.json", kind, ts.UTC().UnixNano())
	finalPath := filepath.Join(dir, name)

	tmp, err := os.CreateTemp(dir, "."+name+".tmp")
	if err != nil {
		return "", fmt.Errorf("failed to create temp artifact: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to write artifact: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to close artifact: %w", err)
	}

	if err := os.Rename(tmpPath, finalPath); err != nil {
		os.Remove(tmpPath)
		return "", fmt.Errorf("failed to finalize artifact: %w", err)
	}

	return name, nil
}

// ReadLatest implements ArtifactStore. Selects the newest artifact of the
// given kind by its encoded timestamp.
func (s *fsArtifactStore) ReadLatest(company string, kind ArtifactKind) ([]byte, error) {
	dir := filepath.Join(s.root, sanitizeCompany(company))

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrArtifactNotFound
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}

	prefix := string(kind) + "_"
	var names []string
	for _, entry := range dirEntries {
		name := entry.Name()
		if !entry.IsDir() && strings.HasPrefix(name, prefix) && strings.HasSuffix(name, ".json") {
			names = append(names, name)
		}
	}
	if len(names) == 0 {
		return nil, ErrArtifactNotFound
	}

	sort.Strings(names)
	latest := names[len(names)-1]

	payload, err := os.ReadFile(filepath.Join(dir, latest))
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %s: %w", latest, err)
	}
	return payload, nil
}

// sanitizeCompany maps a company name onto a safe directory name.
func sanitizeCompany(company string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(company)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ', r == '-', r == '_', r == '.':
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		return "_unknown"
	}
	return b.String()
}
