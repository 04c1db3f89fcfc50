package services

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArtifactWriteAndReadLatest(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	first := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	second := first.Add(5 * time.Minute)

	name, err := store.Write("Acme Corp", ArtifactATSScore, []byte(`{"overall_score":61.5}`), first)
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("atsscore_%020d.json", first.UnixNano()), name)

	_, err = store.Write("Acme Corp", ArtifactATSScore, []byte(`{"overall_score":72.0}`), second)
	require.NoError(t, err)

	payload, err := store.ReadLatest("Acme Corp", ArtifactATSScore)
	require.NoError(t, err)
	assert.JSONEq(t, `{"overall_score":72.0}`, string(payload))
}

func TestArtifactReadLatestNotFound(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.ReadLatest("Nobody Inc", ArtifactTailoredCV)
	assert.ErrorIs(t, err, ErrArtifactNotFound)

	// Company exists but has no artifact of this kind.
	_, err = store.Write("Nobody Inc", ArtifactATSScore, []byte(`{}`), time.Now())
	require.NoError(t, err)
	_, err = store.ReadLatest("Nobody Inc", ArtifactTailoredCV)
	assert.ErrorIs(t, err, ErrArtifactNotFound)
}

func TestArtifactKindsAndCompaniesIsolated(t *testing.T) {
	store, err := NewArtifactStore(t.TempDir())
	require.NoError(t, err)

	now := time.Now()
	_, err = store.Write("Acme", ArtifactTailoredCV, []byte(`{"content":"acme cv"}`), now)
	require.NoError(t, err)
	_, err = store.Write("Globex", ArtifactTailoredCV, []byte(`{"content":"globex cv"}`), now)
	require.NoError(t, err)
	_, err = store.Write("Acme", ArtifactRecommendation, []byte(`{"content":"advice"}`), now)
	require.NoError(t, err)

	payload, err := store.ReadLatest("Acme", ArtifactTailoredCV)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"acme cv"}`, string(payload))

	payload, err = store.ReadLatest("Globex", ArtifactTailoredCV)
	require.NoError(t, err)
	assert.JSONEq(t, `{"content":"globex cv"}`, string(payload))
}

func TestSanitizeCompany(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Acme Corp", "acme_corp"},
		{"  Stripe  ", "stripe"},
		{"A/B Testing Ltd.", "ab_testing_ltd_"},
		{"###", "_unknown"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, sanitizeCompany(tt.in))
	}
}
