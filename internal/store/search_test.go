package store

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSanitizeQuery(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", "Freude", "freude"},
		{"strips operators", `freude AND "fokus:*"`, "freude and fokus"},
		{"only syntax", "::::", ""},
		{"empty", "", ""},
		{"umlauts survive", "stärke", "stärke"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, SanitizeQuery(tt.in))
		})
	}
}

func TestSanitizeQueryCapsTokens(t *testing.T) {
	long := strings.Repeat("wort ", 100)
	got := SanitizeQuery(long)
	require.Len(t, strings.Fields(got), maxQueryTokens)
}

func TestSearchFindsSnippet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertChunks(ctx, []InsertChunkParams{
		{Source: "journal", Text: "Heute dient mir Freude."},
		{Source: "journal", Text: "Morgen stärke ich meinen Fokus."},
		{Source: "journal", Text: "Ein Echo hallt in der Freude wider."},
	})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "Freude", 5)
	require.NoError(t, err)
	require.NotEmpty(t, hits)

	found := false
	for _, h := range hits {
		if strings.Contains(h.Snippet, "[Freude]") {
			found = true
		}
		require.Equal(t, "journal", h.Source)
	}
	require.True(t, found, "expected a bracket-highlighted snippet, got %+v", hits)
}

func TestSearchEmptyQueryClosure(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertChunk(ctx, InsertChunkParams{Source: "journal", Text: "Inhalt."})
	require.NoError(t, err)

	for _, q := range []string{"", "::::", "  !! "} {
		hits, err := s.Search(ctx, q, 5)
		require.NoError(t, err)
		require.Empty(t, hits, "query %q", q)
	}
}

func TestSearchNoMatches(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.InsertChunk(ctx, InsertChunkParams{Source: "journal", Text: "Freude am Morgen."})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "quantenphysik", 5)
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestSearchLimit(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	var params []InsertChunkParams
	for i := 0; i < 8; i++ {
		params = append(params, InsertChunkParams{Source: "journal", Text: "Freude Nummer acht."})
	}
	_, err := s.InsertChunks(ctx, params)
	require.NoError(t, err)

	hits, err := s.Search(ctx, "Freude", 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
}
