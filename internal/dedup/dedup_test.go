package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

func TestDedupe(t *testing.T) {
	t.Run("first occurrence wins, order preserved", func(t *testing.T) {
		input := []models.RawProduct{
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "B", SourceURL: "b.com"},
			{OriginalName: "A", SourceURL: "a.com", ImageURLs: []string{"different.png"}},
			{SourceURL: "a.com"},
			{OriginalName: "C", SourceURL: "c.com"},
			{OriginalName: "C", SourceURL: "c.com"},
		}

		out := Dedupe(input)
		require.Len(t, out, 4)

		assert.Equal(t, "A", out[0].OriginalName)
		assert.Equal(t, "a.com", out[0].SourceURL)
		assert.Equal(t, "B", out[1].OriginalName)
		assert.Equal(t, "", out[2].OriginalName)
		assert.Equal(t, "a.com", out[2].SourceURL)
		assert.Equal(t, "C", out[3].OriginalName)

		// The surviving A must be the first occurrence, not the re-scrape
		// with the different image list.
		assert.Empty(t, out[0].ImageURLs)
	})

	t.Run("no two survivors share a fingerprint", func(t *testing.T) {
		input := []models.RawProduct{
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "A", SourceURL: "b.com"},
			{TranslatedName: "A", SourceURL: "a.com"},
		}

		out := Dedupe(input)
		seen := make(map[string]bool)
		for _, p := range out {
			key := Fingerprint(p)
			assert.False(t, seen[key], "duplicate fingerprint %q survived", key)
			seen[key] = true
		}
	})

	t.Run("translated-name fallback collides with equal original name", func(t *testing.T) {
		// A record identified only by its translated name dedupes against
		// a record whose original name matches it.
		input := []models.RawProduct{
			{OriginalName: "味噌ラーメン", SourceURL: "x.com/1"},
			{TranslatedName: "味噌ラーメン", SourceURL: "x.com/1"},
		}
		assert.Len(t, Dedupe(input), 1)
	})

	t.Run("empty input", func(t *testing.T) {
		out := Dedupe(nil)
		assert.NotNil(t, out)
		assert.Empty(t, out)
	})

	t.Run("records with empty name keys participate normally", func(t *testing.T) {
		input := []models.RawProduct{
			{SourceURL: "a.com"},
			{SourceURL: "a.com"},
			{SourceURL: "b.com"},
		}
		out := Dedupe(input)
		require.Len(t, out, 2)
		assert.Equal(t, "a.com", out[0].SourceURL)
		assert.Equal(t, "b.com", out[1].SourceURL)
	})

	t.Run("input is not mutated", func(t *testing.T) {
		input := []models.RawProduct{
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "B", SourceURL: "b.com"},
		}

		_ = Dedupe(input)
		require.Len(t, input, 3)
		assert.Equal(t, "A", input[1].OriginalName)
	})

	t.Run("all output elements exist in input", func(t *testing.T) {
		input := []models.RawProduct{
			{OriginalName: "A", SourceURL: "a.com"},
			{OriginalName: "B", SourceURL: "b.com"},
			{OriginalName: "A", SourceURL: "a.com"},
		}
		out := Dedupe(input)
		for _, p := range out {
			assert.Contains(t, input, p)
		}
	})
}
