package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

func TestFingerprint(t *testing.T) {
	tests := []struct {
		name     string
		product  models.RawProduct
		expected string
	}{
		{
			name: "original name is primary key",
			product: models.RawProduct{
				OriginalName:   "ざるそば",
				TranslatedName: "笊蕎麥麵",
				SourceURL:      "https://www.sej.co.jp/products/a/item/1",
			},
			expected: "ざるそば-https://www.sej.co.jp/products/a/item/1",
		},
		{
			name: "falls back to translated name when original is empty",
			product: models.RawProduct{
				TranslatedName: "炸雞塊",
				SourceURL:      "https://www.family.co.jp/goods/2",
			},
			expected: "炸雞塊-https://www.family.co.jp/goods/2",
		},
		{
			name: "both names empty still yields a valid key",
			product: models.RawProduct{
				SourceURL: "https://www.lawson.co.jp/3",
			},
			expected: "-https://www.lawson.co.jp/3",
		},
		{
			name:     "zero value product",
			product:  models.RawProduct{},
			expected: "-",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Fingerprint(tt.product))
		})
	}
}

func TestFingerprintDeterministic(t *testing.T) {
	p := models.RawProduct{
		OriginalName: "おにぎり",
		SourceURL:    "https://example.jp/onigiri",
		Price:        models.Price{Amount: 150, Currency: "JPY"},
	}

	first := Fingerprint(p)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, Fingerprint(p))
	}

	// Equal identity fields produce equal fingerprints even when
	// transient fields differ.
	other := models.RawProduct{
		OriginalName: "おにぎり",
		SourceURL:    "https://example.jp/onigiri",
		Price:        models.Price{Amount: 180, Currency: "JPY"},
		ImageURLs:    []string{"https://example.jp/img.png"},
	}
	assert.Equal(t, first, Fingerprint(other))
}
