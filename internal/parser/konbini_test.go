package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sejListingHTML = `
<html><body>
<ul class="list">
  <li class="ly-mod-infoset">
    <a href="/products/a/item/100123.html">
      <img src="/img/100123.jpg">
      <img src="/img/tracking-pixel">
    </a>
    <div class="item_ttl">明太子おにぎり</div>
    <div class="item_price">138円（税込149円）</div>
    <div class="item_date">2026年8月26日発売</div>
    <span class="icon-new">新発売</span>
  </li>
  <li class="ly-mod-infoset">
    <a href="https://www.sej.co.jp/products/a/item/100456.html">
      <img data-original="https://img.sej.co.jp/100456.png/">
    </a>
    <div class="item_ttl">チョコミントパフェ</div>
    <div class="item_price">1,250円</div>
  </li>
  <li class="ly-mod-infoset">
    <div class="item_ttl">リンクなし商品</div>
  </li>
</ul>
</body></html>`

func TestKonbiniParser_ParseListing(t *testing.T) {
	p := NewKonbiniParser()

	products, err := p.ParseListing(sejListingHTML, "https://www.sej.co.jp/products/a/onigiri.html")
	require.NoError(t, err)
	require.Len(t, products, 3)

	first := products[0]
	assert.Equal(t, "明太子おにぎり", first.OriginalName)
	assert.Equal(t, "https://www.sej.co.jp/products/a/item/100123.html", first.SourceURL)
	assert.Equal(t, []string{"https://www.sej.co.jp/img/100123.jpg"}, first.ImageURLs)
	assert.Equal(t, 138.0, first.Price.Amount)
	assert.Equal(t, "JPY", first.Price.Currency)
	assert.True(t, first.IsNew)
	assert.Equal(t, "2026年8月26日", first.ReleaseDate)

	second := products[1]
	assert.Equal(t, "チョコミントパフェ", second.OriginalName)
	assert.Equal(t, "https://www.sej.co.jp/products/a/item/100456.html", second.SourceURL)
	assert.Equal(t, []string{"https://img.sej.co.jp/100456.png"}, second.ImageURLs, "trailing slash stripped")
	assert.Equal(t, 1250.0, second.Price.Amount)
	assert.False(t, second.IsNew)
	assert.Empty(t, second.ReleaseDate)

	// A card with a name but no link still comes through; ingestion
	// filters records without a source URL.
	third := products[2]
	assert.Equal(t, "リンクなし商品", third.OriginalName)
	assert.Empty(t, third.SourceURL)
}

func TestKonbiniParser_ParseListing_NoCards(t *testing.T) {
	p := NewKonbiniParser()

	products, err := p.ParseListing("<html><body><p>メンテナンス中</p></body></html>", "https://www.sej.co.jp/")
	require.NoError(t, err)
	assert.Empty(t, products)
}

func TestNormalizeImageURL(t *testing.T) {
	tests := []struct {
		name  string
		raw   string
		want  string
		valid bool
	}{
		{"plain jpg", "https://img.example.com/a.jpg", "https://img.example.com/a.jpg", true},
		{"trailing slash", "https://img.example.com/a.png/", "https://img.example.com/a.png", true},
		{"query string", "https://img.example.com/a.webp?w=300", "https://img.example.com/a.webp?w=300", true},
		{"uppercase extension", "https://img.example.com/A.JPG", "https://img.example.com/A.JPG", true},
		{"tracker pixel", "https://img.example.com/pixel", "", false},
		{"svg sprite", "https://img.example.com/sprite.svg", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, valid := normalizeImageURL(tt.raw)
			assert.Equal(t, tt.valid, valid)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveURL(t *testing.T) {
	base := "https://www.family.co.jp/goods/newgoods.html"

	assert.Equal(t, "https://www.family.co.jp/goods/9900001.html", resolveURL(base, "9900001.html"))
	assert.Equal(t, "https://www.family.co.jp/goods/9900001.html", resolveURL(base, "/goods/9900001.html"))
	assert.Equal(t, "https://other.example.com/x.html", resolveURL(base, "https://other.example.com/x.html"))
}
