package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// KonbiniParser handles the new-product listing pages of the Japanese
// chain sites. The markup differs per chain but the card structure is
// similar enough that a prioritized selector list covers all of them.
type KonbiniParser struct {
	cardSelectors []string
	nameSelectors []string
	datePattern   *regexp.Regexp
	pricePattern  *regexp.Regexp
}

func NewKonbiniParser() *KonbiniParser {
	return &KonbiniParser{
		cardSelectors: []string{
			"li.ly-mod-infoset",        // sej.co.jp
			"div.ly-goods-list-item",   // family.co.jp
			"ul.heightLineParent > li", // lawson.co.jp
			"li.product-item",
			"article.product",
		},
		nameSelectors: []string{
			".item_ttl", ".ly-mod-infoset-ttl", ".goods-hd-name",
			".product-name", "h3", "h2",
		},
		datePattern:  regexp.MustCompile(`(\d{4}年)?\d{1,2}月\d{1,2}日`),
		pricePattern: regexp.MustCompile(`([0-9][0-9,]*)\s*円`),
	}
}

// ParseListing extracts one RawProduct per product card. Cards without
// a resolvable link are skipped; every other field is best-effort.
func (p *KonbiniParser) ParseListing(html, baseURL string) ([]models.RawProduct, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	var cards *goquery.Selection
	for _, selector := range p.cardSelectors {
		if sel := doc.Find(selector); sel.Length() > 0 {
			cards = sel
			break
		}
	}

	if cards == nil {
		return nil, nil
	}

	var products []models.RawProduct
	cards.Each(func(_ int, card *goquery.Selection) {
		product := p.parseCard(card, baseURL)
		if product.SourceURL == "" && product.OriginalName == "" {
			return
		}
		products = append(products, product)
	})

	return products, nil
}

func (p *KonbiniParser) parseCard(card *goquery.Selection, baseURL string) models.RawProduct {
	product := models.RawProduct{
		Price: models.Price{Currency: "JPY"},
	}

	for _, selector := range p.nameSelectors {
		if name := strings.TrimSpace(card.Find(selector).First().Text()); name != "" {
			product.OriginalName = name
			break
		}
	}

	if href, ok := card.Find("a[href]").First().Attr("href"); ok {
		product.SourceURL = resolveURL(baseURL, href)
	}

	card.Find("img").Each(func(_ int, img *goquery.Selection) {
		src, ok := img.Attr("data-original")
		if !ok {
			src, ok = img.Attr("src")
		}
		if !ok {
			return
		}
		if normalized, valid := normalizeImageURL(resolveURL(baseURL, src)); valid {
			product.ImageURLs = append(product.ImageURLs, normalized)
		}
	})

	text := card.Text()
	product.Price.Amount = p.extractPriceYen(text)
	product.IsNew = strings.Contains(text, "新発売") || strings.Contains(text, "新商品") ||
		card.Find(".new, .icon-new").Length() > 0
	product.ReleaseDate = p.datePattern.FindString(text)

	return product
}

func (p *KonbiniParser) extractPriceYen(text string) float64 {
	matches := p.pricePattern.FindStringSubmatch(text)
	if len(matches) < 2 {
		return 0
	}

	amount, err := strconv.ParseFloat(strings.ReplaceAll(matches[1], ",", ""), 64)
	if err != nil {
		return 0
	}

	return amount
}
