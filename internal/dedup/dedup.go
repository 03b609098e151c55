package dedup

import (
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// Dedupe collapses a batch to one record per fingerprint. The first
// occurrence in input order wins; later records with an equal
// fingerprint are dropped even when their other fields differ, because
// re-scraped duplicates commonly carry transient differences such as
// reshuffled image lists. Survivors keep their relative input order.
// The input slice is not mutated.
func Dedupe(products []models.RawProduct) []models.RawProduct {
	seen := make(map[string]struct{}, len(products))
	out := make([]models.RawProduct, 0, len(products))

	for _, p := range products {
		key := Fingerprint(p)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}

	return out
}
