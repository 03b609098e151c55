package dedup

import (
	"github.com/snackwatch/konbini-crawler/internal/models"
)

// Fingerprint derives the identity key used to detect duplicates within
// one batch. The source-language name is the primary signal because it
// is stable across re-translation runs; the translated name is only a
// fallback. Missing fields coerce to the empty string, so the function
// is total.
func Fingerprint(p models.RawProduct) string {
	nameKey := p.OriginalName
	if nameKey == "" {
		nameKey = p.TranslatedName
	}
	return nameKey + "-" + p.SourceURL
}
