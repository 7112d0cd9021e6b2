package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// SuffixBody marks the full-size product.
	SuffixBody = "本体"
	// SuffixRefill marks the refill pack.
	SuffixRefill = "詰替"
)

// Longest variants first so that "詰め替え用" wins over "詰め替え".
var suffixVariants = []struct {
	variant   string
	canonical string
}{
	{"詰め替え用", SuffixRefill},
	{"つめかえ用", SuffixRefill},
	{"ツメカエ用", SuffixRefill},
	{"詰め替え", SuffixRefill},
	{"詰替え用", SuffixRefill},
	{"詰替え", SuffixRefill},
	{"つめかえ", SuffixRefill},
	{"ツメカエ", SuffixRefill},
	{"詰替用", SuffixRefill},
	{"refill", SuffixRefill},
	{"詰替", SuffixRefill},
	{"ほんたい", SuffixBody},
	{"ホンタイ", SuffixBody},
	{"body", SuffixBody},
	{"本体", SuffixBody},
}

// CanonicalName collapses spelling variants of the refill/body suffix.
// "シャンプー つめかえ用" becomes "シャンプー詰替".
func CanonicalName(name string) string {
	name = strings.TrimSpace(name)
	lower := strings.ToLower(name)
	for _, s := range suffixVariants {
		if !strings.HasSuffix(lower, s.variant) {
			continue
		}
		base := name[:len(name)-len(s.variant)]
		if !utf8.ValidString(base) || insideWord(base, s.variant) {
			continue
		}
		base = strings.TrimSpace(base)
		if base == "" {
			return name
		}
		return base + s.canonical
	}
	return name
}

// insideWord reports whether an ASCII variant is glued to a preceding ASCII
// letter, as "body" in "Nobody".
func insideWord(base, variant string) bool {
	if variant[0] >= utf8.RuneSelf {
		return false
	}
	r, _ := utf8.DecodeLastRuneInString(base)
	return r < utf8.RuneSelf && unicode.IsLetter(r)
}

// HasVariantSuffix reports whether name already ends with a canonical suffix.
func HasVariantSuffix(name string) bool {
	return strings.HasSuffix(name, SuffixBody) || strings.HasSuffix(name, SuffixRefill)
}

// Siblings returns the body and refill names that would conflict with an unsuffixed name.
func Siblings(name string) []string {
	return []string{name + SuffixBody, name + SuffixRefill}
}
