package textnorm

// Vocabularies are built once at init and never mutated, so they are shared
// across goroutines without locking.
var (
	// AddressNoiseASCII is city/country boilerplate removed from address tokens.
	AddressNoiseASCII = NewSet(
		"thanh", "pho", "viet", "nam", "vietnam", "tp", "tphcm", "hcm",
		"ho", "chi", "minh", "city",
	)
	// AddressNoiseVI is the diacritics form of AddressNoiseASCII.
	AddressNoiseVI = NewSet(
		"thành", "phố", "việt", "nam", "tp", "tphcm", "hcm",
		"hồ", "chí", "minh", "city",
	)

	// QueryFillerASCII holds generic request words that carry no content.
	QueryFillerASCII = NewSet(
		"quan", "gia", "ngon", "tim", "gan", "o", "cho", "toi", "muon",
		"nha", "hang", "an", "di", "nao", "co", "khong", "mot", "vai",
		"goi", "giup", "minh", "ban", "nhe", "voi", "can", "day", "dau",
		"nhung", "cac", "la", "thi", "de", "em", "anh", "chi", "oi",
	)
	// QueryFillerVI is the diacritics form of QueryFillerASCII.
	QueryFillerVI = NewSet(
		"quán", "giá", "ngon", "tìm", "gần", "ở", "cho", "tôi", "muốn",
		"nhà", "hàng", "ăn", "đi", "nào", "có", "không", "một", "vài",
		"gợi", "ý", "giúp", "mình", "bạn", "nhé", "với", "cần", "đây", "đâu",
		"những", "các", "là", "thì", "để", "em", "anh", "chị", "ơi",
	)

	// FoodKeywords is the closed vocabulary of dish and cuisine roots that
	// enables the coarse candidate filter.
	FoodKeywords = NewSet(
		"pho", "bun", "banh", "mi", "com", "tam", "lau", "nuong",
		"chay", "cafe", "tra", "pizza", "sushi",
	)
)

// NewSet builds a set from tokens.
func NewSet(tokens ...string) Set {
	s := make(Set, len(tokens))
	for _, tok := range tokens {
		s[tok] = struct{}{}
	}
	return s
}

// StripFiller removes filler tokens from query, falling back to the
// unfiltered set when nothing would remain.
func StripFiller(query, filler Set) Set {
	filtered := query.Without(filler)
	if len(filtered) == 0 {
		return query
	}
	return filtered
}

// FoodTokens returns the food keywords present in tokens.
func FoodTokens(tokens Set) Set {
	return tokens.Intersect(FoodKeywords)
}
