package crawl

import "strings"

// CompanyOther is the operator assigned when no keyword matches.
const CompanyOther = "その他"

// companyKeywords maps line name substrings to operating companies.
// Checked in order; specific operators come before the broad JR match.
var companyKeywords = []struct {
	keyword string
	company string
}{
	{"東京メトロ", "東京メトロ"},
	{"都営", "都営地下鉄"},
	{"小田急", "小田急電鉄"},
	{"京急", "京浜急行電鉄"},
	{"JR", "JR東日本"},
}

// CompanyForLine infers the operating company from a line name. Returns
// CompanyOther when the line matches no known keyword; callers should then
// prefer the company name scraped from the station's own page, when any.
func CompanyForLine(line string) string {
	for _, k := range companyKeywords {
		if strings.Contains(line, k.keyword) {
			return k.company
		}
	}
	return CompanyOther
}
