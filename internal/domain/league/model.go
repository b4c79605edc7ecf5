package league

import "strings"

// League is a competition whose fixtures can be discovered on the listing page.
type League struct {
	Code        string
	Name        string
	CountryCode string
}

var supported = []League{
	{Code: "9", Name: "Premier League", CountryCode: "ENG"},
	{Code: "12", Name: "La Liga", CountryCode: "ESP"},
	{Code: "11", Name: "Serie A", CountryCode: "ITA"},
	{Code: "20", Name: "Bundesliga", CountryCode: "GER"},
	{Code: "13", Name: "Ligue 1", CountryCode: "FRA"},
}

// Supported returns the recognised leagues in their fixed lookup order.
func Supported() []League {
	out := make([]League, len(supported))
	copy(out, supported)
	return out
}

func ByCode(code string) (League, bool) {
	code = strings.TrimSpace(code)
	for _, item := range supported {
		if item.Code == code {
			return item, true
		}
	}
	return League{}, false
}

// ByHeading matches a section heading that mentions a league name.
func ByHeading(text string) (League, bool) {
	text = strings.ToLower(strings.TrimSpace(text))
	if text == "" {
		return League{}, false
	}
	for _, item := range supported {
		if strings.Contains(text, strings.ToLower(item.Name)) {
			return item, true
		}
	}
	return League{}, false
}
