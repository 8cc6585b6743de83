package wizard

// Verticals lists the selectable company verticals in display order.
var Verticals = []string{
	"Advertising, Media & Entertainment",
	"Financial Services",
	"Health Services",
	"Manufacturing",
	"Retail",
	"Custom",
}

// SubVerticals maps verticals to their sub-vertical options. A vertical with
// options requires one to be chosen.
var SubVerticals = map[string][]string{
	"Health Services":    {"Cost of Care", "Population Health", "Clinical Trials", "Genomics"},
	"Financial Services": {"Investment Portfolio Analytics", "Assets Management Advisor", "Claims Processor"},
	"Manufacturing":      {"Supply Chain Assistant", "Predictive Maintenance"},
}

// KnownVertical reports whether v is a selectable vertical.
func KnownVertical(v string) bool {
	for _, known := range Verticals {
		if known == v {
			return true
		}
	}
	return false
}

// KnownSubVertical reports whether sub is an option under vertical.
func KnownSubVertical(vertical, sub string) bool {
	for _, known := range SubVerticals[vertical] {
		if known == sub {
			return true
		}
	}
	return false
}
