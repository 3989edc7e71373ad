package handlers

import (
	"northgate.capital/web/internal/nav"
	"northgate.capital/web/internal/testimonials"
)

// HomeData is the view model for the home page.
type HomeData struct {
	Headline     string
	Subheadline  string
	Stats        []Stat
	Sections     []nav.BrowseGroup
	Testimonials []testimonials.Testimonial
}

// Stat is one figure in the hero strip.
type Stat struct {
	Value string
	Label string
}

// BuildHomeData constructs the landing page from the search index's browse
// groups so the home sections always follow the navigation tree.
func BuildHomeData(ix *nav.Index) HomeData {
	quotes := testimonials.Published()
	if len(quotes) > 2 {
		quotes = quotes[:2]
	}
	return HomeData{
		Headline:    "Capital strategy for companies that build.",
		Subheadline: "Northgate Capital advises founders, sponsors and developers on raising, buying and valuing the businesses and assets that matter to them.",
		Stats: []Stat{
			{Value: "$2.4B", Label: "Transactions advised"},
			{Value: "140+", Label: "Mandates closed"},
			{Value: "14 wks", Label: "Median raise process"},
		},
		Sections:     ix.Browse(),
		Testimonials: quotes,
	}
}
