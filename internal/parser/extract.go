package parser

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	titleSelector      = "#productTitle"
	breadcrumbSelector = "#wayfinding-breadcrumbs_feature_div ul li"
	imageStripSelector = "#altImages > ul > li"
)

// priceStrategy is one candidate location for the displayed price, tried in
// order. A candidate present in the document is still rejected when its
// text matches a reject marker, which indicates the page shows multiple
// buying options instead of one concrete price.
type priceStrategy struct {
	name     string
	selector string
}

var priceStrategies = []priceStrategy{
	{"single", "#price"},
	{"buybox", "#price_inside_buybox"},
	{"offer", "#priceblock_ourprice"},
	{"sale", "#priceblock_saleprice"},
	{"multi_offer", "span[data-action=show-all-offers-display] .a-color-price"},
}

// rejectMarkers are matched case-insensitively against candidate text.
var rejectMarkers = []string{
	"opzioni di acquisto",
	"buying options",
}

var priceLabels = []string{"Prezzo:", "Price:"}

var priceSuffixes = []string{
	"Tutti i prezzi includono l'IVA",
	"All prices include VAT",
}

// ExtractName returns the product title, trimmed. The second return is
// false when the title field is absent or blank.
func ExtractName(doc *goquery.Document) (string, bool) {
	name := strings.TrimSpace(doc.Find(titleSelector).First().Text())
	if name == "" {
		return "", false
	}
	return name, true
}

// ExtractCategories returns the breadcrumb items in document order, root
// first. Divider items (those carrying a class attribute in the breadcrumb
// markup) are skipped, as are blank entries. An absent or empty breadcrumb
// yields an empty slice.
func ExtractCategories(doc *goquery.Document) []string {
	var categories []string
	doc.Find(breadcrumbSelector).Each(func(_ int, s *goquery.Selection) {
		if _, isDivider := s.Attr("class"); isDivider {
			return
		}
		if text := strings.TrimSpace(s.Text()); text != "" {
			categories = append(categories, text)
		}
	})
	return categories
}

// ExtractPrice tries the price fragments in priority order and returns the
// text of the first accepted candidate, with label and tax boilerplate
// stripped. The second return is false when no candidate is accepted.
func ExtractPrice(doc *goquery.Document) (string, bool) {
	for _, strategy := range priceStrategies {
		text := strings.TrimSpace(doc.Find(strategy.selector).First().Text())
		if text == "" {
			continue
		}
		if containsMarker(text) {
			continue
		}
		return stripPriceBoilerplate(text), true
	}
	return "", false
}

// ExtractImages returns the source URLs of the thumbnail-strip images.
// Strip items without a nested image are skipped.
func ExtractImages(doc *goquery.Document) []string {
	var urls []string
	doc.Find(imageStripSelector).Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Find("img").First().Attr("src"); ok && src != "" {
			urls = append(urls, src)
		}
	})
	return urls
}

func containsMarker(text string) bool {
	lower := strings.ToLower(text)
	for _, marker := range rejectMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}

func stripPriceBoilerplate(text string) string {
	for _, label := range priceLabels {
		text = strings.TrimPrefix(text, label)
	}
	text = strings.TrimSpace(text)
	for _, suffix := range priceSuffixes {
		text = strings.TrimSuffix(text, suffix)
	}
	return strings.TrimSpace(text)
}
