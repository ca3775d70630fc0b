package parser

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func docFromHTML(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func productPageHTML(name string, categories []string, priceFragment string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	if name != "" {
		fmt.Fprintf(&b, `<span id="productTitle"> %s </span>`, name)
	}
	if len(categories) > 0 {
		b.WriteString(`<div id="wayfinding-breadcrumbs_feature_div"><ul>`)
		for _, c := range categories {
			fmt.Fprintf(&b, `<li><span class="a-list-item">%s</span></li>`, c)
			b.WriteString(`<li class="a-breadcrumb-divider">›</li>`)
		}
		b.WriteString("</ul></div>")
	}
	b.WriteString(priceFragment)
	b.WriteString("</body></html>")
	return b.String()
}

func TestExtractName(t *testing.T) {
	doc := docFromHTML(t, productPageHTML("Macchina per Caffè Espresso", nil, ""))

	name, ok := ExtractName(doc)
	assert.True(t, ok)
	assert.Equal(t, "Macchina per Caffè Espresso", name)
}

func TestExtractNameMissing(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no title element", `<html><body><div>something else</div></body></html>`},
		{"blank title", `<html><body><span id="productTitle">   </span></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := ExtractName(docFromHTML(t, tt.html))
			assert.False(t, ok)
		})
	}
}

func TestExtractCategories(t *testing.T) {
	want := []string{"Casa e cucina", "Tè e caffè", "Macchine da caffè"}
	doc := docFromHTML(t, productPageHTML("Test", want, ""))

	assert.Equal(t, want, ExtractCategories(doc))
}

func TestExtractCategoriesSkipsDividers(t *testing.T) {
	html := `<html><body><div id="wayfinding-breadcrumbs_feature_div"><ul>
		<li>Informatica</li>
		<li class="divider">›</li>
		<li>Portatili</li>
		<li class="divider">›</li>
	</ul></div></body></html>`

	got := ExtractCategories(docFromHTML(t, html))
	assert.Equal(t, []string{"Informatica", "Portatili"}, got)
}

func TestExtractCategoriesEmpty(t *testing.T) {
	tests := []struct {
		name string
		html string
	}{
		{"no breadcrumb container", `<html><body></body></html>`},
		{"empty container", `<html><body><div id="wayfinding-breadcrumbs_feature_div"><ul></ul></div></body></html>`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Empty(t, ExtractCategories(docFromHTML(t, tt.html)))
		})
	}
}

func TestExtractPrice(t *testing.T) {
	tests := []struct {
		name     string
		fragment string
		want     string
		found    bool
	}{
		{
			name:     "single price fragment",
			fragment: `<span id="price">183,29 €</span>`,
			want:     "183,29 €",
			found:    true,
		},
		{
			name:     "label and tax boilerplate stripped",
			fragment: `<span id="price">Prezzo: 183,29 € Tutti i prezzi includono l'IVA</span>`,
			want:     "183,29 €",
			found:    true,
		},
		{
			name:     "buybox used when single price absent",
			fragment: `<span id="price_inside_buybox">18,99 €</span>`,
			want:     "18,99 €",
			found:    true,
		},
		{
			name: "single price outranks lower priority fragments",
			fragment: `<span id="priceblock_ourprice">99,00 €</span>` +
				`<span id="price">18,99 €</span>`,
			want:  "18,99 €",
			found: true,
		},
		{
			name: "buying options marker rejects candidate, next one wins",
			fragment: `<span id="price">Vedi tutte le opzioni di acquisto</span>` +
				`<span id="priceblock_saleprice">12,50 €</span>`,
			want:  "12,50 €",
			found: true,
		},
		{
			name:     "only marker fragment present",
			fragment: `<span data-action="show-all-offers-display"><span class="a-color-price">Vedi tutte le opzioni di acquisto</span></span>`,
			found:    false,
		},
		{
			name:     "no price fragment at all",
			fragment: ``,
			found:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc := docFromHTML(t, productPageHTML("Test", nil, tt.fragment))

			got, found := ExtractPrice(doc)
			assert.Equal(t, tt.found, found)
			if tt.found {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestExtractImages(t *testing.T) {
	html := `<html><body><div id="altImages"><ul>
		<li><span><img src="https://img.example/1._AC_US40_.jpg"></span></li>
		<li><span>no image here</span></li>
		<li><span><img src="https://img.example/2._AC_US40_.jpg"></span></li>
	</ul></div></body></html>`

	got := ExtractImages(docFromHTML(t, html))
	assert.Equal(t, []string{
		"https://img.example/1._AC_US40_.jpg",
		"https://img.example/2._AC_US40_.jpg",
	}, got)
}

func TestExtractImagesEmpty(t *testing.T) {
	assert.Empty(t, ExtractImages(docFromHTML(t, `<html><body></body></html>`)))
}
