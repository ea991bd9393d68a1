package client

import (
	"net/url"
	"strings"

	"bestsellers/scraper/internal/domain"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
)

const (
	browseMenuSelector = "ul#zg_browseRoot"
	paginationSelector = "a[href][ajaxurl]"
	titleBlockSelector = "div.zg_title"
)

type listingParser struct {
	strictItems bool
}

func newListingParser(strictItems bool) *listingParser {
	return &listingParser{
		strictItems: strictItems,
	}
}

func (p *listingParser) parseDocument(html, pageURL string) (*goquery.Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		log.Errorf("❌ Failed to parse HTML of %s: %v", pageURL, err)
		return nil, &domain.ParseError{URL: pageURL, Element: "html"}
	}
	return doc, nil
}

// ParseSubcategoryLinks returns the links of the browse menu entries. Entries
// carrying a class (the selected category) or no link are skipped.
func (p *listingParser) ParseSubcategoryLinks(doc *goquery.Document, pageURL string) ([]string, error) {
	menu := doc.Find(browseMenuSelector).First()
	if menu.Length() == 0 {
		return nil, &domain.ParseError{URL: pageURL, Element: browseMenuSelector}
	}

	links := make([]string, 0)
	menu.Find("li").Each(func(i int, li *goquery.Selection) {
		if class, _ := li.Attr("class"); strings.TrimSpace(class) != "" {
			return
		}

		href, exists := li.Find("a[href]").First().Attr("href")
		if !exists {
			return
		}

		link, err := resolveLink(pageURL, href)
		if err != nil {
			log.Debugf("Skipping unparsable menu link %q on %s: %v", href, pageURL, err)
			return
		}
		links = append(links, link)
	})

	log.Debugf("Found %d subcategory links on %s", len(links), pageURL)
	return links, nil
}

// ParsePaginationLinks returns the ajax-loadable links to the pages of a top-N listing.
func (p *listingParser) ParsePaginationLinks(doc *goquery.Document, pageURL string) []string {
	links := make([]string, 0)
	doc.Find(paginationSelector).Each(func(i int, a *goquery.Selection) {
		href, _ := a.Attr("href")
		link, err := resolveLink(pageURL, href)
		if err != nil {
			log.Debugf("Skipping unparsable pagination link %q on %s: %v", href, pageURL, err)
			return
		}
		links = append(links, link)
	})
	return links
}

// ParseIdentifiers returns the identifiers of every item title block, in page order.
func (p *listingParser) ParseIdentifiers(doc *goquery.Document, pageURL string) ([]string, error) {
	var parseErr error
	ids := make([]string, 0)

	doc.Find(titleBlockSelector).EachWithBreak(func(i int, block *goquery.Selection) bool {
		href, exists := block.Find("a[href]").First().Attr("href")
		if !exists {
			if p.strictItems {
				parseErr = &domain.ParseError{URL: pageURL, Element: titleBlockSelector + " a[href]"}
				return false
			}
			log.Warnf("⚠️ Item %d on %s has no detail link, skipping", i+1, pageURL)
			return true
		}

		id, err := domain.ExtractIdentifier(href)
		if err != nil {
			if p.strictItems {
				log.Errorf("❌ Item %d on %s: %v", i+1, pageURL, err)
				parseErr = &domain.ParseError{URL: pageURL, Element: titleBlockSelector + " a[href] identifier"}
				return false
			}
			log.Warnf("⚠️ Item %d on %s: %v, skipping", i+1, pageURL, err)
			return true
		}

		ids = append(ids, id)
		return true
	})

	if parseErr != nil {
		return nil, parseErr
	}

	log.Debugf("Extracted %d identifiers from %s", len(ids), pageURL)
	return ids, nil
}

func resolveLink(pageURL, href string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", err
	}
	ref, err := url.Parse(strings.TrimSpace(href))
	if err != nil {
		return "", err
	}
	return base.ResolveReference(ref).String(), nil
}
