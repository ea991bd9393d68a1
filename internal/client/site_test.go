package client

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"bestsellers/scraper/internal/config"
	"bestsellers/scraper/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const categoryPage = `<html><body>
<ul id="zg_browseRoot">
  <li><a href="/zgbs/books/ref=zg_bs_unv_b_1">Any Department</a></li>
  <ul>
    <li><span class="zg_selected">Books</span></li>
    <li class="zg_browseUp"><a href="/zgbs/ref=up">Up</a></li>
    <li><a href="/zgbs/books/fiction/ref=zg_bs_nav_b_2_1">Fiction</a></li>
    <li><a href="http://other.test/zgbs/books/history/ref=zg_bs_nav_b_2_2">History</a></li>
    <li>No link here</li>
  </ul>
</ul>
<ol class="zg_pagination">
  <li><a href="/zgbs/books/ref=zg_bs_pg_1?pg=1" ajaxUrl="/ajax/1">1-20</a></li>
  <li><a href="/zgbs/books/ref=zg_bs_pg_2?pg=2" ajaxUrl="/ajax/2">21-40</a></li>
  <li><a href="/zgbs/books/ref=zg_bs_pg_3?pg=3">not ajax</a></li>
</ol>
</body></html>`

func itemsPage(ids ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, id := range ids {
		fmt.Fprintf(&b, `<div class="zg_title"><a href="/Some-Title/dp/%s/ref=zg_bs_1">Title %s</a></div>`, id, id)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func newTestServer(t *testing.T, pages map[string]string) (*httptest.Server, *atomic.Int32) {
	t.Helper()

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		key := r.URL.Path
		if r.URL.RawQuery != "" {
			key += "?" + r.URL.RawQuery
		}
		page, ok := pages[key]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	return server, &hits
}

func newTestClient(t *testing.T, opts ListingOptions) SiteClient {
	t.Helper()

	c := NewSiteClient(config.SiteConfig{
		Timeout:         5,
		MaxRetries:      0,
		UserAgent:       "test-agent",
		CooldownMinutes: 30,
	}, opts, nil)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGetSubcategoryLinks(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{"/zgbs/books": categoryPage})

	links, err := newTestClient(t, ListingOptions{}).GetSubcategoryLinks(context.Background(), server.URL+"/zgbs/books")
	require.NoError(t, err)

	assert.Equal(t, []string{
		server.URL + "/zgbs/books/ref=zg_bs_unv_b_1",
		server.URL + "/zgbs/books/fiction/ref=zg_bs_nav_b_2_1",
		"http://other.test/zgbs/books/history/ref=zg_bs_nav_b_2_2",
	}, links)
}

func TestGetSubcategoryLinksMissingMenu(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{"/zgbs/empty": "<html><body><p>nothing</p></body></html>"})

	_, err := newTestClient(t, ListingOptions{}).GetSubcategoryLinks(context.Background(), server.URL+"/zgbs/empty")

	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "ul#zg_browseRoot", parseErr.Element)
}

func TestGetTopListingFollowsPagination(t *testing.T) {
	server, hits := newTestServer(t, map[string]string{
		"/zgbs/books":                     categoryPage,
		"/zgbs/books/ref=zg_bs_pg_1?pg=1": itemsPage("0000000001", "0000000002"),
		"/zgbs/books/ref=zg_bs_pg_2?pg=2": itemsPage("0000000003", "0000000001"),
	})

	ids, err := newTestClient(t, ListingOptions{}).GetTopListing(context.Background(), server.URL+"/zgbs/books")
	require.NoError(t, err)

	assert.Equal(t, []string{"0000000001", "0000000002", "0000000003", "0000000001"}, ids)
	assert.Equal(t, int32(3), hits.Load())
}

func TestGetTopListingWithoutPagination(t *testing.T) {
	server, hits := newTestServer(t, map[string]string{
		"/zgbs/small": itemsPage("1111111111", "2222222222"),
	})

	ids, err := newTestClient(t, ListingOptions{}).GetTopListing(context.Background(), server.URL+"/zgbs/small")
	require.NoError(t, err)

	assert.NotNil(t, ids)
	assert.Empty(t, ids)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetTopListingReadUnpaginated(t *testing.T) {
	server, hits := newTestServer(t, map[string]string{
		"/zgbs/small": itemsPage("1111111111", "2222222222"),
	})

	ids, err := newTestClient(t, ListingOptions{ReadUnpaginated: true}).GetTopListing(context.Background(), server.URL+"/zgbs/small")
	require.NoError(t, err)

	assert.Equal(t, []string{"1111111111", "2222222222"}, ids)
	assert.Equal(t, int32(1), hits.Load())
}

func TestGetTopListingPageFailure(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{
		"/zgbs/books":                     categoryPage,
		"/zgbs/books/ref=zg_bs_pg_1?pg=1": itemsPage("0000000001"),
	})

	_, err := newTestClient(t, ListingOptions{}).GetTopListing(context.Background(), server.URL+"/zgbs/books")

	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, http.StatusNotFound, fetchErr.StatusCode)
	assert.True(t, domain.IsBranchError(err))
}

const brokenItemsPage = `<html><body>
<div class="zg_title"><a href="/A/dp/1111111111/ref=x">A</a></div>
<div class="zg_title"><span>no link</span></div>
<div class="zg_title"><a href="/B/dp/2222222222/ref=x">B</a></div>
</body></html>`

func TestItemPolicies(t *testing.T) {
	server, _ := newTestServer(t, map[string]string{"/page": brokenItemsPage})

	ids, err := newTestClient(t, ListingOptions{}).GetPageIdentifiers(context.Background(), server.URL+"/page")
	require.NoError(t, err)
	assert.Equal(t, []string{"1111111111", "2222222222"}, ids)

	_, err = newTestClient(t, ListingOptions{StrictItems: true}).GetPageIdentifiers(context.Background(), server.URL+"/page")
	var parseErr *domain.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Contains(t, parseErr.Element, "div.zg_title")
}

func TestParseIdentifiersIsIdempotent(t *testing.T) {
	parser := newListingParser(false)
	doc, err := parser.parseDocument(itemsPage("3", "1", "2"), "http://shop.test/page")
	require.NoError(t, err)

	first, err := parser.ParseIdentifiers(doc, "http://shop.test/page")
	require.NoError(t, err)
	second, err := parser.ParseIdentifiers(doc, "http://shop.test/page")
	require.NoError(t, err)

	assert.Equal(t, []string{"3", "1", "2"}, first)
	assert.Equal(t, first, second)
}

func TestCaptchaOpensCircuitBreaker(t *testing.T) {
	server, hits := newTestServer(t, map[string]string{
		"/zgbs/books": `<html><form action="/errors/validateCaptcha"></form></html>`,
	})

	c := newTestClient(t, ListingOptions{})
	_, err := c.GetSubcategoryLinks(context.Background(), server.URL+"/zgbs/books")
	var fetchErr *domain.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.ErrorIs(t, err, errCaptcha)

	_, err = c.GetSubcategoryLinks(context.Background(), server.URL+"/zgbs/books")
	require.ErrorAs(t, err, &fetchErr)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(1), hits.Load())
}
