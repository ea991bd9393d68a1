package client

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"bestsellers/scraper/internal/config"
	"bestsellers/scraper/internal/domain"
	"bestsellers/scraper/internal/proxy"

	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// captchaMarker appears in the robot check page served instead of a listing.
const captchaMarker = "/errors/validateCaptcha"

var errCaptcha = errors.New("captcha page served")

type SiteClient interface {
	GetSubcategoryLinks(ctx context.Context, pageURL string) ([]string, error)
	GetTopListing(ctx context.Context, categoryURL string) ([]string, error)
	GetPageIdentifiers(ctx context.Context, pageURL string) ([]string, error)
	Close() error
}

// ListingOptions controls how listing pages are read.
type ListingOptions struct {
	StrictItems     bool // abort a page on an item entry without a usable link
	ReadUnpaginated bool // read a category page without pagination links as its own listing
}

type siteClient struct {
	rl            ratelimit.Limiter
	timeout       time.Duration
	httpClient    *resty.Client
	parser        *listingParser
	proxySupplier proxy.ProxySupplier

	readUnpaginated bool

	// Circuit breaker for captcha walls
	circuitBreakerMutex sync.RWMutex
	blockedUntil        time.Time
	circuitBreakerDelay time.Duration
}

func NewSiteClient(cfg config.SiteConfig, opts ListingOptions, proxySupplier proxy.ProxySupplier) SiteClient {
	timeout := time.Duration(cfg.Timeout) * time.Second

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8").
		SetHeader("Accept-Language", "en-US,en;q=0.5")

	if proxySupplier != nil {
		if proxyURL := proxySupplier.Get(); proxyURL != "" {
			client.SetProxy(proxyURL)
			log.Infof("🔗 Using initial proxy: %s", proxyURL)
		}
	}

	rl := ratelimit.NewUnlimited()
	if cfg.MaxRequestsPerSecond > 0 {
		rl = ratelimit.New(cfg.MaxRequestsPerSecond)
	}

	return &siteClient{
		rl:                  rl,
		timeout:             timeout,
		httpClient:          client,
		parser:              newListingParser(opts.StrictItems),
		proxySupplier:       proxySupplier,
		readUnpaginated:     opts.ReadUnpaginated,
		circuitBreakerDelay: time.Duration(cfg.CooldownMinutes) * time.Minute,
	}
}

func (c *siteClient) GetSubcategoryLinks(ctx context.Context, pageURL string) ([]string, error) {
	html, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := c.parser.parseDocument(html, pageURL)
	if err != nil {
		return nil, err
	}

	return c.parser.ParseSubcategoryLinks(doc, pageURL)
}

// GetTopListing collects the identifiers spread over the pagination pages of
// a category. A category without pagination links yields no identifiers
// unless ReadUnpaginated is set, in which case its own page is read.
func (c *siteClient) GetTopListing(ctx context.Context, categoryURL string) ([]string, error) {
	html, err := c.fetchHTML(ctx, categoryURL)
	if err != nil {
		return nil, err
	}

	doc, err := c.parser.parseDocument(html, categoryURL)
	if err != nil {
		return nil, err
	}

	pageLinks := c.parser.ParsePaginationLinks(doc, categoryURL)
	if len(pageLinks) == 0 {
		if c.readUnpaginated {
			log.Debugf("No pagination links on %s, reading the page itself", categoryURL)
			return c.parser.ParseIdentifiers(doc, categoryURL)
		}
		log.Warnf("⚠️ No pagination links on %s, no identifiers collected", categoryURL)
		return []string{}, nil
	}

	ids := make([]string, 0)
	for _, pageLink := range pageLinks {
		pageIDs, err := c.GetPageIdentifiers(ctx, pageLink)
		if err != nil {
			return nil, fmt.Errorf("failed to read listing page of %s: %w", categoryURL, err)
		}
		ids = append(ids, pageIDs...)
	}

	log.Debugf("Collected %d identifiers over %d pages of %s", len(ids), len(pageLinks), categoryURL)
	return ids, nil
}

func (c *siteClient) GetPageIdentifiers(ctx context.Context, pageURL string) ([]string, error) {
	html, err := c.fetchHTML(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	doc, err := c.parser.parseDocument(html, pageURL)
	if err != nil {
		return nil, err
	}

	return c.parser.ParseIdentifiers(doc, pageURL)
}

func (c *siteClient) Close() error {
	return c.httpClient.Close()
}

func (c *siteClient) isCircuitBreakerOpen() bool {
	c.circuitBreakerMutex.RLock()
	now := time.Now()
	wasOpen := now.Before(c.blockedUntil)
	wasTriggered := !c.blockedUntil.IsZero()
	c.circuitBreakerMutex.RUnlock()

	if !wasOpen && wasTriggered {
		c.circuitBreakerMutex.Lock()
		if !c.blockedUntil.IsZero() && now.After(c.blockedUntil) {
			c.blockedUntil = time.Time{}
			log.Infof("✅ Circuit breaker re-enabled - requests are now allowed")
		}
		c.circuitBreakerMutex.Unlock()
	}

	return wasOpen
}

func (c *siteClient) triggerCircuitBreaker() {
	c.circuitBreakerMutex.Lock()
	defer c.circuitBreakerMutex.Unlock()

	c.blockedUntil = time.Now().Add(c.circuitBreakerDelay)
	log.Warnf("🚫 Circuit breaker activated! All requests disabled until %v",
		c.blockedUntil.Format("15:04:05"))
}

func (c *siteClient) remainingCircuitBreakerTime() time.Duration {
	c.circuitBreakerMutex.RLock()
	defer c.circuitBreakerMutex.RUnlock()

	remaining := time.Until(c.blockedUntil)
	if remaining < 0 {
		return 0
	}
	return remaining
}

func (c *siteClient) fetchHTML(ctx context.Context, url string) (string, error) {
	if c.isCircuitBreakerOpen() {
		remaining := c.remainingCircuitBreakerTime()
		return "", &domain.FetchError{
			URL: url,
			Err: fmt.Errorf("circuit breaker is open - requests disabled for %v more", remaining.Round(time.Second)),
		}
	}

	c.rl.Take()

	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	html, status, err := c.get(reqCtx, url)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return "", &domain.FetchError{URL: url, StatusCode: status, Err: err}
	}

	if !strings.Contains(html, captchaMarker) {
		return html, nil
	}

	log.Warnf("🚫 Captcha page served for URL: %s", url)

	if c.proxySupplier != nil {
		if newProxy := c.proxySupplier.Get(); newProxy != "" {
			log.Infof("🔄 Switching to new proxy: %s", newProxy)
			c.httpClient.SetProxy(newProxy)

			retryHTML, _, retryErr := c.get(reqCtx, url)
			if retryErr == nil && !strings.Contains(retryHTML, captchaMarker) {
				log.Infof("✅ Retry successful with new proxy")
				return retryHTML, nil
			}
		}
	}

	c.triggerCircuitBreaker()
	return "", &domain.FetchError{URL: url, Err: errCaptcha}
}

func (c *siteClient) get(ctx context.Context, url string) (string, int, error) {
	resp, err := c.httpClient.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return "", 0, fmt.Errorf("failed to fetch URL: %w", err)
	}

	if resp.IsError() {
		return "", resp.StatusCode(), fmt.Errorf("HTTP error: %s", resp.Status())
	}

	return resp.String(), resp.StatusCode(), nil
}
