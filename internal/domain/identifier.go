package domain

import (
	"fmt"
	"net/url"
	"strings"
)

// refMarker starts the tracking suffix appended to every category link.
const refMarker = "/ref"

// CanonicalURL strips the tracking suffix (everything from the first "/ref")
// and surrounding whitespace from a category URL.
func CanonicalURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, refMarker); i >= 0 {
		raw = raw[:i]
	}
	return raw
}

// ExtractIdentifier returns the catalog identifier encoded in an item detail
// link: the second-to-last component of its path.
//
//	/Some-Title/dp/0385537859/ref=zg_bs_1 -> 0385537859
func ExtractIdentifier(link string) (string, error) {
	u, err := url.Parse(strings.TrimSpace(link))
	if err != nil {
		return "", fmt.Errorf("failed to parse item link %q: %w", link, err)
	}

	segments := strings.Split(u.Path, "/")
	if len(segments) < 2 {
		return "", fmt.Errorf("item link %q has too few path components", link)
	}

	id := strings.TrimSpace(segments[len(segments)-2])
	if id == "" {
		return "", fmt.Errorf("item link %q has an empty identifier component", link)
	}

	return id, nil
}
