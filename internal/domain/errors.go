package domain

import (
	"errors"
	"fmt"
)

// FetchError is returned when a page could not be retrieved: network failure,
// timeout, non-2xx status or a captcha wall.
type FetchError struct {
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s: HTTP %d: %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when an expected structural element is absent from a page.
type ParseError struct {
	URL     string
	Element string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: element %q not found", e.URL, e.Element)
}

// ArgumentError is returned when a required command line argument is missing.
type ArgumentError struct {
	Name string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("missing required argument: %s", e.Name)
}

// IsBranchError reports whether err only invalidates one branch of a crawl
// (a fetch or parse failure) rather than the whole run.
func IsBranchError(err error) bool {
	var fetchErr *FetchError
	var parseErr *ParseError
	return errors.As(err, &fetchErr) || errors.As(err, &parseErr)
}
