package bridge

import (
	"errors"
	"net/url"
	"strings"
)

const productSearchPath = "/m/products/scan"

// codePlaceholder is replaced with the scan result in return templates.
const codePlaceholder = "{CODE}"

// ErrNoReturnTemplate reports a scan URL without a ret parameter.
var ErrNoReturnTemplate = errors.New("scan url carries no ret template")

// IsProductSearchURL recognizes the product-search launch style.
func IsProductSearchURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return strings.Contains(u.Path, productSearchPath)
}

// BuildReturnURL resolves the bare-scan launch style: the ret query parameter
// is a URL template whose {CODE} placeholder receives the scanned text,
// URL-encoded unless the raw parameter is present.
func BuildReturnURL(scanURL, code string) (string, error) {
	u, err := url.Parse(scanURL)
	if err != nil {
		return "", err
	}
	q := u.Query()
	tmpl := q.Get("ret")
	if tmpl == "" {
		return "", ErrNoReturnTemplate
	}
	sub := code
	if !q.Has("raw") {
		sub = url.QueryEscape(code)
	}
	return strings.ReplaceAll(tmpl, codePlaceholder, sub), nil
}
