package content

import (
	"net/url"

	"product-search/pkg/domain"
)

// Extractor turns a fetched page into a (possibly partial) product record.
// A nil record with a nil error means the extractor has no opinion about the
// page and the caller should try the next stage.
type Extractor interface {
	Name() string
	Extract(htmlContent, pageURL string) (*domain.ProductRecord, error)
}

func parsePageURL(pageURL string) *url.URL {
	u, err := url.Parse(pageURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return u
}
