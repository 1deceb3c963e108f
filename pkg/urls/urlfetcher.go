package urls

// URL represents a discovered product URL entry (sitemap, URL file or search)
type URL struct {
	Location string // URL of the product page
	Title    string // Title of the page (optional)
}

// URLsFetcher defines the interface for URL sources (sitemap, URL file, etc.)
type URLsFetcher interface {
	Fetch(source string) ([]URL, error)
}

// Locations returns the Location of every entry, in order
func Locations(entries []URL) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Location)
	}
	return out
}
