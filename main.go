package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"product-search/pkg/sitemap"
)

func main() {
	sitemapURL := "https://www.nykaa.com/sitemap.xml"

	if len(os.Args) > 1 {
		sitemapURL = os.Args[1]
	}

	parser := sitemap.NewParser(nil)

	productURLs, err := parser.ProductURLs(context.Background(), sitemapURL)
	if err != nil {
		log.Fatalf("Failed to parse sitemap: %v", err)
	}

	// Print first 10 product pages
	maxEntries := 10
	if len(productURLs) < maxEntries {
		maxEntries = len(productURLs)
	}

	fmt.Printf("Found %d product pages. Showing first %d:\n\n", len(productURLs), maxEntries)

	for i := 0; i < maxEntries; i++ {
		fmt.Printf("%2d. %s\n", i+1, productURLs[i])
	}
}
