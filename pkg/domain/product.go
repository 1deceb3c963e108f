package domain

import "strings"

// MaxReviews caps the review snippets kept per product
const MaxReviews = 5

// UnknownName is stored when no title could be resolved
const UnknownName = "Unknown"

// ExtractorKind records which extraction stage produced a record
type ExtractorKind string

const (
	ExtractorStructured ExtractorKind = "structured"
	ExtractorSite       ExtractorKind = "site"
	ExtractorFallback   ExtractorKind = "fallback"
)

// Stage is the lifecycle position of a URL's record
type Stage string

const (
	StageNew         Stage = "new"
	StageFetched     Stage = "fetched"
	StageExtracted   Stage = "extracted"
	StageAugmented   Stage = "augmented"
	StageIndexed     Stage = "indexed"
	StageFetchFailed Stage = "fetch_failed"
)

// Offers holds the canonical price of a product
type Offers struct {
	Price string `json:"price,omitempty" bson:"price,omitempty"`
}

// ProductRecord is the normalized product stored on disk, one per source URL
type ProductRecord struct {
	Name        string        `json:"name" bson:"name"`
	Description string        `json:"description" bson:"description"`
	Offers      Offers        `json:"offers" bson:"offers"`
	Price       string        `json:"price,omitempty" bson:"price,omitempty"`
	Images      []string      `json:"images" bson:"images"`
	Reviews     []string      `json:"reviews" bson:"reviews"`
	SourceURL   string        `json:"source_url" bson:"source_url"`
	Extractor   ExtractorKind `json:"extractor,omitempty" bson:"extractor,omitempty"`
}

// CurrentPrice returns offers.price, falling back to the top-level copy
func (p *ProductRecord) CurrentPrice() string {
	if p.Offers.Price != "" {
		return p.Offers.Price
	}
	return p.Price
}

// SetPrice stores the price under offers and at the top level
func (p *ProductRecord) SetPrice(price string) {
	p.Offers.Price = price
	p.Price = price
}

// NeedsPrice reports whether the record carries no usable price.
// Placeholders written by older tooling ("n/a", "None") count as missing.
func (p *ProductRecord) NeedsPrice() bool {
	return IsMissingPrice(p.CurrentPrice())
}

// IsMissingPrice reports whether a stored price value is a placeholder
func IsMissingPrice(price string) bool {
	switch strings.TrimSpace(price) {
	case "", "n/a", "N/A", "None", "null":
		return true
	}
	return false
}

// NeedsImage reports whether the record has no image
func (p *ProductRecord) NeedsImage() bool {
	return len(p.Images) == 0
}

// PrimaryImage returns the first image or an empty string
func (p *ProductRecord) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

// AddImage appends an absolute image URL if it is not already present
func (p *ProductRecord) AddImage(img string) bool {
	img = strings.TrimSpace(img)
	if img == "" {
		return false
	}
	for _, existing := range p.Images {
		if existing == img {
			return false
		}
	}
	p.Images = append(p.Images, img)
	return true
}

// AddReview appends a review snippet keeping insertion order, without duplicates,
// and never beyond MaxReviews.
func (p *ProductRecord) AddReview(review string) bool {
	review = strings.TrimSpace(review)
	if review == "" || len(p.Reviews) >= MaxReviews {
		return false
	}
	for _, existing := range p.Reviews {
		if existing == review {
			return false
		}
	}
	p.Reviews = append(p.Reviews, review)
	return true
}

// IsEmpty reports whether no field was extracted at all
func (p *ProductRecord) IsEmpty() bool {
	return p.Name == "" && p.Description == "" && p.CurrentPrice() == "" &&
		len(p.Images) == 0 && len(p.Reviews) == 0 && p.SourceURL == ""
}

// Finalize applies the storage defaults: a placeholder name, non-nil slices
// and the price mirrored to both locations.
func (p *ProductRecord) Finalize() {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		p.Name = UnknownName
	}
	p.Description = strings.TrimSpace(p.Description)
	if p.Images == nil {
		p.Images = []string{}
	}
	if p.Reviews == nil {
		p.Reviews = []string{}
	}
	if price := p.CurrentPrice(); price != "" {
		p.SetPrice(price)
	}
}
