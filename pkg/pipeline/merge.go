package pipeline

import "product-search/pkg/domain"

// MergeMissing copies fields from src into dst only where dst has nothing.
// A value already present in dst is never overwritten, so enrichment from a
// lower-confidence pass cannot degrade a record. It reports whether dst
// changed.
func MergeMissing(dst, src *domain.ProductRecord) bool {
	if src == nil {
		return false
	}
	changed := false

	if (dst.Name == "" || dst.Name == domain.UnknownName) && src.Name != "" && src.Name != domain.UnknownName {
		dst.Name = src.Name
		changed = true
	}
	if dst.Description == "" && src.Description != "" {
		dst.Description = src.Description
		changed = true
	}
	if dst.NeedsPrice() && !src.NeedsPrice() {
		dst.SetPrice(src.CurrentPrice())
		changed = true
	}
	if dst.NeedsImage() {
		for _, img := range src.Images {
			if dst.AddImage(img) {
				changed = true
			}
		}
	}
	if len(dst.Reviews) == 0 {
		for _, r := range src.Reviews {
			if dst.AddReview(r) {
				changed = true
			}
		}
	}
	return changed
}
