// Package scrapely learns how to extract named fields from HTML pages.
//
// Training takes an example page plus literal field values, locates each value
// in the page's token sequence and records it as an annotation. The annotated
// page is a Template. Extraction aligns one or more templates against a new,
// structurally similar page and reads the field values out of the regions
// that line up with the annotations.
//
// This package contains domain types, interfaces and the pure domain logic
// shared by all implementations. Implementations live in subdirectories named
// after their primary dependency (e.g., html/, levenshtein/, sqlite/) or
// after the concern they own (align/, crawl/, scrape/).
package scrapely
