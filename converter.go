package scrapely

// Converter renders markup-preserving field values as Markdown.
type Converter interface {
	Convert(markup string) (string, error)
}
