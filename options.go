package scrapely

// Options holds the scoring weights and thresholds shared by the locator and
// the extractor. The zero value is not usable; start from DefaultOptions.
type Options struct {
	// MinSimilarity is the lowest locator score, 0..1, accepted as a match
	// for a training value.
	MinSimilarity float64

	// CaseFold makes the locator compare text case-insensitively.
	CaseFold bool

	// AnchorWindow is the number of fixed template tokens kept on each side
	// of a slot.
	AnchorWindow int

	// AttrWeight is the share of a tag match score that depends on attribute
	// similarity. The rest is earned by matching the tag name alone.
	AttrWeight float64

	// MinAnchorSimilarity is the lowest attribute similarity accepted for the
	// anchors immediately bounding a slot.
	MinAnchorSimilarity float64

	// TextMismatchScore is credited when fixed text tokens align but differ.
	TextMismatchScore float64

	// GapPenalty is charged for every target token skipped between two
	// aligned template tokens.
	GapPenalty float64

	// DropPenalty is charged for every template token left unmatched.
	DropPenalty float64

	// QualityWeight scales the anchor match proportion in a template's score.
	QualityWeight float64

	// MaxSlotTokens caps the number of target tokens a single slot may fill.
	MaxSlotTokens int

	// MaxAlignmentCells caps the alignment work per template. Templates that
	// would exceed it are rejected.
	MaxAlignmentCells int

	// DetectRepeats enables repeated-item detection.
	DetectRepeats bool

	// MinRepeatAnchors is the fewest fixed tokens an item pattern needs to be
	// matched against siblings.
	MinRepeatAnchors int

	// RepeatMinQuality is the lowest anchor match proportion a sibling needs
	// to count as another item.
	RepeatMinQuality float64

	// Parallelism bounds how many templates are evaluated at once.
	Parallelism int
}

// DefaultOptions returns the default policy.
func DefaultOptions() Options {
	return Options{
		MinSimilarity:       0.8,
		AnchorWindow:        3,
		AttrWeight:          0.5,
		MinAnchorSimilarity: 0.25,
		TextMismatchScore:   0.25,
		GapPenalty:          0.1,
		DropPenalty:         0.6,
		QualityWeight:       1.0,
		MaxSlotTokens:       1000,
		MaxAlignmentCells:   2_000_000,
		DetectRepeats:       true,
		MinRepeatAnchors:    3,
		RepeatMinQuality:    0.8,
		Parallelism:         4,
	}
}

// Validate returns an error if any option is out of range.
func (o *Options) Validate() error {
	switch {
	case o.MinSimilarity <= 0 || o.MinSimilarity > 1:
		return Errorf(EINVALID, "min similarity must be in (0, 1]")
	case o.AnchorWindow < 1:
		return Errorf(EINVALID, "anchor window must be at least 1")
	case o.AttrWeight < 0 || o.AttrWeight > 1:
		return Errorf(EINVALID, "attribute weight must be in [0, 1]")
	case o.MinAnchorSimilarity < 0 || o.MinAnchorSimilarity > 1:
		return Errorf(EINVALID, "min anchor similarity must be in [0, 1]")
	case o.TextMismatchScore < 0 || o.TextMismatchScore > 1:
		return Errorf(EINVALID, "text mismatch score must be in [0, 1]")
	case o.GapPenalty < 0 || o.DropPenalty < 0:
		return Errorf(EINVALID, "penalties must not be negative")
	case o.QualityWeight < 0:
		return Errorf(EINVALID, "quality weight must not be negative")
	case o.MaxSlotTokens < 1:
		return Errorf(EINVALID, "max slot tokens must be at least 1")
	case o.MaxAlignmentCells < 1:
		return Errorf(EINVALID, "max alignment cells must be at least 1")
	case o.MinRepeatAnchors < 1:
		return Errorf(EINVALID, "min repeat anchors must be at least 1")
	case o.RepeatMinQuality < 0 || o.RepeatMinQuality > 1:
		return Errorf(EINVALID, "repeat min quality must be in [0, 1]")
	case o.Parallelism < 1:
		return Errorf(EINVALID, "parallelism must be at least 1")
	}
	return nil
}
