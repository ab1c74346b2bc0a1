// Package yaml loads extraction policy overrides from YAML files.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fwojciec/scrapely"
	"gopkg.in/yaml.v3"
)

// optionsFile mirrors scrapely.Options with every field optional. Unset
// fields keep their default.
type optionsFile struct {
	MinSimilarity       *float64 `yaml:"min_similarity"`
	CaseFold            *bool    `yaml:"case_fold"`
	AnchorWindow        *int     `yaml:"anchor_window"`
	AttrWeight          *float64 `yaml:"attr_weight"`
	MinAnchorSimilarity *float64 `yaml:"min_anchor_similarity"`
	TextMismatchScore   *float64 `yaml:"text_mismatch_score"`
	GapPenalty          *float64 `yaml:"gap_penalty"`
	DropPenalty         *float64 `yaml:"drop_penalty"`
	QualityWeight       *float64 `yaml:"quality_weight"`
	MaxSlotTokens       *int     `yaml:"max_slot_tokens"`
	MaxAlignmentCells   *int     `yaml:"max_alignment_cells"`
	DetectRepeats       *bool    `yaml:"detect_repeats"`
	MinRepeatAnchors    *int     `yaml:"min_repeat_anchors"`
	RepeatMinQuality    *float64 `yaml:"repeat_min_quality"`
	Parallelism         *int     `yaml:"parallelism"`
}

// LoadOptions reads the YAML file at path and applies it over
// scrapely.DefaultOptions. Returns ENOTFOUND if the file does not exist.
func LoadOptions(path string) (scrapely.Options, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return scrapely.Options{}, scrapely.Errorf(scrapely.ENOTFOUND, "config file %s not found", path)
	} else if err != nil {
		return scrapely.Options{}, fmt.Errorf("read config: %w", err)
	}
	return ParseOptions(data)
}

// ParseOptions applies YAML overrides over scrapely.DefaultOptions and
// validates the result. Unknown keys are rejected.
func ParseOptions(data []byte) (scrapely.Options, error) {
	opts := scrapely.DefaultOptions()

	var f optionsFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return scrapely.Options{}, scrapely.Errorf(scrapely.EINVALID, "parse config: %v", err)
	}

	set(&opts.MinSimilarity, f.MinSimilarity)
	set(&opts.CaseFold, f.CaseFold)
	set(&opts.AnchorWindow, f.AnchorWindow)
	set(&opts.AttrWeight, f.AttrWeight)
	set(&opts.MinAnchorSimilarity, f.MinAnchorSimilarity)
	set(&opts.TextMismatchScore, f.TextMismatchScore)
	set(&opts.GapPenalty, f.GapPenalty)
	set(&opts.DropPenalty, f.DropPenalty)
	set(&opts.QualityWeight, f.QualityWeight)
	set(&opts.MaxSlotTokens, f.MaxSlotTokens)
	set(&opts.MaxAlignmentCells, f.MaxAlignmentCells)
	set(&opts.DetectRepeats, f.DetectRepeats)
	set(&opts.MinRepeatAnchors, f.MinRepeatAnchors)
	set(&opts.RepeatMinQuality, f.RepeatMinQuality)
	set(&opts.Parallelism, f.Parallelism)

	if err := opts.Validate(); err != nil {
		return scrapely.Options{}, err
	}
	return opts, nil
}

// MarshalOptions renders opts in the file format read by ParseOptions.
func MarshalOptions(opts scrapely.Options) ([]byte, error) {
	f := optionsFile{
		MinSimilarity:       &opts.MinSimilarity,
		CaseFold:            &opts.CaseFold,
		AnchorWindow:        &opts.AnchorWindow,
		AttrWeight:          &opts.AttrWeight,
		MinAnchorSimilarity: &opts.MinAnchorSimilarity,
		TextMismatchScore:   &opts.TextMismatchScore,
		GapPenalty:          &opts.GapPenalty,
		DropPenalty:         &opts.DropPenalty,
		QualityWeight:       &opts.QualityWeight,
		MaxSlotTokens:       &opts.MaxSlotTokens,
		MaxAlignmentCells:   &opts.MaxAlignmentCells,
		DetectRepeats:       &opts.DetectRepeats,
		MinRepeatAnchors:    &opts.MinRepeatAnchors,
		RepeatMinQuality:    &opts.RepeatMinQuality,
		Parallelism:         &opts.Parallelism,
	}
	return yaml.Marshal(&f)
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
