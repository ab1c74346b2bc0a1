package slog_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/mock"
	scrapelyslog "github.com/fwojciec/scrapely/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggingExtractor_Extract(t *testing.T) {
	t.Parallel()

	page := &scrapely.Page{URL: "https://shop.test/item/1", Tokens: make([]scrapely.Token, 12)}
	templates := []*scrapely.Template{{}, {}}

	t.Run("logs winning template with score and records", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		want := &scrapely.Result{
			Records:       []*scrapely.Record{scrapely.NewRecord(), scrapely.NewRecord()},
			TemplateIndex: 1,
			Score:         2.5,
		}
		inner := &mock.Extractor{
			ExtractFn: func(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
				return want, nil
			},
		}

		extractor := scrapelyslog.NewLoggingExtractor(inner, logger)
		got, err := extractor.Extract(context.Background(), templates, page)

		require.NoError(t, err)
		assert.Same(t, want, got)
		output := buf.String()
		assert.Contains(t, output, "msg=extract")
		assert.Contains(t, output, "url=https://shop.test/item/1")
		assert.Contains(t, output, "tokens=12")
		assert.Contains(t, output, "templates=2")
		assert.Contains(t, output, "template=1")
		assert.Contains(t, output, "score=2.5")
		assert.Contains(t, output, "records=2")
		assert.Contains(t, output, "duration=")
	})

	t.Run("logs rejected attempts at debug level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
		inner := &mock.Extractor{
			ExtractFn: func(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
				return nil, &scrapely.MatchError{Attempts: []scrapely.Attempt{
					{TemplateIndex: 0, Err: errors.New("required field title unfilled")},
				}}
			},
		}

		extractor := scrapelyslog.NewLoggingExtractor(inner, logger)
		_, err := extractor.Extract(context.Background(), templates, page)

		assert.Equal(t, scrapely.ENOMATCH, scrapely.ErrorCode(err))
		output := buf.String()
		assert.Contains(t, output, "template attempt")
		assert.Contains(t, output, "err=\"required field title unfilled\"")
		assert.Contains(t, output, "msg=extract")
	})

	t.Run("omits attempts at info level", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Extractor{
			ExtractFn: func(ctx context.Context, templates []*scrapely.Template, page *scrapely.Page) (*scrapely.Result, error) {
				return nil, &scrapely.MatchError{Attempts: []scrapely.Attempt{{TemplateIndex: 0, Err: errors.New("low quality")}}}
			},
		}

		extractor := scrapelyslog.NewLoggingExtractor(inner, logger)
		_, _ = extractor.Extract(context.Background(), templates, page)

		assert.NotContains(t, buf.String(), "template attempt")
	})
}

func TestLoggingLocator_Locate(t *testing.T) {
	t.Parallel()

	t.Run("logs located region", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Locator{
			LocateFn: func(page *scrapely.Page, value string) (scrapely.Region, bool) {
				return scrapely.Region{Start: 4, End: 6, Score: 1}, true
			},
		}

		locator := scrapelyslog.NewLoggingLocator(inner, logger)
		region, ok := locator.Locate(&scrapely.Page{}, "Kettle")

		require.True(t, ok)
		assert.Equal(t, 4, region.Start)
		output := buf.String()
		assert.Contains(t, output, "msg=locate")
		assert.Contains(t, output, "value=Kettle")
		assert.Contains(t, output, "found=true")
		assert.Contains(t, output, "start=4")
		assert.Contains(t, output, "end=6")
	})

	t.Run("logs missing value", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		logger := slog.New(slog.NewTextHandler(&buf, nil))
		inner := &mock.Locator{
			LocateFn: func(page *scrapely.Page, value string) (scrapely.Region, bool) {
				return scrapely.Region{}, false
			},
		}

		locator := scrapelyslog.NewLoggingLocator(inner, logger)
		_, ok := locator.Locate(&scrapely.Page{}, "Toaster")

		assert.False(t, ok)
		assert.Contains(t, buf.String(), "found=false")
	})
}
