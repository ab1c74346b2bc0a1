package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/scrapely"
	"github.com/fwojciec/scrapely/align"
	"github.com/fwojciec/scrapely/crawl"
	"github.com/fwojciec/scrapely/fs"
	"github.com/fwojciec/scrapely/goquery"
	"github.com/fwojciec/scrapely/html"
	"github.com/fwojciec/scrapely/htmltomarkdown"
	scrapelyhttp "github.com/fwojciec/scrapely/http"
	"github.com/fwojciec/scrapely/levenshtein"
	scrapelyslog "github.com/fwojciec/scrapely/slog"
	"github.com/fwojciec/scrapely/sqlite"
	"github.com/fwojciec/scrapely/yaml"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	m := NewMain()

	if err := m.Run(ctx, os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		stop()
		os.Exit(1)
	}
}

// Main represents the program.
type Main struct {
	// Database path. Set before calling Run().
	DBPath string

	// SQLite database used by SQLite service implementations.
	DB *sqlite.DB

	// Fetcher overrides the HTTP fetcher, for end-to-end testing.
	Fetcher scrapely.Fetcher
}

// NewMain returns a new instance of Main with defaults.
func NewMain() *Main {
	return &Main{
		DBPath: defaultDBPath(),
	}
}

// Close gracefully stops the program.
func (m *Main) Close() error {
	if m.DB != nil {
		return m.DB.Close()
	}
	return nil
}

// Run executes the CLI with the given arguments.
func (m *Main) Run(ctx context.Context, args []string, stdout, stderr io.Writer) error {
	deps := &Dependencies{
		Ctx:    ctx,
		Stdout: stdout,
		Stderr: stderr,
	}

	cli := &CLI{}
	parser, err := kong.New(cli,
		kong.Name("scrapely"),
		kong.Description("Learn to extract fields from HTML pages by example"),
		kong.Writers(stdout, stderr),
		kong.Exit(func(int) {}), // Don't exit on help
		kong.Bind(deps),
	)
	if err != nil {
		return fmt.Errorf("failed to create parser: %w", err)
	}

	if len(args) == 0 {
		_, _ = parser.Parse([]string{"--help"})
		return fmt.Errorf("no command specified. Run 'scrapely --help' to see available commands")
	}

	cmd := args[0]
	if cmd == "help" || cmd == "--help" || cmd == "-h" {
		_, _ = parser.Parse([]string{"--help"})
		return nil
	}

	kongCtx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	deps.Options = scrapely.DefaultOptions()
	if cli.Config != "" {
		opts, err := yaml.LoadOptions(cli.Config)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		deps.Options = opts
	}

	m.DB = sqlite.NewDB(m.DBPath)
	if err := m.DB.Open(); err != nil {
		fmt.Fprintf(stderr, "Hint: Set SCRAPELY_DB to use a different database path\n")
		return fmt.Errorf("failed to open database at %q: %w", m.DBPath, err)
	}
	defer m.Close()

	fetcher := m.Fetcher
	if fetcher == nil {
		httpFetcher := scrapelyhttp.NewFetcher()
		defer httpFetcher.Close()
		fetcher = httpFetcher
	}

	deps.Templates = sqlite.NewTemplateService(m.DB)
	deps.Fetcher = fetcher
	deps.Sitemaps = scrapelyhttp.NewSitemapService(nil)
	deps.Links = goquery.NewLinkSelector()
	deps.Limiter = crawl.NewDomainLimiter(1.0)
	deps.Tokenizer = html.NewTokenizer()
	deps.Locator = levenshtein.NewLocator(deps.Options)
	deps.Extractor = align.NewExtractor(deps.Options)
	deps.Converter = htmltomarkdown.NewConverter()
	deps.Archive = func(path string) scrapely.TemplateArchive {
		return fs.NewTemplateFile(path)
	}
	deps.Results = func(dir, name string) scrapely.ResultStore {
		return fs.NewResultStore(dir, name)
	}

	if cli.Verbose {
		logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
		deps.Templates = scrapelyslog.NewLoggingTemplateService(deps.Templates, logger)
		deps.Fetcher = scrapelyslog.NewLoggingFetcher(deps.Fetcher, logger)
		deps.Sitemaps = scrapelyslog.NewLoggingSitemapService(deps.Sitemaps, logger)
		deps.Locator = scrapelyslog.NewLoggingLocator(deps.Locator, logger)
		deps.Extractor = scrapelyslog.NewLoggingExtractor(deps.Extractor, logger)
	}

	return kongCtx.Run(deps)
}

func defaultDBPath() string {
	if path := os.Getenv("SCRAPELY_DB"); path != "" {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "scrapely.db"
	}
	dir := filepath.Join(home, ".scrapely")
	_ = os.MkdirAll(dir, 0755)
	return filepath.Join(dir, "scrapely.db")
}
