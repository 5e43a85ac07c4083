package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/docs-translator/internal/crawler"
	"github.com/JakeFAU/docs-translator/internal/language"
	"github.com/JakeFAU/docs-translator/internal/pipeline"
)

type crawlFlags struct {
	depth         int
	language      string
	summaryOnly   bool
	translateOnly bool
	allowDomains  []string
	forceFetch    bool
}

func newCrawlCmd() *cobra.Command {
	var flags crawlFlags
	cmd := &cobra.Command{
		Use:   "crawl <url>",
		Short: "Crawl a documentation site and process every page",
		Long: `Crawls the site below <url>, writes the directory-sorted sitemap and then
summarizes, translates and indexes each crawled page. Individual page failures
are logged and do not fail the command.`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(cmd *cobra.Command, args []string, appInstance App) error {
			cfg := appInstance.Config()
			if !cmd.Flags().Changed("depth") {
				flags.depth = cfg.Crawler.MaxDepth
			}
			if !cmd.Flags().Changed("language") {
				flags.language = cfg.Pipeline.Language
			}
			if !cmd.Flags().Changed("allow-domains") {
				flags.allowDomains = cfg.Crawler.AllowDomains
			}
			_, err := runCrawl(cmd.Context(), appInstance, args[0], flags, cmd.OutOrStdout())
			return err
		}),
	}

	f := cmd.Flags()
	f.IntVar(&flags.depth, "depth", 3, "maximum crawl depth; the root page is depth 1")
	f.StringVar(&flags.language, "language", language.Default, "target language code")
	f.BoolVar(&flags.summaryOnly, "summary-only", false, "only summarize pages")
	f.BoolVar(&flags.translateOnly, "translate-only", false, "only translate pages")
	f.StringSliceVar(&flags.allowDomains, "allow-domains", nil, "extra domains the crawler may follow")
	f.BoolVar(&flags.forceFetch, "force-fetch", false, "ignore cached HTML and fetch every page again")
	return cmd
}

func runCrawl(ctx context.Context, a App, rawURL string, flags crawlFlags, out io.Writer) (pipeline.Report, error) {
	logger := a.Logger()
	root, err := crawler.RootURL(rawURL)
	if err != nil {
		return pipeline.Report{}, err
	}
	rootURL := root.String()
	lang, err := language.Validate(flags.language)
	if err != nil {
		return pipeline.Report{}, err
	}
	if flags.depth < 1 {
		return pipeline.Report{}, fmt.Errorf("depth must be at least 1, got %d", flags.depth)
	}

	c, err := a.Crawler()
	if err != nil {
		return pipeline.Report{}, err
	}
	entries, err := c.Crawl(ctx, rootURL, crawler.Options{
		MaxDepth:     flags.depth,
		AllowDomains: flags.allowDomains,
		ForceFetch:   flags.forceFetch,
	})
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("crawl: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return pipeline.Report{}, err
	}
	if len(crawler.FetchableEntries(entries)) == 0 {
		return pipeline.Report{}, errors.New("no pages could be crawled from " + rootURL)
	}
	sorted, err := crawler.SortByDirectory(entries, rootURL)
	if err != nil {
		return pipeline.Report{}, err
	}
	sitemap, err := crawler.SaveSitemap(ctx, a.Blobs(), rootURL, sorted)
	if err != nil {
		return pipeline.Report{}, fmt.Errorf("save sitemap: %w", err)
	}
	logger.Info("sitemap saved", zap.String("location", sitemap), zap.Int("entries", len(sorted)))

	orch, err := a.Pipeline()
	if err != nil {
		return pipeline.Report{}, err
	}
	report, err := orch.Run(ctx, pipeline.RunRequest{
		RootURL:  rootURL,
		Entries:  sorted,
		Language: lang,
		Mode:     pipeline.ModeFromFlags(flags.summaryOnly, flags.translateOnly),
	})
	if err != nil {
		return report, fmt.Errorf("process pages: %w", err)
	}
	for _, failure := range report.Failures {
		logger.Warn("page failed",
			zap.String("url", failure.URL),
			zap.String("stage", failure.Stage),
			zap.Error(failure.Err),
		)
	}
	fmt.Fprintf(out, "project %s: %d processed, %d failed, %d skipped\n",
		report.ProjectID, report.Processed, report.Failed, report.Skipped)
	return report, nil
}
