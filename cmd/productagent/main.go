package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"product-search/pkg/config"
	"product-search/pkg/domain"
	"product-search/pkg/productservice"
	"product-search/pkg/qa"
	"product-search/pkg/scheduler"
	"product-search/pkg/search"
	"product-search/pkg/sitemap"
	"product-search/pkg/urls"
	"product-search/pkg/worker"
)

const usage = `usage: productagent <command> [flags]

commands:
  search    search for products and extract them
  process   extract product pages from a URL, URL list file or sitemap
  augment   backfill missing price and image on stored products
  reindex   replay stored products into the index and mirror
  ask       answer a question from indexed products
  schedule  run the augmentation sweep on a cron schedule`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cmd, args := os.Args[1], os.Args[2:]
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd {
	case "search":
		err = runSearch(ctx, args)
	case "process":
		err = runProcess(ctx, args)
	case "augment":
		err = runAugment(ctx, args)
	case "reindex":
		err = runReindex(ctx, args)
	case "ask":
		err = runAsk(ctx, args)
	case "schedule":
		err = runSchedule(ctx, args)
	case "-h", "--help", "help":
		fmt.Println(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if errors.Is(err, domain.ErrNoResults) {
		fmt.Println("No results.")
		os.Exit(1)
	}
	if err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

// setup parses the shared -config flag and connects the app
func setup(ctx context.Context, fs *flag.FlagSet, args []string) (*app, error) {
	configFile := fs.String("config", "", "Path to a config file (default: ./config.yaml when present)")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg, err := config.Load(*configFile)
	if err != nil {
		return nil, err
	}
	return newApp(ctx, cfg)
}

func runSearch(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	var (
		query = fs.String("q", "", "Product search query")
		count = fs.Int("n", 0, "Number of product pages to extract (default from config)")
		sites = fs.String("sites", "", "Comma-separated site filters, e.g. amazon.in,flipkart.com")
	)
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	if strings.TrimSpace(*query) == "" {
		return fmt.Errorf("-q is required")
	}
	if *count <= 0 {
		*count = a.cfg.Search.Count
	}
	siteList := a.cfg.Search.Sites
	if *sites != "" {
		siteList = strings.Split(*sites, ",")
	}

	provider := search.NewSerpAPIProvider(search.Config{
		Endpoint:  a.cfg.Search.Endpoint,
		APIKey:    a.cfg.Search.APIKey,
		RateLimit: a.cfg.Search.RateLimit,
		Timeout:   a.cfg.HTTP.Timeout,
	}, search.NewQueryCache(a.cfg.Search.CachePath))

	service := productservice.NewService(productservice.Config{
		Search:  provider,
		Manager: a.manager(),
		Sites:   siteList,
	})

	start := time.Now()
	log.Printf("Searching %q (n=%d)", *query, *count)
	outcomes, err := service.SearchProducts(ctx, *query, *count)
	if err != nil {
		return err
	}
	printOutcomes(outcomes)
	log.Printf("Done. Duration: %s", time.Since(start))
	return nil
}

func runProcess(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("process", flag.ExitOnError)
	var (
		source    = fs.String("source", "", "Product URL, file with one URL per line, or sitemap URL")
		max       = fs.Int("max", 0, "Max product URLs to process (default from config, <0 means no limit)")
		skipKnown = fs.Bool("skip-known", false, "Skip URLs already mirrored to MongoDB")
	)
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	if *source == "" {
		return fmt.Errorf("-source is required")
	}
	if *max == 0 {
		*max = a.cfg.Batch.MaxEntries
	}

	scfg := productservice.Config{
		Manager:  a.manager(),
		Fetchers: []urls.URLsFetcher{urls.NewFileParser(), sitemap.NewParser(a.client)},
	}
	if *skipKnown {
		if a.mongo == nil {
			return fmt.Errorf("-skip-known needs mongo.uri to be configured")
		}
		scfg.Known = a.mongo
	}

	start := time.Now()
	log.Printf("Processing products from %s (max=%d)", *source, *max)
	outcomes, err := productservice.NewService(scfg).ProcessSource(ctx, *source, *max)
	if err != nil {
		return err
	}
	printOutcomes(outcomes)
	log.Printf("Done. Duration: %s", time.Since(start))
	return nil
}

func runAugment(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("augment", flag.ExitOnError)
	id := fs.String("id", "", "Augment only the product stored under this id")
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	augmenter := a.augmenter()
	if *id != "" {
		rec, err := augmenter.Augment(ctx, *id)
		if err != nil {
			return err
		}
		fmt.Printf("%s | %s | %s\n", rec.Name, rec.CurrentPrice(), rec.PrimaryImage())
		return nil
	}

	n, err := augmenter.AugmentAll(ctx)
	if err != nil {
		return err
	}
	log.Printf("Augmented %d products", n)
	return nil
}

func runReindex(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("reindex", flag.ExitOnError)
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	if a.memory != nil {
		log.Printf("Index backend is %q: documents live only for this run", config.BackendNone)
	}
	r, err := a.reindexer()
	if err != nil {
		return err
	}
	_, err = r.Reindex(ctx)
	return err
}

func runAsk(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	var (
		question = fs.String("q", "", "Question to answer")
		product  = fs.String("product", "", "Retrieval query (defaults to the question)")
		topK     = fs.Int("k", 0, "Products to retrieve (default from config)")
	)
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	if strings.TrimSpace(*question) == "" {
		return fmt.Errorf("-q is required")
	}
	if a.cfg.QA.APIKey == "" {
		return fmt.Errorf("GROQ_API_KEY not found: add it to .env or the environment")
	}
	if *topK <= 0 {
		*topK = a.cfg.QA.TopK
	}
	if err := a.warmMemoryIndex(ctx); err != nil {
		return err
	}

	assistant := qa.NewAssistant(
		qa.NewGroqClient(a.cfg.QA.APIKey, a.cfg.QA.BaseURL),
		a.indexer,
		qa.Config{Model: a.cfg.QA.Model, MaxTokens: a.cfg.QA.MaxTokens, Temperature: a.cfg.QA.Temperature},
	)
	answer, err := assistant.Answer(ctx, *question, *product, *topK)
	if err != nil {
		return err
	}
	fmt.Println(answer)
	return nil
}

func runSchedule(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("schedule", flag.ExitOnError)
	var (
		spec = fs.String("spec", "", "Cron spec with seconds (default from config)")
		once = fs.Bool("once", false, "Run one sweep and exit")
	)
	a, err := setup(ctx, fs, args)
	if err != nil {
		return err
	}
	defer a.close()

	if *spec == "" {
		*spec = a.cfg.Schedule.Augment
	}
	r, err := a.reindexer()
	if err != nil {
		return err
	}
	sweeper := scheduler.NewSweeper(*spec, a.augmenter(), r)

	if *once {
		return sweeper.RunOnce(ctx)
	}
	if err := sweeper.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	log.Println("Shutting down scheduler")
	sweeper.Stop()
	return nil
}

func printOutcomes(outcomes []*worker.Outcome) {
	for i, o := range outcomes {
		rec := o.Record
		fmt.Printf("%2d. %s\n    price: %s\n    image: %s\n    url:   %s\n    id:    %s (%s)\n",
			i+1, rec.Name, rec.CurrentPrice(), rec.PrimaryImage(), rec.SourceURL, o.ID, o.Stage)
	}
}
