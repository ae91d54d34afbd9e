// Package main generates a single kundali from the command line and writes it
// as JSON, Markdown or a dasha CSV. With --verify it also checks that repeated
// generation is byte-identical; with --verify-stored it replays charts stored
// in PostgreSQL and reports divergences.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
	_ "time/tzdata"

	"go.uber.org/zap"

	"kundali-lab/internal/ayanamsa"
	"kundali-lab/internal/config"
	"kundali-lab/internal/dasha"
	"kundali-lab/internal/ephemeris"
	"kundali-lab/internal/geo"
	"kundali-lab/internal/kundali"
	"kundali-lab/internal/logging"
	"kundali-lab/internal/reporting"
	pgstore "kundali-lab/internal/storage/postgres"
	"kundali-lab/internal/verification"
)

func main() {
	configPath := flag.String("config", os.Getenv("KUNDALI_CONFIG"), "Path to TOML config file")
	name := flag.String("name", "", "Native's name")
	date := flag.String("date", "", "Birth date, YYYY-MM-DD")
	clock := flag.String("time", "12:00", "Birth time, HH:MM or HH:MM:SS (local civil time)")
	lat := flag.Float64("lat", 0, "Birth latitude in degrees (north positive)")
	lon := flag.Float64("lon", 0, "Birth longitude in degrees (east positive)")
	tzOffset := flag.Float64("tz-offset", 0, "UTC offset of the birth time in hours (default: resolved from country)")
	city := flag.String("city", "", "Birth city (used when --lat/--lon are not given)")
	state := flag.String("state", "", "Birth state or region")
	country := flag.String("country", "", "Birth country")
	transitTZ := flag.String("transit-tz", "", "IANA timezone for transit display")
	noTransits := flag.Bool("no-transits", false, "Skip the transit snapshot")
	depth := flag.Int("depth", 0, "Dasha depth 1-3 (default from config)")
	correction := flag.Float64("correction", 0, "Ayanamsa correction in degrees (default from config)")
	at := flag.String("at", "", "Reference time for current dasha and transits, RFC 3339 (default now)")
	format := flag.String("format", "json", "Output format: json, md or csv")
	outputDir := flag.String("output-dir", "", "Write the report here instead of stdout")
	verify := flag.Bool("verify", false, "Generate repeatedly and check the output is identical")
	verifyStored := flag.Int("verify-stored", 0, "Replay up to N charts stored in PostgreSQL and exit")
	stored := flag.String("stored", "", "Render the stored chart with this chart ID or short ID and exit")
	postgresDSN := flag.String("postgres-dsn", os.Getenv("POSTGRES_DSN"), "PostgreSQL connection string for --verify-stored and --stored")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fatalf("load config: %v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "depth":
			cfg.Engine.DashaDepth = *depth
		case "correction":
			cfg.Engine.AyanamsaCorrection = *correction
		}
	})
	if err := cfg.Validate(); err != nil {
		fatalf("%v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogDev)
	if err != nil {
		fatalf("create logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx := context.Background()

	svc, err := newService(cfg, logger)
	if err != nil {
		fatalf("create service: %v", err)
	}

	if *verifyStored > 0 {
		os.Exit(runStoredVerification(ctx, svc, *postgresDSN, *verifyStored))
	}
	if *stored != "" {
		os.Exit(renderStored(ctx, *postgresDSN, *stored, *format))
	}

	req, err := buildRequest(*name, *date, *clock, *city, *state, *country, *transitTZ, *at)
	if err != nil {
		fatalf("%v", err)
	}
	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "lat":
			req.Latitude = lat
		case "lon":
			req.Longitude = lon
		case "tz-offset":
			req.TimezoneOffset = tzOffset
		}
	})
	if *noTransits {
		include := false
		req.IncludeTransits = &include
	}

	if *verify {
		result, err := verification.CheckDeterminism(ctx, svc, req, 3)
		if err != nil {
			fatalf("verify: %v", err)
		}
		if !result.Match {
			for _, d := range result.Divergences {
				fmt.Fprintln(os.Stderr, d.String())
			}
			fatalf("chart %s is not deterministic (%d divergences)", result.ChartID, len(result.Divergences))
		}
		logger.Info("determinism verified", zap.String("chart_id", result.ChartID))
	}

	res, err := svc.Generate(ctx, req)
	if err != nil {
		fatalf("generate: %v", err)
	}

	out, ext, err := render(res, *format)
	if err != nil {
		fatalf("%v", err)
	}

	if *outputDir == "" {
		fmt.Print(out)
		return
	}
	if err := os.MkdirAll(*outputDir, 0755); err != nil {
		fatalf("create output directory: %v", err)
	}
	path := filepath.Join(*outputDir, res.ShortID+ext)
	if err := os.WriteFile(path, []byte(out), 0644); err != nil {
		fatalf("write %s: %v", path, err)
	}
	logger.Info("report written", zap.String("path", path), zap.String("chart_id", res.ChartID))
}

func newService(cfg *config.Config, logger *zap.Logger) (*kundali.Service, error) {
	corrector, err := ayanamsa.NewLahiri(cfg.Engine.AyanamsaCorrection)
	if err != nil {
		return nil, err
	}
	calc, err := dasha.NewCalculator(cfg.Engine.DashaDepth)
	if err != nil {
		return nil, err
	}
	opts := kundali.Options{
		Provider:               ephemeris.NewAnalytic(),
		Corrector:              corrector,
		Calculator:             calc,
		TZResolver:             geo.NewCountryResolver(cfg.Engine.DefaultTimezoneOffset),
		DefaultTransitTimezone: cfg.Engine.DefaultTransitTimezone,
		Logger:                 logger,
	}
	if cfg.Geocoder.Enabled {
		opts.Geocoder = geo.NewNominatim(geo.NominatimOptions{
			BaseURL:     cfg.Geocoder.BaseURL,
			UserAgent:   cfg.Geocoder.UserAgent,
			Timeout:     cfg.Geocoder.TimeoutDuration(),
			MinInterval: cfg.Geocoder.MinIntervalDuration(),
		})
	}
	return kundali.NewService(opts)
}

// buildRequest parses the date and time flags. The reference time is pinned
// so repeated generation under --verify sees the same instant.
func buildRequest(name, date, clock, city, state, country, transitTZ, at string) (kundali.Request, error) {
	day, err := time.Parse("2006-01-02", date)
	if err != nil {
		return kundali.Request{}, fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
	}
	layout := "15:04"
	if strings.Count(clock, ":") == 2 {
		layout = "15:04:05"
	}
	tod, err := time.Parse(layout, clock)
	if err != nil {
		return kundali.Request{}, fmt.Errorf("--time must be HH:MM or HH:MM:SS: %w", err)
	}
	if at == "" {
		at = time.Now().UTC().Truncate(time.Second).Format(time.RFC3339)
	}

	return kundali.Request{
		Name:            name,
		BirthYear:       day.Year(),
		BirthMonth:      int(day.Month()),
		BirthDay:        day.Day(),
		BirthHour:       tod.Hour(),
		BirthMinute:     tod.Minute(),
		BirthSecond:     tod.Second(),
		City:            city,
		State:           state,
		Country:         country,
		TransitTimezone: transitTZ,
		ReferenceTime:   at,
	}, nil
}

func render(res *kundali.Result, format string) (string, string, error) {
	switch format {
	case "json":
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return "", "", err
		}
		return string(data) + "\n", ".json", nil
	case "md":
		return reporting.RenderMarkdown(reporting.NewGenerator(nil).FromResult(res)), ".md", nil
	case "csv":
		return reporting.RenderDashaCSV(reporting.FlattenDasha(res.Dasha.Vimshottari)), ".csv", nil
	default:
		return "", "", fmt.Errorf("unknown --format %q (valid: json, md, csv)", format)
	}
}

// runStoredVerification replays stored charts and returns the exit code.
func runStoredVerification(ctx context.Context, svc *kundali.Service, dsn string, limit int) int {
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required with --verify-stored")
		return 1
	}
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		return 1
	}
	defer pool.Close()

	verifier := verification.NewReplayVerifier(pgstore.NewChartStore(pool), svc)
	report, err := verifier.VerifyAll(ctx, limit)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error verifying charts: %v\n", err)
		return 1
	}

	fmt.Printf("Verified %d charts: %d match, %d diverge\n", report.TotalCharts, report.MatchedCharts, report.DivergentCharts)
	for _, r := range report.Results {
		if r.Match {
			continue
		}
		fmt.Printf("\n%s\n", r.ChartID)
		for _, d := range r.Divergences {
			fmt.Printf("  %s\n", d.String())
		}
	}
	if report.DivergentCharts > 0 {
		return 2
	}
	return 0
}

// renderStored prints a stored chart as Markdown or its dasha as CSV.
func renderStored(ctx context.Context, dsn, id, format string) int {
	if dsn == "" {
		fmt.Fprintln(os.Stderr, "Error: --postgres-dsn is required with --stored")
		return 1
	}
	pool, err := pgstore.NewPool(ctx, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to postgres: %v\n", err)
		return 1
	}
	defer pool.Close()

	report, err := reporting.NewGenerator(pgstore.NewChartStore(pool)).Generate(ctx, id)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading chart %s: %v\n", id, err)
		return 1
	}
	switch format {
	case "csv":
		fmt.Print(reporting.RenderDashaCSV(report.Dasha))
	default:
		fmt.Print(reporting.RenderMarkdown(report))
	}
	return 0
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
