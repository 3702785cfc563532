// Command promo-ingest loads promo-code dumps into the discount_rules table.
//
// Marketing exports arrive as several large gzipped files of candidate codes;
// a code is considered valid when it appears in at least two of the files.
// Pass 1 builds one bloom filter per file concurrently; pass 2 re-streams each
// file and keeps codes matching another file's filter. Valid codes are
// upserted as discount rules.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-pricing/internal/storage/postgres"
)

const (
	bloomCapacity = 120_000_000
	bloomFPR      = 0.001
	numFiles      = 3
	minCodeLen    = 8
	maxCodeLen    = 10
)

// codeRule describes the discount rule to create for a known promo code.
type codeRule struct {
	kind     string
	value    string
	stacking bool
	priority int
}

var codeRules = map[string]codeRule{
	"FIFTYOFF": {kind: "percentage", value: "50"},
	"TENPCOFF": {kind: "percentage", value: "10"},
	"FREEBIES": {kind: "percentage", value: "100"},
	"OVER9000": {kind: "fixed", value: "9"},
	"MEMBER05": {kind: "percentage", value: "5", stacking: true, priority: 100},
}

var defaultRule = codeRule{kind: "percentage", value: "10"}

const upsertRuleSQL = `INSERT INTO discount_rules (code, kind, value, stacking, priority, tier, active)
	VALUES ($1, $2, $3, $4, $5, '', TRUE)
	ON CONFLICT (code) DO UPDATE
	SET kind = EXCLUDED.kind, value = EXCLUDED.value,
	    stacking = EXCLUDED.stacking, priority = EXCLUDED.priority, active = TRUE`

func main() {
	var (
		dataDir     string
		databaseURL string
	)

	flag.StringVar(&dataDir, "data-dir", "data", "directory containing promocodesN.gz files")
	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, dataDir, databaseURL); err != nil {
		slog.Error("promo ingest failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("promo ingest completed successfully")
}

func run(ctx context.Context, dataDir, databaseURL string) error {
	files := make([]string, numFiles)
	for i := range numFiles {
		files[i] = filepath.Join(dataDir, fmt.Sprintf("promocodes%d.gz", i+1))
	}
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	slog.Info("pass 1: building bloom filters", slog.Int("files", numFiles))

	filters, err := buildBloomFilters(ctx, files)
	if err != nil {
		return errors.Wrap(err, "build bloom filters")
	}

	slog.Info("pass 2: finding valid codes")

	validCodes, err := findValidCodes(ctx, files, filters)
	if err != nil {
		return errors.Wrap(err, "find valid codes")
	}

	slog.Info("valid codes found", slog.Int("count", len(validCodes)))

	if len(validCodes) == 0 {
		slog.Info("no valid codes to insert")
		return nil
	}

	slog.Info("connecting to database")

	pool, err := postgres.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := postgres.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := writeRules(ctx, pool, validCodes); err != nil {
		return errors.Wrap(err, "write discount rules")
	}

	return nil
}

// buildBloomFilters creates one bloom filter per file, concurrently.
func buildBloomFilters(ctx context.Context, files []string) ([]*bloom.BloomFilter, error) {
	filters := make([]*bloom.BloomFilter, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			filter := bloom.NewWithEstimates(bloomCapacity, bloomFPR)
			if err := streamCodes(ctx, f, func(code string) {
				filter.AddString(code)
			}); err != nil {
				return errors.Wrapf(err, "stream %s", f)
			}
			filters[i] = filter
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return filters, nil
}

// findValidCodes re-streams each file and keeps codes appearing in at least
// one OTHER file's bloom filter.
func findValidCodes(ctx context.Context, files []string, filters []*bloom.BloomFilter) ([]string, error) {
	results := make([]map[string]struct{}, len(files))

	g, ctx := errgroup.WithContext(ctx)
	for i, f := range files {
		g.Go(func() error {
			found := make(map[string]struct{})
			err := streamCodes(ctx, f, func(code string) {
				for j, filter := range filters {
					if j != i && filter.TestString(code) {
						found[code] = struct{}{}
						return
					}
				}
			})
			if err != nil {
				return errors.Wrapf(err, "stream %s", f)
			}
			results[i] = found
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make(map[string]struct{})
	for _, found := range results {
		for code := range found {
			merged[code] = struct{}{}
		}
	}

	codes := make([]string, 0, len(merged))
	for code := range merged {
		codes = append(codes, code)
	}
	return codes, nil
}

// streamCodes reads a gzipped file line by line, calling fn for every
// well-formed code. Lines outside the accepted length range are skipped.
func streamCodes(ctx context.Context, path string, fn func(code string)) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrap(err, "gzip reader")
	}
	defer gz.Close()

	scanner := bufio.NewScanner(gz)
	var n int
	for scanner.Scan() {
		n++
		if n%1_000_000 == 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}
		}
		code := scanner.Text()
		if len(code) < minCodeLen || len(code) > maxCodeLen {
			continue
		}
		fn(code)
	}
	return scanner.Err()
}

// writeRules upserts one discount rule per valid code, using the known-code
// mapping or the default rule.
func writeRules(ctx context.Context, pool *pgxpool.Pool, codes []string) error {
	for _, code := range codes {
		rule, ok := codeRules[code]
		if !ok {
			rule = defaultRule
		}
		value, err := decimal.NewFromString(rule.value)
		if err != nil {
			return errors.Wrapf(err, "rule value for %s", code)
		}
		if _, err := pool.Exec(ctx, upsertRuleSQL, code, rule.kind, value, rule.stacking, rule.priority); err != nil {
			return errors.Wrapf(err, "upsert rule %s", code)
		}
	}
	return nil
}
