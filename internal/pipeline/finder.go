// Package pipeline wires normalization, translation, caching, search and
// analytics into one request path.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/chargewise/charge-finder/internal/analytics"
	"github.com/chargewise/charge-finder/internal/cache"
	"github.com/chargewise/charge-finder/internal/nlp"
	"github.com/chargewise/charge-finder/internal/observability"
	"github.com/chargewise/charge-finder/internal/storage"
	"github.com/chargewise/charge-finder/internal/translate"
)

// User-facing messages. The service answers in the language it listens
// in.
const (
	msgEmptyInput  = "Por favor, diga-me o que procura. Por exemplo: carregador barato em Lisboa."
	msgStoreError  = "Desculpe, ocorreu um problema ao procurar postos de carregamento. Tente novamente."
	msgNoMatchCity = "Desculpe, não encontrei nenhum posto de carregamento em %s."
	msgNoMatch     = "Desculpe, não encontrei nenhum posto de carregamento."
)

// Searcher is the slice of the storage layer the pipeline needs.
type Searcher interface {
	Search(ctx context.Context, q translate.Query) ([]*storage.ChargingStation, error)
}

// Result carries everything one request produced, for rendering and for
// the API response.
type Result struct {
	RequestID    string                     `json:"request_id"`
	Input        string                     `json:"input"`
	Canonical    string                     `json:"canonical"`
	Corrections  []nlp.Correction           `json:"corrections,omitempty"`
	Query        translate.Query            `json:"query"`
	RuleName     string                     `json:"rule_name"`
	CacheHit     bool                       `json:"cache_hit"`
	UsedFallback bool                       `json:"used_fallback"`
	Stations     []*storage.ChargingStation `json:"stations"`
	Message      string                     `json:"message"`
	LatencyMS    int64                      `json:"latency_ms"`
}

// Finder runs the full query path. The fallback is optional; without it
// unmatched inputs stay on the generic query.
type Finder struct {
	corrector *nlp.Corrector
	expander  *nlp.Expander
	patterns  *translate.PatternTranslator
	cache     cache.Store
	fallback  translate.Fallback
	searcher  Searcher
	metrics   *analytics.Metrics
	unmatched *analytics.UnmatchedLog
	logger    *observability.Logger
}

// Options collects the Finder dependencies.
type Options struct {
	Cache     cache.Store
	Fallback  translate.Fallback
	Searcher  Searcher
	Metrics   *analytics.Metrics
	Unmatched *analytics.UnmatchedLog
	Logger    *observability.Logger
}

// NewFinder builds a Finder with the default vocabulary and rules.
func NewFinder(opts Options) *Finder {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}
	return &Finder{
		corrector: nlp.NewCorrector(),
		expander:  nlp.NewExpander(nil),
		patterns:  translate.NewPatternTranslator(),
		cache:     opts.Cache,
		fallback:  opts.Fallback,
		searcher:  opts.Searcher,
		metrics:   opts.Metrics,
		unmatched: opts.Unmatched,
		logger:    logger,
	}
}

// Find answers one free-text request.
func (f *Finder) Find(ctx context.Context, input string) (*Result, error) {
	started := time.Now()
	res := &Result{
		RequestID: uuid.New().String(),
		Input:     input,
	}
	log := f.logger.WithRequest(res.RequestID)

	if strings.TrimSpace(input) == "" {
		res.Message = msgEmptyInput
		return res, nil
	}

	corrected, corrections := f.corrector.Correct(input)
	res.Corrections = corrections
	res.Canonical = f.expander.Expand(corrected)

	key := cache.Key(res.Canonical)
	res.Query, res.RuleName, res.CacheHit = f.translateWithCache(ctx, log, key, res.Canonical)
	res.UsedFallback = res.RuleName == "fallback"
	if res.Query.Generic && f.unmatched != nil {
		if err := f.unmatched.Record(res.Canonical); err != nil {
			log.Warn().Err(err).Msg("failed to record unmatched input")
		}
	}

	stations, err := f.searcher.Search(ctx, res.Query)
	res.LatencyMS = time.Since(started).Milliseconds()
	if err != nil {
		log.Error().Err(err).Str("city", res.Query.City).Msg("station search failed")
		res.Message = msgStoreError
		f.record(res, started, true)
		return res, fmt.Errorf("station search: %w", err)
	}

	res.Stations = stations
	res.Message = renderMessage(res.Query, stations)
	f.record(res, started, false)

	log.Info().
		Str("rule", res.RuleName).
		Str("city", res.Query.City).
		Bool("cache_hit", res.CacheHit).
		Bool("fallback", res.UsedFallback).
		Int("results", len(stations)).
		Msg("query answered")
	return res, nil
}

// translateWithCache resolves the canonical text to a query, consulting
// the cache first and the fallback last. Fallback failure is not a
// request failure; the generic query stands in.
func (f *Finder) translateWithCache(ctx context.Context, log *observability.Logger, key, canonical string) (translate.Query, string, bool) {
	if f.cache != nil {
		q, err := f.cache.Get(ctx, key)
		if err == nil {
			return q, "cache", true
		}
		if !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Msg("cache lookup failed")
		}
	}

	q, ruleName := f.patterns.Translate(canonical)
	if q.Generic && f.fallback != nil {
		fq, err := f.fallback.Translate(ctx, canonical)
		if err != nil {
			log.Warn().Err(err).Msg("fallback translation failed, using generic query")
		} else {
			q = fq
			ruleName = "fallback"
		}
	}

	if f.cache != nil {
		if err := f.cache.Put(ctx, key, q); err != nil {
			log.Warn().Err(err).Msg("cache store failed")
		}
	}
	return q, ruleName, false
}

func (f *Finder) record(res *Result, started time.Time, failed bool) {
	if f.metrics == nil {
		return
	}
	sample := analytics.Sample{
		City:       res.Query.City,
		RuleName:   res.RuleName,
		CacheHit:   res.CacheHit,
		Corrected:  len(res.Corrections) > 0,
		Fallback:   res.UsedFallback,
		Failed:     failed,
		Latency:    time.Since(started),
		ObservedAt: started,
	}
	if err := f.metrics.Record(sample); err != nil {
		f.logger.Warn().Err(err).Msg("failed to record metrics")
	}
}

// renderMessage builds the spoken-style answer.
func renderMessage(q translate.Query, stations []*storage.ChargingStation) string {
	if len(stations) == 0 {
		if q.City != "" {
			return fmt.Sprintf(msgNoMatchCity, displayCity(q.City))
		}
		return msgNoMatch
	}

	best := stations[0]
	if len(stations) == 1 {
		return fmt.Sprintf("O melhor posto de carregamento em %s está em %s, com um preço de %s euros por kWh e %d kW.",
			displayCity(best.City), best.Address, best.PricePerKWh.StringFixed(2), best.PowerKW)
	}
	return fmt.Sprintf("Encontrei %d postos de carregamento. O mais em conta fica em %s, %s, a %s euros por kWh.",
		len(stations), displayCity(best.City), best.Address, best.PricePerKWh.StringFixed(2))
}

// displayCity restores headline casing on a folded city name.
func displayCity(city string) string {
	words := strings.Fields(city)
	for i, w := range words {
		// Connectives stay lowercase ("viana do castelo").
		if i > 0 && (w == "do" || w == "da" || w == "de") {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
