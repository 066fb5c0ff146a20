package translate

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/chargewise/charge-finder/internal/nlp"
)

// rule pairs a detector with a query builder. Rules are evaluated in order;
// the first whose pattern matches and whose builder succeeds wins. A builder
// error is treated as a non-match and evaluation falls through.
type rule struct {
	name    string
	pattern *regexp.Regexp
	build   func(m []string) (Query, error)
}

// PatternTranslator maps canonical text to structured queries with an
// ordered rule list, most specific first, generic catch-all last.
type PatternTranslator struct {
	rules []rule
}

// cityGroup matches a city reference after a locative preposition. The
// capture is validated against the known-city vocabulary by the builder.
const cityGroup = `(?:em|no|na|do|de|da)\s+([a-z]+(?:\s+[a-z]+){0,2})`

// NewPatternTranslator builds the default rule set.
func NewPatternTranslator() *PatternTranslator {
	return &PatternTranslator{rules: defaultRules()}
}

// Translate returns the query of the first matching rule, plus the rule
// name for observability. When nothing matches it returns the generic
// catch-all and the name "generic".
func (t *PatternTranslator) Translate(text string) (Query, string) {
	canonical := nlp.Normalize(text)

	for _, r := range t.rules {
		// A sentence can contain several candidate matches ("de carregar
		// ... em lisboa"). Try each in order; a builder error means the
		// capture was malformed and the next match is tried.
		for _, m := range r.pattern.FindAllStringSubmatch(canonical, -1) {
			q, err := r.build(m)
			if err != nil {
				continue
			}
			return q, r.name
		}
	}

	return GenericQuery(), "generic"
}

// RuleNames returns the declared rule order, for the ordering pin test.
func (t *PatternTranslator) RuleNames() []string {
	names := make([]string, len(t.rules))
	for i, r := range t.rules {
		names[i] = r.name
	}
	return names
}

func defaultRules() []rule {
	return []rule{
		{
			name:    "cheap_and_fast_in_city",
			pattern: regexp.MustCompile(`barato\s+e\s+rapido\s+` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderComposite, Limit: 1}, nil
			},
		},
		{
			name:    "available_in_city",
			pattern: regexp.MustCompile(`disponivel\b.*?\s` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OnlyAvailable: true, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "connector_in_city",
			pattern: regexp.MustCompile(`\b(type\s*2|tipo\s*2|mennekes|chademo|ccs)\b.*?` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[2])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, Connector: canonicalConnector(m[1]), OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "min_power_in_city",
			pattern: regexp.MustCompile(`(\d+)\s*(?:kw|kilowatt|kilowatts)\s+(?:ou\s+mais|no\s+minimo|pelo\s+menos)\b.*?` + cityGroup),
			build: func(m []string) (Query, error) {
				kw, err := strconv.Atoi(m[1])
				if err != nil || kw < 0 {
					return Query{}, fmt.Errorf("invalid power threshold %q", m[1])
				}
				city, err := knownCity(m[2])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, MinPowerKW: kw, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "max_price_in_city",
			pattern: regexp.MustCompile(`ate\s+(\d+(?:[.,]\d+)?)\s*(?:euros?|eur)\b.*?` + cityGroup),
			build: func(m []string) (Query, error) {
				price, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", "."))
				if err != nil || price.IsNegative() {
					return Query{}, fmt.Errorf("invalid price limit %q", m[1])
				}
				city, err := knownCity(m[2])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, MaxPrice: &price, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "network_in_city",
			pattern: regexp.MustCompile(`\b(mobie|galp|edp|tesla|supercharger)\b.*?` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[2])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, Network: canonicalNetwork(m[1]), OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "cheapest_in_city",
			pattern: regexp.MustCompile(`(?:mais\s+)?barato\b.*?\s` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "fastest_in_city",
			pattern: regexp.MustCompile(`rapido\b.*?\s` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderPowerDesc, Limit: 1}, nil
			},
		},
		{
			name:    "best_in_city",
			pattern: regexp.MustCompile(`melhor\b.*?\s` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderComposite, Limit: 1}, nil
			},
		},
		{
			name:    "city_reference",
			pattern: regexp.MustCompile(`(?:^|\s)` + cityGroup),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
		{
			name:    "bare_city",
			pattern: regexp.MustCompile(`^([a-z]+(?:\s+[a-z]+){0,2})$`),
			build: func(m []string) (Query, error) {
				city, err := knownCity(m[1])
				if err != nil {
					return Query{}, err
				}
				return Query{City: city, OrderBy: OrderPriceAsc, Limit: 1}, nil
			},
		},
	}
}

// knownCity validates a captured token sequence against the city
// vocabulary. Captures can carry stray words on either side ("carregar
// em setubal", "lisboa hoje"), so every contiguous window is tried,
// longest first.
func knownCity(capture string) (string, error) {
	words := strings.Fields(nlp.Normalize(capture))
	for length := len(words); length > 0; length-- {
		for start := 0; start+length <= len(words); start++ {
			candidate := strings.Join(words[start:start+length], " ")
			if nlp.IsKnownCity(candidate) {
				return candidate, nil
			}
		}
	}
	return "", fmt.Errorf("unknown city %q", capture)
}

func canonicalConnector(raw string) string {
	switch strings.Join(strings.Fields(raw), "") {
	case "type2", "tipo2", "mennekes":
		return "type2"
	case "chademo":
		return "chademo"
	case "ccs":
		return "ccs"
	}
	return raw
}

func canonicalNetwork(raw string) string {
	switch raw {
	case "supercharger":
		return "tesla"
	default:
		return raw
	}
}
