package nlp

import (
	"regexp"
	"sort"
)

// SynonymClass groups terms that rewrite to a single canonical form.
type SynonymClass struct {
	Canonical string
	Terms     []string
}

// Expander rewrites domain synonyms to canonical terms. Classes apply in
// declaration order; within a class, longer terms apply before shorter ones
// so multi-word synonyms are not clobbered by their sub-words. Canonical
// terms are fixed points, so a second application is a no-op.
type Expander struct {
	classes []SynonymClass
	rules   []expansionRule
}

type expansionRule struct {
	pattern   *regexp.Regexp
	canonical string
}

// DefaultClasses returns the synonym table for Portuguese charging commands.
// Order matters and is part of the contract: earlier classes win ambiguous
// overlaps.
func DefaultClasses() []SynonymClass {
	return []SynonymClass{
		{Canonical: "carregador", Terms: []string{
			"ponto de carregamento", "posto de carregamento",
			"socket de carregamento", "tomada eletrica",
			"posto", "postos", "estacao", "estacoes",
			"terminal", "terminais", "tomada", "plug", "socket", "ponto",
		}},
		{Canonical: "barato", Terms: []string{
			"mais em conta", "em conta", "economico", "economica",
			"acessivel", "barata", "baratos", "baratas",
		}},
		{Canonical: "rapido", Terms: []string{
			"potente", "potentes", "veloz", "velozes", "forte", "fortes",
			"rapida", "rapidos", "rapidas",
		}},
		{Canonical: "disponivel", Terms: []string{
			"livre", "livres", "aberta", "aberto",
			"operacional", "funcional", "disponiveis",
		}},
		{Canonical: "perto", Terms: []string{
			"nas redondezas", "ao lado", "junto a", "junto",
			"proximo a", "proximo", "proxima", "perto de",
		}},
		{Canonical: "carregar", Terms: []string{
			"abastecer", "recarregar", "energizar",
		}},
	}
}

// NewExpander builds an expander over the given classes; nil uses the
// default table.
func NewExpander(classes []SynonymClass) *Expander {
	if classes == nil {
		classes = DefaultClasses()
	}

	var rules []expansionRule
	for _, class := range classes {
		terms := make([]string, len(class.Terms))
		copy(terms, class.Terms)
		// Longest-match-first within the class.
		sort.SliceStable(terms, func(i, j int) bool {
			return len(terms[i]) > len(terms[j])
		})
		for _, term := range terms {
			rules = append(rules, expansionRule{
				pattern:   regexp.MustCompile(`\b` + regexp.QuoteMeta(term) + `\b`),
				canonical: class.Canonical,
			})
		}
	}

	return &Expander{classes: classes, rules: rules}
}

// Expand replaces every whole-word synonym occurrence with its canonical
// form. Input is normalized first; output is a fixed point of Expand.
func (e *Expander) Expand(text string) string {
	out := Normalize(text)
	for _, rule := range e.rules {
		out = rule.pattern.ReplaceAllString(out, rule.canonical)
	}
	return out
}
