package nlp

import "strings"

// similarityThreshold is the minimum normalized similarity for a vocabulary
// match to replace an out-of-vocabulary token.
const similarityThreshold = 0.6

// minCorrectableLen is the shortest token length eligible for correction.
const minCorrectableLen = 3

// Correction records a single token rewrite for observability.
type Correction struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Corrector fixes typos against the domain vocabulary. The curated typo map
// is consulted before edit-distance search; unmatched tokens pass through
// unchanged. Deterministic: identical input always yields identical output.
type Corrector struct {
	typoMap    map[string]string
	vocabulary []string
	vocabSet   map[string]bool
}

// NewCorrector creates a corrector over the default vocabulary.
func NewCorrector() *Corrector {
	vocab := Vocabulary()
	set := make(map[string]bool, len(vocab))
	for _, w := range vocab {
		set[w] = true
	}
	return &Corrector{
		typoMap: map[string]string{
			"lixboa":      "lisboa",
			"lisbo":       "lisboa",
			"oporto":      "porto",
			"carrgador":   "carregador",
			"carregadro":  "carregador",
			"caregador":   "carregador",
			"stacao":      "estacao",
			"dispnivel":   "disponivel",
			"disponivle":  "disponivel",
			"baratto":     "barato",
			"rapdo":       "rapido",
			"matozinhos":  "matosinhos",
			"guimarais":   "guimaraes",
			"coimbr":      "coimbra",
		},
		vocabulary: vocab,
		vocabSet:   set,
	}
}

// Correct rewrites out-of-vocabulary tokens of normalized text and returns
// the corrected text together with the applied corrections.
func (c *Corrector) Correct(text string) (string, []Correction) {
	tokens := strings.Fields(Normalize(text))
	var corrections []Correction

	for i, tok := range tokens {
		if len([]rune(tok)) < minCorrectableLen {
			continue
		}
		if c.vocabSet[tok] {
			continue
		}

		if canonical, ok := c.typoMap[tok]; ok {
			corrections = append(corrections, Correction{From: tok, To: canonical})
			tokens[i] = canonical
			continue
		}

		if best, ok := c.closestMatch(tok); ok {
			corrections = append(corrections, Correction{From: tok, To: best})
			tokens[i] = best
		}
	}

	return strings.Join(tokens, " "), corrections
}

// closestMatch finds the most similar vocabulary entry above the threshold.
// Ties resolve to the earliest vocabulary entry, keeping output stable.
func (c *Corrector) closestMatch(token string) (string, bool) {
	best := ""
	bestScore := similarityThreshold
	for _, candidate := range c.vocabulary {
		score := Similarity(token, candidate)
		if score > bestScore {
			best = candidate
			bestScore = score
		}
	}
	return best, best != ""
}

// Similarity returns 1 - levenshtein(a,b)/max(len(a),len(b)), in [0,1].
func Similarity(a, b string) float64 {
	if a == b {
		return 1
	}
	ra, rb := []rune(a), []rune(b)
	longest := len(ra)
	if len(rb) > longest {
		longest = len(rb)
	}
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein(ra, rb))/float64(longest)
}

func levenshtein(a, b []rune) int {
	if len(a) == 0 {
		return len(b)
	}
	if len(b) == 0 {
		return len(a)
	}

	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(a); i++ {
		curr[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			curr[j] = minInt(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(b)]
}

func minInt(vals ...int) int {
	m := vals[0]
	for _, v := range vals[1:] {
		if v < m {
			m = v
		}
	}
	return m
}
