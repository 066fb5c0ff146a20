package nlp

// Cities lists the municipalities known to the finder, in normalized form.
// Declaration order is the tie-break order for similarity matching.
var Cities = []string{
	"lisboa",
	"porto",
	"coimbra",
	"braga",
	"aveiro",
	"faro",
	"leiria",
	"evora",
	"viseu",
	"setubal",
	"beja",
	"matosinhos",
	"guimaraes",
	"viana do castelo",
	"castelo branco",
	"santarem",
	"portalegre",
	"braganca",
	"vila real",
	"guarda",
	"sintra",
	"cascais",
}

// domainTerms lists the non-city vocabulary the corrector may snap typos to.
var domainTerms = []string{
	"carregador",
	"carregadores",
	"posto",
	"postos",
	"estacao",
	"estacoes",
	"terminal",
	"tomada",
	"carregar",
	"carregamento",
	"barato",
	"barata",
	"economico",
	"economica",
	"acessivel",
	"rapido",
	"rapida",
	"potente",
	"veloz",
	"forte",
	"disponivel",
	"livre",
	"aberta",
	"operacional",
	"funcional",
	"melhor",
	"perto",
	"proximo",
	"proxima",
	"preciso",
	"quero",
	"necessito",
	"urgente",
}

// Vocabulary returns the full correction vocabulary: cities first, then
// domain terms, preserving declaration order.
func Vocabulary() []string {
	vocab := make([]string, 0, len(Cities)+len(domainTerms))
	vocab = append(vocab, Cities...)
	vocab = append(vocab, domainTerms...)
	return vocab
}

// IsKnownCity reports whether the normalized token matches a known city.
func IsKnownCity(token string) bool {
	norm := Normalize(token)
	for _, c := range Cities {
		if c == norm {
			return true
		}
	}
	return false
}
