package newsscraping

import (
	"strings"
)

type SentimentScore string

const (
	Positive SentimentScore = "Positive"
	Neutral  SentimentScore = "Neutral"
	Negative SentimentScore = "Negative"
)

type SentimentAnalyzer struct {
	positiveWords map[string]float64
	negativeWords map[string]float64
}

// NewSentimentAnalyzer builds a tourism lexicon in Portuguese and English.
// Keys are accent-folded, see fold.
func NewSentimentAnalyzer() *SentimentAnalyzer {
	sa := &SentimentAnalyzer{
		positiveWords: map[string]float64{
			// Strong positive (0.9-1.0)
			"lotado": 1.0, "lotada": 1.0, "recorde": 1.0, "esgotado": 0.95, "esgotada": 0.95,
			"sucesso": 0.9, "encanta": 0.9, "imperdivel": 0.9, "paraiso": 0.9,
			"record": 1.0, "sold-out": 0.95, "booming": 0.95, "stunning": 0.9,

			// Moderate positive (0.7-0.89)
			"alta": 0.8, "cresce": 0.8, "crescimento": 0.8, "aumento": 0.8, "aumenta": 0.8,
			"movimenta": 0.8, "atrai": 0.8, "festival": 0.75, "festa": 0.75, "temporada": 0.7,
			"ocupacao": 0.7, "turistas": 0.7, "visitantes": 0.7, "reabre": 0.75, "inaugura": 0.75,
			"growth": 0.8, "popular": 0.8, "attracts": 0.8, "reopens": 0.75,

			// Mild positive (0.5-0.69)
			"frio": 0.6, "neve": 0.65, "inverno": 0.55, "charme": 0.65, "charmosa": 0.65,
			"bonito": 0.6, "lindo": 0.6, "aconchegante": 0.6, "gastronomia": 0.55, "roteiro": 0.5,
			"melhor": 0.65, "melhores": 0.65, "destaque": 0.6, "premiado": 0.65, "premio": 0.6,
			"best": 0.65, "beautiful": 0.6, "charming": 0.6, "cozy": 0.55,
		},
		negativeWords: map[string]float64{
			// Strong negative (0.9-1.0)
			"tragedia": 1.0, "desastre": 1.0, "mortes": 1.0, "morte": 0.95, "deslizamento": 0.95,
			"enchente": 0.95, "enchentes": 0.95, "interditada": 0.9, "interditado": 0.9,
			"disaster": 1.0, "flood": 0.95, "landslide": 0.95, "deaths": 1.0,

			// Moderate negative (0.7-0.89)
			"queda": 0.8, "cai": 0.8, "caem": 0.8, "crise": 0.85, "cancelado": 0.8, "cancelada": 0.8,
			"cancela": 0.8, "fechado": 0.75, "fechada": 0.75, "acidente": 0.8, "alerta": 0.75,
			"violencia": 0.85, "assalto": 0.85, "golpe": 0.8, "prejuizo": 0.8,
			"decline": 0.8, "closed": 0.75, "cancelled": 0.8, "warning": 0.75, "crime": 0.85,

			// Mild negative (0.5-0.69)
			"chuva": 0.6, "chuvas": 0.6, "congestionamento": 0.65, "transito": 0.55, "fila": 0.5,
			"filas": 0.5, "caro": 0.6, "reclamacao": 0.65, "reclamacoes": 0.65,
			"vazio": 0.65, "vazia": 0.65, "baixa": 0.6, "problema": 0.65, "problemas": 0.65,
			"rain": 0.6, "traffic": 0.55, "expensive": 0.6, "empty": 0.65,
		},
	}
	return sa
}

func (sa *SentimentAnalyzer) Analyze(text string) (SentimentScore, float64) {
	score, _ := sa.score(text)

	sentiment := Neutral
	if score > 0.1 {
		sentiment = Positive
	} else if score < -0.1 {
		sentiment = Negative
	}
	return sentiment, score
}

// AnalyzeHeadlines averages the score of the headlines that hit the lexicon.
// matched is the number of such headlines.
func (sa *SentimentAnalyzer) AnalyzeHeadlines(headlines []string) (score float64, matched int) {
	var total float64
	for _, h := range headlines {
		s, hits := sa.score(h)
		if hits == 0 {
			continue
		}
		total += s
		matched++
	}
	if matched == 0 {
		return 0, 0
	}
	return total / float64(matched), matched
}

func (sa *SentimentAnalyzer) score(text string) (float64, int) {
	words := strings.Fields(fold(text))

	var score float64
	var matches int

	for _, word := range words {
		word = strings.Trim(word, ".,!?\"'()[]{}:;«»“”‘’")

		if val, exists := sa.positiveWords[word]; exists {
			score += val
			matches++
		} else if val, exists := sa.negativeWords[word]; exists {
			score -= val
			matches++
		}
	}

	if matches > 0 {
		score /= float64(matches)
	}
	return score, matches
}
