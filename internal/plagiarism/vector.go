package plagiarism

import (
	"math"
	"sort"
	"strings"
)

var vectorNormalizer = NewNormalizer(PunctuationStrip)

// termVector is a sparse TF-IDF vector with term indices in ascending order.
type termVector struct {
	terms   []int
	weights []float64
}

// VectorSimilarity scores the candidate against every source using TF-IDF
// weighted cosine similarity. The result is positionally aligned with
// sources. An empty candidate yields no scores; no sources yields
// ErrEmptyCorpus.
func VectorSimilarity(candidate string, sources []string) ([]float64, error) {
	if len(sources) == 0 {
		return nil, ErrEmptyCorpus
	}
	if candidate == "" {
		return nil, nil
	}

	docs := make([][]string, 0, len(sources)+1)
	docs = append(docs, strings.Fields(vectorNormalizer.Normalize(candidate)))
	for _, source := range sources {
		docs = append(docs, strings.Fields(vectorNormalizer.Normalize(source)))
	}

	vocabulary := buildVocabulary(docs)
	idf := inverseDocumentFrequency(docs, vocabulary)

	candidateVec := weigh(docs[0], vocabulary, idf)
	scores := make([]float64, len(sources))
	for i, doc := range docs[1:] {
		scores[i] = cosine(candidateVec, weigh(doc, vocabulary, idf))
	}

	return scores, nil
}

// buildVocabulary assigns every distinct term an index in sorted term order,
// so vectors iterate terms identically on every run.
func buildVocabulary(docs [][]string) map[string]int {
	seen := make(map[string]struct{})
	for _, doc := range docs {
		for _, term := range doc {
			seen[term] = struct{}{}
		}
	}

	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	vocabulary := make(map[string]int, len(terms))
	for i, term := range terms {
		vocabulary[term] = i
	}
	return vocabulary
}

// inverseDocumentFrequency uses the smoothed form ln((1+N)/(1+df)) + 1.
func inverseDocumentFrequency(docs [][]string, vocabulary map[string]int) []float64 {
	df := make([]int, len(vocabulary))
	for _, doc := range docs {
		counted := make(map[int]struct{}, len(doc))
		for _, term := range doc {
			idx := vocabulary[term]
			if _, ok := counted[idx]; ok {
				continue
			}
			counted[idx] = struct{}{}
			df[idx]++
		}
	}

	n := float64(len(docs))
	idf := make([]float64, len(df))
	for i, count := range df {
		idf[i] = math.Log((1.0+n)/(1.0+float64(count))) + 1.0
	}
	return idf
}

func weigh(doc []string, vocabulary map[string]int, idf []float64) termVector {
	counts := make(map[int]int, len(doc))
	for _, term := range doc {
		counts[vocabulary[term]]++
	}

	terms := make([]int, 0, len(counts))
	for idx := range counts {
		terms = append(terms, idx)
	}
	sort.Ints(terms)

	weights := make([]float64, len(terms))
	for i, idx := range terms {
		weights[i] = float64(counts[idx]) * idf[idx]
	}

	return termVector{terms: terms, weights: weights}
}

func (v termVector) squaredNorm() float64 {
	sum := 0.0
	for _, w := range v.weights {
		sum += w * w
	}
	return sum
}

// cosine merges the two sorted term lists. A zero vector on either side
// scores 0.
func cosine(a, b termVector) float64 {
	normA := a.squaredNorm()
	normB := b.squaredNorm()
	if normA == 0 || normB == 0 {
		return 0.0
	}

	dot := 0.0
	i, j := 0, 0
	for i < len(a.terms) && j < len(b.terms) {
		switch {
		case a.terms[i] == b.terms[j]:
			dot += a.weights[i] * b.weights[j]
			i++
			j++
		case a.terms[i] < b.terms[j]:
			i++
		default:
			j++
		}
	}

	return clampScore(dot / math.Sqrt(normA*normB))
}
