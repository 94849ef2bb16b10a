package diagnostics

import (
	"reflect"
	"strings"
	"testing"

	"github.com/kirillkom/humanlike-coach/internal/core/domain"
)

func newInput(t *testing.T, sentences []string, vectors []domain.SignalVector, scores []float64) Input {
	t.Helper()
	doc, err := domain.NewDocument(strings.Join(sentences, " "), "en")
	if err != nil {
		t.Fatalf("NewDocument() error = %v", err)
	}
	spans := make([]domain.SentenceSpan, 0, len(sentences))
	offset := 0
	for i, s := range sentences {
		spans = append(spans, domain.SentenceSpan{Index: i, Start: offset, End: offset + len(s)})
		offset += len(s) + 1
	}
	scored := make([]*domain.Score, len(scores))
	for i, v := range scores {
		if v < 0 {
			continue
		}
		scored[i] = &domain.Score{Value: v, Grain: domain.GrainSentence}
	}
	return Input{
		Document: doc,
		Spans:    spans,
		Vectors:  vectors,
		Scores:   scored,
		Weights: map[domain.SignalName]float64{
			domain.SignalPerplexity:           1,
			domain.SignalAIProbability:        1,
			domain.SignalBurstiness:           1,
			domain.SignalLexicalDiversity:     1,
			domain.SignalReadabilityVariation: 1,
		},
		Thresholds: domain.DefaultDiagnosticThresholds(),
	}
}

func vector(values map[domain.SignalName]float64) domain.SignalVector {
	v := domain.NewSignalVector()
	for name, value := range values {
		v[name] = domain.Measured(value)
	}
	return v
}

func TestDiagnoseFollowsSignConventionAndCanonicalTieBreak(t *testing.T) {
	in := newInput(t,
		[]string{"The gull stole my sandwich mid-sentence.", "The weather was nice today."},
		[]domain.SignalVector{
			vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.9, domain.SignalAIProbability: 0.9}),
			vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.5, domain.SignalAIProbability: 0.5}),
		},
		[]float64{90, 50},
	)

	out := NewGenerator().Diagnose(in)
	if len(out) != 2 {
		t.Fatalf("expected 2 diagnostics, got %d", len(out))
	}
	if out[0].Category != domain.CategoryNatural {
		t.Fatalf("expected first sentence natural, got %s", out[0].Category)
	}
	if out[0].DominantSignals[0] != domain.SignalPerplexity {
		t.Fatalf("expected perplexity to win the tie, got %v", out[0].DominantSignals)
	}
	if out[1].Category != domain.CategoryPredictable {
		t.Fatalf("expected second sentence predictable, got %s", out[1].Category)
	}
	if out[1].DominantSignals[0] != domain.SignalPerplexity {
		t.Fatalf("expected perplexity to win the tie, got %v", out[1].DominantSignals)
	}
	if !strings.Contains(out[1].Rationale, "perplexity") || !strings.HasPrefix(out[1].Rationale, "Predictable:") {
		t.Fatalf("unexpected rationale: %q", out[1].Rationale)
	}
	if out[0].Percentiles[domain.SignalPerplexity] != 1 || out[1].Percentiles[domain.SignalPerplexity] != 0 {
		t.Fatalf("unexpected percentiles: %v / %v", out[0].Percentiles, out[1].Percentiles)
	}
}

func TestDiagnoseIsDeterministic(t *testing.T) {
	build := func() Input {
		return newInput(t,
			[]string{"Moreover, the system is robust.", "I fixed it at 3 a.m. with cold coffee.", "It works well."},
			[]domain.SignalVector{
				vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.2, domain.SignalBurstiness: 0.1, domain.SignalLexicalDiversity: 0.5}),
				vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.9, domain.SignalBurstiness: 0.8, domain.SignalLexicalDiversity: 0.9}),
				vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.4, domain.SignalBurstiness: 0.3, domain.SignalLexicalDiversity: 0.2}),
			},
			[]float64{26.7, 86.7, 30},
		)
	}
	first := NewGenerator().Diagnose(build())
	second := NewGenerator().Diagnose(build())
	for i := range first {
		if first[i].Category != second[i].Category || first[i].Rationale != second[i].Rationale ||
			!reflect.DeepEqual(first[i].DominantSignals, second[i].DominantSignals) {
			t.Fatalf("sentence %d differs between runs", i)
		}
	}
}

func TestDiagnoseCategoryFamilies(t *testing.T) {
	in := newInput(t,
		[]string{"Data drives data decisions about data.", "A steady sentence of medium size.", "Another steady sentence of medium size."},
		[]domain.SignalVector{
			vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.7, domain.SignalLexicalDiversity: 0.05, domain.SignalBurstiness: 0.7}),
			vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.7, domain.SignalLexicalDiversity: 0.7, domain.SignalBurstiness: 0.0}),
			vector(map[domain.SignalName]float64{domain.SignalPerplexity: 0.7, domain.SignalLexicalDiversity: 0.7, domain.SignalReadabilityVariation: 0.0}),
		},
		[]float64{48.3, 46.7, 46.7},
	)
	out := NewGenerator().Diagnose(in)
	want := []domain.Category{domain.CategoryGeneric, domain.CategoryOverlyPolished, domain.CategoryOverlyPolished}
	for i, category := range want {
		if out[i].Category != category {
			t.Fatalf("sentence %d: expected %s, got %s (%s)", i, category, out[i].Category, out[i].Rationale)
		}
	}

	var replace *domain.RewriteIdea
	for j := range out[0].RewriteIdeas {
		if out[0].RewriteIdeas[j].Kind == "replace_repeated" {
			replace = &out[0].RewriteIdeas[j]
		}
	}
	if replace == nil || !strings.Contains(replace.Hint, "data") {
		t.Fatalf("expected replace_repeated idea naming data, got %+v", out[0].RewriteIdeas)
	}
}

func TestDiagnoseWithoutSignals(t *testing.T) {
	in := newInput(t, []string{"Nothing measured."}, []domain.SignalVector{domain.NewSignalVector()}, []float64{-1})
	out := NewGenerator().Diagnose(in)
	if out[0].Category != domain.CategoryNatural || len(out[0].DominantSignals) != 0 {
		t.Fatalf("unexpected diagnostic: %+v", out[0])
	}
	if !strings.HasPrefix(out[0].Rationale, "Unrated:") || strings.Contains(out[0].Rationale, "Natural") {
		t.Fatalf("unexpected rationale: %q", out[0].Rationale)
	}
	if out[0].Score != nil {
		t.Fatalf("expected nil score")
	}
}

func TestStripOpener(t *testing.T) {
	got, ok := stripOpener("Furthermore, the results are clear.")
	if !ok || got != "The results are clear." {
		t.Fatalf("stripOpener() = %q, %v", got, ok)
	}
	got, ok = stripOpener("It is imperative that we act now.")
	if !ok || got != "We act now." {
		t.Fatalf("stripOpener() = %q, %v", got, ok)
	}
	if _, ok := stripOpener("Thusly is not a real opener."); ok {
		t.Fatalf("expected no match for a longer word")
	}
}

func TestOrdinal(t *testing.T) {
	cases := map[float64]string{0: "0th", 0.01: "1st", 0.02: "2nd", 0.03: "3rd", 0.11: "11th", 0.21: "21st", 1: "100th"}
	for in, want := range cases {
		if got := ordinal(in); got != want {
			t.Fatalf("ordinal(%v) = %q, want %q", in, got, want)
		}
	}
}
