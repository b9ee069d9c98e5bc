package embedding

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func norm(v Vector) float64 {
	var s float64
	for _, x := range v {
		s += x * x
	}
	return math.Sqrt(s)
}

func TestEmbedUnitNorm(t *testing.T) {
	tests := []struct {
		name string
		text string
		zero bool
	}{
		{"simple", "Freude trägt den Tag", false},
		{"repeated terms", "echo echo echo brücke", false},
		{"empty", "", true},
		{"stopwords only", "der die das und oder", true},
		{"punctuation only", ":::: !!!", true},
	}

	e := NewHashedEmbedder(Dim)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v := e.Embed(tt.text)
			if len(v) != Dim {
				t.Fatalf("dims = %d, want %d", len(v), Dim)
			}
			n := norm(v)
			if tt.zero {
				if n != 0 {
					t.Errorf("norm = %f, want zero vector", n)
				}
			} else if math.Abs(n-1.0) > 1e-9 {
				t.Errorf("norm = %f, want 1.0", n)
			}
		})
	}
}

func TestEmbedDeterministic(t *testing.T) {
	e := NewHashedEmbedder(Dim)
	a := e.Embed("Heute dient mir Freude")
	b := e.Embed("Heute dient mir Freude")
	if !reflect.DeepEqual(a, b) {
		t.Fatal("embedding not deterministic")
	}
}

func TestCosineSymmetry(t *testing.T) {
	e := NewHashedEmbedder(Dim)
	a := e.Embed("Freude hallt im Echo wider")
	b := e.Embed("Fokus hilft beim Lernen")
	ab, ba := Cosine(a, b), Cosine(b, a)
	if math.Abs(ab-ba) > 1e-12 {
		t.Errorf("cosine asymmetric: %f vs %f", ab, ba)
	}
}

func TestCosineEdgeCases(t *testing.T) {
	tests := []struct {
		name string
		a, b Vector
		want float64
	}{
		{"identical", Vector{1, 0, 0}, Vector{1, 0, 0}, 1.0},
		{"orthogonal", Vector{1, 0, 0}, Vector{0, 1, 0}, 0.0},
		{"empty", Vector{}, Vector{}, 0.0},
		{"length mismatch", Vector{1, 0}, Vector{1, 0, 0}, 0.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cosine(tt.a, tt.b); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine = %f, want %f", got, tt.want)
			}
		})
	}
}

type mapSource map[int64]string

func (m mapSource) AllChunkTexts(context.Context) (map[int64]string, error) {
	return m, nil
}

func TestSimilar(t *testing.T) {
	src := mapSource{
		1: "Freude hallt im Echo wider",
		2: "Echo der Freude hallt wider",
		3: "Quantenphysik und Thermodynamik",
	}
	ix := NewIndex(src, nil)

	got, err := ix.Similar(context.Background(), 1, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("want 2 neighbors, got %v", got)
	}
	if got[0].ID != 2 {
		t.Errorf("nearest neighbor should be the paraphrase, got %v", got)
	}
	if got[0].Score < got[1].Score {
		t.Errorf("neighbors not sorted by score: %v", got)
	}
}

func TestSimilarUnknownTarget(t *testing.T) {
	ix := NewIndex(mapSource{1: "etwas"}, nil)
	got, err := ix.Similar(context.Background(), 99, 5, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("unknown target must yield empty result, got %v", got)
	}
}

func TestSimilarThreshold(t *testing.T) {
	src := mapSource{
		1: "Alpha Beta Gamma",
		2: "Alpha Beta Gamma",
		3: "völlig anderes Thema ohne Bezug",
	}
	ix := NewIndex(src, nil)
	th := 0.9
	got, err := ix.Similar(context.Background(), 1, 5, &th)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ID != 2 {
		t.Errorf("threshold filter failed: %v", got)
	}
}

func TestKMeansDeterministic(t *testing.T) {
	texts := map[int64]string{
		1: "Freude Freude Echo",
		2: "Echo Freude hallt",
		3: "Thermodynamik Entropie Energie",
		4: "Energie Entropie Systeme",
	}
	a := KMeansTexts(texts, 2, 10, 42)
	b := KMeansTexts(texts, 2, 10, 42)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("kmeans not deterministic: %v vs %v", a, b)
	}
	if len(a) != len(texts) {
		t.Fatalf("every chunk needs a label: %v", a)
	}
}

func TestKMeansFewerChunksThanClusters(t *testing.T) {
	texts := map[int64]string{7: "einzelner Text"}
	labels := KMeansTexts(texts, 3, 5, 1)
	if len(labels) != 1 {
		t.Fatalf("got %v", labels)
	}
	if lab := labels[7]; lab < 0 || lab >= 3 {
		t.Errorf("label out of range: %d", lab)
	}
}

func TestKMeansEmpty(t *testing.T) {
	if got := KMeansTexts(nil, 3, 5, 1); len(got) != 0 {
		t.Errorf("empty input: got %v", got)
	}
}
