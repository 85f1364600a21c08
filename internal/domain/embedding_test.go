package domain

import (
	"context"
	"errors"
	"testing"
)

// recordingEmbedder returns a one-element vector per call and remembers every input.
type recordingEmbedder struct {
	texts  []string
	tokens int
	err    error
}

func (r *recordingEmbedder) Embed(_ context.Context, text string) (EmbeddingResult, error) {
	if r.err != nil {
		return EmbeddingResult{}, r.err
	}
	r.texts = append(r.texts, text)
	return EmbeddingResult{
		Embedding:    []float32{float32(len(r.texts))},
		PromptTokens: r.tokens,
		TotalTokens:  r.tokens,
	}, nil
}

type recordingBatchEmbedder struct {
	recordingEmbedder
	batches [][]string
}

func (r *recordingBatchEmbedder) BatchEmbed(_ context.Context, texts []string) (BatchEmbeddingResult, error) {
	if r.err != nil {
		return BatchEmbeddingResult{}, r.err
	}
	r.batches = append(r.batches, texts)
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i)}
	}
	return BatchEmbeddingResult{Embeddings: out, TotalTokens: r.tokens * len(texts)}, nil
}

func TestBatchFallback(t *testing.T) {
	tests := []struct {
		name       string
		texts      []string
		wantCalls  int
		wantTokens int
	}{
		{"document items", []string{"go", "kubernetes", "postgres"}, 3, 12},
		{"single title", []string{"Backend Engineer"}, 1, 4},
		{"empty", nil, 0, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			inner := &recordingEmbedder{tokens: 4}
			res, err := BatchFallback(context.Background(), inner, tc.texts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(inner.texts) != tc.wantCalls {
				t.Errorf("expected %d inner calls, got %d", tc.wantCalls, len(inner.texts))
			}
			if len(res.Embeddings) != len(tc.texts) {
				t.Fatalf("expected %d embeddings, got %d", len(tc.texts), len(res.Embeddings))
			}
			if res.TotalTokens != tc.wantTokens || res.PromptTokens != tc.wantTokens {
				t.Errorf("expected %d tokens, got prompt=%d total=%d", tc.wantTokens, res.PromptTokens, res.TotalTokens)
			}
			for i, emb := range res.Embeddings {
				if emb[0] != float32(i+1) {
					t.Errorf("embedding %d out of order: %v", i, emb)
				}
			}
		})
	}
}

func TestBatchFallback_StopsOnError(t *testing.T) {
	providerErr := errors.New("provider down")
	inner := &recordingEmbedder{err: providerErr}

	_, err := BatchFallback(context.Background(), inner, []string{"sql", "python"})
	if !errors.Is(err, providerErr) {
		t.Fatalf("expected wrapped provider error, got %v", err)
	}
}

func TestInstructionEmbedder_Embed(t *testing.T) {
	inner := &recordingEmbedder{}
	emb := NewInstructionEmbedder(inner, "passage: ")

	if _, err := emb.Embed(context.Background(), "5 years of experience"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if inner.texts[0] != "passage: 5 years of experience" {
		t.Errorf("expected instruction prefix, got %q", inner.texts[0])
	}

	plain := NewInstructionEmbedder(&recordingEmbedder{}, "")
	if _, err := plain.Embed(context.Background(), "go"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestInstructionEmbedder_BatchUsesInnerBatch(t *testing.T) {
	inner := &recordingBatchEmbedder{recordingEmbedder: recordingEmbedder{tokens: 2}}
	emb := NewInstructionEmbedder(inner, "passage: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"go", "Backend Engineer"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.batches) != 1 {
		t.Fatalf("expected one batch call, got %d", len(inner.batches))
	}
	if got := inner.batches[0]; got[0] != "passage: go" || got[1] != "passage: Backend Engineer" {
		t.Errorf("expected prefixed batch, got %v", got)
	}
	if len(inner.texts) != 0 {
		t.Errorf("single Embed must not be used, got %d calls", len(inner.texts))
	}
	if res.TotalTokens != 4 {
		t.Errorf("expected 4 tokens, got %d", res.TotalTokens)
	}
}

func TestInstructionEmbedder_BatchFallsBackToSingle(t *testing.T) {
	inner := &recordingEmbedder{tokens: 3}
	emb := NewInstructionEmbedder(inner, "q: ")

	res, err := emb.BatchEmbed(context.Background(), []string{"a", "b"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(inner.texts) != 2 || inner.texts[1] != "q: b" {
		t.Errorf("expected per-text prefixed calls, got %v", inner.texts)
	}
	if res.TotalTokens != 6 {
		t.Errorf("expected 6 tokens, got %d", res.TotalTokens)
	}
}

func TestInstructionEmbedder_BatchError(t *testing.T) {
	providerErr := errors.New("batch fail")
	inner := &recordingBatchEmbedder{recordingEmbedder: recordingEmbedder{err: providerErr}}

	_, err := NewInstructionEmbedder(inner, "x: ").BatchEmbed(context.Background(), []string{"a"})
	if !errors.Is(err, providerErr) {
		t.Errorf("expected wrapped error, got %v", err)
	}
}
