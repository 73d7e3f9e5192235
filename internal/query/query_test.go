// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package query

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/research-assistant/internal/llm"
)

type mockCompleter struct {
	out  string
	err  error
	reqs []llm.Request
}

func (m *mockCompleter) Complete(_ context.Context, req llm.Request) (string, error) {
	m.reqs = append(m.reqs, req)
	return m.out, m.err
}

func TestRefine(t *testing.T) {
	tests := []struct {
		name  string
		out   string
		err   error
		input string
		want  string
	}{
		{"uses trimmed model output", "  CRISPR off-target effects \n", nil, "what are off target effects of crispr", "CRISPR off-target effects"},
		{"falls back on error", "", errors.New("boom"), "sleep and memory", "sleep and memory"},
		{"falls back on empty output", "   ", nil, "sleep and memory", "sleep and memory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockCompleter{out: tt.out, err: tt.err}
			r := &Refiner{LLM: m, Model: "fast"}
			assert.Equal(t, tt.want, r.Refine(context.Background(), tt.input))

			require.Len(t, m.reqs, 1)
			req := m.reqs[0]
			assert.Equal(t, "fast", req.Model)
			assert.Equal(t, 0.1, req.Temperature)
			assert.False(t, req.JSON)
			require.Len(t, req.Messages, 2)
			assert.Equal(t, llm.RoleSystem, req.Messages[0].Role)
			assert.Equal(t, tt.input, req.Messages[1].Content)
		})
	}
}

func TestRefineSkipsBlankInput(t *testing.T) {
	m := &mockCompleter{out: "should not be used"}
	r := &Refiner{LLM: m}
	assert.Equal(t, "  ", r.Refine(context.Background(), "  "))
	assert.Empty(t, m.reqs)
}

func TestRefineNilRefiner(t *testing.T) {
	var r *Refiner
	assert.Equal(t, "x", r.Refine(context.Background(), "x"))
}

func TestBuildArxivQuery(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		author string
		want   string
	}{
		{"long text searches title", "deep learning for protein folding", "", "ti:deep learning for protein folding"},
		{"exactly three tokens grouped", "graph neural networks", "", "(graph neural networks)"},
		{"single token grouped", "transformers", "", "(transformers)"},
		{"author on short query", "transformers", "Vaswani", "(transformers) AND au:Vaswani"},
		{"author on long query", "attention is all you need", "Vaswani", "ti:attention is all you need AND au:Vaswani"},
		{"extra whitespace counts tokens only", "  a   b  c ", "", "(  a   b  c )"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildArxivQuery(tt.text, tt.author))
		})
	}
}
