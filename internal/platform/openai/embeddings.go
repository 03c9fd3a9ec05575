package openai

import (
	"context"
	"fmt"
	"strings"
)

type embeddingsRequest struct {
	Model      string   `json:"model"`
	Input      []string `json:"input"`
	Dimensions int      `json:"dimensions,omitempty"`
}

type embeddingsResponse struct {
	Data []struct {
		Embedding []float64 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
}

// Embed returns one vector per input. Results are placed by the index the
// provider reports, falling back to response order when indices are absent.
func (c *client) Embed(ctx context.Context, inputs []string) ([][]float32, error) {
	if len(inputs) == 0 {
		return [][]float32{}, nil
	}

	clean := make([]string, len(inputs))
	for i := range inputs {
		s := strings.TrimSpace(inputs[i])
		if s == "" {
			s = " "
		}
		clean[i] = s
	}

	req := embeddingsRequest{Model: c.cfg.Model, Input: clean, Dimensions: c.cfg.Dimensions}
	var resp embeddingsResponse
	if err := c.do(ctx, "POST", "/v1/embeddings", req, &resp); err != nil {
		return nil, err
	}

	out := make([][]float32, len(clean))
	for _, d := range resp.Data {
		if d.Index >= 0 && d.Index < len(out) && out[d.Index] == nil {
			out[d.Index] = toFloat32(d.Embedding)
		}
	}
	if hasMissingEmbeddings(out) && len(resp.Data) == len(clean) {
		for i := range out {
			if out[i] == nil {
				out[i] = toFloat32(resp.Data[i].Embedding)
			}
		}
	}
	if hasMissingEmbeddings(out) {
		return nil, fmt.Errorf("openai embeddings missing indices: requested=%d returned=%d model=%s", len(clean), len(resp.Data), c.cfg.Model)
	}
	return out, nil
}

func toFloat32(in []float64) []float32 {
	vec := make([]float32, len(in))
	for i, f := range in {
		vec[i] = float32(f)
	}
	return vec
}

func hasMissingEmbeddings(v [][]float32) bool {
	for i := range v {
		if len(v[i]) == 0 {
			return true
		}
	}
	return false
}
