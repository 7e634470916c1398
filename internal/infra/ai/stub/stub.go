package stub

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/bryanwahyu/image-identifier/internal/domain/analysis"
)

// Client is a deterministic, no-network invoker intended for CI and local end-to-end runs.
// It returns schema-valid JSON so the full pipeline is exercised without a model.
type Client struct{}

func NewClient() *Client { return &Client{} }

func (c *Client) Model() string { return "stub" }

var (
	objects = []string{"cup", "laptop", "bicycle", "dog", "chair", "tree", "car", "book"}
	people  = []string{"man", "woman", "child", "group of friends"}
	scenes  = []string{"kitchen", "park", "office", "street", "beach", "living room"}
)

func (c *Client) Invoke(ctx context.Context, req analysis.ModelRequest) (analysis.RawOutput, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	// Make output deterministic per-input so the pipeline is stable in CI.
	sum := sha256.Sum256(append([]byte(req.Image.MIMEType), req.Image.Data...))

	out := map[string]any{
		"objects": []string{
			objects[int(sum[0])%len(objects)],
			fmt.Sprintf("object-%s", hex.EncodeToString(sum[1:3])),
		},
		"people": []string{},
		"scenes": []string{scenes[int(sum[3])%len(scenes)]},
	}
	if sum[4]%2 == 0 {
		out["people"] = []string{people[int(sum[5])%len(people)]}
	}

	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return analysis.RawOutput(b), nil
}
