// Package visual answers questions about images via a multimodal
// completion call.
package visual

import (
	"context"
	"encoding/base64"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/cultrix/deepresearch/internal/provider"
)

type Visualizer struct {
	Model provider.Model
}

func New(model provider.Model) *Visualizer { return &Visualizer{Model: model} }

// Ask sends the image (local path or URL) together with the question to a
// vision-capable model. Models without vision fail with a model error from
// the provider; that failure propagates unchanged.
func (v *Visualizer) Ask(ctx context.Context, image, question string) (string, error) {
	imageURL := image
	if !strings.HasPrefix(image, "http://") && !strings.HasPrefix(image, "https://") {
		b, err := os.ReadFile(image)
		if err != nil {
			return "", fmt.Errorf("read image: %w", err)
		}
		mt := mime.TypeByExtension(filepath.Ext(image))
		if mt == "" {
			mt = "image/png"
		}
		imageURL = "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(b)
	}
	if strings.TrimSpace(question) == "" {
		question = "Describe this image in detail."
	}
	return v.Model.Complete(ctx, provider.Request{
		Messages: []provider.Message{
			{Role: "user", Content: []map[string]any{
				provider.TextPart(question),
				provider.ImagePart(imageURL),
			}},
		},
		Temperature: 0.2,
	})
}
