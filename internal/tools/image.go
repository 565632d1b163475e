package tools

import (
	"context"
	"strconv"

	"github.com/pagelens/pagelens/internal/assets"
	"github.com/pagelens/pagelens/internal/model"
)

// analyzeImageFromUrl probes an image URL and records the outcome on the
// asset registry. Images named directly by the user may not have been seen by
// any scan yet, so the URL is registered first when unknown.
func (b *builtins) analyzeImageFromURL(ctx context.Context, params map[string]any) (any, error) {
	imageURL, err := stringParam(params, "imageUrl")
	if err != nil {
		return nil, err
	}

	b.deps.Assets.Register(imageURL, model.AssetImage)

	resp, err := b.deps.Client.Do(ctx, &model.Request{Method: "GET", URL: imageURL})
	if err != nil {
		_ = b.deps.Assets.UpdateStatus(imageURL, model.AssetFailed, 0, nil)
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_ = b.deps.Assets.UpdateStatus(imageURL, model.AssetFailed, 0, map[string]string{
			"status_code": strconv.Itoa(resp.StatusCode),
		})
		return nil, &statusError{URL: imageURL, Code: resp.StatusCode}
	}

	contentType := resp.Headers.Get("Content-Type")
	size := int64(len(resp.Body))

	metadata := map[string]string{"content_type": contentType}
	if err := b.deps.Assets.UpdateStatus(imageURL, model.AssetScanned, size, metadata); err != nil {
		return nil, err
	}

	classified := assets.ClassifyURL(imageURL)
	return map[string]any{
		"url":          imageURL,
		"content_type": contentType,
		"size_bytes":   size,
		"looks_like":   string(classified),
	}, nil
}

type statusError struct {
	URL  string
	Code int
}

func (e *statusError) Error() string {
	return "fetch " + e.URL + ": HTTP " + strconv.Itoa(e.Code)
}
