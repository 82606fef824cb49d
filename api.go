package julia

import "context"

//go:generate irpc $GOFILE

// Renderer computes the raster for a single request.
type Renderer interface {
	Render(ctx context.Context, req RenderRequest) (RenderResult, error)
}
