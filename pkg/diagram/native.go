package diagram

import "context"

// NativeEngine lays out and draws graphs in-process. It needs no external
// binary, so it is always available.
type NativeEngine struct {
	Options SVGOptions
}

func (e NativeEngine) RenderToVector(ctx context.Context, g GraphText) (VectorImage, error) {
	if err := ctx.Err(); err != nil {
		return VectorImage{}, &RenderError{Engine: EngineNative, Err: err}
	}

	graph, err := ParseGraph(g)
	if err != nil {
		return VectorImage{}, &RenderError{Engine: EngineNative, Err: err}
	}

	lay := LayeredLayout(graph, e.Options)
	return newVectorImage(EngineNative, []byte(WriteSVG(graph, lay, e.Options)))
}
