package diagram

import "fmt"

// RenderError reports a failure turning graph text into a vector image.
type RenderError struct {
	Engine      string
	Unavailable bool // the engine could not be started at all
	Err         error
}

func (e *RenderError) Error() string {
	if e.Unavailable {
		return fmt.Sprintf("render diagram: %s engine unavailable: %v", e.Engine, e.Err)
	}
	return fmt.Sprintf("render diagram (%s): %v", e.Engine, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// RasterError reports a vector image the rasterizer could not decode or draw.
type RasterError struct {
	Err error
}

func (e *RasterError) Error() string {
	return fmt.Sprintf("rasterize diagram: %v", e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }
