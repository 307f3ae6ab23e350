// Package pipeline runs a design document through every export stage:
// canonical text, graph text, vector image, bitmap and Word document.
//
// Diagram failures are never fatal. A render or raster error downgrades
// the run to DiagramOmitted and the document is assembled without the
// diagram section. Parse and assembly errors abort the run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ha1tch/designdoc/internal/logging"
	"github.com/ha1tch/designdoc/pkg/design"
	"github.com/ha1tch/designdoc/pkg/designfile"
	"github.com/ha1tch/designdoc/pkg/diagram"
	"github.com/ha1tch/designdoc/pkg/docx"
)

// Stage names used in notices, logs and metrics.
const (
	StageSerialize = "serialize"
	StageParse     = "parse"
	StageRender    = "render"
	StageRaster    = "raster"
	StageAssemble  = "assemble"
)

// Rasterizer converts a vector image to a bitmap.
type Rasterizer interface {
	Rasterize(ctx context.Context, img diagram.VectorImage) (diagram.Bitmap, error)
}

// Assembler builds the output document.
type Assembler interface {
	Assemble(ctx context.Context, doc design.Document, bitmap *diagram.Bitmap) (docx.Document, error)
}

// DiagramStatus says what happened to the diagram in a run.
type DiagramStatus int

const (
	DiagramNone     DiagramStatus = iota // no transitions, nothing to draw
	DiagramIncluded                      // rendered and embedded
	DiagramOmitted                       // rendering failed; the document has no diagram section
)

func (s DiagramStatus) String() string {
	switch s {
	case DiagramIncluded:
		return "included"
	case DiagramOmitted:
		return "omitted"
	default:
		return "none"
	}
}

// Result is everything one export produced.
type Result struct {
	Canonical  string
	Document   design.Document
	Warnings   []design.Warning
	Graph      diagram.GraphText // empty when there are no transitions
	Diagram    DiagramStatus
	DiagramErr error // why the diagram was omitted
	Bitmap     *diagram.Bitmap
	Output     docx.Document
}

// Pipeline holds the stage implementations. Nil Logger, Notifier and
// Metrics are allowed.
type Pipeline struct {
	Renderer   diagram.Renderer
	Rasterizer Rasterizer
	Assembler  Assembler
	Logger     *slog.Logger
	Notifier   Notifier
	Metrics    *Metrics
}

// New returns a pipeline with the given stages.
func New(r diagram.Renderer, ras Rasterizer, asm Assembler) *Pipeline {
	return &Pipeline{Renderer: r, Rasterizer: ras, Assembler: asm}
}

func (p *Pipeline) log() *slog.Logger {
	if p.Logger == nil {
		return logging.NewNop()
	}
	return p.Logger
}

func (p *Pipeline) notify(level Level, stage string, err error) {
	if p.Notifier == nil {
		return
	}
	p.Notifier.Notify(Notice{Level: level, Stage: stage, Message: err.Error()})
}

// Generate trims doc and returns its canonical text.
func (p *Pipeline) Generate(doc design.Document) (string, error) {
	start := time.Now()
	text, err := designfile.Serialize(doc.Trimmed())
	p.Metrics.since(StageSerialize, start)
	if err != nil {
		err = fmt.Errorf("serialize: %w", err)
		p.log().Error("generate failed", "error", err)
		p.notify(LevelError, StageSerialize, err)
		return "", err
	}
	p.log().Debug("generated canonical text", "bytes", len(text))
	return text, nil
}

// Export parses canonical text and builds the output document. The
// returned error is a *designfile.ParseError or *docx.AssemblyError; a
// diagram failure is reported in Result.Diagram instead.
func (p *Pipeline) Export(ctx context.Context, canonical string) (*Result, error) {
	log := p.log()

	start := time.Now()
	doc, err := designfile.Deserialize(canonical)
	p.Metrics.since(StageParse, start)
	if err != nil {
		log.Error("export aborted", "stage", StageParse, "error", err)
		p.notify(LevelError, StageParse, err)
		p.Metrics.run("parse_error")
		return nil, err
	}

	res := &Result{Document: doc, Warnings: design.Lint(doc)}
	for _, w := range res.Warnings {
		log.Warn("lint", "type", w.Type, "index", w.Index, "message", w.Message)
	}

	// Re-serialize so the displayed text is the normalized form.
	if res.Canonical, err = designfile.Serialize(doc); err != nil {
		err = fmt.Errorf("serialize: %w", err)
		log.Error("export aborted", "stage", StageSerialize, "error", err)
		p.notify(LevelError, StageSerialize, err)
		p.Metrics.run("serialize_error")
		return nil, err
	}

	if doc.HasTransitions() {
		res.Graph = diagram.BuildGraph(doc.Transitions)
		bitmap, stage, err := p.diagram(ctx, res.Graph)
		if err != nil {
			res.Diagram = DiagramOmitted
			res.DiagramErr = err
			log.Warn("diagram omitted", "stage", stage, "error", err)
			p.notify(LevelWarning, stage, fmt.Errorf("diagram omitted: %w", err))
			p.Metrics.omitted(stage)
		} else {
			res.Diagram = DiagramIncluded
			res.Bitmap = &bitmap
		}
	}

	start = time.Now()
	out, err := p.Assembler.Assemble(ctx, doc, res.Bitmap)
	p.Metrics.since(StageAssemble, start)
	if err != nil {
		var aerr *docx.AssemblyError
		if !errors.As(err, &aerr) {
			err = &docx.AssemblyError{Op: "assemble", Err: err}
		}
		log.Error("export aborted", "stage", StageAssemble, "error", err)
		p.notify(LevelError, StageAssemble, err)
		p.Metrics.run("assembly_error")
		return nil, err
	}
	res.Output = out

	log.Info("export complete", "name", out.Name, "bytes", len(out.Data), "diagram", res.Diagram.String())
	p.Metrics.run("ok")
	return res, nil
}

// Diagram renders graph text to a bitmap. The error is a
// *diagram.RenderError or *diagram.RasterError.
func (p *Pipeline) Diagram(ctx context.Context, g diagram.GraphText) (diagram.Bitmap, error) {
	bm, _, err := p.diagram(ctx, g)
	return bm, err
}

func (p *Pipeline) diagram(ctx context.Context, g diagram.GraphText) (diagram.Bitmap, string, error) {
	if p.Renderer == nil {
		return diagram.Bitmap{}, StageRender, &diagram.RenderError{Engine: "none", Unavailable: true, Err: errors.New("no renderer configured")}
	}

	start := time.Now()
	vec, err := p.Renderer.RenderToVector(ctx, g)
	p.Metrics.since(StageRender, start)
	if err != nil {
		var rerr *diagram.RenderError
		if !errors.As(err, &rerr) {
			err = &diagram.RenderError{Engine: "unknown", Err: err}
		}
		return diagram.Bitmap{}, StageRender, err
	}
	p.log().Debug("rendered vector image", "width", vec.Width, "height", vec.Height)

	if p.Rasterizer == nil {
		return diagram.Bitmap{}, StageRaster, &diagram.RasterError{Err: errors.New("no rasterizer configured")}
	}

	start = time.Now()
	bm, err := p.Rasterizer.Rasterize(ctx, vec)
	p.Metrics.since(StageRaster, start)
	if err != nil {
		var rerr *diagram.RasterError
		if !errors.As(err, &rerr) {
			err = &diagram.RasterError{Err: err}
		}
		return diagram.Bitmap{}, StageRaster, err
	}
	p.log().Debug("rasterized diagram", "width", bm.Width, "height", bm.Height)
	return bm, StageRaster, nil
}
