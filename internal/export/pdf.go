package export

import (
	"fmt"
	"io"

	"github.com/jung-kurt/gofpdf"

	"github.com/ayusman/airdraw/internal/sketch"
)

// WritePDF renders the strokes onto a single page the size of the canvas,
// one PDF point per pixel. Each segment uses the colour and size of the
// point it ends on, matching the on-screen rendering.
func WritePDF(w io.Writer, width, height int, strokes []sketch.Stroke) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid page size %dx%d", width, height)
	}

	p := gofpdf.NewCustom(&gofpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           gofpdf.SizeType{Wd: float64(width), Ht: float64(height)},
	})
	p.SetTitle("airdraw", true)
	p.SetCreator("airdraw", true)
	p.SetAutoPageBreak(false, 0)
	p.AddPage()
	p.SetLineCapStyle("round")
	p.SetLineJoinStyle("round")

	for _, st := range strokes {
		for i := 1; i < len(st.Points); i++ {
			from, to := st.Points[i-1], st.Points[i]
			p.SetDrawColor(int(to.Color.R), int(to.Color.G), int(to.Color.B))
			p.SetLineWidth(float64(to.Size))
			p.Line(from.X, from.Y, to.X, to.Y)
		}
	}

	if err := p.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
