// Package export writes the committed path list out as SVG, PDF or video.
// None of the exporters modify the drawing state.
package export

import (
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ayusman/airdraw/internal/sketch"
)

const svgNamespace = "http://www.w3.org/2000/svg"

type svgDocument struct {
	XMLName   xml.Name      `xml:"svg"`
	Xmlns     string        `xml:"xmlns,attr"`
	Width     int           `xml:"width,attr"`
	Height    int           `xml:"height,attr"`
	ViewBox   string        `xml:"viewBox,attr"`
	Polylines []svgPolyline `xml:"polyline"`
}

type svgPolyline struct {
	Points        string `xml:"points,attr"`
	Stroke        string `xml:"stroke,attr"`
	StrokeWidth   int    `xml:"stroke-width,attr"`
	Fill          string `xml:"fill,attr,omitempty"`
	StrokeLinecap string `xml:"stroke-linecap,attr,omitempty"`
}

// WriteSVG writes one polyline per stroke, in order, into a document sized
// to the canvas. Coordinates are written in their shortest exact decimal
// form so ParseSVG reads back identical values. Strokes are drawn with the
// colour and size of their first point.
func WriteSVG(w io.Writer, width, height int, strokes []sketch.Stroke) error {
	doc := svgDocument{
		Xmlns:     svgNamespace,
		Width:     width,
		Height:    height,
		ViewBox:   fmt.Sprintf("0 0 %d %d", width, height),
		Polylines: make([]svgPolyline, 0, len(strokes)),
	}

	for _, st := range strokes {
		doc.Polylines = append(doc.Polylines, svgPolyline{
			Points:        formatPoints(st.Points),
			Stroke:        sketch.Hex(st.Color()),
			StrokeWidth:   st.Size(),
			Fill:          "none",
			StrokeLinecap: "round",
		})
	}

	if _, err := io.WriteString(w, xml.Header); err != nil {
		return fmt.Errorf("write svg header: %w", err)
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode svg: %w", err)
	}
	if err := enc.Flush(); err != nil {
		return err
	}
	_, err := io.WriteString(w, "\n")
	return err
}

// Document is a parsed SVG drawing.
type Document struct {
	Width   int
	Height  int
	Strokes []sketch.Stroke
}

// ParseSVG reads a document produced by WriteSVG. Every point of a stroke
// gets the polyline's colour and width.
func ParseSVG(r io.Reader) (*Document, error) {
	var doc svgDocument
	if err := xml.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode svg: %w", err)
	}

	out := &Document{
		Width:   doc.Width,
		Height:  doc.Height,
		Strokes: make([]sketch.Stroke, 0, len(doc.Polylines)),
	}

	for i, pl := range doc.Polylines {
		c, err := sketch.ParseHex(pl.Stroke)
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}
		pts, err := parsePoints(pl.Points)
		if err != nil {
			return nil, fmt.Errorf("polyline %d: %w", i, err)
		}

		st := sketch.Stroke{Points: make([]sketch.StrokePoint, len(pts))}
		for j, p := range pts {
			st.Points[j] = sketch.StrokePoint{X: p[0], Y: p[1], Color: c, Size: pl.StrokeWidth}
		}
		out.Strokes = append(out.Strokes, st)
	}

	return out, nil
}

func formatPoints(pts []sketch.StrokePoint) string {
	var b strings.Builder
	for i, p := range pts {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(strconv.FormatFloat(p.X, 'f', -1, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(p.Y, 'f', -1, 64))
	}
	return b.String()
}

func parsePoints(s string) ([][2]float64, error) {
	fields := strings.Fields(s)
	out := make([][2]float64, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("invalid point %q", f)
		}
		x, err := strconv.ParseFloat(xs, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid x in %q: %w", f, err)
		}
		y, err := strconv.ParseFloat(ys, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid y in %q: %w", f, err)
		}
		out = append(out, [2]float64{x, y})
	}
	return out, nil
}
