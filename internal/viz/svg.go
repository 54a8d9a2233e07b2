package viz

import (
	"fmt"
	"html"
	"io"
	"math"
	"strings"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/san-kum/orbsim/internal/dynamo"
)

// Plane selects the two position axes a track is projected onto.
type Plane string

const (
	PlaneXY Plane = "xy"
	PlaneXZ Plane = "xz"
	PlaneYZ Plane = "yz"
)

func (p Plane) project(v r3.Vec) (float64, float64, error) {
	switch p {
	case PlaneXY, "":
		return v.X, v.Y, nil
	case PlaneXZ:
		return v.X, v.Z, nil
	case PlaneYZ:
		return v.Y, v.Z, nil
	}
	return 0, 0, fmt.Errorf("unknown plane %q (want xy, xz or yz)", string(p))
}

// SVGOptions describe a trajectory plot.
type SVGOptions struct {
	Width, Height int
	Plane         Plane
	// OriginRadius draws the central body as a disc at the origin when
	// positive.
	OriginRadius float64
	Labels       []string
	Theme        Theme
}

// TrajectorySVG writes the position history of every body in states as
// one path per body. Body i occupies elements 6i..6i+5 of each state.
func TrajectorySVG(w io.Writer, states []dynamo.State, bodies int, opts SVGOptions) error {
	if len(states) < 2 {
		return fmt.Errorf("need at least two states to draw a trajectory, got %d", len(states))
	}
	if bodies <= 0 || len(states[0]) < bodies*dynamo.CartesianSize {
		return fmt.Errorf("states hold %d values, too few for %d bodies", len(states[0]), bodies)
	}
	if opts.Width <= 0 {
		opts.Width = 800
	}
	if opts.Height <= 0 {
		opts.Height = 800
	}
	if opts.Theme.Name == "" {
		opts.Theme = Themes[0]
	}

	tracks := make([][][2]float64, bodies)
	minX, maxX := -opts.OriginRadius, opts.OriginRadius
	minY, maxY := -opts.OriginRadius, opts.OriginRadius
	for b := range tracks {
		tracks[b] = make([][2]float64, 0, len(states))
		for _, x := range states {
			px, py, err := opts.Plane.project(x.Position(b))
			if err != nil {
				return err
			}
			tracks[b] = append(tracks[b], [2]float64{px, py})
			minX, maxX = math.Min(minX, px), math.Max(maxX, px)
			minY, maxY = math.Min(minY, py), math.Max(maxY, py)
		}
	}

	// Equal scale on both axes so orbits keep their shape.
	span := math.Max(maxX-minX, maxY-minY)
	if span == 0 {
		span = 1
	}
	span *= 1.1
	cx, cy := (minX+maxX)/2, (minY+maxY)/2
	size := float64(min(opts.Width, opts.Height))
	scale := size / span
	toX := func(x float64) float64 { return float64(opts.Width)/2 + (x-cx)*scale }
	toY := func(y float64) float64 { return float64(opts.Height)/2 - (y-cy)*scale }

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, opts.Width, opts.Height, opts.Width, opts.Height)

	if opts.OriginRadius > 0 {
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="%s" fill-opacity="0.35"/>
`, toX(0), toY(0), opts.OriginRadius*scale, string(opts.Theme.Muted))
	}

	colors := []string{string(opts.Theme.Primary), string(opts.Theme.Success), string(opts.Theme.Warning), string(opts.Theme.Secondary)}
	for b, track := range tracks {
		color := colors[b%len(colors)]
		fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="`, color)
		for i, p := range track {
			cmd := " L"
			if i == 0 {
				cmd = "M"
			}
			fmt.Fprintf(&sb, "%s%.1f,%.1f", cmd, toX(p[0]), toY(p[1]))
		}
		sb.WriteString("\"/>\n")

		end := track[len(track)-1]
		fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="3" fill="%s"/>
`, toX(end[0]), toY(end[1]), color)
		if b < len(opts.Labels) {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" fill="%s" font-family="monospace" font-size="12">%s</text>
`, toX(end[0])+6, toY(end[1])-6, color, html.EscapeString(opts.Labels[b]))
		}
	}
	sb.WriteString("</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
