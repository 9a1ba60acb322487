package models

import "fmt"

// Color identifies one of the two teams in the water.
type Color string

const (
	Black Color = "BLACK"
	White Color = "WHITE"
)

// Colors lists both teams in display order.
func Colors() []Color {
	return []Color{Black, White}
}

// Other returns the opposing team.
func (c Color) Other() Color {
	if c == Black {
		return White
	}
	return Black
}

// Valid reports whether c is one of the two team colors.
func (c Color) Valid() bool {
	return c == Black || c == White
}

func (c Color) String() string {
	switch c {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return fmt.Sprintf("Color(%q)", string(c))
	}
}

// OptColor is a foul bucket: one of the teams, or Equal for fouls that belong to neither.
type OptColor string

const (
	OptBlack OptColor = "BLACK"
	OptWhite OptColor = "WHITE"
	Equal    OptColor = "EQUAL"
)

// OptColors lists every foul bucket in display order.
func OptColors() []OptColor {
	return []OptColor{OptBlack, OptWhite, Equal}
}

// ColorOpt lifts a team color into a foul bucket.
func ColorOpt(c Color) OptColor {
	return OptColor(c)
}

// Color returns the team for the bucket, false for Equal.
func (o OptColor) Color() (Color, bool) {
	switch o {
	case OptBlack:
		return Black, true
	case OptWhite:
		return White, true
	default:
		return "", false
	}
}

// Valid reports whether o is a known foul bucket.
func (o OptColor) Valid() bool {
	return o == OptBlack || o == OptWhite || o == Equal
}

func (o OptColor) String() string {
	if c, ok := o.Color(); ok {
		return c.String()
	}
	if o == Equal {
		return "Equal"
	}
	return fmt.Sprintf("OptColor(%q)", string(o))
}
