package models

import "fmt"

// BlackWhiteBundle holds one value per team.
type BlackWhiteBundle[T any] struct {
	Black T `json:"black"`
	White T `json:"white"`
}

// Get returns the value for the given team.
func (b BlackWhiteBundle[T]) Get(c Color) T {
	if c == White {
		return b.White
	}
	return b.Black
}

// Ptr returns a pointer to the value for the given team.
func (b *BlackWhiteBundle[T]) Ptr(c Color) *T {
	if c == White {
		return &b.White
	}
	return &b.Black
}

// Set replaces the value for the given team.
func (b *BlackWhiteBundle[T]) Set(c Color, v T) {
	*b.Ptr(c) = v
}

// Scores is the per-team goal count.
type Scores = BlackWhiteBundle[uint8]

// ScoresDiffer reports whether one team is ahead.
func ScoresDiffer(s Scores) bool {
	return s.Black != s.White
}

// FormatScores renders scores the way they appear in the game log.
func FormatScores(s Scores) string {
	return fmt.Sprintf("Black: %d, White: %d", s.Black, s.White)
}

// OptColorBundle holds one value per foul bucket.
type OptColorBundle[T any] struct {
	Black T `json:"black"`
	White T `json:"white"`
	Equal T `json:"equal"`
}

// Get returns the value for the given bucket.
func (b OptColorBundle[T]) Get(o OptColor) T {
	switch o {
	case OptBlack:
		return b.Black
	case OptWhite:
		return b.White
	default:
		return b.Equal
	}
}

// Ptr returns a pointer to the value for the given bucket.
func (b *OptColorBundle[T]) Ptr(o OptColor) *T {
	switch o {
	case OptBlack:
		return &b.Black
	case OptWhite:
		return &b.White
	default:
		return &b.Equal
	}
}
