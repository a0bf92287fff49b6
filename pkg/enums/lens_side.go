package enums

import "fmt"

// LensSide identifies which lens of a pair a job work covers.
type LensSide string

const (
	LensSideLeft  LensSide = "left"
	LensSideRight LensSide = "right"
)

var validLensSides = []LensSide{
	LensSideLeft,
	LensSideRight,
}

// String implements fmt.Stringer.
func (l LensSide) String() string {
	return string(l)
}

// IsValid reports whether the value is a known LensSide.
func (l LensSide) IsValid() bool {
	return l == LensSideLeft || l == LensSideRight
}

// ParseLensSide converts raw input into a LensSide.
func ParseLensSide(value string) (LensSide, error) {
	for _, candidate := range validLensSides {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid lens side %q", value)
}
