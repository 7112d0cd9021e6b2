// Package numeric converts chat input into numbers and produces the
// shrinking prefixes used by the fuzzy product search.
package numeric

import (
	"iter"
	"math"
	"strconv"
	"strings"
)

// Mode selects how Parse interprets its input.
type Mode int

const (
	// ModeBoth returns an integer when the value is integral, otherwise a float.
	ModeBoth Mode = iota
	// ModeInt always truncates towards zero.
	ModeInt
	// ModeFloat always returns the float value.
	ModeFloat
)

// Number is a parsed numeric value that remembers whether it is integral.
type Number struct {
	Int   int64
	Float float64
	IsInt bool
}

// IntNumber wraps an integer.
func IntNumber(v int64) Number {
	return Number{Int: v, Float: float64(v), IsInt: true}
}

// FloatNumber wraps a float without integer coercion.
func FloatNumber(v float64) Number {
	return Number{Float: v}
}

// Value returns the number as float64 regardless of its kind.
func (n Number) Value() float64 {
	if n.IsInt {
		return float64(n.Int)
	}
	return n.Float
}

// String renders integers without a fractional part and floats in their shortest form.
func (n Number) String() string {
	if n.IsInt {
		return strconv.FormatInt(n.Int, 10)
	}
	return strconv.FormatFloat(n.Float, 'f', -1, 64)
}

// Parse converts text to a Number according to mode.
// Unknown modes behave like ModeBoth. The second result is false when text is not a number.
func Parse(text string, mode Mode) (Number, bool) {
	switch mode {
	case ModeInt, ModeFloat, ModeBoth:
	default:
		mode = ModeBoth
	}

	f, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return Number{}, false
	}
	if mode == ModeFloat {
		return FloatNumber(f), true
	}

	i, ok := truncate(f)
	if !ok {
		if mode == ModeBoth {
			return FloatNumber(f), true
		}
		return Number{}, false
	}
	if mode == ModeInt {
		return IntNumber(i), true
	}
	if float64(i) == f {
		return IntNumber(i), true
	}
	return FloatNumber(f), true
}

func truncate(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	t := math.Trunc(f)
	if t < math.MinInt64 || t >= math.MaxInt64 {
		return 0, false
	}
	return int64(t), true
}

// Decimals reports how many digits follow the decimal point in text.
// Exponent notation and non-numeric input report zero.
func Decimals(text string) int {
	s := strings.TrimSpace(text)
	if strings.ContainsAny(s, "eE") {
		return 0
	}
	dot := strings.IndexByte(s, '.')
	if dot < 0 {
		return 0
	}
	n := 0
	for _, r := range s[dot+1:] {
		if r < '0' || r > '9' {
			break
		}
		n++
	}
	return n
}

// Prefixes yields text truncated from the right one rune at a time,
// starting with the whole string and ending with its first rune.
func Prefixes(text string) iter.Seq[string] {
	runes := []rune(text)
	return func(yield func(string) bool) {
		for n := len(runes); n > 0; n-- {
			if !yield(string(runes[:n])) {
				return
			}
		}
	}
}
