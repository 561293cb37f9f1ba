package utils

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// ParseFloats splits a whitespace-delimited string into floats.
func ParseFloats(s string) ([]float64, error) {
	fields := strings.Fields(s)
	converted := make([]float64, 0, len(fields))
	for _, field := range fields {
		value, err := strconv.ParseFloat(field, 64)
		if err != nil {
			return nil, errors.Wrapf(err, "bad number %q", field)
		}
		converted = append(converted, value)
	}
	return converted, nil
}

// FormatFloat formats v with the given number of significant digits.
func FormatFloat(v float64, digits int) string {
	return strconv.FormatFloat(v, 'g', digits, 64)
}

// JoinFloats formats each value with FormatFloat and joins them with sep.
func JoinFloats(values []float64, digits int, sep string) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = FormatFloat(v, digits)
	}
	return strings.Join(parts, sep)
}
