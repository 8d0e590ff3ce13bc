package mapping

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CoerceToNumber attempts to convert a value to float64
func CoerceToNumber(value interface{}) (float64, error) {
	switch v := value.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int32:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		return CoerceCurrency(v)
	default:
		return 0, fmt.Errorf("cannot convert %T to number", value)
	}
}

// CoerceCurrency parses a display amount such as "$1,299.50"
func CoerceCurrency(value string) (float64, error) {
	cleaned := strings.NewReplacer("$", "", ",", "", " ", "").Replace(strings.TrimSpace(value))
	num, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("cannot convert string '%s' to number", value)
	}
	return num, nil
}

// CoerceCheckbox converts a display value to boolean
func CoerceCheckbox(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "y", "1", "t", "x", "on", "checked":
		return true, nil
	case "false", "no", "n", "0", "f", "off", "":
		return false, nil
	default:
		return false, fmt.Errorf("cannot convert string '%s' to checkbox", value)
	}
}

// SameAmount compares a remote value with a desired amount to the cent
func SameAmount(current interface{}, desired float64) bool {
	num, err := CoerceToNumber(current)
	if err != nil {
		return false
	}
	return math.Round(num*100) == math.Round(desired*100)
}
