package plan

import (
	"fmt"
	"math"
	"strings"
)

const (
	cmPerInch      = 2.54
	sqCmPerSqFoot  = 929.03
	sqCmPerSqInch  = 6.4516
	mmPerMeter     = 1000.0
	sqMmPerSqMeter = 1e6
	inchesPerFoot  = 12
	mmPerCm        = 10.0
	sqMmPerSqCm    = 100.0
)

// ParseMeasurementUnit accepts "metric" or "imperial", case-insensitively.
func ParseMeasurementUnit(s string) (MeasurementUnit, error) {
	switch MeasurementUnit(strings.ToLower(strings.TrimSpace(s))) {
	case Metric:
		return Metric, nil
	case Imperial:
		return Imperial, nil
	}
	return "", fmt.Errorf("unknown measurement unit %q: %w", s, ErrInvalidOperation)
}

// FormatLength renders a length given in centimeters for display.
// Metric lengths below a meter use whole millimeters; imperial lengths
// below a foot use whole inches.
func FormatLength(cm float64, unit MeasurementUnit) string {
	if unit == Imperial {
		in := cm / cmPerInch
		if in < inchesPerFoot {
			return fmt.Sprintf("%d\"", int64(roundHalfUp(in)))
		}
		feet := int64(math.Floor(in / inchesPerFoot))
		rest := int64(roundHalfUp(math.Mod(in, inchesPerFoot)))
		if rest == inchesPerFoot {
			feet, rest = feet+1, 0
		}
		return fmt.Sprintf("%d'%d\"", feet, rest)
	}
	mm := cm * mmPerCm
	if mm < mmPerMeter {
		return fmt.Sprintf("%dmm", int64(roundHalfUp(mm)))
	}
	return fmt.Sprintf("%.2fm", mm/mmPerMeter)
}

// FormatArea renders an area given in cm² for display.
func FormatArea(sqCm float64, unit MeasurementUnit) string {
	if unit == Imperial {
		if ft := sqCm / sqCmPerSqFoot; ft >= 1 {
			return fmt.Sprintf("%.2f ft²", ft)
		}
		return fmt.Sprintf("%.0f in²", sqCm/sqCmPerSqInch)
	}
	mm := sqCm * sqMmPerSqCm
	if mm < sqMmPerSqMeter {
		return fmt.Sprintf("%d mm²", int64(roundHalfUp(mm)))
	}
	return fmt.Sprintf("%.2f m²", mm/sqMmPerSqMeter)
}
