package device

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrBadNumber marks a record whose fields did not convert to floats. Per the
// acquisition contract this is fatal for the whole session.
var ErrBadNumber = errors.New("numeric conversion failed")

// Reading is one decoded record: parsed values for the store plus the raw
// field text for the CSV log, which preserves the device's own precision.
type Reading struct {
	Temp float64
	CO2  float64

	RawTemp string
	RawCO2  string
}

// ParseLine decodes one record. A line that does not split into exactly two
// fields is dropped (ok=false, no error): partial lines from a freshly opened
// port are routine and not worth surfacing. Two fields where either fails
// float conversion return an error wrapping ErrBadNumber.
func ParseLine(line string) (r Reading, ok bool, err error) {
	fields := strings.Split(line, ",")
	if len(fields) != 2 {
		return Reading{}, false, nil
	}

	rawTemp := strings.TrimSpace(fields[0])
	rawCO2 := strings.TrimSpace(fields[1])

	temp, err := strconv.ParseFloat(rawTemp, 64)
	if err != nil {
		return Reading{}, false, fmt.Errorf("%w: temp field %q", ErrBadNumber, rawTemp)
	}
	co2, err := strconv.ParseFloat(rawCO2, 64)
	if err != nil {
		return Reading{}, false, fmt.Errorf("%w: co2 field %q", ErrBadNumber, rawCO2)
	}

	return Reading{
		Temp:    temp,
		CO2:     co2,
		RawTemp: rawTemp,
		RawCO2:  rawCO2,
	}, true, nil
}
