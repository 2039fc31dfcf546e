package sample

// Sample is one accepted measurement: seconds since session start plus the
// two channel values.
type Sample struct {
	Elapsed float64 `json:"elapsed_s"` // seconds, 2 decimal places
	Temp    float64 `json:"temp_c"`    // °C
	CO2     float64 `json:"co2_pct"`   // %
}
