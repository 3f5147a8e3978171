package sensors

import "time"

// Calibration holds the converter and transducer constants.
type Calibration struct {
	ADCMax    int     `mapstructure:"adc_max"`
	ADCVRef   float64 `mapstructure:"adc_vref"`
	ADCCenter int     `mapstructure:"adc_center"`

	// NTC thermistor in a divider with a fixed series resistor.
	NTCBeta             float64 `mapstructure:"ntc_beta"`
	NTCNominalOhms      float64 `mapstructure:"ntc_nominal_ohms"`
	NTCNominalTempC     float64 `mapstructure:"ntc_nominal_temp_c"`
	NTCSeriesOhms       float64 `mapstructure:"ntc_series_ohms"`
	NTCMaxPlausibleOhms float64 `mapstructure:"ntc_max_plausible_ohms"`

	// ZMPT101B voltage transformer.
	VoltageSamples int     `mapstructure:"voltage_samples"`
	VoltageScale   float64 `mapstructure:"voltage_scale"`

	// ACS712-20A hall current sensor.
	CurrentSamples     int     `mapstructure:"current_samples"`
	CurrentSensitivity float64 `mapstructure:"current_sensitivity"` // V per A
	CurrentZeroVolts   float64 `mapstructure:"current_zero_volts"`

	// Ratiometric pressure transducer.
	PressureMinVolts float64 `mapstructure:"pressure_min_volts"`
	PressureMaxVolts float64 `mapstructure:"pressure_max_volts"`
	PressureMaxPSI   float64 `mapstructure:"pressure_max_psi"`

	// Delay between RMS samples; 200µs gives ~100 samples per 50 Hz cycle.
	SampleDelay time.Duration `mapstructure:"sample_delay"`
}

// DefaultCalibration matches a 12-bit 3.3 V ADC with the stock sensor set.
func DefaultCalibration() Calibration {
	return Calibration{
		ADCMax:    4095,
		ADCVRef:   3.3,
		ADCCenter: 2048,

		NTCBeta:             3950,
		NTCNominalOhms:      10000,
		NTCNominalTempC:     25,
		NTCSeriesOhms:       10000,
		NTCMaxPlausibleOhms: 1_000_000,

		VoltageSamples: 500,
		VoltageScale:   234.26,

		CurrentSamples:     500,
		CurrentSensitivity: 0.100,
		CurrentZeroVolts:   1.65,

		PressureMinVolts: 0.5,
		PressureMaxVolts: 4.5,
		PressureMaxPSI:   500,

		SampleDelay: 200 * time.Microsecond,
	}
}

// toVolts converts a raw sample to the voltage at the ADC pin.
func (c Calibration) toVolts(raw int) float64 {
	return float64(raw) * c.ADCVRef / float64(c.ADCMax)
}

// currentZeroCounts is the raw sample the current sensor outputs at 0 A.
func (c Calibration) currentZeroCounts() int {
	return int(c.CurrentZeroVolts * float64(c.ADCMax) / c.ADCVRef)
}
