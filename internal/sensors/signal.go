package sensors

import (
	"math"
	"time"
)

const kelvinOffset = 273.15

// Sleeper pauses between RMS samples. time.Sleep in production.
type Sleeper func(d time.Duration)

// Processor converts samples from an AnalogSource into engineering units.
type Processor struct {
	src   AnalogSource
	cal   Calibration
	sleep Sleeper
}

// NewProcessor returns a processor sampling src with cal.
func NewProcessor(src AnalogSource, cal Calibration) *Processor {
	return &Processor{src: src, cal: cal, sleep: time.Sleep}
}

// WithSleeper replaces the inter-sample delay; tests pass a no-op.
func (p *Processor) WithSleeper(s Sleeper) *Processor {
	p.sleep = s
	return p
}

// Calibration returns the constants the processor was built with.
func (p *Processor) Calibration() Calibration { return p.cal }

// ReadTemperature returns °C for an NTC divider input, or NaN when the
// divider is at a rail or the computed resistance is implausible.
func (p *Processor) ReadTemperature(ch Channel) float64 {
	return p.cal.Temperature(p.src.ReadRaw(ch))
}

// Temperature converts one raw divider sample to °C.
func (c Calibration) Temperature(raw int) float64 {
	// open or shorted thermistor
	if raw <= 0 || raw >= c.ADCMax {
		return math.NaN()
	}

	v := c.toVolts(raw)
	r := c.NTCSeriesOhms * v / (c.ADCVRef - v)
	if r <= 0 || r > c.NTCMaxPlausibleOhms {
		return math.NaN()
	}

	// 1/T = 1/T0 + (1/B)·ln(R/R0)
	inv := math.Log(r/c.NTCNominalOhms)/c.NTCBeta + 1.0/(c.NTCNominalTempC+kelvinOffset)
	return 1.0/inv - kelvinOffset
}

// ReadVoltageRMS samples the AC voltage channel and returns volts RMS.
func (p *Processor) ReadVoltageRMS(ch Channel) float64 {
	rms := p.sampleRMS(ch, p.cal.ADCCenter, p.cal.VoltageSamples)
	return rms * p.cal.VoltageScale / float64(p.cal.ADCMax) * p.cal.ADCVRef
}

// ReadCurrentRMS samples the AC current channel and returns amps RMS.
func (p *Processor) ReadCurrentRMS(ch Channel) float64 {
	rms := p.sampleRMS(ch, p.cal.currentZeroCounts(), p.cal.CurrentSamples)
	return rms * p.cal.ADCVRef / float64(p.cal.ADCMax) / p.cal.CurrentSensitivity
}

// sampleRMS takes n samples around center and returns the RMS deviation in
// ADC counts. The burst always runs to completion.
func (p *Processor) sampleRMS(ch Channel, center, n int) float64 {
	if n <= 0 {
		return 0
	}
	var sumSquares int64
	for i := 0; i < n; i++ {
		d := int64(p.src.ReadRaw(ch) - center)
		sumSquares += d * d
		if p.sleep != nil && p.cal.SampleDelay > 0 {
			p.sleep(p.cal.SampleDelay)
		}
	}
	return math.Sqrt(float64(sumSquares) / float64(n))
}

// ReadPressure returns PSI for a transducer input. Voltages outside the
// transducer's output span are clamped, not rejected.
func (p *Processor) ReadPressure(ch Channel) float64 {
	return p.cal.Pressure(p.src.ReadRaw(ch))
}

// Pressure converts one raw transducer sample to PSI.
func (c Calibration) Pressure(raw int) float64 {
	v := c.toVolts(raw)
	v = math.Max(c.PressureMinVolts, math.Min(v, c.PressureMaxVolts))
	return (v - c.PressureMinVolts) / (c.PressureMaxVolts - c.PressureMinVolts) * c.PressureMaxPSI
}
