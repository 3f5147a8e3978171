package sensors

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// sineSource emits a sampled sine of amplitude counts around center.
func sineSource(center, amplitude, period int) AnalogSource {
	i := 0
	return SourceFunc(func(Channel) int {
		v := center + int(math.Round(float64(amplitude)*math.Sin(2*math.Pi*float64(i)/float64(period))))
		i++
		return v
	})
}

func constSource(raw int) AnalogSource {
	return SourceFunc(func(Channel) int { return raw })
}

func noSleep(time.Duration) {}

// rawForTemp inverts the divider and B-parameter model for a reference table.
func rawForTemp(cal Calibration, tempC float64) int {
	t := tempC + kelvinOffset
	t0 := cal.NTCNominalTempC + kelvinOffset
	r := cal.NTCNominalOhms * math.Exp(cal.NTCBeta*(1/t-1/t0))
	return int(math.Round(float64(cal.ADCMax) * r / (r + cal.NTCSeriesOhms)))
}

func TestTemperature_ReferenceTable(t *testing.T) {
	cal := DefaultCalibration()

	for _, want := range []float64{-20, -10, 0, 10, 25, 40, 60, 85, 100} {
		raw := rawForTemp(cal, want)
		got := NewProcessor(constSource(raw), cal).ReadTemperature(ChannelTempInlet)
		assert.InDeltaf(t, want, got, 0.5, "raw=%d", raw)
	}
}

func TestTemperature_MidScaleIsNominal(t *testing.T) {
	cal := DefaultCalibration()
	got := cal.Temperature(2048)
	assert.InDelta(t, 25.0, got, 0.1)
}

func TestTemperature_RejectsRailsAndImplausibleResistance(t *testing.T) {
	cal := DefaultCalibration()

	cases := []struct {
		name string
		raw  int
	}{
		{"ground rail", 0},
		{"negative sample", -5},
		{"supply rail", cal.ADCMax},
		{"above range", cal.ADCMax + 10},
		{"resistance above 1 MOhm", cal.ADCMax - 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.True(t, math.IsNaN(cal.Temperature(tc.raw)))
		})
	}
}

func TestSampleRMS_PureSine(t *testing.T) {
	cal := DefaultCalibration()
	const amplitude = 1000

	for _, n := range []int{200, 500, 1000} {
		p := NewProcessor(sineSource(cal.ADCCenter, amplitude, 50), cal).WithSleeper(noSleep)
		got := p.sampleRMS(ChannelVoltage, cal.ADCCenter, n)
		want := amplitude / math.Sqrt2
		assert.InEpsilonf(t, want, got, 0.02, "n=%d", n)
	}
}

func TestReadVoltageRMS_ScalesToVolts(t *testing.T) {
	cal := DefaultCalibration()
	const amplitude = 1200

	p := NewProcessor(sineSource(cal.ADCCenter, amplitude, 100), cal).WithSleeper(noSleep)
	got := p.ReadVoltageRMS(ChannelVoltage)

	want := amplitude / math.Sqrt2 * cal.VoltageScale / float64(cal.ADCMax) * cal.ADCVRef
	assert.InEpsilon(t, want, got, 0.02)
}

func TestReadCurrentRMS_CentersOnZeroPoint(t *testing.T) {
	cal := DefaultCalibration()
	zero := cal.currentZeroCounts()
	require.Equal(t, 2047, zero)

	p := NewProcessor(constSource(zero), cal).WithSleeper(noSleep)
	assert.Equal(t, 0.0, p.ReadCurrentRMS(ChannelCurrent))

	const amplitude = 620
	p = NewProcessor(sineSource(zero, amplitude, 100), cal).WithSleeper(noSleep)
	want := amplitude / math.Sqrt2 * cal.ADCVRef / float64(cal.ADCMax) / cal.CurrentSensitivity
	assert.InEpsilon(t, want, p.ReadCurrentRMS(ChannelCurrent), 0.02)
}

func TestSampleRMS_RunsFullBurstWithDelay(t *testing.T) {
	cal := DefaultCalibration()
	var sleeps int
	var total time.Duration
	p := NewProcessor(constSource(cal.ADCCenter), cal).WithSleeper(func(d time.Duration) {
		sleeps++
		total += d
	})

	p.ReadVoltageRMS(ChannelVoltage)

	assert.Equal(t, cal.VoltageSamples, sleeps)
	assert.Equal(t, time.Duration(cal.VoltageSamples)*cal.SampleDelay, total)
}

func TestSampleRMS_ZeroSamples(t *testing.T) {
	cal := DefaultCalibration()
	cal.VoltageSamples = 0
	p := NewProcessor(constSource(4000), cal).WithSleeper(noSleep)
	assert.Equal(t, 0.0, p.ReadVoltageRMS(ChannelVoltage))
}

func TestPressure_LinearAndClamped(t *testing.T) {
	cal := DefaultCalibration()

	cases := []struct {
		name string
		raw  int
		want float64
	}{
		{"below span clamps to zero", 0, 0},
		{"at min voltage", int(math.Round(0.5 * 4095 / 3.3)), 0},
		{"mid span", int(math.Round(1.5 * 4095 / 3.3)), 125},
		{"adc full scale", cal.ADCMax, (3.3 - 0.5) / 4.0 * 500},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := NewProcessor(constSource(tc.raw), cal).ReadPressure(ChannelPressureHigh)
			assert.InDelta(t, tc.want, got, 0.2)
		})
	}
}

func TestPressure_ClampsAboveSpan(t *testing.T) {
	cal := DefaultCalibration()
	cal.ADCVRef = 5.0
	assert.InDelta(t, cal.PressureMaxPSI, cal.Pressure(cal.ADCMax), 1e-9)
}
