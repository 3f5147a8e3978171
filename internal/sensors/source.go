// Package sensors turns raw analog samples into calibrated physical values
// and screens them against per-quantity plausibility ranges.
package sensors

// Channel identifies one analog input.
type Channel int

// Analog inputs of the monitored installation (ESP32 GPIO numbers).
const (
	ChannelTempInlet      Channel = 34
	ChannelTempOutlet     Channel = 35
	ChannelTempAmbient    Channel = 32
	ChannelTempCompressor Channel = 33
	ChannelVoltage        Channel = 36
	ChannelCurrent        Channel = 39
	ChannelPressureHigh   Channel = 25
	ChannelPressureLow    Channel = 26
)

// AnalogSource is polled synchronously for one sample per call.
// Samples are in [0, Calibration.ADCMax].
type AnalogSource interface {
	ReadRaw(ch Channel) int
}

// SourceFunc adapts a plain function to AnalogSource.
type SourceFunc func(ch Channel) int

// ReadRaw calls f(ch).
func (f SourceFunc) ReadRaw(ch Channel) int { return f(ch) }
