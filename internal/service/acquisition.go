package service

import (
	"errors"
	"math"
	"math/rand"
	"sort"

	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/sensors"
)

// Acquirer produces one Snapshot per sampling pass.
type Acquirer interface {
	Acquire() models.Snapshot
}

// Assembler reads every channel through the signal processor in a single pass.
type Assembler struct {
	proc        *sensors.Processor
	ranges      sensors.Ranges
	clock       Clock
	runningAmps float64

	faults   faultSource
	faultLog *logger.Logger
}

// faultSource is an analog source that remembers which channels failed to read.
type faultSource interface {
	TakeFailed() map[sensors.Channel]error
}

func NewAssembler(proc *sensors.Processor, ranges sensors.Ranges, clock Clock, runningAmps float64) *Assembler {
	return &Assembler{proc: proc, ranges: ranges, clock: clock, runningAmps: runningAmps}
}

// Acquire samples all quantities. The pass is not interruptible; RMS bursts
// run to completion.
func (a *Assembler) Acquire() models.Snapshot {
	s := stamped{at: a.clock.Millis(), ranges: a.ranges}

	snap := models.Snapshot{
		TempInlet:      s.reading(sensors.QuantityTemperature, a.proc.ReadTemperature(sensors.ChannelTempInlet)),
		TempOutlet:     s.reading(sensors.QuantityTemperature, a.proc.ReadTemperature(sensors.ChannelTempOutlet)),
		TempAmbient:    s.reading(sensors.QuantityTemperature, a.proc.ReadTemperature(sensors.ChannelTempAmbient)),
		TempCompressor: s.reading(sensors.QuantityTemperature, a.proc.ReadTemperature(sensors.ChannelTempCompressor)),
		Voltage:        s.reading(sensors.QuantityVoltage, a.proc.ReadVoltageRMS(sensors.ChannelVoltage)),
		Current:        s.reading(sensors.QuantityCurrent, a.proc.ReadCurrentRMS(sensors.ChannelCurrent)),
		PressureHigh:   s.reading(sensors.QuantityPressure, a.proc.ReadPressure(sensors.ChannelPressureHigh)),
		PressureLow:    s.reading(sensors.QuantityPressure, a.proc.ReadPressure(sensors.ChannelPressureLow)),
		ReadingTime:    s.at,
	}
	a.markFailed(&snap)
	derive(&snap, a.runningAmps)
	return snap
}

// WithFaultLog makes readings from channels that src failed to read invalid,
// and logs the failures once per pass.
func (a *Assembler) WithFaultLog(src faultSource, log *logger.Logger) *Assembler {
	a.faults, a.faultLog = src, log
	return a
}

func (a *Assembler) markFailed(snap *models.Snapshot) {
	if a.faults == nil {
		return
	}
	failed := a.faults.TakeFailed()
	if len(failed) == 0 {
		return
	}

	channels := make([]int, 0, len(failed))
	for ch := range failed {
		channels = append(channels, int(ch))
	}
	sort.Ints(channels)

	errs := make([]error, 0, len(channels))
	for _, n := range channels {
		ch := sensors.Channel(n)
		if r := readingFor(snap, ch); r != nil {
			r.Value = math.NaN()
			r.Valid = false
		}
		errs = append(errs, failed[ch])
	}
	if a.faultLog != nil {
		a.faultLog.Warnw("sensor_read_failed", "channels", channels, "error", errors.Join(errs...))
	}
}

// readingFor returns the snapshot reading fed by ch, or nil.
func readingFor(snap *models.Snapshot, ch sensors.Channel) *models.Reading {
	switch ch {
	case sensors.ChannelTempInlet:
		return &snap.TempInlet
	case sensors.ChannelTempOutlet:
		return &snap.TempOutlet
	case sensors.ChannelTempAmbient:
		return &snap.TempAmbient
	case sensors.ChannelTempCompressor:
		return &snap.TempCompressor
	case sensors.ChannelVoltage:
		return &snap.Voltage
	case sensors.ChannelCurrent:
		return &snap.Current
	case sensors.ChannelPressureHigh:
		return &snap.PressureHigh
	case sensors.ChannelPressureLow:
		return &snap.PressureLow
	}
	return nil
}

// derive fills power and the compressor flag from the electrical readings.
func derive(snap *models.Snapshot, runningAmps float64) {
	if snap.Voltage.Valid && snap.Current.Valid {
		snap.Power = snap.Voltage.Value * snap.Current.Value
	} else {
		snap.Power = 0
	}
	snap.CompressorRunning = snap.Current.Valid && snap.Current.Value > runningAmps
}

type stamped struct {
	at     uint64
	ranges sensors.Ranges
}

func (s stamped) reading(q sensors.Quantity, v float64) models.Reading {
	return models.Reading{Value: v, Valid: s.ranges.Valid(q, v), Timestamp: s.at}
}

// SimulatedAssembler generates plausible readings for a running unit from a
// seeded source, so a given seed always yields the same sequence.
type SimulatedAssembler struct {
	rng         *rand.Rand
	ranges      sensors.Ranges
	clock       Clock
	runningAmps float64
	anomalyRate float64
}

func NewSimulatedAssembler(seed int64, ranges sensors.Ranges, clock Clock, runningAmps, anomalyRate float64) *SimulatedAssembler {
	return &SimulatedAssembler{
		rng:         rand.New(rand.NewSource(seed)),
		ranges:      ranges,
		clock:       clock,
		runningAmps: runningAmps,
		anomalyRate: anomalyRate,
	}
}

func (a *SimulatedAssembler) Acquire() models.Snapshot {
	s := stamped{at: a.clock.Millis(), ranges: a.ranges}

	// variation in [-1.00, 0.99]
	v := float64(a.rng.Intn(200)-100) / 100

	temps := [4]float64{45 + v, 50 + v, 25 + v, 70 + 2*v}
	volts := 230 + 5*v
	amps := 8.5 + 0.5*v
	pHigh := 280 + 10*v
	pLow := 70 + 5*v

	if a.anomalyRate > 0 && a.rng.Float64() < a.anomalyRate {
		switch a.rng.Intn(3) {
		case 0:
			if a.rng.Intn(2) == 0 {
				volts = 250 + 10*a.rng.Float64()
			} else {
				volts = 200 + 10*a.rng.Float64()
			}
		case 1:
			temps[3] = 90 + 10*a.rng.Float64()
		case 2:
			pHigh = 450 + 30*a.rng.Float64()
		}
	}

	snap := models.Snapshot{
		TempInlet:      s.reading(sensors.QuantityTemperature, temps[0]),
		TempOutlet:     s.reading(sensors.QuantityTemperature, temps[1]),
		TempAmbient:    s.reading(sensors.QuantityTemperature, temps[2]),
		TempCompressor: s.reading(sensors.QuantityTemperature, temps[3]),
		Voltage:        s.reading(sensors.QuantityVoltage, volts),
		Current:        s.reading(sensors.QuantityCurrent, amps),
		PressureHigh:   s.reading(sensors.QuantityPressure, pHigh),
		PressureLow:    s.reading(sensors.QuantityPressure, pLow),
		FanRunning:     true,
		ReadingTime:    s.at,
	}
	derive(&snap, a.runningAmps)
	return snap
}
