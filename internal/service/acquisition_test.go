package service

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/models"
	"heatpump_monitor/internal/sensors"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

// flatSource pins temperature channels to tempRaw, pressure channels to
// pressureRaw and the AC channels to their zero points.
func flatSource(cal sensors.Calibration, tempRaw, pressureRaw int) sensors.AnalogSource {
	return sensors.SourceFunc(func(ch sensors.Channel) int {
		switch ch {
		case sensors.ChannelVoltage:
			return cal.ADCCenter
		case sensors.ChannelCurrent:
			return 2047
		case sensors.ChannelPressureHigh, sensors.ChannelPressureLow:
			return pressureRaw
		default:
			return tempRaw
		}
	})
}

func TestAssembler_SharedTimestampAndValidation(t *testing.T) {
	cal := sensors.DefaultCalibration()
	proc := sensors.NewProcessor(flatSource(cal, 0, 2048), cal).WithSleeper(func(time.Duration) {})
	a := NewAssembler(proc, sensors.DefaultRanges(), &fakeClock{ms: 777}, 1.0)

	snap := a.Acquire()

	if snap.ReadingTime != 777 {
		t.Fatalf("ReadingTime = %d", snap.ReadingTime)
	}
	for _, nr := range snap.Readings() {
		if nr.Reading.Timestamp != 777 {
			t.Errorf("%s timestamp = %d, want shared 777", nr.Name, nr.Reading.Timestamp)
		}
	}
	if snap.TempInlet.Valid || !math.IsNaN(snap.TempInlet.Value) {
		t.Errorf("rail temperature should be NaN and invalid, got %+v", snap.TempInlet)
	}
	if !snap.Voltage.Valid || snap.Voltage.Value != 0 {
		t.Errorf("flat voltage channel should read a valid 0 V, got %+v", snap.Voltage)
	}
	if !snap.PressureHigh.Valid {
		t.Errorf("mid-scale pressure should be valid, got %+v", snap.PressureHigh)
	}
	if snap.CompressorRunning {
		t.Error("compressor should be idle with zero current")
	}
	if snap.Power != 0 {
		t.Errorf("power = %v, want 0", snap.Power)
	}
}

func TestDerive(t *testing.T) {
	tests := []struct {
		name        string
		voltage     models.Reading
		current     models.Reading
		wantPower   float64
		wantRunning bool
	}{
		{"both valid", models.Reading{Value: 230, Valid: true}, models.Reading{Value: 8.5, Valid: true}, 1955, true},
		{"invalid voltage", models.Reading{Value: 400, Valid: false}, models.Reading{Value: 8.5, Valid: true}, 0, true},
		{"invalid current", models.Reading{Value: 230, Valid: true}, models.Reading{Value: 30, Valid: false}, 0, false},
		{"at threshold", models.Reading{Value: 230, Valid: true}, models.Reading{Value: 1.0, Valid: true}, 230, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			s := models.Snapshot{Voltage: tc.voltage, Current: tc.current}
			derive(&s, 1.0)
			if s.Power != tc.wantPower {
				t.Errorf("power = %v, want %v", s.Power, tc.wantPower)
			}
			if s.CompressorRunning != tc.wantRunning {
				t.Errorf("running = %v, want %v", s.CompressorRunning, tc.wantRunning)
			}
		})
	}
}

func TestSimulatedAssembler_DeterministicAndPlausible(t *testing.T) {
	ranges := sensors.DefaultRanges()
	a := NewSimulatedAssembler(7, ranges, &fakeClock{ms: 5}, 1.0, 0)
	b := NewSimulatedAssembler(7, ranges, &fakeClock{ms: 5}, 1.0, 0)

	for i := 0; i < 50; i++ {
		sa, sb := a.Acquire(), b.Acquire()
		if sa != sb {
			t.Fatalf("pass %d: same seed produced different snapshots", i)
		}
		for _, nr := range sa.Readings() {
			if !nr.Reading.Valid {
				t.Fatalf("pass %d: %s invalid: %+v", i, nr.Name, nr.Reading)
			}
		}
		if sa.Voltage.Value < 225 || sa.Voltage.Value > 235 {
			t.Fatalf("voltage %v outside simulated band", sa.Voltage.Value)
		}
		if sa.TempCompressor.Value < 68 || sa.TempCompressor.Value > 72 {
			t.Fatalf("compressor temp %v outside simulated band", sa.TempCompressor.Value)
		}
		if !sa.CompressorRunning || !sa.FanRunning || sa.DefrostActive {
			t.Fatalf("unexpected status flags %+v", sa)
		}
		if math.Abs(sa.Power-sa.Voltage.Value*sa.Current.Value) > 1e-9 {
			t.Fatalf("power not derived from V*I")
		}
	}
}

func TestSimulatedAssembler_AnomaliesTripAlerts(t *testing.T) {
	a := NewSimulatedAssembler(3, sensors.DefaultRanges(), &fakeClock{}, 1.0, 1.0)
	e := newTestEngine(&stubNotifier{}, &fakeClock{}, nil)

	for i := 0; i < 20; i++ {
		s := a.Acquire()
		e.Evaluate(context.Background(), &s)
		critical := s.Voltage.AlertLevel == models.AlertCritical ||
			s.TempCompressor.AlertLevel >= models.AlertWarning ||
			s.PressureHigh.AlertLevel == models.AlertCritical
		if !critical {
			t.Fatalf("pass %d: anomaly rate 1 should always inject a fault, got %+v", i, s)
		}
	}
}

type faultyIIO struct {
	sensors.AnalogSource
	passes []map[sensors.Channel]error
}

func (f *faultyIIO) TakeFailed() map[sensors.Channel]error {
	if len(f.passes) == 0 {
		return nil
	}
	failed := f.passes[0]
	f.passes = f.passes[1:]
	return failed
}

func TestAssembler_LogsSourceFaultsOncePerPass(t *testing.T) {
	cal := sensors.DefaultCalibration()
	src := &faultyIIO{
		AnalogSource: flatSource(cal, 2048, 2048),
		passes: []map[sensors.Channel]error{{
			sensors.ChannelVoltage:     errors.New("read in_voltage4_raw: no such file"),
			sensors.ChannelTempInlet:   errors.New("read in_voltage0_raw: no such file"),
			sensors.ChannelPressureLow: errors.New("read in_voltage7_raw: no such file"),
		}},
	}
	core, logs := observer.New(zapcore.WarnLevel)
	log := &logger.Logger{SugaredLogger: zap.New(core).Sugar()}

	proc := sensors.NewProcessor(src, cal).WithSleeper(func(time.Duration) {})
	a := NewAssembler(proc, sensors.DefaultRanges(), &fakeClock{ms: 1}, 1.0).WithFaultLog(src, log)

	a.Acquire()
	a.Acquire()

	entries := logs.FilterMessage("sensor_read_failed").All()
	if len(entries) != 1 {
		t.Fatalf("logged %d faults, want 1", len(entries))
	}
	channels, ok := entries[0].ContextMap()["channels"].([]interface{})
	if !ok || len(channels) != 3 {
		t.Fatalf("channels field = %#v", entries[0].ContextMap()["channels"])
	}
}

func TestAssembler_FailedChannelsAreInvalid(t *testing.T) {
	cal := sensors.DefaultCalibration()
	src := &faultyIIO{
		AnalogSource: flatSource(cal, 2048, 2048),
		passes: []map[sensors.Channel]error{{
			sensors.ChannelCurrent:     errors.New("read in_voltage5_raw: no such file"),
			sensors.ChannelPressureLow: errors.New("read in_voltage7_raw: no such file"),
		}},
	}
	proc := sensors.NewProcessor(src, cal).WithSleeper(func(time.Duration) {})
	a := NewAssembler(proc, sensors.DefaultRanges(), &fakeClock{ms: 1}, 1.0).WithFaultLog(src, logger.NewNop())

	snap := a.Acquire()

	for _, r := range []models.Reading{snap.Current, snap.PressureLow} {
		if r.Valid || !math.IsNaN(r.Value) {
			t.Errorf("failed channel should be NaN and invalid, got %+v", r)
		}
	}
	if !snap.TempInlet.Valid || !snap.PressureHigh.Valid || !snap.Voltage.Valid {
		t.Errorf("healthy channels should stay valid: %+v", snap)
	}
	if snap.Power != 0 || snap.CompressorRunning {
		t.Errorf("power/compressor derived from a failed current read: %v %v", snap.Power, snap.CompressorRunning)
	}

	next := a.Acquire()
	if !next.Current.Valid {
		t.Errorf("current should recover once the channel reads again, got %+v", next.Current)
	}
}

func TestAssembler_MissingIIODeviceRaisesNoAlerts(t *testing.T) {
	src := sensors.NewIIOSource(filepath.Join(t.TempDir(), "missing"), nil)
	proc := sensors.NewProcessor(src, sensors.DefaultCalibration()).WithSleeper(func(time.Duration) {})
	a := NewAssembler(proc, sensors.DefaultRanges(), &fakeClock{ms: 1}, 1.0).WithFaultLog(src, logger.NewNop())

	notes := &stubNotifier{}
	e := newTestEngine(notes, &fakeClock{}, func(o *AlertOptions) { o.SkipInvalid = true })

	snap := a.Acquire()
	e.Evaluate(context.Background(), &snap)

	for _, nr := range snap.Readings() {
		if nr.Reading.Valid {
			t.Errorf("%s should be invalid without a device, got %+v", nr.Name, nr.Reading)
		}
	}
	if snap.CompressorRunning || snap.Power != 0 {
		t.Errorf("unexpected derived state: running=%v power=%v", snap.CompressorRunning, snap.Power)
	}
	if len(notes.sent) != 0 {
		t.Fatalf("sent %d notifications, want none: %+v", len(notes.sent), notes.sent)
	}
}
