package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"heatpump_monitor/internal/config"
	"heatpump_monitor/internal/logger"
	"heatpump_monitor/internal/models"
)

// Notifier delivers an alert text to a destination such as a phone number or topic.
type Notifier interface {
	Notify(ctx context.Context, destination, text string) error
}

// AlertOptions configures an AlertEngine.
type AlertOptions struct {
	Thresholds   config.Thresholds
	Cooldown     time.Duration
	DeviceID     string
	Destination  string
	SkipInvalid  bool
	ResetOnClear bool
}

// AlertOptionsFromConfig picks the alert settings out of cfg.
func AlertOptionsFromConfig(cfg *config.Config) AlertOptions {
	return AlertOptions{
		Thresholds:   cfg.Thresholds,
		Cooldown:     cfg.Alerts.Cooldown,
		DeviceID:     cfg.Device.ID,
		Destination:  cfg.Alerts.Destination,
		SkipInvalid:  cfg.Alerts.SkipInvalid,
		ResetOnClear: cfg.Alerts.ResetOnClear,
	}
}

// AlertOutcome reports one notification attempt or one condition clearing.
type AlertOutcome struct {
	Type    models.AlertType
	Level   models.AlertLevel
	Value   float64
	Message string
	Sent    bool
	Cleared bool
	Err     error
}

type alertRecord struct {
	lastAlertTime uint64
	sent          bool
	active        bool
}

// AlertEngine grades readings against thresholds and sends CRITICAL
// notifications at most once per cooldown window per condition.
// It is not safe for concurrent use; the control loop owns it.
type AlertEngine struct {
	opts       AlertOptions
	cooldownMS uint64
	notifier   Notifier
	clock      Clock
	log        *logger.Logger
	records    map[models.AlertType]*alertRecord
}

func NewAlertEngine(opts AlertOptions, notifier Notifier, clock Clock, log *logger.Logger) *AlertEngine {
	records := make(map[models.AlertType]*alertRecord, len(models.AlertTypes))
	for _, t := range models.AlertTypes {
		records[t] = &alertRecord{}
	}
	return &AlertEngine{
		opts:       opts,
		cooldownMS: uint64(opts.Cooldown.Milliseconds()),
		notifier:   notifier,
		clock:      clock,
		log:        log,
		records:    records,
	}
}

// CheckVoltage grades v against both voltage bands. isHigh tells which side
// tripped and is meaningless for AlertOK.
func (e *AlertEngine) CheckVoltage(v float64) (level models.AlertLevel, isHigh bool) {
	th := e.opts.Thresholds
	switch {
	case v >= th.VoltageHighCritical:
		return models.AlertCritical, true
	case v >= th.VoltageHighWarning:
		return models.AlertWarning, true
	case v <= th.VoltageLowCritical:
		return models.AlertCritical, false
	case v <= th.VoltageLowWarning:
		return models.AlertWarning, false
	}
	return models.AlertOK, false
}

func (e *AlertEngine) CheckCompressorTemp(c float64) models.AlertLevel {
	return gradeRising(c, e.opts.Thresholds.CompressorTempWarn, e.opts.Thresholds.CompressorTempCrit)
}

func (e *AlertEngine) CheckPressureHigh(psi float64) models.AlertLevel {
	return gradeRising(psi, e.opts.Thresholds.PressureHighWarning, e.opts.Thresholds.PressureHighCritical)
}

func (e *AlertEngine) CheckPressureLow(psi float64) models.AlertLevel {
	th := e.opts.Thresholds
	switch {
	case psi <= th.PressureLowCritical:
		return models.AlertCritical
	case psi <= th.PressureLowWarning:
		return models.AlertWarning
	}
	return models.AlertOK
}

func (e *AlertEngine) CheckCurrent(a float64) models.AlertLevel {
	return gradeRising(a, e.opts.Thresholds.CurrentWarning, e.opts.Thresholds.CurrentCritical)
}

func gradeRising(v, warning, critical float64) models.AlertLevel {
	switch {
	case v >= critical:
		return models.AlertCritical
	case v >= warning:
		return models.AlertWarning
	}
	return models.AlertOK
}

// CanSend reports whether a notification for t is allowed at now (ms).
// A clock reading older than the last send is treated as a wrap and allows sending.
func (e *AlertEngine) CanSend(t models.AlertType, now uint64) bool {
	rec := e.records[t]
	if rec == nil {
		return false
	}
	if !rec.sent {
		return true
	}
	if now < rec.lastAlertTime {
		rec.lastAlertTime = 0
		rec.sent = false
		return true
	}
	return now-rec.lastAlertTime >= e.cooldownMS
}

type alertCheck struct {
	quantity string
	reading  *models.Reading
	grade    func(float64) (models.AlertLevel, models.AlertType)
	clears   []models.AlertType
}

func (e *AlertEngine) checks(s *models.Snapshot) []alertCheck {
	single := func(t models.AlertType, f func(float64) models.AlertLevel) func(float64) (models.AlertLevel, models.AlertType) {
		return func(v float64) (models.AlertLevel, models.AlertType) { return f(v), t }
	}
	return []alertCheck{
		{
			quantity: "voltage",
			reading:  &s.Voltage,
			grade: func(v float64) (models.AlertLevel, models.AlertType) {
				level, high := e.CheckVoltage(v)
				if high {
					return level, models.AlertVoltageHigh
				}
				return level, models.AlertVoltageLow
			},
			clears: []models.AlertType{models.AlertVoltageHigh, models.AlertVoltageLow},
		},
		{
			quantity: "temp_compressor",
			reading:  &s.TempCompressor,
			grade:    single(models.AlertCompressorTemp, e.CheckCompressorTemp),
			clears:   []models.AlertType{models.AlertCompressorTemp},
		},
		{
			quantity: "pressure_high",
			reading:  &s.PressureHigh,
			grade:    single(models.AlertPressureHigh, e.CheckPressureHigh),
			clears:   []models.AlertType{models.AlertPressureHigh},
		},
		{
			quantity: "pressure_low",
			reading:  &s.PressureLow,
			grade:    single(models.AlertPressureLow, e.CheckPressureLow),
			clears:   []models.AlertType{models.AlertPressureLow},
		},
		{
			quantity: "current",
			reading:  &s.Current,
			grade:    single(models.AlertOvercurrent, e.CheckCurrent),
			clears:   []models.AlertType{models.AlertOvercurrent},
		},
	}
}

// Evaluate sets AlertLevel on the graded readings of s, sends notifications
// for CRITICAL conditions whose cooldown has elapsed, and clears conditions
// that are back to OK. Only a successful send starts a cooldown.
func (e *AlertEngine) Evaluate(ctx context.Context, s *models.Snapshot) []AlertOutcome {
	now := e.clock.Millis()
	var out []AlertOutcome

	for _, c := range e.checks(s) {
		if !c.reading.Valid {
			if e.opts.SkipInvalid {
				e.log.Debugw("alert_check_skipped", "quantity", c.quantity, "value", c.reading.Value)
				continue
			}
			e.log.Debugw("alert_check_on_invalid_reading", "quantity", c.quantity, "value", c.reading.Value)
		}

		level, typ := c.grade(c.reading.Value)
		c.reading.AlertLevel = level

		switch level {
		case models.AlertCritical:
			if !e.CanSend(typ, now) {
				continue
			}
			out = append(out, e.dispatch(ctx, typ, level, c.reading.Value, now))
		case models.AlertOK:
			for _, t := range c.clears {
				if e.clear(t) {
					out = append(out, AlertOutcome{Type: t, Level: models.AlertOK, Value: c.reading.Value, Cleared: true})
				}
			}
		}
	}
	return out
}

func (e *AlertEngine) dispatch(ctx context.Context, t models.AlertType, level models.AlertLevel, value float64, now uint64) AlertOutcome {
	msg := e.FormatMessage(t, level, value)
	o := AlertOutcome{Type: t, Level: level, Value: value, Message: msg}

	if err := e.notifier.Notify(ctx, e.opts.Destination, msg); err != nil {
		o.Err = fmt.Errorf("notify %s: %w", t, err)
		e.log.Warnw("alert_dispatch_failed", "type", t.Key(), "error", err)
		return o
	}

	rec := e.records[t]
	rec.lastAlertTime = now
	rec.sent = true
	rec.active = true
	o.Sent = true
	e.log.Infow("alert_sent", "type", t.Key(), "level", level.String(), "value", value)
	return o
}

// clear marks t inactive and reports whether it was active.
func (e *AlertEngine) clear(t models.AlertType) bool {
	rec := e.records[t]
	was := rec.active
	rec.active = false
	if e.opts.ResetOnClear {
		rec.sent = false
	}
	if was {
		e.log.Infow("alert_cleared", "type", t.Key())
	}
	return was
}

// Reset forgets all cooldowns and active conditions.
func (e *AlertEngine) Reset() {
	for _, rec := range e.records {
		*rec = alertRecord{}
	}
}

// FormatMessage renders the notification text for a condition.
func (e *AlertEngine) FormatMessage(t models.AlertType, level models.AlertLevel, value float64) string {
	var unit, num string
	switch t {
	case models.AlertVoltageHigh, models.AlertVoltageLow:
		unit, num = "V", fmt.Sprintf("%.1f", value)
	case models.AlertCompressorTemp:
		unit, num = "C", fmt.Sprintf("%.1f", value)
	case models.AlertPressureHigh, models.AlertPressureLow:
		unit, num = "PSI", fmt.Sprintf("%.0f", value)
	case models.AlertOvercurrent:
		unit, num = "A", fmt.Sprintf("%.1f", value)
	default:
		num = fmt.Sprintf("%.1f", value)
	}
	return fmt.Sprintf("ALERT: %s\nLevel: %s\nValue: %s %s\n\nDevice: %s", t, level, num, unit, e.opts.DeviceID)
}

// ActiveAlerts lists the names of active conditions in evaluation order.
func (e *AlertEngine) ActiveAlerts() []string {
	var names []string
	for _, t := range models.AlertTypes {
		if e.records[t].active {
			names = append(names, t.String())
		}
	}
	return names
}

// Summary is the one-line status reply, e.g. "Active alerts: HIGH VOLTAGE, OVERCURRENT".
func (e *AlertEngine) Summary() string {
	names := e.ActiveAlerts()
	if len(names) == 0 {
		return "No active alerts"
	}
	return "Active alerts: " + strings.Join(names, ", ")
}

// LastAlertTime returns the clock reading of the last successful send for t.
func (e *AlertEngine) LastAlertTime(t models.AlertType) (uint64, bool) {
	rec := e.records[t]
	if rec == nil || !rec.sent {
		return 0, false
	}
	return rec.lastAlertTime, true
}
