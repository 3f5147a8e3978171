package models

import "encoding/json"

// AlertLevel is the severity assigned to a Reading by the alert engine.
type AlertLevel int

const (
	AlertOK AlertLevel = iota
	AlertWarning
	AlertCritical
)

// String returns the label used in notifications and logs.
func (l AlertLevel) String() string {
	switch l {
	case AlertOK:
		return "OK"
	case AlertWarning:
		return "WARNING"
	case AlertCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalJSON encodes the level as its label so status payloads stay readable.
func (l AlertLevel) MarshalJSON() ([]byte, error) {
	return json.Marshal(l.String())
}

// UnmarshalJSON accepts the label form written by MarshalJSON.
func (l *AlertLevel) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	switch s {
	case "WARNING":
		*l = AlertWarning
	case "CRITICAL":
		*l = AlertCritical
	default:
		*l = AlertOK
	}
	return nil
}

// Reading is one quantity measured during a sampling pass.
type Reading struct {
	Value      float64    `json:"value"`
	Valid      bool       `json:"valid"`
	Timestamp  uint64     `json:"timestamp"` // ms since boot
	AlertLevel AlertLevel `json:"alert_level"`
}

// MarshalJSON writes NaN/Inf sensor sentinels as null; encoding/json rejects them otherwise.
func (r Reading) MarshalJSON() ([]byte, error) {
	type wire struct {
		Value      *float64   `json:"value"`
		Valid      bool       `json:"valid"`
		Timestamp  uint64     `json:"timestamp"`
		AlertLevel AlertLevel `json:"alert_level"`
	}
	w := wire{Valid: r.Valid, Timestamp: r.Timestamp, AlertLevel: r.AlertLevel}
	if isFinite(r.Value) {
		v := r.Value
		w.Value = &v
	}
	return json.Marshal(w)
}

// UnmarshalJSON restores a null value as NaN.
func (r *Reading) UnmarshalJSON(b []byte) error {
	var w struct {
		Value      *float64   `json:"value"`
		Valid      bool       `json:"valid"`
		Timestamp  uint64     `json:"timestamp"`
		AlertLevel AlertLevel `json:"alert_level"`
	}
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	r.Valid, r.Timestamp, r.AlertLevel = w.Valid, w.Timestamp, w.AlertLevel
	if w.Value == nil {
		r.Value = nan()
	} else {
		r.Value = *w.Value
	}
	return nil
}
