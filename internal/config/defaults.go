package config

import (
	"time"

	"heatpump_monitor/internal/buffer"
	"heatpump_monitor/internal/sensors"

	"github.com/spf13/viper"
)

func setDefaults(v *viper.Viper) {
	v.SetDefault("port", "8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("db.path", "heatpump.db")
	v.SetDefault("auth.signing_key", "change-me")
	v.SetDefault("auth.token_ttl", time.Hour)

	v.SetDefault("device.id", "site1")
	v.SetDefault("device.firmware_version", "1.0.0")

	v.SetDefault("sensors.simulation", false)
	v.SetDefault("sensors.seed", 1)
	v.SetDefault("sensors.anomaly_rate", 0.0)
	v.SetDefault("sensors.iio_dir", "/sys/bus/iio/devices/iio:device0")
	setCalibrationDefaults(v, sensors.DefaultCalibration())
	for q, r := range sensors.DefaultRanges() {
		v.SetDefault("sensors.ranges."+string(q)+".min", r.Min)
		v.SetDefault("sensors.ranges."+string(q)+".max", r.Max)
	}

	t := DefaultThresholds()
	v.SetDefault("thresholds.voltage_high_critical", t.VoltageHighCritical)
	v.SetDefault("thresholds.voltage_high_warning", t.VoltageHighWarning)
	v.SetDefault("thresholds.voltage_low_warning", t.VoltageLowWarning)
	v.SetDefault("thresholds.voltage_low_critical", t.VoltageLowCritical)
	v.SetDefault("thresholds.compressor_temp_critical", t.CompressorTempCrit)
	v.SetDefault("thresholds.compressor_temp_warning", t.CompressorTempWarn)
	v.SetDefault("thresholds.pressure_high_critical", t.PressureHighCritical)
	v.SetDefault("thresholds.pressure_high_warning", t.PressureHighWarning)
	v.SetDefault("thresholds.pressure_low_critical", t.PressureLowCritical)
	v.SetDefault("thresholds.pressure_low_warning", t.PressureLowWarning)
	v.SetDefault("thresholds.current_critical", t.CurrentCritical)
	v.SetDefault("thresholds.current_warning", t.CurrentWarning)
	v.SetDefault("thresholds.compressor_running_amps", t.CompressorRunningAmps)

	v.SetDefault("alerts.cooldown", 5*time.Minute)
	v.SetDefault("alerts.destination", "admin")
	v.SetDefault("alerts.skip_invalid", false)
	v.SetDefault("alerts.reset_on_clear", true)

	v.SetDefault("buffer.capacity", buffer.DefaultCapacity)
	v.SetDefault("buffer.persist", true)

	v.SetDefault("pipeline.interval", 10*time.Second)
	v.SetDefault("pipeline.drain_limit", 0)
	v.SetDefault("pipeline.command_queue", 16)

	v.SetDefault("transport.kind", TransportNone)
	v.SetDefault("transport.nats.url", "nats://127.0.0.1:4222")
	v.SetDefault("transport.nats.subject", "heatpump")
	v.SetDefault("transport.nats.stream", "HEATPUMP")
	v.SetDefault("transport.nats.timeout", 5*time.Second)
	v.SetDefault("transport.s3.prefix", "heatpump")
	v.SetDefault("transport.mongo.database", "heatpump")
	v.SetDefault("transport.mongo.collection", "snapshots")
	v.SetDefault("transport.mongo.alerts_collection", "alerts")
	v.SetDefault("transport.mongo.timeout", 10*time.Second)
}

func setCalibrationDefaults(v *viper.Viper, c sensors.Calibration) {
	const p = "sensors.calibration."
	v.SetDefault(p+"adc_max", c.ADCMax)
	v.SetDefault(p+"adc_vref", c.ADCVRef)
	v.SetDefault(p+"adc_center", c.ADCCenter)
	v.SetDefault(p+"ntc_beta", c.NTCBeta)
	v.SetDefault(p+"ntc_nominal_ohms", c.NTCNominalOhms)
	v.SetDefault(p+"ntc_nominal_temp_c", c.NTCNominalTempC)
	v.SetDefault(p+"ntc_series_ohms", c.NTCSeriesOhms)
	v.SetDefault(p+"ntc_max_plausible_ohms", c.NTCMaxPlausibleOhms)
	v.SetDefault(p+"voltage_samples", c.VoltageSamples)
	v.SetDefault(p+"voltage_scale", c.VoltageScale)
	v.SetDefault(p+"current_samples", c.CurrentSamples)
	v.SetDefault(p+"current_sensitivity", c.CurrentSensitivity)
	v.SetDefault(p+"current_zero_volts", c.CurrentZeroVolts)
	v.SetDefault(p+"pressure_min_volts", c.PressureMinVolts)
	v.SetDefault(p+"pressure_max_volts", c.PressureMaxVolts)
	v.SetDefault(p+"pressure_max_psi", c.PressureMaxPSI)
	v.SetDefault(p+"sample_delay", c.SampleDelay)
}
