package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/moodkeeper/internal/flagx"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Zero values
// leave the current setting alone.
type JsonConfig struct {
	ServerURL      string         `json:"server_url"`
	RequestTimeout timex.Duration `json:"request_timeout"`
	DataFile       string         `json:"data_file"`
	LogLevel       string         `json:"log_level"`
	LogFile        string         `json:"log_file"`

	Backends           []string       `json:"backends"`
	ModelInputSize     int            `json:"model_input_size"`
	ClockInterval      timex.Duration `json:"clock_interval"`
	FaceDetectInterval timex.Duration `json:"face_detect_interval"`

	ReferenceTimeZone string `json:"reference_time_zone"`

	CameraFile   string         `json:"camera_file"`
	PingInterval timex.Duration `json:"ping_interval"`
}

// parseJson overlays cfg with values loaded from the file named by -c or
// -config. It panics on read or unmarshal errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	jc.apply(cfg)
}

func (jc *JsonConfig) apply(cfg *Config) {
	if jc.ServerURL != "" {
		cfg.ServerURL = jc.ServerURL
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.DataFile != "" {
		cfg.DataFile = jc.DataFile
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
	if jc.LogFile != "" {
		cfg.LogFile = jc.LogFile
	}
	if len(jc.Backends) > 0 {
		cfg.Backends = jc.Backends
	}
	if jc.ModelInputSize > 0 {
		cfg.ModelInputSize = jc.ModelInputSize
	}
	if jc.ClockInterval.Duration > 0 {
		cfg.ClockInterval = jc.ClockInterval.Duration
	}
	if jc.FaceDetectInterval.Duration > 0 {
		cfg.FaceDetectInterval = jc.FaceDetectInterval.Duration
	}
	if jc.ReferenceTimeZone != "" {
		cfg.ReferenceTimeZone = jc.ReferenceTimeZone
	}
	if jc.CameraFile != "" {
		cfg.CameraFile = jc.CameraFile
	}
	if jc.PingInterval.Duration > 0 {
		cfg.PingInterval = jc.PingInterval.Duration
	}
}
