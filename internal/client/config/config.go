package config

import "time"

// Inference backends, fastest first.
const (
	BackendParallel = "parallel"
	BackendUnrolled = "unrolled"
	BackendCPU      = "cpu"
)

// Config holds runtime settings for the moodkeeper CLI.
//
// Backends is the priority list tried by the capability probe. ClockInterval
// and FaceDetectInterval drive the scheduled tasks of the entry sessions.
// ReferenceTimeZone decides which calendar date "today" is.
type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
	DataFile       string
	LogLevel       string
	// LogFile receives the client log, rotated by size. Empty means stderr.
	LogFile string

	Backends           []string
	ModelInputSize     int
	ClockInterval      time.Duration
	FaceDetectInterval time.Duration

	ReferenceTimeZone string

	// CameraFile is the image polled as the camera feed when taking selfies.
	CameraFile   string
	PingInterval time.Duration
}

// LoadDefaults populates c with sensible defaults.
func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:8080"
	c.RequestTimeout = 30 * time.Second
	c.DataFile = "moodkeeper.db"
	c.LogLevel = "warn"

	c.Backends = []string{BackendParallel, BackendUnrolled, BackendCPU}
	c.ModelInputSize = 48
	c.ClockInterval = time.Second
	c.FaceDetectInterval = 100 * time.Millisecond

	c.ReferenceTimeZone = "UTC"

	c.CameraFile = "camera.jpg"
	c.PingInterval = 10 * time.Second
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
