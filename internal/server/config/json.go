package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/moodkeeper/internal/flagx"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
)

// JsonConfig mirrors Config for JSON files. Durations accept "30s" style
// strings or integer nanoseconds. Only fields present in the file override
// the current values.
type JsonConfig struct {
	HTTPAddr                    string         `json:"http_addr"`
	DatabaseDSN                 string         `json:"database_dsn"`
	SecretKey                   string         `json:"secret_key"`
	AccessTokenValidityDuration timex.Duration `json:"access_token_validity_duration"`
	LogLevel                    string         `json:"log_level"`

	ImageStore         string `json:"image_store"`
	ImageDir           string `json:"image_dir"`
	RetrainingImageDir string `json:"retraining_image_dir"`
	S3RootUser         string `json:"s3_root_user"`
	S3RootPassword     string `json:"s3_root_password"`
	S3Bucket           string `json:"s3_bucket"`
	S3Region           string `json:"s3_region"`
	S3BaseEndpoint     string `json:"s3_base_endpoint"`

	ModelDir string `json:"model_dir"`

	PreprocessJournalCmd []string       `json:"preprocess_journal_cmd"`
	PredictJournalCmd    []string       `json:"predict_journal_cmd"`
	PredictSelfieCmd     []string       `json:"predict_selfie_cmd"`
	WorkerTimeout        timex.Duration `json:"worker_timeout"`
	MaxWorkers           int            `json:"max_workers"`
	TempDir              string         `json:"temp_dir"`

	RedisURL   string         `json:"redis_url"`
	SessionTTL timex.Duration `json:"session_ttl"`

	ReferenceTimeZone string `json:"reference_time_zone"`
}

// parseJson overlays the file named by -c/-config onto config. It panics
// when the file cannot be read or decoded.
func parseJson(config *Config) {
	path := flagx.JsonConfigFlags()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		panic(err)
	}

	c.apply(config)
}

func (c *JsonConfig) apply(config *Config) {
	setString(&config.HTTPAddr, c.HTTPAddr)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	if c.AccessTokenValidityDuration.Duration > 0 {
		config.AccessTokenValidityDuration = c.AccessTokenValidityDuration.Duration
	}
	setString(&config.LogLevel, c.LogLevel)

	setString(&config.ImageStore, c.ImageStore)
	setString(&config.ImageDir, c.ImageDir)
	setString(&config.RetrainingImageDir, c.RetrainingImageDir)
	setString(&config.S3RootUser, c.S3RootUser)
	setString(&config.S3RootPassword, c.S3RootPassword)
	setString(&config.S3Bucket, c.S3Bucket)
	setString(&config.S3Region, c.S3Region)
	setString(&config.S3BaseEndpoint, c.S3BaseEndpoint)

	setString(&config.ModelDir, c.ModelDir)

	if len(c.PreprocessJournalCmd) > 0 {
		config.PreprocessJournalCmd = c.PreprocessJournalCmd
	}
	if len(c.PredictJournalCmd) > 0 {
		config.PredictJournalCmd = c.PredictJournalCmd
	}
	if len(c.PredictSelfieCmd) > 0 {
		config.PredictSelfieCmd = c.PredictSelfieCmd
	}
	if c.WorkerTimeout.Duration > 0 {
		config.WorkerTimeout = c.WorkerTimeout.Duration
	}
	if c.MaxWorkers > 0 {
		config.MaxWorkers = c.MaxWorkers
	}
	setString(&config.TempDir, c.TempDir)

	setString(&config.RedisURL, c.RedisURL)
	if c.SessionTTL.Duration > 0 {
		config.SessionTTL = c.SessionTTL.Duration
	}

	setString(&config.ReferenceTimeZone, c.ReferenceTimeZone)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
