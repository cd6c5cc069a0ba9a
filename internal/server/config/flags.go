package config

import (
	"flag"
	"os"
	"strings"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/flagx"
)

// parseFlags overlays command-line flags onto config.
//
//	-a string   HTTP bind address
//	-d string   PostgreSQL DSN
//	-s string   JWT HMAC secret
//	-t int      access token validity, minutes
//	-l string   log level
//	-i string   image store: fs or s3
//	-b string   S3 bucket
//	-e string   S3 base endpoint
//	-m string   model directory
//	-w int      max concurrent worker processes
//	-wt int     worker timeout, seconds
//	-wj string  journal prediction worker command (space separated)
//	-ws string  selfie prediction worker command (space separated)
//	-wp string  journal preprocessing worker command (space separated)
//	-r string   Redis URL for the session cache
//	-z string   reference time zone for rating dates
func parseFlags(config *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{
		"-a", "-d", "-s", "-t", "-l", "-i", "-b", "-e", "-m", "-w", "-wt", "-wj", "-ws", "-wp", "-r", "-z",
	})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.HTTPAddr, "a", config.HTTPAddr, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	tokenMinutes := fs.Int("t", int(config.AccessTokenValidityDuration.Minutes()), "access token validity (in minutes)")
	fs.StringVar(&config.LogLevel, "l", config.LogLevel, "log level")

	fs.StringVar(&config.ImageStore, "i", config.ImageStore, "image store (fs|s3)")
	fs.StringVar(&config.S3Bucket, "b", config.S3Bucket, "S3 bucket")
	fs.StringVar(&config.S3BaseEndpoint, "e", config.S3BaseEndpoint, "S3 base endpoint")
	fs.StringVar(&config.ModelDir, "m", config.ModelDir, "model directory")

	fs.IntVar(&config.MaxWorkers, "w", config.MaxWorkers, "max concurrent worker processes")
	workerSeconds := fs.Int("wt", int(config.WorkerTimeout.Seconds()), "worker timeout (in seconds)")
	journalCmd := fs.String("wj", strings.Join(config.PredictJournalCmd, " "), "journal prediction worker command")
	selfieCmd := fs.String("ws", strings.Join(config.PredictSelfieCmd, " "), "selfie prediction worker command")
	preprocessCmd := fs.String("wp", strings.Join(config.PreprocessJournalCmd, " "), "journal preprocessing worker command")

	fs.StringVar(&config.RedisURL, "r", config.RedisURL, "redis URL")
	fs.StringVar(&config.ReferenceTimeZone, "z", config.ReferenceTimeZone, "reference time zone")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.AccessTokenValidityDuration = time.Duration(*tokenMinutes) * time.Minute
	config.WorkerTimeout = time.Duration(*workerSeconds) * time.Second
	config.PredictJournalCmd = strings.Fields(*journalCmd)
	config.PredictSelfieCmd = strings.Fields(*selfieCmd)
	config.PreprocessJournalCmd = strings.Fields(*preprocessCmd)
}
