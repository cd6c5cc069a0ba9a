package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/dmitrijs2005/moodkeeper/internal/api"
	"github.com/dmitrijs2005/moodkeeper/internal/client/capability"
	"github.com/dmitrijs2005/moodkeeper/internal/client/client"
	"github.com/dmitrijs2005/moodkeeper/internal/client/config"
	"github.com/dmitrijs2005/moodkeeper/internal/client/imageprep"
	"github.com/dmitrijs2005/moodkeeper/internal/client/inference"
	"github.com/dmitrijs2005/moodkeeper/internal/client/localdb"
	"github.com/dmitrijs2005/moodkeeper/internal/client/prediction"
	"github.com/dmitrijs2005/moodkeeper/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/moodkeeper/internal/client/scheduler"
	"github.com/dmitrijs2005/moodkeeper/internal/client/services"
	"github.com/dmitrijs2005/moodkeeper/internal/client/session"
	"github.com/dmitrijs2005/moodkeeper/internal/logging"
	"github.com/dmitrijs2005/moodkeeper/internal/mood"
	"github.com/dmitrijs2005/moodkeeper/internal/timex"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

// faceRatio is the share of the frame the center detector treats as the face.
const faceRatio = 0.6

// Capability is the per-user capability flag, resolved once after login.
type Capability interface {
	Ensure(ctx context.Context, userID string) (mood.Capability, error)
	Current() mood.Capability
	Reset()
}

type App struct {
	config      *config.Config
	logger      logging.Logger
	authService services.AuthService
	capability  Capability

	journals *session.Journal
	selfies  *session.Selfie
	ratings  *session.Rating

	user   *api.UserResponse
	modeMu sync.Mutex
	Mode   Mode
	reader *bufio.Reader
	out    io.Writer
	loc    *time.Location
	now    func() time.Time
	db     *sql.DB

	logFile io.Closer
}

// NewApp wires the local store, the HTTP client, the inference stack and
// the entry sessions.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	var logOut io.Writer = os.Stderr
	var logFile io.Closer
	if c.LogFile != "" {
		f := logging.RotatingFile(c.LogFile, 10)
		logOut, logFile = f, f
	}
	logger := logging.New(logOut, "text", c.LogLevel)

	loc, err := timex.LoadLocation(c.ReferenceTimeZone)
	if err != nil {
		return nil, fmt.Errorf("reference time zone: %w", err)
	}

	db, err := localdb.Open(ctx, c.DataFile)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}
	meta := metadata.NewSession(metadata.NewSQLiteRepository(db))

	apiClient := client.NewHTTPClient(c.ServerURL, c.RequestTimeout)

	var backends []inference.Backend
	for _, name := range c.Backends {
		b, err := inference.ByName(name)
		if err != nil {
			logger.Warn(ctx, "skipping inference backend", "backend", name, "error", err)
			continue
		}
		backends = append(backends, b)
	}

	probe := capability.NewProbe(backends, apiClient, logger)
	resolver := capability.NewResolver(probe, apiClient, meta, backends, apiClient, logger)
	router := prediction.NewRouter(resolver, resolver, apiClient, imageprep.NewPreprocessor(c.ModelInputSize), logger)

	opts := session.Options{
		ClockInterval:      c.ClockInterval,
		FaceDetectInterval: c.FaceDetectInterval,
		Location:           loc,
		Logger:             logger,
	}

	return &App{
		config:      c,
		logger:      logger.With("module", "cli"),
		authService: services.NewAuthService(apiClient, meta),
		capability:  resolver,
		journals:    session.NewJournal(apiClient, router, opts),
		selfies:     session.NewSelfie(apiClient, router, imageprep.FileCamera{Path: c.CameraFile}, imageprep.CenterDetector{Ratio: faceRatio}, opts),
		ratings:     session.NewRating(apiClient, opts),
		reader:      bufio.NewReader(os.Stdin),
		out:         os.Stdout,
		loc:         loc,
		now:         time.Now,
		db:          db,
		logFile:     logFile,
	}, nil
}

func (a *App) setMode(ctx context.Context, mode Mode) {
	a.modeMu.Lock()
	changed := a.Mode != mode
	a.Mode = mode
	a.modeMu.Unlock()

	if changed {
		a.logger.Info(ctx, "switched mode", "mode", mode)
	}
}

func (a *App) mode() Mode {
	a.modeMu.Lock()
	defer a.modeMu.Unlock()
	return a.Mode
}

// Run blocks in the REPL until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()
	a.Root(ctx)
}

// Close stops every session task and closes the local store.
func (a *App) Close() {
	a.closeSessions()
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

func (a *App) closeSessions() {
	if a.journals != nil {
		a.journals.Close()
	}
	if a.selfies != nil {
		a.selfies.Close()
	}
	if a.ratings != nil {
		a.ratings.Close()
	}
}

func (a *App) isLoggedIn() bool {
	return a.user != nil
}

// StartOnlineStatusWatcher pings the server every interval and flips Mode.
func (a *App) StartOnlineStatusWatcher(ctx context.Context, interval time.Duration) *scheduler.Task {
	return scheduler.Every(ctx, interval, func(ctx context.Context) {
		a.checkOnline(ctx)
	})
}

func (a *App) checkOnline(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	err := a.authService.Ping(ctx)
	cancel()

	if err != nil {
		a.setMode(ctx, ModeOffline)
		return
	}
	a.setMode(ctx, ModeOnline)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// fail prints err for the user and returns it.
func (a *App) fail(err error) error {
	a.printf("Error: %v\n", err)
	return err
}
