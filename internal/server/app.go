// Package server wires the sealbox server together: configuration, logging,
// the database connection with migrations, object storage, and the service
// layer. Transport is deliberately out of scope here; trusted-side tooling
// binds the services in-process.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"github.com/akarpov/sealbox/internal/audit"
	"github.com/akarpov/sealbox/internal/logging"
	"github.com/akarpov/sealbox/internal/server/blobstore"
	"github.com/akarpov/sealbox/internal/server/config"
	"github.com/akarpov/sealbox/internal/server/repositories/repomanager"
	"github.com/akarpov/sealbox/internal/server/services"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	emitter audit.Emitter

	userService  *services.UserService
	fileService  *services.FileService
	shareService *services.ShareService
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	sl := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(sl)

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migration error: %w", err)
	}

	emitter := audit.NewLogEmitter(logger)
	blobs := blobstore.NewStore(cfg)

	shareSvc := services.NewShareService(db, rm, emitter)
	fileSvc := services.NewFileService(db, rm, blobs, shareSvc, emitter)
	userSvc := services.NewUserService(db, rm, cfg)

	return &App{
		config:       cfg,
		logger:       logger,
		db:           db,
		emitter:      emitter,
		userService:  userSvc,
		fileService:  fileSvc,
		shareService: shareSvc,
	}, nil
}

// Users returns the account service.
func (app *App) Users() *services.UserService { return app.userService }

// Files returns the encrypted file service.
func (app *App) Files() *services.FileService { return app.fileService }

// Shares returns the sharing service.
func (app *App) Shares() *services.ShareService { return app.shareService }

// Audit returns the audit event emitter.
func (app *App) Audit() audit.Emitter { return app.emitter }

// Run blocks until the context is canceled or a termination signal arrives,
// then closes the database connection.
func (app *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	app.logger.Info(ctx, "Starting app...")

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(sigs)

		select {
		case sig := <-sigs:
			app.logger.Info(ctx, "Shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		return nil
	})

	err := g.Wait()

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "db close error", "error", cerr.Error())
	}
	return err
}
