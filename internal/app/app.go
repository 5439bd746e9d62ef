package app

import (
	"context"
	"net/http"

	"github.com/hatolabs/hato/internal/pkg/clock"
	"github.com/hatolabs/hato/internal/pkg/config"
	"github.com/hatolabs/hato/internal/pkg/goroutine"
	"github.com/hatolabs/hato/internal/pkg/idempotency"
	"github.com/hatolabs/hato/internal/pkg/instrument"
	"github.com/hatolabs/hato/internal/pkg/jwt"
	"github.com/hatolabs/hato/internal/pkg/mail"
	"github.com/hatolabs/hato/internal/pkg/messaging"
	"github.com/hatolabs/hato/internal/pkg/router"
	"github.com/hatolabs/hato/internal/pkg/storage"
	"github.com/hatolabs/hato/internal/pkg/uid"
	"github.com/hatolabs/hato/internal/pkg/validator"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine *goroutine.Manager
	validator validator.Validator
	clock     clock.Clocker
	uid       uid.NumberID
	oid       uid.StringID
	uuid      uid.StringID
	jwt       jwt.JWT

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	idemp     idempotency.Idempotency
	mail      mail.Mail
	messaging messaging.Messaging
	storage   storage.Storage

	// server
	router     *router.Router
	httpServer *http.Server
	sseServer  *http.Server

	//
	closers []struct {
		name string
		fn   func(context.Context) error
	}
}

// New initializes the application with default wiring and returns an App instance.
func New() *App {
	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		ctx:    ctx,
		cancel: cancel,
	}

	app.initConfig()
	app.initInstrument()
	app.initLibraries()
	app.initJWT()
	app.initDatabase()
	app.initCache()
	app.initMail()
	app.initStorage()
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
