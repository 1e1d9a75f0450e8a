package app

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/shandysiswandi/gofactor/internal/pkg/clock"
	"github.com/shandysiswandi/gofactor/internal/pkg/config"
	"github.com/shandysiswandi/gofactor/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofactor/internal/pkg/hash"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"github.com/shandysiswandi/gofactor/internal/pkg/jwt"
	"github.com/shandysiswandi/gofactor/internal/pkg/messaging"
	"github.com/shandysiswandi/gofactor/internal/pkg/mfa"
	"github.com/shandysiswandi/gofactor/internal/pkg/otp"
	"github.com/shandysiswandi/gofactor/internal/pkg/qrcode"
	"github.com/shandysiswandi/gofactor/internal/pkg/router"
	"github.com/shandysiswandi/gofactor/internal/pkg/throttle"
	"github.com/shandysiswandi/gofactor/internal/pkg/uid"
	"github.com/shandysiswandi/gofactor/internal/pkg/validator"
)

// App wires dependencies and manages service lifecycle.
type App struct {
	ctx    context.Context
	cancel context.CancelFunc

	// configuration
	config config.Config
	ins    instrument.Instrumentation

	// libraries
	goroutine    *goroutine.Manager
	validator    validator.Validator
	clock        clock.Clocker
	hash         hash.Hash
	hmac         hash.Hash
	uid          uid.NumberID
	uuid         uid.StringID
	totp         otp.OTP
	jwt          jwt.JWT
	mfaEncryptor mfa.Encryptor
	qrcode       qrcode.Generator

	// resources
	dbConn    *pgxpool.Pool
	cacheConn *redis.Client
	throttle  throttle.Limiter
	messaging messaging.Messaging

	// server
	router     *router.Router
	httpServer *http.Server

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
	app.initMessaging()
	app.initHTTPServer()
	app.initModules()
	app.initClosers()

	return app
}
