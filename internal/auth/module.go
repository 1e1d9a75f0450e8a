package auth

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shandysiswandi/gofactor/internal/auth/inbound"
	"github.com/shandysiswandi/gofactor/internal/auth/outbound/db"
	"github.com/shandysiswandi/gofactor/internal/auth/outbound/mq"
	"github.com/shandysiswandi/gofactor/internal/auth/usecase"
	"github.com/shandysiswandi/gofactor/internal/pkg/clock"
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

type Dependency struct {
	DBConn       *pgxpool.Pool              `validate:"required"`
	Goroutine    *goroutine.Manager         `validate:"required"`
	Router       *router.Router             `validate:"required"`
	Messaging    messaging.Messaging        `validate:"required"`
	Instrument   instrument.Instrumentation `validate:"required"`
	UID          uid.NumberID               `validate:"required"`
	Hash         hash.Hash                  `validate:"required"`
	HMAC         hash.Hash                  `validate:"required"`
	MFAEncryptor mfa.Encryptor              `validate:"required"`
	Clock        clock.Clocker              `validate:"required"`
	Totp         otp.OTP                    `validate:"required"`
	QRCode       qrcode.Generator           `validate:"required"`
	Throttle     throttle.Limiter           `validate:"required"`
	Validator    validator.Validator        `validate:"required"`
	JWT          jwt.JWT                    `validate:"required"`
}

func New(dep Dependency) error {
	if err := dep.Validator.Validate(dep); err != nil {
		return err
	}

	dbAuth := db.NewDB(dep.DBConn, dep.Instrument)
	repoMsg := mq.NewMessaging(dep.Messaging, dep.Instrument)

	uc := usecase.New(usecase.Dependency{
		RepoDB:        dbAuth,
		RepoMessaging: repoMsg,
		Validator:     dep.Validator,
		Hash:          dep.Hash,
		HMAC:          dep.HMAC,
		MFAEncryptor:  dep.MFAEncryptor,
		UID:           dep.UID,
		Totp:          dep.Totp,
		QRCode:        dep.QRCode,
		Clock:         dep.Clock,
		JWT:           dep.JWT,
		Throttle:      dep.Throttle,
		Instrument:    dep.Instrument,
		Goroutine:     dep.Goroutine,
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil
}
