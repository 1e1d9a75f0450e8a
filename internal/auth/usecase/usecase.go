package usecase

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/shandysiswandi/gofactor/internal/auth/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/clock"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofactor/internal/pkg/hash"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"github.com/shandysiswandi/gofactor/internal/pkg/jwt"
	"github.com/shandysiswandi/gofactor/internal/pkg/mfa"
	"github.com/shandysiswandi/gofactor/internal/pkg/otp"
	"github.com/shandysiswandi/gofactor/internal/pkg/qrcode"
	"github.com/shandysiswandi/gofactor/internal/pkg/throttle"
	"github.com/shandysiswandi/gofactor/internal/pkg/uid"
	"github.com/shandysiswandi/gofactor/internal/pkg/validator"
	"go.opentelemetry.io/otel/trace"
)

type UserRegisteredEvent struct {
	UserID int64
	Email  string
}

type TwoFactorEnabledEvent struct {
	UserID int64
	Email  string
}

type repoMessaging interface {
	PublishUserRegistered(ctx context.Context, msg UserRegisteredEvent) error
	PublishTwoFactorEnabled(ctx context.Context, msg TwoFactorEnabledEvent) error
}

type repoDB interface {
	GetCredentialByEmail(ctx context.Context, email string) (*entity.Credential, error)
	GetCredentialByID(ctx context.Context, id int64) (*entity.Credential, error)

	CreateCredential(ctx context.Context, cred entity.Credential) error

	SetPendingTOTPSecret(ctx context.Context, userID int64, secret []byte) error
	EnableTwoFactor(ctx context.Context, userID, counter int64) error
	AdvanceTOTPCounter(ctx context.Context, userID, counter int64) (bool, error)
}

type Usecase struct {
	repoDB        repoDB
	repoMessaging repoMessaging
	validator     validator.Validator
	hash          hash.Hash
	hmac          hash.Hash
	mfaEncryptor  mfa.Encryptor
	uid           uid.NumberID
	totp          otp.OTP
	qr            qrcode.Generator
	clock         clock.Clocker
	jwt           jwt.JWT
	throttle      throttle.Limiter
	ins           instrument.Instrumentation
	goroutine     *goroutine.Manager

	// dummyHash is verified against when the email is unknown so that a
	// failed lookup costs roughly the same as a real password check.
	dummyHash string
}

type Dependency struct {
	RepoDB        repoDB
	RepoMessaging repoMessaging
	Validator     validator.Validator
	Hash          hash.Hash
	HMAC          hash.Hash
	MFAEncryptor  mfa.Encryptor
	UID           uid.NumberID
	Totp          otp.OTP
	QRCode        qrcode.Generator
	Clock         clock.Clocker
	JWT           jwt.JWT
	Throttle      throttle.Limiter
	Instrument    instrument.Instrumentation
	Goroutine     *goroutine.Manager
}

func New(dep Dependency) *Usecase {
	dummy, _ := dep.Hash.Hash("gofactor.timing.equalizer")

	return &Usecase{
		repoDB:        dep.RepoDB,
		repoMessaging: dep.RepoMessaging,
		validator:     dep.Validator,
		hash:          dep.Hash,
		hmac:          dep.HMAC,
		mfaEncryptor:  dep.MFAEncryptor,
		uid:           dep.UID,
		totp:          dep.Totp,
		qr:            dep.QRCode,
		clock:         dep.Clock,
		jwt:           dep.JWT,
		throttle:      dep.Throttle,
		ins:           dep.Instrument,
		goroutine:     dep.Goroutine,
		dummyHash:     string(dummy),
	}
}

func (s *Usecase) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.ins.Tracer("auth.usecase").Start(ctx, name)
}

// throttleKey derives the redis bucket name for a user. Identifiers are
// keyed through HMAC so raw account ids never appear in the cache.
func (s *Usecase) throttleKey(prefix string, userID int64) string {
	digest, _ := s.hmac.Hash(strconv.FormatInt(userID, 10))

	return prefix + ":" + string(digest)
}

// matchTOTP decrypts the stored secret and matches the submitted code within
// the configured skew window, throttling repeated mismatches per user. It
// returns the time-step counter the code matched at.
func (s *Usecase) matchTOTP(ctx context.Context, cred *entity.Credential, code string) (int64, error) {
	key := s.throttleKey("2fa", cred.ID)

	allowed, err := s.throttle.Allow(ctx, key)
	if err != nil {
		slog.ErrorContext(ctx, "failed to check totp throttle", "user_id", cred.ID, "error", err)
		return 0, goerror.NewServer(err)
	}
	if !allowed {
		slog.WarnContext(ctx, "totp attempts throttled", "user_id", cred.ID)
		return 0, goerror.NewBusiness("too many invalid codes, try again later", goerror.CodeTooManyRequest)
	}

	secret, err := s.mfaEncryptor.Decrypt(cred.TOTPSecret, mfa.Scope{
		UserID:  cred.ID,
		Purpose: mfa.PurposeOTPSeed,
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to decrypt totp secret", "user_id", cred.ID, "error", err)
		return 0, goerror.NewServer(err)
	}

	counter, ok := s.totp.Match(code, string(secret), s.clock.Now())
	if !ok {
		if err := s.throttle.Fail(ctx, key); err != nil {
			slog.ErrorContext(ctx, "failed to record totp throttle failure", "user_id", cred.ID, "error", err)
		}
		slog.WarnContext(ctx, "totp code mismatch", "user_id", cred.ID)
		return 0, goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	if err := s.throttle.Reset(ctx, key); err != nil {
		slog.ErrorContext(ctx, "failed to reset totp throttle", "user_id", cred.ID, "error", err)
	}

	return counter, nil
}

// consumeTOTP matches the submitted code and advances the per-user counter so
// a matched code can never be replayed.
func (s *Usecase) consumeTOTP(ctx context.Context, cred *entity.Credential, code string) error {
	counter, err := s.matchTOTP(ctx, cred, code)
	if err != nil {
		return err
	}

	advanced, err := s.repoDB.AdvanceTOTPCounter(ctx, cred.ID, counter)
	if err != nil {
		slog.ErrorContext(ctx, "failed to advance totp counter", "user_id", cred.ID, "error", err)
		return goerror.NewServer(err)
	}

	if !advanced {
		slog.WarnContext(ctx, "totp code replayed", "user_id", cred.ID, "counter", counter)
		return goerror.NewBusiness("invalid challenge session or code", goerror.CodeUnauthorized)
	}

	return nil
}

func (s *Usecase) authenticated(ctx context.Context) (*jwt.Claims, error) {
	clm := jwt.GetAuth(ctx)
	if clm == nil {
		return nil, goerror.NewBusiness("Authentication required", goerror.CodeUnauthorized)
	}

	return clm, nil
}
