package usecase

import (
	"bytes"
	"context"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/shandysiswandi/gofactor/internal/auth/entity"
	"github.com/shandysiswandi/gofactor/internal/pkg/goerror"
	"github.com/shandysiswandi/gofactor/internal/pkg/goroutine"
	"github.com/shandysiswandi/gofactor/internal/pkg/hash"
	"github.com/shandysiswandi/gofactor/internal/pkg/instrument"
	"github.com/shandysiswandi/gofactor/internal/pkg/jwt"
	"github.com/shandysiswandi/gofactor/internal/pkg/mfa"
	"github.com/shandysiswandi/gofactor/internal/pkg/otp"
	"github.com/shandysiswandi/gofactor/internal/pkg/qrcode"
	"github.com/shandysiswandi/gofactor/internal/pkg/uid"
	"github.com/shandysiswandi/gofactor/internal/pkg/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubClock struct {
	at time.Time
}

func (c *stubClock) Now() time.Time {
	return c.at
}

type fakeDB struct {
	mu    sync.Mutex
	creds map[int64]*entity.Credential
}

func newFakeDB() *fakeDB {
	return &fakeDB{creds: make(map[int64]*entity.Credential)}
}

func (f *fakeDB) GetCredentialByEmail(_ context.Context, email string) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.creds {
		if c.Email == email {
			cp := *c
			return &cp, nil
		}
	}

	return nil, goerror.ErrNotFound
}

func (f *fakeDB) GetCredentialByID(_ context.Context, id int64) (*entity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[id]
	if !ok {
		return nil, goerror.ErrNotFound
	}

	cp := *c

	return &cp, nil
}

func (f *fakeDB) CreateCredential(_ context.Context, cred entity.Credential) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, c := range f.creds {
		if c.Email == cred.Email {
			return goerror.ErrConflict
		}
	}

	f.creds[cred.ID] = &cred

	return nil
}

func (f *fakeDB) SetPendingTOTPSecret(_ context.Context, userID int64, secret []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[userID]
	if !ok {
		return goerror.ErrNotFound
	}

	c.TOTPSecret = secret
	c.TwoFactorEnabled = false
	c.TOTPLastCounter = 0

	return nil
}

func (f *fakeDB) EnableTwoFactor(_ context.Context, userID, counter int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[userID]
	if !ok || len(c.TOTPSecret) == 0 {
		return goerror.ErrNotFound
	}

	c.TwoFactorEnabled = true
	c.TOTPLastCounter = counter

	return nil
}

func (f *fakeDB) AdvanceTOTPCounter(_ context.Context, userID, counter int64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.creds[userID]
	if !ok {
		return false, goerror.ErrNotFound
	}

	if counter <= c.TOTPLastCounter {
		return false, nil
	}

	c.TOTPLastCounter = counter

	return true, nil
}

type fakeMQ struct {
	mu         sync.Mutex
	registered []UserRegisteredEvent
	enabled    []TwoFactorEnabledEvent
}

func (f *fakeMQ) PublishUserRegistered(_ context.Context, msg UserRegisteredEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.registered = append(f.registered, msg)

	return nil
}

func (f *fakeMQ) PublishTwoFactorEnabled(_ context.Context, msg TwoFactorEnabledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.enabled = append(f.enabled, msg)

	return nil
}

type fakeThrottle struct {
	mu     sync.Mutex
	limit  int
	counts map[string]int
}

func newFakeThrottle(limit int) *fakeThrottle {
	return &fakeThrottle{limit: limit, counts: make(map[string]int)}
}

func (f *fakeThrottle) Allow(_ context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.counts[key] < f.limit, nil
}

func (f *fakeThrottle) Fail(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.counts[key]++

	return nil
}

func (f *fakeThrottle) Reset(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.counts, key)

	return nil
}

type fixture struct {
	uc  *Usecase
	db  *fakeDB
	mq  *fakeMQ
	th  *fakeThrottle
	gm  *goroutine.Manager
	clk *stubClock
	eng otp.OTP
	enc mfa.Encryptor
	hsh hash.Hash
	hm  hash.Hash
	jwt jwt.JWT
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	v, err := validator.NewV10Validator()
	require.NoError(t, err)

	hsh, err := hash.New(hash.DriverBcrypt, 4, "")
	require.NoError(t, err)

	sf, err := uid.NewSnowflake(1)
	require.NoError(t, err)

	clk := &stubClock{at: time.Unix(1_700_000_000, 0)}

	jw, err := jwt.NewHS512(jwt.Config{
		Secret:    bytes.Repeat([]byte("s"), 64),
		Issuer:    "gofactor",
		Audiences: []string{"gofactor-api"},
		Clock:     clk,
		UUID:      uid.NewUUID(),
	})
	require.NoError(t, err)

	f := &fixture{
		db:  newFakeDB(),
		mq:  &fakeMQ{},
		th:  newFakeThrottle(5),
		gm:  goroutine.NewManager(8),
		clk: clk,
		eng: otp.NewTOTP("gofactor", 30, 1, 6),
		enc: mfa.NewAESGCMEncryptor(mfa.StaticKeyProvider{KeyBytes: bytes.Repeat([]byte("k"), 32)}),
		hsh: hsh,
		hm:  hash.NewHMACSHA256("throttle-key-secret"),
		jwt: jw,
	}

	f.uc = New(Dependency{
		RepoDB:        f.db,
		RepoMessaging: f.mq,
		Validator:     v,
		Hash:          f.hsh,
		HMAC:          f.hm,
		MFAEncryptor:  f.enc,
		UID:           sf,
		Totp:          f.eng,
		QRCode:        qrcode.NewPNG(),
		Clock:         clk,
		JWT:           jw,
		Throttle:      f.th,
		Instrument:    instrument.NewNoop(),
		Goroutine:     f.gm,
	})

	return f
}

// seedUser inserts a credential directly and returns the plaintext TOTP
// secret when two-factor is requested.
func (f *fixture) seedUser(t *testing.T, id int64, email, password string, twoFactor bool) string {
	t.Helper()

	hashed, err := f.hsh.Hash(password)
	require.NoError(t, err)

	cred := entity.Credential{
		ID:       id,
		Email:    email,
		Password: string(hashed),
	}

	var secret string
	if twoFactor {
		var uri string
		secret, uri, err = f.eng.Generate(email)
		require.NoError(t, err)
		require.NotEmpty(t, uri)

		encrypted, err := f.enc.Encrypt([]byte(secret), mfa.Scope{UserID: id, Purpose: mfa.PurposeOTPSeed})
		require.NoError(t, err)

		cred.TOTPSecret = encrypted
		cred.TwoFactorEnabled = true
	}

	require.NoError(t, f.db.CreateCredential(context.Background(), cred))

	return secret
}

func (f *fixture) throttleKey(prefix string, id int64) string {
	digest, _ := f.hm.Hash(strconv.FormatInt(id, 10))

	return prefix + ":" + string(digest)
}

func (f *fixture) codeAt(t *testing.T, secret string, at time.Time) string {
	t.Helper()

	code, err := f.eng.GenerateCode(secret, at)
	require.NoError(t, err)

	return code
}

func (f *fixture) authCtx(id int64, email string, twoFactor bool) context.Context {
	return jwt.SetAuth(context.Background(), jwt.Claims{
		UserID:           id,
		UserEmail:        email,
		TwoFactorEnabled: twoFactor,
	})
}

func TestRegister(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	err := f.uc.Register(ctx, RegisterInput{Email: "Ana@Mail.com", Password: "sup3r-secret"})
	require.NoError(t, err)

	cred, err := f.db.GetCredentialByEmail(ctx, "ana@mail.com")
	require.NoError(t, err)
	assert.True(t, f.hsh.Verify(cred.Password, "sup3r-secret"))
	assert.False(t, cred.TwoFactorEnabled)

	require.NoError(t, f.gm.Wait())
	require.Len(t, f.mq.registered, 1)
	assert.Equal(t, cred.ID, f.mq.registered[0].UserID)
	assert.Equal(t, "ana@mail.com", f.mq.registered[0].Email)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	err := f.uc.Register(ctx, RegisterInput{Email: "ana@mail.com", Password: "an0ther-pass"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeConflict, gerr.Code())
}

func TestRegister_InvalidInput(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{name: "missing email", in: RegisterInput{Password: "sup3r-secret"}},
		{name: "malformed email", in: RegisterInput{Email: "not-an-email", Password: "sup3r-secret"}},
		{name: "short password", in: RegisterInput{Email: "ana@mail.com", Password: "short"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.uc.Register(context.Background(), tc.in)
			require.Error(t, err)
		})
	}
}

func TestLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	out, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "sup3r-secret"})
	require.NoError(t, err)
	assert.False(t, out.TwoFactorRequired)
	require.NotEmpty(t, out.AccessToken)

	clm, err := f.jwt.Verify(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), clm.UserID)
	assert.False(t, clm.TwoFactorEnabled)
}

func TestLogin_UnknownEmailAndWrongPasswordLookAlike(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	_, errUnknown := f.uc.Login(ctx, LoginInput{Email: "ghost@mail.com", Password: "sup3r-secret"})
	_, errWrongPass := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "wrong-secret"})

	require.Error(t, errUnknown)
	require.Error(t, errWrongPass)
	assert.EqualError(t, errUnknown, errWrongPass.Error())
}

func TestLogin_TwoFactorEnabled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)

	out, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "sup3r-secret"})
	require.NoError(t, err)
	assert.True(t, out.TwoFactorRequired)
	assert.Equal(t, int64(1), out.UserID)
	assert.Empty(t, out.AccessToken)
}

func TestLogin_Throttled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	for range 5 {
		_, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "wrong-secret"})
		require.Error(t, err)
	}

	_, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "sup3r-secret"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeTooManyRequest, gerr.Code())
}

func TestLogin_SuccessResetsThrottle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	for range 3 {
		_, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "wrong-secret"})
		require.Error(t, err)
	}

	_, err := f.uc.Login(ctx, LoginInput{Email: "ana@mail.com", Password: "sup3r-secret"})
	require.NoError(t, err)
	assert.Zero(t, f.th.counts[f.throttleKey("login", 1)])
}

func TestLogin2FA(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	secret := f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	code := f.codeAt(t, secret, f.clk.at)

	out, err := f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: code})
	require.NoError(t, err)
	require.NotEmpty(t, out.AccessToken)

	clm, err := f.jwt.Verify(out.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, int64(1), clm.UserID)
	assert.True(t, clm.TwoFactorEnabled)
}

func TestLogin2FA_ReplayRejected(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	secret := f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	code := f.codeAt(t, secret, f.clk.at)

	_, err := f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: code})
	require.NoError(t, err)

	_, err = f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: code})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeUnauthorized, gerr.Code())
}

func TestLogin2FA_IndistinguishableFailures(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	f.seedUser(t, 2, "bob@mail.com", "sup3r-secret", false)

	_, errUnknownUser := f.uc.Login2FA(ctx, Login2FAInput{UserID: 99, Code: "123456"})
	_, errNotEnabled := f.uc.Login2FA(ctx, Login2FAInput{UserID: 2, Code: "123456"})
	_, errWrongCode := f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: "000000"})

	require.Error(t, errUnknownUser)
	require.Error(t, errNotEnabled)
	require.Error(t, errWrongCode)
	assert.EqualError(t, errUnknownUser, errNotEnabled.Error())
	assert.EqualError(t, errNotEnabled, errWrongCode.Error())
}

func TestLogin2FA_WrongCodeThrottled(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)

	for range 5 {
		_, err := f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: "000000"})
		require.Error(t, err)
	}

	_, err := f.uc.Login2FA(ctx, Login2FAInput{UserID: 1, Code: "000000"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeTooManyRequest, gerr.Code())
}

func TestTOTPSetup(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)
	ctx := f.authCtx(1, "ana@mail.com", false)

	out, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)
	assert.Len(t, out.Secret, 32)
	assert.True(t, strings.HasPrefix(out.URI, "otpauth://totp/"))
	assert.True(t, strings.HasPrefix(out.QRImage, "data:image/png;base64,"))

	cred, err := f.db.GetCredentialByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cred.HasTOTPSecret())
	assert.False(t, cred.TwoFactorEnabled)

	// The stored secret is encrypted, never the raw base32 value.
	assert.NotContains(t, string(cred.TOTPSecret), out.Secret)
}

func TestTOTPSetup_Unauthenticated(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.TOTPSetup(context.Background())
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeUnauthorized, gerr.Code())
}

func TestTOTPSetup_ReEnrollResetsEnablement(t *testing.T) {
	f := newFixture(t)

	oldSecret := f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	ctx := f.authCtx(1, "ana@mail.com", true)

	// Re-enrolling while enabled swaps the secret and turns two-factor
	// off in the same write, so the lost authenticator stops counting.
	out, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, oldSecret, out.Secret)

	cred, err := f.db.GetCredentialByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cred.TwoFactorEnabled)
	assert.Zero(t, cred.TOTPLastCounter)

	// Password alone logs in again until the new secret is confirmed.
	login, err := f.uc.Login(context.Background(), LoginInput{Email: "ana@mail.com", Password: "sup3r-secret"})
	require.NoError(t, err)
	assert.False(t, login.TwoFactorRequired)
	assert.NotEmpty(t, login.AccessToken)

	// The old authenticator cannot confirm the replacement secret.
	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: f.codeAt(t, oldSecret, f.clk.at)})
	require.Error(t, err)

	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: f.codeAt(t, out.Secret, f.clk.at)})
	require.NoError(t, err)
}

func TestTOTPSetup_ReplacesPendingSecret(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)
	ctx := f.authCtx(1, "ana@mail.com", false)

	first, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)

	second, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)
	assert.NotEqual(t, first.Secret, second.Secret)

	// Only the latest pending secret confirms.
	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: f.codeAt(t, first.Secret, f.clk.at)})
	require.Error(t, err)

	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: f.codeAt(t, second.Secret, f.clk.at)})
	require.NoError(t, err)
}

func TestTOTPConfirm(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)
	ctx := f.authCtx(1, "ana@mail.com", false)

	out, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)

	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: f.codeAt(t, out.Secret, f.clk.at)})
	require.NoError(t, err)

	cred, err := f.db.GetCredentialByID(context.Background(), 1)
	require.NoError(t, err)
	assert.True(t, cred.TwoFactorEnabled)
	assert.Positive(t, cred.TOTPLastCounter)

	require.NoError(t, f.gm.Wait())
	require.Len(t, f.mq.enabled, 1)
	assert.Equal(t, int64(1), f.mq.enabled[0].UserID)
}

func TestTOTPConfirm_NotSetUp(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	err := f.uc.TOTPConfirm(f.authCtx(1, "ana@mail.com", false), TOTPConfirmInput{Code: "123456"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeConflict, gerr.Code())
}

func TestTOTPConfirm_WrongCodeKeepsDisabled(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)
	ctx := f.authCtx(1, "ana@mail.com", false)

	_, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)

	err = f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: "000000"})
	require.Error(t, err)

	cred, err := f.db.GetCredentialByID(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, cred.TwoFactorEnabled)
}

func TestTOTPConfirm_CodeCannotLoginAgain(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)
	ctx := f.authCtx(1, "ana@mail.com", false)

	out, err := f.uc.TOTPSetup(ctx)
	require.NoError(t, err)

	code := f.codeAt(t, out.Secret, f.clk.at)
	require.NoError(t, f.uc.TOTPConfirm(ctx, TOTPConfirmInput{Code: code}))

	// Same step, same code: rejected as a replay.
	_, err = f.uc.Login2FA(context.Background(), Login2FAInput{UserID: 1, Code: code})
	require.Error(t, err)

	// Next step issues a fresh code that works.
	f.clk.at = f.clk.at.Add(30 * time.Second)
	_, err = f.uc.Login2FA(context.Background(), Login2FAInput{UserID: 1, Code: f.codeAt(t, out.Secret, f.clk.at)})
	require.NoError(t, err)
}

func TestTOTPValidate(t *testing.T) {
	f := newFixture(t)

	secret := f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	ctx := f.authCtx(1, "ana@mail.com", true)

	code := f.codeAt(t, secret, f.clk.at)
	require.NoError(t, f.uc.TOTPValidate(ctx, TOTPValidateInput{Code: code}))

	// A consumed code does not validate twice.
	err := f.uc.TOTPValidate(ctx, TOTPValidateInput{Code: code})
	require.Error(t, err)
}

func TestTOTPValidate_NotEnabled(t *testing.T) {
	f := newFixture(t)

	f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", false)

	err := f.uc.TOTPValidate(f.authCtx(1, "ana@mail.com", false), TOTPValidateInput{Code: "123456"})
	require.Error(t, err)

	var gerr *goerror.Error
	require.ErrorAs(t, err, &gerr)
	assert.Equal(t, goerror.CodeConflict, gerr.Code())
}

func TestTOTPValidate_AcceptsPreviousStepWithinSkew(t *testing.T) {
	f := newFixture(t)

	secret := f.seedUser(t, 1, "ana@mail.com", "sup3r-secret", true)
	ctx := f.authCtx(1, "ana@mail.com", true)

	previous := f.codeAt(t, secret, f.clk.at.Add(-30*time.Second))
	require.NoError(t, f.uc.TOTPValidate(ctx, TOTPValidateInput{Code: previous}))
}
