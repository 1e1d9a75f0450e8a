package app

import (
	"log/slog"
	"os"

	"github.com/shandysiswandi/gofactor/internal/auth"
)

func (a *App) initModules() {
	if a.config.GetBool("modules.auth.enabled") {
		if err := auth.New(auth.Dependency{
			Instrument:   a.ins,
			UID:          a.uid,
			Hash:         a.hash,
			HMAC:         a.hmac,
			MFAEncryptor: a.mfaEncryptor,
			Clock:        a.clock,
			Validator:    a.validator,
			Router:       a.router,
			Totp:         a.totp,
			QRCode:       a.qrcode,
			Throttle:     a.throttle,
			DBConn:       a.dbConn,
			Messaging:    a.messaging,
			Goroutine:    a.goroutine,
			JWT:          a.jwt,
		}); err != nil {
			slog.Error("failed to init module auth", "error", err)
			os.Exit(1)
		}
	}
}
