package db

import (
	"context"

	"github.com/shandysiswandi/gofactor/internal/auth/entity"
)

const createCredential = `
INSERT INTO auth_credentials (id, email, password)
VALUES ($1, $2, $3)
`

func (s *DB) CreateCredential(ctx context.Context, cred entity.Credential) (err error) {
	ctx, span := s.startSpan(ctx, "CreateCredential")
	defer func() { s.endSpan(span, err) }()

	_, err = s.conn.Exec(ctx, createCredential, cred.ID, cred.Email, cred.Password)

	return s.mapError(err)
}
