/*
 * Copyright 2025 Humaid Alqasimi
 * SPDX-License-Identifier: Apache-2.0
 */
package db

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/flamego/session"
	"github.com/jackc/pgx/v5"
)

const (
	defaultSessionLifetime = 24 * time.Hour
	defaultSessionTable    = "flamego_sessions"
)

// PostgresSessionConfig contains options for the PostgreSQL session store.
type PostgresSessionConfig struct {
	// Lifetime is how long a session survives without access. Default is 24 hours.
	Lifetime time.Duration
	// TableName is the name of the session table. Default is "flamego_sessions".
	TableName string
	// Encoder is the encoder to encode session data. Default is session.GobEncoder.
	Encoder session.Encoder
	// Decoder is the decoder to decode session data. Default is session.GobDecoder.
	Decoder session.Decoder
}

// PostgresSessionStore keeps OAuth tokens and listing state across restarts
// and between instances.
type PostgresSessionStore struct {
	config PostgresSessionConfig
}

// PostgresSessionIniter returns the Initer for the PostgreSQL session store.
func PostgresSessionIniter() session.Initer {
	return func(ctx context.Context, args ...interface{}) (session.Store, error) {
		var config PostgresSessionConfig
		if len(args) > 0 {
			var ok bool
			config, ok = args[0].(PostgresSessionConfig)
			if !ok {
				return nil, ErrInvalidSessionConfig
			}
		}

		if config.Lifetime == 0 {
			config.Lifetime = defaultSessionLifetime
		}
		if config.TableName == "" {
			config.TableName = defaultSessionTable
		}
		if config.Encoder == nil {
			config.Encoder = session.GobEncoder
		}
		if config.Decoder == nil {
			config.Decoder = session.GobDecoder
		}

		return &PostgresSessionStore{config: config}, nil
	}
}

// The session middleware writes the cookie itself.
func noopIDWriter(http.ResponseWriter, *http.Request, string) {}

// Exist returns true if the session with given ID exists and hasn't expired.
func (s *PostgresSessionStore) Exist(ctx context.Context, sid string) bool {
	if pool == nil {
		return false
	}

	var exists bool
	err := pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM `+s.table()+` WHERE id = $1 AND expires_at > NOW())`,
		sid,
	).Scan(&exists)
	return err == nil && exists
}

// Read returns the session with given ID, or a fresh session with that ID
// when none is stored.
func (s *PostgresSessionStore) Read(ctx context.Context, sid string) (session.Session, error) {
	if pool == nil {
		return nil, ErrDatabaseConnectionNotInitialized
	}

	var data []byte
	err := pool.QueryRow(ctx,
		`SELECT data FROM `+s.table()+` WHERE id = $1 AND expires_at > NOW()`,
		sid,
	).Scan(&data)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}

	if len(data) == 0 {
		return session.NewBaseSession(sid, s.config.Encoder, noopIDWriter), nil
	}

	values, err := s.config.Decoder(data)
	if err != nil {
		// Stale encodings start over instead of locking the browser out.
		logger.Warn("Discarding undecodable session", "error", err)
		return session.NewBaseSession(sid, s.config.Encoder, noopIDWriter), nil
	}

	return session.NewBaseSessionWithData(sid, s.config.Encoder, noopIDWriter, values), nil
}

// Destroy deletes the session with given ID.
func (s *PostgresSessionStore) Destroy(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE id = $1`, sid)
	return err
}

// Touch extends the expiry of the session with given ID.
func (s *PostgresSessionStore) Touch(ctx context.Context, sid string) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	_, err := pool.Exec(ctx,
		`UPDATE `+s.table()+` SET expires_at = $1 WHERE id = $2`,
		s.expiry(),
		sid,
	)
	return err
}

// Save upserts the session data.
func (s *PostgresSessionStore) Save(ctx context.Context, sess session.Session) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	data, err := sess.Encode()
	if err != nil {
		return err
	}

	_, err = pool.Exec(ctx,
		`INSERT INTO `+s.table()+` (id, data, expires_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE SET
			data = EXCLUDED.data,
			expires_at = EXCLUDED.expires_at`,
		sess.ID(),
		data,
		s.expiry(),
	)

	return err
}

// GC removes expired sessions.
func (s *PostgresSessionStore) GC(ctx context.Context) error {
	if pool == nil {
		return ErrDatabaseConnectionNotInitialized
	}

	tag, err := pool.Exec(ctx, `DELETE FROM `+s.table()+` WHERE expires_at < NOW()`)
	if err != nil {
		return err
	}
	if n := tag.RowsAffected(); n > 0 {
		logger.Debug("Expired sessions removed", "count", n)
	}

	return nil
}

func (s *PostgresSessionStore) table() string {
	return pgx.Identifier{s.config.TableName}.Sanitize()
}

func (s *PostgresSessionStore) expiry() time.Time {
	return time.Now().Add(s.config.Lifetime)
}
