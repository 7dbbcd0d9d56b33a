// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/MKhiriev/go-multi-account/internal/logger"
	"github.com/MKhiriev/go-multi-account/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()

	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return &DB{DB: conn, logger: logger.Nop(), dialect: dialectSQLite}, mock
}

func TestCredentialStore_SaveFullRecord(t *testing.T) {
	db, mock := newTestLocalDB(t)
	s := NewLocalCredentialStore(db, logger.Nop())

	record := models.FullRecord(
		models.EncryptedPayload{IV: "aa", CipherText: "bb"},
		models.AccountEntry{ID: "1", Acct: "alice"},
	)

	mock.ExpectExec("INSERT INTO vault_records").
		WithArgs("1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, s.Save(context.Background(), "1", record))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_Load(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantNil  bool
		wantKind models.RecordKind
		wantErr  bool
	}{
		{
			name: "legacy",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT body FROM vault_records").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`{"iv":"aa","cipherText":"bb"}`))
			},
			wantKind: models.RecordLegacy,
		},
		{
			name: "full",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT body FROM vault_records").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"body"}).
						AddRow(`{"token":{"iv":"aa","cipherText":"bb"},"entry":{"id":"1","acct":"alice","displayName":"","avatar":"","encryptedTokenRef":"1"}}`))
			},
			wantKind: models.RecordFull,
		},
		{
			name: "missing",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT body FROM vault_records").WithArgs("1").WillReturnError(sql.ErrNoRows)
			},
			wantNil: true,
		},
		{
			name: "corrupt",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT body FROM vault_records").WithArgs("1").
					WillReturnRows(sqlmock.NewRows([]string{"body"}).AddRow(`not json`))
			},
			wantNil: true,
		},
		{
			name: "db error",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery("SELECT body FROM vault_records").WithArgs("1").WillReturnError(errors.New("locked"))
			},
			wantNil: true,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newTestLocalDB(t)
			s := NewLocalCredentialStore(db, logger.Nop())
			tt.setup(mock)

			record, err := s.Load(context.Background(), "1")
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			if tt.wantNil {
				assert.Nil(t, record)
				return
			}
			require.NotNil(t, record)
			assert.Equal(t, tt.wantKind, record.Kind)
		})
	}
}

func TestCredentialStore_RemoveSwallowsErrors(t *testing.T) {
	db, mock := newTestLocalDB(t)
	s := NewLocalCredentialStore(db, logger.Nop())

	mock.ExpectExec("DELETE FROM vault_records").WithArgs("1").WillReturnError(errors.New("locked"))

	s.Remove(context.Background(), "1")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCredentialStore_LoadAllSkipsUnreadable(t *testing.T) {
	db, mock := newTestLocalDB(t)
	s := NewLocalCredentialStore(db, logger.Nop())

	mock.ExpectQuery("SELECT account_id, body FROM vault_records").
		WillReturnRows(sqlmock.NewRows([]string{"account_id", "body"}).
			AddRow("1", `{"iv":"aa","cipherText":"bb"}`).
			AddRow("2", `garbage`))

	records, err := s.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 1)
	assert.Contains(t, records, "1")
}

func TestActiveAccountStore(t *testing.T) {
	db, mock := newTestLocalDB(t)
	s := NewLocalActiveAccountStore(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO app_settings").WithArgs(ActiveAccountKey, "5").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectQuery("SELECT value FROM app_settings").WithArgs(ActiveAccountKey).
		WillReturnRows(sqlmock.NewRows([]string{"value"}).AddRow("5"))
	mock.ExpectExec("DELETE FROM app_settings WHERE key = \\$1 AND value = \\$2").WithArgs(ActiveAccountKey, "5").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value FROM app_settings").WithArgs(ActiveAccountKey).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("DELETE FROM app_settings WHERE key = \\$1;").WithArgs(ActiveAccountKey).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, s.Set(ctx, "5"))

	id, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "5", id)

	require.NoError(t, s.ClearIfMatches(ctx, "5"))

	id, err = s.Get(ctx)
	require.NoError(t, err)
	assert.Empty(t, id)

	require.NoError(t, s.Clear(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAccountCache_ClearOnlyTouchesCacheTable(t *testing.T) {
	db, mock := newTestLocalDB(t)
	c := NewLocalAccountCache(db)
	ctx := context.Background()

	mock.ExpectExec("INSERT INTO account_cache").WithArgs("1", "home", "{}").WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("^DELETE FROM account_cache;$").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT value FROM account_cache").WithArgs("1", "home").WillReturnError(sql.ErrNoRows)

	require.NoError(t, c.Put(ctx, "1", "home", "{}"))
	require.NoError(t, c.Clear(ctx))

	_, err := c.Get(ctx, "1", "home")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
