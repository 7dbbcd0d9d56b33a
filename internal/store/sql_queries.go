// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

import (
	"time"

	"github.com/MKhiriev/go-multi-account/models"
	sq "github.com/Masterminds/squirrel"
)

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const (
	tableApplications = "oauth_applications"
	tableGrants       = "oauth_access_grants"
	tableTokens       = "oauth_access_tokens"
	tableUsers        = "users"
	tableAccounts     = "accounts"
)

var (
	applicationColumns = []string{
		"id",
		"name",
		"uid",
		"secret",
		"redirect_uri",
		"COALESCE(scopes, '')",
	}

	grantColumns = []string{
		"id",
		"resource_owner_id",
		"application_id",
		"token",
		"expires_in",
		"redirect_uri",
		"COALESCE(scopes, '')",
		"created_at",
		"revoked_at",
	}

	tokenColumns = []string{
		"id",
		"token",
		"COALESCE(resource_owner_id, 0)",
		"COALESCE(application_id, 0)",
		"COALESCE(scopes, '')",
		"expires_in",
		"created_at",
		"revoked_at",
		"last_used_at",
		"host(last_used_ip)",
		"multi_account",
		"purpose",
		"long_lived",
	}

	userColumns = []string{
		"id",
		"account_id",
		"email",
		"created_at",
	}

	accountColumns = []string{
		"a.id",
		"a.username",
		"COALESCE(a.domain, '')",
		"a.display_name",
		"a.avatar_url",
		"a.created_at",
	}
)

func buildFindApplicationByUIDQuery(uid string) (string, []any, error) {
	return psql.Select(applicationColumns...).
		From(tableApplications).
		Where(sq.Eq{"uid": uid}).
		Limit(1).
		ToSql()
}

func buildFindGrantByTokenQuery(token string) (string, []any, error) {
	return psql.Select(grantColumns...).
		From(tableGrants).
		Where(sq.Eq{"token": token}).
		Limit(1).
		ToSql()
}

func buildFindTokenQuery(where sq.Eq) (string, []any, error) {
	return psql.Select(tokenColumns...).
		From(tableTokens).
		Where(where).
		Limit(1).
		ToSql()
}

func buildCreateTokenQuery(token models.AccessToken) (string, []any, error) {
	return psql.Insert(tableTokens).
		Columns(
			"token",
			"resource_owner_id",
			"application_id",
			"scopes",
			"expires_in",
			"created_at",
			"multi_account",
			"purpose",
			"long_lived",
		).
		Values(
			token.Token,
			token.ResourceOwnerID,
			token.ApplicationID,
			token.Scopes,
			durationSeconds(token.ExpiresIn),
			token.CreatedAt,
			token.MultiAccount,
			token.Purpose,
			token.LongLived,
		).
		Suffix("RETURNING id").
		ToSql()
}

func buildMarkMultiAccountQuery(token models.AccessToken) (string, []any, error) {
	return psql.Update(tableTokens).
		Set("multi_account", token.MultiAccount).
		Set("purpose", token.Purpose).
		Set("long_lived", token.LongLived).
		Where(sq.Eq{"id": token.ID}).
		ToSql()
}

func buildRevokeTokenQuery(id int64, at time.Time) (string, []any, error) {
	return psql.Update(tableTokens).
		Set("revoked_at", at).
		Where(sq.And{sq.Eq{"id": id}, sq.Eq{"revoked_at": nil}}).
		ToSql()
}

func buildTouchLastUsedQuery(id int64, at time.Time, ip string) (string, []any, error) {
	var lastUsedIP any
	if ip != "" {
		lastUsedIP = ip
	}
	return psql.Update(tableTokens).
		Set("last_used_at", at).
		Set("last_used_ip", lastUsedIP).
		Where(sq.Eq{"id": id}).
		ToSql()
}

func buildFindUserQuery(userID int64) (string, []any, error) {
	return psql.Select(userColumns...).
		From(tableUsers).
		Where(sq.Eq{"id": userID}).
		Limit(1).
		ToSql()
}

func buildFindAccountQuery(accountID int64) (string, []any, error) {
	return psql.Select(accountColumns...).
		From(tableAccounts + " a").
		Where(sq.Eq{"a.id": accountID}).
		Limit(1).
		ToSql()
}

func buildFindAccountByUserQuery(userID int64) (string, []any, error) {
	return psql.Select(accountColumns...).
		From(tableAccounts + " a").
		Join(tableUsers + " u ON u.account_id = a.id").
		Where(sq.Eq{"u.id": userID}).
		Limit(1).
		ToSql()
}

func durationSeconds(d *time.Duration) any {
	if d == nil {
		return nil
	}
	return int64(d.Seconds())
}
