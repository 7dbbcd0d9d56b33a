// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Rasul Khiriev

package store

const (
	saveVaultRecord = `
		INSERT INTO vault_records (account_id, body, updated_at)
		VALUES ($1, $2, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id) DO UPDATE SET
			body       = excluded.body,
			updated_at = excluded.updated_at;`

	getVaultRecord = `
		SELECT body
		FROM vault_records
		WHERE account_id = $1;`

	getAllVaultRecords = `
		SELECT account_id, body
		FROM vault_records
		ORDER BY account_id;`

	deleteVaultRecord = `
		DELETE FROM vault_records
		WHERE account_id = $1;`

	setSetting = `
		INSERT INTO app_settings (key, value)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET value = excluded.value;`

	getSetting = `
		SELECT value
		FROM app_settings
		WHERE key = $1;`

	deleteSetting = `
		DELETE FROM app_settings
		WHERE key = $1;`

	deleteSettingIfMatches = `
		DELETE FROM app_settings
		WHERE key = $1 AND value = $2;`

	putAccountCache = `
		INSERT INTO account_cache (account_id, key, value, updated_at)
		VALUES ($1, $2, $3, CURRENT_TIMESTAMP)
		ON CONFLICT (account_id, key) DO UPDATE SET
			value      = excluded.value,
			updated_at = excluded.updated_at;`

	getAccountCache = `
		SELECT value
		FROM account_cache
		WHERE account_id = $1 AND key = $2;`

	clearAccountCache = `DELETE FROM account_cache;`
)
