/*
	Copyright 2021 SANGFOR TECHNOLOGIES

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

		http://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

// Package secret is a small key-value secret store with grant/revoke semantics.
// A secret is a set of account passwords under one opaque id; granting it to a
// relation lets the other side of that relation fetch the content. The store itself
// is not the interesting part and is deliberately thin.
package secret

import (
	"fmt"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/util"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
)

// SystemAccounts are the accounts whose passwords travel with a replication grant
var SystemAccounts = []string{
	constant.AccountRoot,
	constant.AccountServerConfig,
	constant.AccountClusterAdmin,
	constant.AccountMonitoring,
	constant.AccountBackup,
}

// EnsureGroupSecret returns the group's system account passwords, generating
// and storing them on first use. The group secret id lives in group scoped
// peer state so every member resolves the same secret.
func EnsureGroupSecret() (content map[string]string, err error) {
	secretID, found, err := peerstate.GetGroupValue(constant.GroupKeySecretID)
	if err != nil {
		return nil, err
	}
	if found && secretID != "" {
		content = make(map[string]string)
		for _, account := range SystemAccounts {
			password, err := GetAccount(secretID, account)
			if err != nil {
				return nil, err
			}
			content[account] = password
		}
		return content, nil
	}

	content = make(map[string]string)
	for _, account := range SystemAccounts {
		content[account] = util.Random(24)
	}
	if secretID, err = Create(content); err != nil {
		return nil, err
	}
	if err = peerstate.SetGroupValue(constant.GroupKeySecretID, secretID); err != nil {
		return nil, err
	}
	return content, nil
}

// Create store given account passwords under a fresh secret id
func Create(content map[string]string) (secretID string, err error) {
	secretID = "secret-" + util.RandomSuffix(16)
	for account, password := range content {
		if _, err = db.ExecSQL(`
				replace into csd_secret (secret_id, account, secret_value) values (?, ?, ?)
			`, secretID, account, password,
		); err != nil {
			return "", log.Errore(err)
		}
	}
	return secretID, nil
}

// Grant allow the holder of given relation to read the secret
func Grant(secretID string, relationID int64) error {
	_, err := db.ExecSQL(`
			replace into csd_secret_grant (secret_id, relation_id) values (?, ?)
		`, secretID, relationID,
	)
	return log.Errore(err)
}

// Revoke withdraw a grant; reads through the relation fail afterwards
func Revoke(secretID string, relationID int64) error {
	_, err := db.ExecSQL(`
			delete from csd_secret_grant where secret_id = ? and relation_id = ?
		`, secretID, relationID,
	)
	return log.Errore(err)
}

// GetGranted fetch the content of a secret through a relation grant. Returns
// ErrSecretNotFound while the grant has not propagated yet; callers treat that as a
// transient condition and defer.
func GetGranted(secretID string, relationID int64) (content map[string]string, err error) {
	granted := false
	if err = db.Query(`
			select 1 as granted from csd_secret_grant where secret_id = ? and relation_id = ?
		`, []interface{}{secretID, relationID}, func(m sqlutil.RowMap) error {
		granted = true
		return nil
	}); err != nil {
		return nil, log.Errore(err)
	}
	if !granted {
		return nil, fmt.Errorf("%w: %s is not granted to relation %d", dtstruct.ErrSecretNotFound, secretID, relationID)
	}

	content = make(map[string]string)
	if err = db.Query(`
			select account, secret_value from csd_secret where secret_id = ?
		`, []interface{}{secretID}, func(m sqlutil.RowMap) error {
		content[m.GetString("account")] = m.GetString("secret_value")
		return nil
	}); err != nil {
		return nil, log.Errore(err)
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: %s", dtstruct.ErrSecretNotFound, secretID)
	}
	return content, nil
}

// UpdateAccount rewrite one account's password inside an existing secret
func UpdateAccount(secretID string, account string, password string) error {
	_, err := db.ExecSQL(`
			replace into csd_secret (secret_id, account, secret_value) values (?, ?, ?)
		`, secretID, account, password,
	)
	return log.Errore(err)
}

// GetAccount read one account's password from a secret, without a relation grant.
// Only the owner side uses this, for the get-password action.
func GetAccount(secretID string, account string) (password string, err error) {
	found := false
	if err = db.Query(`
			select secret_value from csd_secret where secret_id = ? and account = ?
		`, []interface{}{secretID, account}, func(m sqlutil.RowMap) error {
		password = m.GetString("secret_value")
		found = true
		return nil
	}); err != nil {
		return "", log.Errore(err)
	}
	if !found {
		return "", fmt.Errorf("%w: %s/%s", dtstruct.ErrSecretNotFound, secretID, account)
	}
	return password, nil
}
