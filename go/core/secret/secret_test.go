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
package secret

import (
	"errors"
	"testing"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/peerstate"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"gitee.com/opengauss/clusterset4db/go/test"
	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func init() {
	test.DBTestInit()
}

func TestGrantLifecycle(t *testing.T) {
	const relationID = 7
	test := tests.S(t)

	secretID, err := Create(map[string]string{constant.AccountRoot: "root-pw", constant.AccountMonitoring: "mon-pw"})
	test.ExpectNil(err)
	test.ExpectNotEquals(secretID, "")

	// no grant yet: the relation cannot read the secret
	_, err = GetGranted(secretID, relationID)
	test.ExpectTrue(errors.Is(err, dtstruct.ErrSecretNotFound))

	test.ExpectNil(Grant(secretID, relationID))
	content, err := GetGranted(secretID, relationID)
	test.ExpectNil(err)
	test.ExpectEquals(len(content), 2)
	test.ExpectEquals(content[constant.AccountRoot], "root-pw")

	// a grant is per relation
	_, err = GetGranted(secretID, relationID+1)
	test.ExpectTrue(errors.Is(err, dtstruct.ErrSecretNotFound))

	test.ExpectNil(Revoke(secretID, relationID))
	_, err = GetGranted(secretID, relationID)
	test.ExpectTrue(errors.Is(err, dtstruct.ErrSecretNotFound))
}

func TestUpdateAccount(t *testing.T) {
	test := tests.S(t)

	secretID, err := Create(map[string]string{constant.AccountRoot: "before"})
	test.ExpectNil(err)

	test.ExpectNil(UpdateAccount(secretID, constant.AccountRoot, "after"))
	password, err := GetAccount(secretID, constant.AccountRoot)
	test.ExpectNil(err)
	test.ExpectEquals(password, "after")

	_, err = GetAccount(secretID, "no-such-account")
	test.ExpectTrue(errors.Is(err, dtstruct.ErrSecretNotFound))
}

func TestEnsureGroupSecretIsStable(t *testing.T) {
	test := tests.S(t)
	defer func() {
		test.ExpectNil(peerstate.ClearGroupValue(constant.GroupKeySecretID))
	}()

	content, err := EnsureGroupSecret()
	test.ExpectNil(err)
	test.ExpectEquals(len(content), len(SystemAccounts))
	for _, account := range SystemAccounts {
		test.ExpectNotEquals(content[account], "")
	}

	secretID, found, err := peerstate.GetGroupValue(constant.GroupKeySecretID)
	test.ExpectNil(err)
	test.ExpectTrue(found)
	test.ExpectNotEquals(secretID, "")

	// a second call resolves the stored secret instead of minting a new one
	again, err := EnsureGroupSecret()
	test.ExpectNil(err)
	test.ExpectEquals(again[constant.AccountRoot], content[constant.AccountRoot])

	secretIDAgain, _, err := peerstate.GetGroupValue(constant.GroupKeySecretID)
	test.ExpectNil(err)
	test.ExpectEquals(secretIDAgain, secretID)
}
