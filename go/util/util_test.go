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
package util

import (
	"strings"
	"testing"
	"time"

	"gitee.com/opengauss/clusterset4db/go/util/tests"
)

func TestCheckPort(t *testing.T) {
	test := tests.S(t)
	test.ExpectNil(CheckPort("3306"))
	test.ExpectNil(CheckPort("65535"))
	test.ExpectNotNil(CheckPort("999"))
	test.ExpectNotNil(CheckPort("65536"))
	test.ExpectNotNil(CheckPort("not-a-port"))
}

func TestCheckIP(t *testing.T) {
	test := tests.S(t)
	test.ExpectNil(CheckIP("10.89.0.10"))
	test.ExpectNil(CheckIP("::1"))
	test.ExpectNotNil(CheckIP("10.89.0"))
	test.ExpectNotNil(CheckIP("db.example.com"))
}

func TestCheckVersion(t *testing.T) {
	test := tests.S(t)
	test.ExpectNil(CheckVersion("8.0.34"))
	test.ExpectNotNil(CheckVersion("8.0"))
	test.ExpectNotNil(CheckVersion("8.0.x"))
}

func TestRandom(t *testing.T) {
	test := tests.S(t)
	test.ExpectEquals(len(Random(24)), 24)
	test.ExpectEquals(len(RandomHash()), 64)

	suffix := RandomSuffix(4)
	test.ExpectEquals(len(suffix), 4)
	test.ExpectEquals(suffix, strings.ToLower(suffix))
}

func TestRandomSecondBetween(t *testing.T) {
	test := tests.S(t)
	for i := 0; i < 20; i++ {
		d := RandomSecondBetween(4, 30)
		test.ExpectTrue(d >= 4*time.Second)
		test.ExpectTrue(d < 30*time.Second)
	}
}

func TestHasString(t *testing.T) {
	test := tests.S(t)
	test.ExpectTrue(HasString("b", []string{"a", "b", "c"}))
	test.ExpectFalse(HasString("d", []string{"a", "b", "c"}))
	test.ExpectFalse(HasString("a", nil))
}

func TestHostPort(t *testing.T) {
	test := tests.S(t)
	test.ExpectEquals(HostPort("10.89.0.10", 3306), "10.89.0.10:3306")
	test.ExpectEquals(HostPort("::1", 3306), "[::1]:3306")
}
