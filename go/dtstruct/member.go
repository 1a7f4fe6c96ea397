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
package dtstruct

import (
	"fmt"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
)

// Member is one running unit of the managed service, identified by a stable label
// derived from its ordinal. Exactly one member of a group is leader at any time;
// leadership is arbitrated through the backend store, not by this struct.
type Member struct {
	Label   string
	Address string
}

func (m *Member) String() string {
	return fmt.Sprintf("%s(%s)", m.Label, m.Address)
}

// ProcessToken identifies this process run. Used by leadership arbitration so that a
// restarted process on the same host does not inherit a stale leadership row.
type Token struct {
	Hash string
}

var ProcessToken *Token = &Token{}

// Ternary is a three-valued answer for questions the engine may be unable to answer
// right now. Unknown is a legitimate transient state, distinct from false.
type Ternary int

const (
	TernaryUnknown Ternary = iota
	TernaryTrue
	TernaryFalse
)

func (t Ternary) String() string {
	switch t {
	case TernaryTrue:
		return constant.ValueTrue
	case TernaryFalse:
		return constant.ValueFalse
	}
	return constant.MemberRoleUnknown
}
