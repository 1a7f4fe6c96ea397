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
package base

import (
	"net/http"
	"strings"

	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/dtstruct"
	"github.com/martini-contrib/auth"
	"github.com/martini-contrib/render"
)

func Respond(r render.Render, apiResponse *dtstruct.APIResponse) {
	r.JSON(apiResponse.Code.HttpStatus(), apiResponse)
}

// IsAuthorizedForAction checks req to see whether authenticated user has write-privileges.
// This depends on configured authentication method.
func IsAuthorizedForAction(req *http.Request, user auth.User) bool {
	switch strings.ToLower(config.Config.AuthenticationMethod) {
	case "basic":
		{
			// The mere fact we're here means the user has passed authentication
			return true
		}
	default:
		{
			// Default: no authentication method
			return true
		}
	}
}

// AuthCheck check user authorization
func AuthCheck(r render.Render, req *http.Request, user auth.User) bool {
	if !IsAuthorizedForAction(req, user) {
		Respond(r, dtstruct.NewApiResponse(dtstruct.ERROR, "unauthorized", nil))
		return false
	}
	return true
}
