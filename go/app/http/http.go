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
package http

import (
	"net/http"
	"strings"

	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/core/logic"
	"github.com/go-martini/martini"
	"github.com/martini-contrib/auth"
	"github.com/martini-contrib/gzip"
	"github.com/martini-contrib/render"
)

// Http starts serving, optionally alongside the continuous reconcile loop
func Http(continuousReconcile bool) {
	martini.Env = martini.Prod
	config.WaitForConfigurationToBeLoaded()
	standardHttp(continuousReconcile)
}

// standardHttp starts serving HTTP or HTTPS api requests
func standardHttp(continuousReconcile bool) {
	m := CustomMartini()
	switch strings.ToLower(config.Config.AuthenticationMethod) {
	case "basic":
		m.Use(auth.Basic(config.Config.HTTPAuthUser, config.Config.HTTPAuthPassword))
	default:
		m.Map(auth.User(""))
	}
	m.Use(gzip.All())
	m.Use(render.Renderer())

	if continuousReconcile {
		log.Info("Starting Reconcile")
		go logic.ContinuousReconcile()
	}

	log.Info("Registering endpoints")
	RegisterRequests(m)

	// Serve
	if config.Config.UseSSL {
		log.Infof("Starting HTTPS listener on %+v", config.Config.ListenAddress)
		if err := http.ListenAndServeTLS(config.Config.ListenAddress, config.Config.SSLCertFile, config.Config.SSLPrivateKeyFile, m); err != nil {
			log.Fatale(err)
		}
	} else {
		log.Infof("Starting HTTP listener on %+v", config.Config.ListenAddress)
		if err := http.ListenAndServe(config.Config.ListenAddress, m); err != nil {
			log.Fatale(err)
		}
	}
}
