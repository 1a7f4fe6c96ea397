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
	"math/rand"
	"net"
	"strconv"
	"strings"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/core/log"
)

// CheckPort check if port is between 1000 and 65535
func CheckPort(port string) (err error) {
	p := 0
	if p, err = strconv.Atoi(port); err != nil {
		return log.Errore(err)
	}
	if p < 1000 || p > 65535 {
		return log.Errorf("illegal port: %s, should be between 1000 and 65535", port)
	}
	return nil
}

// CheckIP check if ip is valid
func CheckIP(ip string) error {
	if net.ParseIP(ip) == nil {
		return log.Errorf("invalid ip: %s", ip)
	}
	return nil
}

// CheckVersion check if version is with format x.y.z
func CheckVersion(version string) error {
	vs := strings.Split(version, ".")
	if len(vs) != 3 {
		return log.Errorf("invalid version: %s", version)
	}
	for _, vf := range vs {
		if _, err := strconv.Atoi(vf); err != nil {
			return log.Errore(err)
		}
	}
	return nil
}

// RandomHash get random string with 64 length
func RandomHash() string {
	return Random(64)
}

// Random generate random string with specified length
func Random(length int) string {
	rnd := rand.New(rand.NewSource(time.Now().UnixNano()))
	result := make([]byte, length)
	for i := 0; i < length; i++ {
		result[i] = constant.RandomChars[rnd.Intn(len(constant.RandomChars))]
	}
	return string(result)
}

// RandomSuffix generate a lower case alphanumeric suffix with specified length
func RandomSuffix(length int) string {
	return strings.ToLower(Random(length))
}

// RandomSecondBetween get a random duration between min and max seconds, [min,max)
func RandomSecondBetween(min int, max int) time.Duration {
	return time.Duration(rand.New(rand.NewSource(time.Now().UnixNano())).Intn(max-min)+min) * time.Second
}

// HasString determine if a string element is in a string array
func HasString(elem string, arr []string) bool {
	for _, s := range arr {
		if s == elem {
			return true
		}
	}
	return false
}

// HostPort join host and port to an endpoint address
func HostPort(host string, port int) string {
	return net.JoinHostPort(host, strconv.Itoa(port))
}
