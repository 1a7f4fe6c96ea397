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
package zk

import (
	"strings"
	"time"

	zklib "github.com/samuel/go-zookeeper/zk"
)

// ZooKeeper is a thin connection wrapper. Connections are established lazily
// and kept for the process lifetime.
type ZooKeeper struct {
	servers []string
	conn    *zklib.Conn
}

func NewZooKeeper() *ZooKeeper {
	return &ZooKeeper{}
}

func (this *ZooKeeper) SetServers(servers []string) {
	this.servers = servers
}

func (this *ZooKeeper) connection() (*zklib.Conn, error) {
	if this.conn != nil {
		return this.conn, nil
	}
	conn, _, err := zklib.Connect(this.servers, time.Second)
	if err != nil {
		return nil, err
	}
	this.conn = conn
	return conn, nil
}

func (this *ZooKeeper) Get(path string) ([]byte, error) {
	conn, err := this.connection()
	if err != nil {
		return nil, err
	}
	result, _, err := conn.Get(path)
	return result, err
}

func (this *ZooKeeper) Set(path string, data []byte) error {
	conn, err := this.connection()
	if err != nil {
		return err
	}
	_, err = conn.Set(path, data, -1)
	return err
}

// CreateRecursive creates path and any missing ancestors, then writes data
func (this *ZooKeeper) CreateRecursive(path string, data []byte) error {
	conn, err := this.connection()
	if err != nil {
		return err
	}
	acl := zklib.WorldACL(zklib.PermAll)
	parts := strings.Split(strings.TrimLeft(path, "/"), "/")
	ancestor := ""
	for _, part := range parts[:len(parts)-1] {
		ancestor = ancestor + "/" + part
		if _, err = conn.Create(ancestor, []byte{}, 0, acl); err != nil && err != zklib.ErrNodeExists {
			return err
		}
	}
	if _, err = conn.Create(path, data, 0, acl); err == zklib.ErrNodeExists {
		return this.Set(path, data)
	}
	return err
}
