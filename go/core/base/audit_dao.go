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
	"fmt"
	"log/syslog"
	"os"
	"time"

	"gitee.com/opengauss/clusterset4db/go/common/constant"
	"gitee.com/opengauss/clusterset4db/go/config"
	"gitee.com/opengauss/clusterset4db/go/core/db"
	"gitee.com/opengauss/clusterset4db/go/core/log"
	"gitee.com/opengauss/clusterset4db/go/util/sqlutil"
	"github.com/rcrowley/go-metrics"
)

// syslogWriter is optional, and defaults to nil (disabled)
var syslogWriter *syslog.Writer

// auditCounter count audit times
var auditCounter = metrics.NewCounter()

func init() {
	metrics.Register(constant.MetricAuditOpt, auditCounter)
}

// EnableSyslog enables, if possible, writes to syslog. These will execute in addition to normal logging
func EnableSyslog() (err error) {
	if syslogWriter, err = syslog.New(syslog.LOG_ERR, constant.WhoAmI); err != nil {
		syslogWriter = nil
	}
	return log.Errore(err)
}

// AuditOperation creates and writes a new audit entry by given params
func AuditOperation(auditType string, unitLabel string, clusterName string, message string) {
	auditCounter.Inc(1)

	// if write to file
	isWriteToFile := false
	if config.Config.AuditLogFile != "" {
		isWriteToFile = true
		go func() {
			f, err := os.OpenFile(config.Config.AuditLogFile, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0640)
			if err != nil {
				log.Erroref(err)
				return
			}
			defer f.Close()
			if _, err = f.WriteString(fmt.Sprintf("%s\t%s\t%s\t[%s]\t%s\t\n", time.Now().Format(constant.DateFormatLog), auditType, unitLabel, clusterName, message)); err != nil {
				log.Erroref(err)
			}
		}()
	}

	// if write to database
	if config.Config.AuditToBackendDB {
		_, _ = db.ExecSQL(`
				insert into
					csd_audit (audit_timestamp, audit_type, unit_label, cluster_name, message)
				values (
					now(), ?, ?, ?, ?
				)
			`,
			auditType, unitLabel, clusterName, message,
		)
	}

	// if write to system log
	logMessage := fmt.Sprintf("auditType:%s unit:%s cluster:%s message:%s", auditType, unitLabel, clusterName, message)
	if syslogWriter != nil {
		isWriteToFile = true
		go func() {
			_ = syslogWriter.Info(logMessage)
		}()
	}

	// if write to log file
	if !isWriteToFile {
		log.Infof(logMessage)
	}
}

// ReadRecentAudit returns a page of recent audit entries, newest first
func ReadRecentAudit(page int, pageSize int) (res []string, err error) {
	err = db.Query(`
			select
				audit_timestamp, audit_type, unit_label, cluster_name, message
			from
				csd_audit
			order by
				audit_id desc
			limit ?
			offset ?
		`, []interface{}{pageSize, page * pageSize}, func(m sqlutil.RowMap) error {
		res = append(res, fmt.Sprintf("%s\t%s\t%s\t[%s]\t%s",
			m.GetString("audit_timestamp"), m.GetString("audit_type"), m.GetString("unit_label"),
			m.GetString("cluster_name"), m.GetString("message")))
		return nil
	})
	return res, log.Errore(err)
}
