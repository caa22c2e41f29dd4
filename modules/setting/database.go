// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package setting

import (
	"fmt"
	"time"

	"gopkg.in/ini.v1"
)

// DatabaseType represents the configured database backend
type DatabaseType string

// IsMySQL returns true if the database type is MySQL
func (t DatabaseType) IsMySQL() bool { return t == "mysql" }

// IsPostgreSQL returns true if the database type is PostgreSQL
func (t DatabaseType) IsPostgreSQL() bool { return t == "postgres" }

// IsSQLite3 returns true if the database type is SQLite
func (t DatabaseType) IsSQLite3() bool { return t == "sqlite3" }

// Database holds the database settings
var Database = struct {
	Type              DatabaseType
	Host              string
	Name              string
	User              string
	Passwd            string
	SSLMode           string
	Path              string
	ReplicaHost       string
	Timeout           int // in milliseconds
	MaxIdleConns      int
	MaxOpenConns      int
	ConnMaxLife       time.Duration
	IterateBufferSize int
}{
	Timeout:           500,
	IterateBufferSize: 50,
	MaxIdleConns:      2,
	ConnMaxLife:       3 * time.Second,
}

func loadDBSetting(rootCfg *ini.File) {
	sec := rootCfg.Section("database")
	Database.Type = DatabaseType(sec.Key("DB_TYPE").MustString("sqlite3"))
	Database.Host = sec.Key("HOST").String()
	Database.Name = sec.Key("NAME").MustString("commitgraph")
	Database.User = sec.Key("USER").String()
	Database.Passwd = sec.Key("PASSWD").String()
	Database.SSLMode = sec.Key("SSL_MODE").MustString("disable")
	Database.Path = sec.Key("PATH").MustString("data/commitgraph.db")
	Database.ReplicaHost = sec.Key("REPLICA_HOST").String()
	Database.Timeout = sec.Key("SQLITE_TIMEOUT").MustInt(500)
	Database.MaxIdleConns = sec.Key("MAX_IDLE_CONNS").MustInt(2)
	Database.MaxOpenConns = sec.Key("MAX_OPEN_CONNS").MustInt(0)
	Database.ConnMaxLife = sec.Key("CONN_MAX_LIFE_TIME").MustDuration(3 * time.Second)
	Database.IterateBufferSize = sec.Key("ITERATE_BUFFER_SIZE").MustInt(50)
}

// DBConnStr returns the xorm connection string for the configured database.
// The host argument allows routing to a read replica instead of the primary.
func DBConnStr(host string) (string, error) {
	if host == "" {
		host = Database.Host
	}
	switch Database.Type {
	case "mysql":
		return fmt.Sprintf("%s:%s@tcp(%s)/%s?charset=utf8mb4&parseTime=true",
			Database.User, Database.Passwd, host, Database.Name), nil
	case "postgres":
		return fmt.Sprintf("postgres://%s:%s@%s/%s?sslmode=%s",
			Database.User, Database.Passwd, host, Database.Name, Database.SSLMode), nil
	case "sqlite3":
		return fmt.Sprintf("file:%s?cache=shared&mode=rwc&_busy_timeout=%d&_txlock=immediate",
			Database.Path, Database.Timeout), nil
	}
	return "", fmt.Errorf("unknown database type: %s", Database.Type)
}
