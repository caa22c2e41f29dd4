// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package db provides the database engine and helpers shared by all models.
package db

import (
	"context"
	"database/sql"
	"fmt"

	"code.gitea.io/commitgraph/modules/log"
	"code.gitea.io/commitgraph/modules/setting"

	_ "github.com/go-sql-driver/mysql" // Needed for the MySQL driver
	_ "github.com/lib/pq"              // Needed for the Postgresql driver
	"xorm.io/xorm"
	"xorm.io/xorm/names"
	"xorm.io/xorm/schemas"
)

var (
	x       *xorm.Engine
	replica *xorm.Engine // nil unless a read replica is configured
	tables  []any
)

// Engine represents a xorm engine or session
type Engine interface {
	Table(tableNameOrBean any) *xorm.Session
	Count(...any) (int64, error)
	Decr(column string, arg ...any) *xorm.Session
	Delete(...any) (int64, error)
	Exec(...any) (sql.Result, error)
	Find(any, ...any) error
	Get(beans ...any) (bool, error)
	ID(any) *xorm.Session
	In(string, ...any) *xorm.Session
	Incr(column string, arg ...any) *xorm.Session
	Insert(...any) (int64, error)
	Iterate(any, xorm.IterFunc) error
	IsTableExist(any) (bool, error)
	Join(joinOperator string, tablename, condition any, args ...any) *xorm.Session
	SQL(any, ...any) *xorm.Session
	Where(any, ...any) *xorm.Session
	Asc(colNames ...string) *xorm.Session
	Desc(colNames ...string) *xorm.Session
	Limit(limit int, start ...int) *xorm.Session
	NoAutoTime() *xorm.Session
	SumInt(bean any, columnName string) (res int64, err error)
	Sync(...any) error
	Select(string) *xorm.Session
	SetExpr(string, any) *xorm.Session
	NotIn(string, ...any) *xorm.Session
	OrderBy(any, ...any) *xorm.Session
	Exist(...any) (bool, error)
	Distinct(...string) *xorm.Session
	Query(...any) ([]map[string][]byte, error)
	Cols(...string) *xorm.Session
	Context(ctx context.Context) *xorm.Session
	Ping() error
}

// TableInfo returns table's information via an object
func TableInfo(v any) (*schemas.Table, error) {
	return x.TableInfo(v)
}

// RegisterModel registers a model to be synced by SyncAllTables
func RegisterModel(bean any) {
	tables = append(tables, bean)
}

func newXORMEngine(host string) (*xorm.Engine, error) {
	connStr, err := setting.DBConnStr(host)
	if err != nil {
		return nil, err
	}

	engine, err := xorm.NewEngine(string(setting.Database.Type), connStr)
	if err != nil {
		return nil, err
	}
	engine.SetMapper(names.GonicMapper{})
	engine.SetLogger(newXORMLogger())
	engine.ShowSQL(log.GetLevel() == log.TRACE)
	engine.SetMaxOpenConns(setting.Database.MaxOpenConns)
	engine.SetMaxIdleConns(setting.Database.MaxIdleConns)
	engine.SetConnMaxLifetime(setting.Database.ConnMaxLife)
	return engine, nil
}

// InitEngine creates the primary (and optional replica) xorm engines
func InitEngine(ctx context.Context) error {
	engine, err := newXORMEngine("")
	if err != nil {
		return fmt.Errorf("failed to create xorm engine: %w", err)
	}
	if err = engine.Ping(); err != nil {
		engine.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	SetDefaultEngine(ctx, engine)

	if setting.Database.ReplicaHost != "" {
		replica, err = newXORMEngine(setting.Database.ReplicaHost)
		if err != nil {
			return fmt.Errorf("failed to create replica xorm engine: %w", err)
		}
		log.Info("Database replica reads enabled (%s)", setting.Database.ReplicaHost)
	}
	return nil
}

// SetDefaultEngine sets the default engine for db
func SetDefaultEngine(ctx context.Context, eng *xorm.Engine) {
	x = eng
	DefaultContext = &Context{Context: ctx, e: x}
}

// GetMasterEngine returns the primary underlying xorm.Engine
func GetMasterEngine() *xorm.Engine {
	return x
}

// SyncAllTables syncs the schemas of all registered models
func SyncAllTables() error {
	_, err := x.SyncWithOptions(xorm.SyncOptions{
		WarnIfDatabaseColumnMissed: true,
	}, tables...)
	return err
}

// UnsetDefaultEngine closes and unsets the default engine, mainly for tests
func UnsetDefaultEngine() {
	if x != nil {
		_ = x.Close()
		x = nil
	}
	if replica != nil {
		_ = replica.Close()
		replica = nil
	}
	DefaultContext = nil
}
