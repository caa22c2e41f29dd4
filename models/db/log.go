// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

package db

import (
	"fmt"
	"sync/atomic"

	"code.gitea.io/commitgraph/modules/log"

	xormlog "xorm.io/xorm/log"
)

// xormLogBridge is a logger bridge from our log module to xorm
type xormLogBridge struct {
	showSQL atomic.Bool
	logger  log.LevelLogger
}

func newXORMLogger() xormlog.Logger {
	b := &xormLogBridge{logger: log.GetLogger()}
	b.showSQL.Store(log.GetLevel() == log.TRACE)
	return b
}

// Debug show debug log
func (l *xormLogBridge) Debug(v ...any) {
	l.logger.Debug("%s", fmt.Sprint(v...))
}

// Debugf show debug log
func (l *xormLogBridge) Debugf(format string, v ...any) {
	l.logger.Debug(format, v...)
}

// Error show error log
func (l *xormLogBridge) Error(v ...any) {
	l.logger.Error("%s", fmt.Sprint(v...))
}

// Errorf show error log
func (l *xormLogBridge) Errorf(format string, v ...any) {
	l.logger.Error(format, v...)
}

// Info show information level log
func (l *xormLogBridge) Info(v ...any) {
	l.logger.Info("%s", fmt.Sprint(v...))
}

// Infof show information level log
func (l *xormLogBridge) Infof(format string, v ...any) {
	l.logger.Info(format, v...)
}

// Warn show warning log
func (l *xormLogBridge) Warn(v ...any) {
	l.logger.Warn("%s", fmt.Sprint(v...))
}

// Warnf show warning log
func (l *xormLogBridge) Warnf(format string, v ...any) {
	l.logger.Warn(format, v...)
}

// Level get logger level
func (l *xormLogBridge) Level() xormlog.LogLevel {
	switch log.GetLevel() {
	case log.TRACE, log.DEBUG:
		return xormlog.LOG_DEBUG
	case log.INFO:
		return xormlog.LOG_INFO
	case log.WARN:
		return xormlog.LOG_WARNING
	case log.ERROR:
		return xormlog.LOG_ERR
	case log.NONE:
		return xormlog.LOG_OFF
	}
	return xormlog.LOG_UNKNOWN
}

// SetLevel set the logger level
func (l *xormLogBridge) SetLevel(lvl xormlog.LogLevel) {
}

// ShowSQL set if record SQL
func (l *xormLogBridge) ShowSQL(show ...bool) {
	if len(show) == 0 {
		show = []bool{true}
	}
	l.showSQL.Store(show[0])
}

// IsShowSQL if record SQL
func (l *xormLogBridge) IsShowSQL() bool {
	return l.showSQL.Load()
}
