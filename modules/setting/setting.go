// Copyright 2024 The Gitea Authors. All rights reserved.
// SPDX-License-Identifier: MIT

// Package setting loads the service configuration from an ini file.
package setting

import (
	"code.gitea.io/commitgraph/modules/log"

	"gopkg.in/ini.v1"
)

// Cfg is the root configuration, empty until Init is called
var Cfg *ini.File

// CustomConf is the path of the loaded configuration file, if any
var CustomConf string

// Init loads the configuration from the given file (which may not exist)
// and fills every settings group. An empty path loads pure defaults.
func Init(customConf string) {
	Cfg = ini.Empty()
	CustomConf = customConf

	if customConf != "" {
		var err error
		Cfg, err = ini.LooseLoad(customConf)
		if err != nil {
			log.Fatal("Failed to load custom conf %q: %v", customConf, err)
		}
	}
	Cfg.NameMapper = ini.SnackCase

	loadLogFrom(Cfg)
	loadDBSetting(Cfg)
	loadCacheFrom(Cfg)
	loadCommitGraphFrom(Cfg)
}

func loadLogFrom(rootCfg *ini.File) {
	sec := rootCfg.Section("log")
	log.SetLevel(log.LevelFromString(sec.Key("LEVEL").MustString("info")))
}
