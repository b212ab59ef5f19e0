// Copyright 2019 PingCAP, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"fmt"
	"os"

	"github.com/pingcap/log"
	"go.uber.org/zap"

	"github.com/reldb/reldb/pkg/util"
	"github.com/reldb/reldb/pkg/version"
	"github.com/reldb/reldb/server"
)

func main() {
	cfg := server.NewConfig()
	if err := cfg.Parse(os.Args[1:]); err != nil {
		log.Fatal(fmt.Sprintf("verifying flags failed. See '%s --help'.", os.Args[0]), zap.Error(err))
	}

	if err := util.InitLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatal("initialize logger failed", zap.Error(err))
	}

	log.Info("start server", zap.String("config", cfg.String()))
	version.PrintVersionInfo()

	srv, err := server.NewServer(cfg)
	if err != nil {
		log.Fatal("create server failed", zap.Error(err))
	}

	util.SetupSignalHandler(func(_ os.Signal) {
		srv.Close()
	})

	if err := srv.Run(); err != nil {
		log.Error("run server failed", zap.Error(err))
	}

	log.Info("server exit")
}
