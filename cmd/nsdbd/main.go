// Copyright 2024 The Nsdb Authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or
// implied. See the License for the specific language governing
// permissions and limitations under the License.

// nsdbd is the process entrypoint: load config, stand up a namespace
// catalog, serve it over REST and RPC, wait for a termination signal.
// Mirrors the shape of the teacher's cmd/cmd.go (config load -> server ->
// http/grpc listeners -> signal wait -> graceful stop) with the
// master/router/shardserver cluster wiring dropped for this embedded,
// single-process engine.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/cubefs/cubefs/blobstore/util/log"

	"github.com/nsdb/nsdb/common/kvstore"
	"github.com/nsdb/nsdb/config"
	"github.com/nsdb/nsdb/httpserver"
	"github.com/nsdb/nsdb/namespace"
	"github.com/nsdb/nsdb/rpcserver"
	"github.com/nsdb/nsdb/wal"
)

func main() {
	path := flag.String("f", "", "path to the nsdbd config file")
	flag.Parse()
	cfgPath := *path
	if env := os.Getenv(config.EnvOverride); env != "" {
		cfgPath = env
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		log.Fatal("nsdbd: load config failed:", err)
	}

	catalog := namespace.NewCatalog(sinkFactory(cfg), cfg.NamespaceConfig())

	rpc := rpcserver.NewServer(catalog)
	rest := httpserver.NewServer(rpc)

	rest.Serve(cfg.HTTPBindAddr)
	go func() {
		if err := rpc.Serve(cfg.GRPCBindAddr); err != nil {
			log.Fatal("nsdbd: grpc server exited:", err)
		}
	}()
	log.Info("nsdbd: rpc server is running at:", cfg.GRPCBindAddr)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT)
	<-ch

	rpc.Stop()
	rest.Stop()
	for _, name := range catalog.Namespaces() {
		if ns, ok := catalog.Namespace(name); ok {
			_ = ns.Close()
		}
	}
}

// sinkFactory builds the WAL sink a new namespace is opened with: a
// rocksdb-backed KVSink under cfg.DataDir/<namespace>, or an in-memory
// sink when no data directory is configured (tests, ephemeral runs).
func sinkFactory(cfg config.Config) func(name string) wal.Sink {
	if cfg.DataDir == "" {
		return func(string) wal.Sink { return wal.NewMemSink() }
	}
	return func(name string) wal.Sink {
		store, err := kvstore.NewKVStore(context.Background(), filepath.Join(cfg.DataDir, name), kvstore.RocksdbLsmKVType, &kvstore.Option{})
		if err != nil {
			log.Fatal("nsdbd: open rocksdb store for namespace ", name, " failed: ", err)
		}
		sink, err := wal.NewKVSink(store, name)
		if err != nil {
			log.Fatal("nsdbd: open WAL sink for namespace ", name, " failed: ", err)
		}
		return sink
	}
}
