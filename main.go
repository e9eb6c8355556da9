/*
SPDX-License-Identifier: Apache-2.0

Copyright 2024 The Taxinomia Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"

	"github.com/google/gridcore/core/logger"
	"github.com/google/gridcore/core/server"
	"github.com/google/gridcore/demo"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:8097", "listen address")
	sources := flag.String("sources", "", "data sources YAML, e.g. demo/data/sources.yaml")
	level := flag.String("level", "info", "log level: debug, info, warn or error")
	jsonLogs := flag.Bool("json", false, "write JSON log records")
	flag.Parse()

	lvl, err := logger.ParseLevel(*level)
	if err != nil {
		log.Fatal(err)
	}
	opts := logger.Options{Level: lvl}
	if *jsonLogs {
		opts.Type = logger.TypeJSON
	}
	lg := logger.New(opts)

	d, err := demo.Setup(context.Background(), demo.Options{Logger: lg, SourcesURL: *sources})
	if err != nil {
		log.Fatalf("Failed to set up demo grids: %v", err)
	}
	defer d.Close()

	srv, err := server.NewServer(d.Registry, lg)
	if err != nil {
		log.Fatalf("Failed to create server: %v", err)
	}

	fmt.Printf("Server starting on http://%s\n", *addr)
	log.Fatal(http.ListenAndServe(*addr, srv.Handler()))
}
