// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

// lin-replay feeds a recorded LIN log through the protocol engine in
// read-only mode and dumps the resulting snapshots.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/roamkit/go-inetbox/clog"
	"github.com/roamkit/go-inetbox/serialport"
	"github.com/roamkit/go-inetbox/slave"
)

func main() {
	first := flag.Int("first", 1, "first line field holding a data byte")
	last := flag.Int("last", -2, "field after the last data byte, negative counts from the end")
	debug := flag.Bool("debug", false, "log every frame")
	lenient := flag.Bool("lenient", false, "skip record checksum verification")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <logfile>\n", os.Args[0])
		os.Exit(2)
	}
	f, err := os.Open(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer f.Close()

	log := clog.NewLogger("lin-replay ")
	log.LogMode(*debug)

	app := slave.NewApp(log)
	cfg := slave.Config{
		Active:                false,
		ReadTimeout:           100 * time.Millisecond,
		LenientRecordChecksum: *lenient,
	}
	sl, err := slave.New(serialport.NewReplaySlice(f, *first, *last), app, &cfg, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if err := sl.Run(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	dump("control status", app.Snapshot())
	dump("display status", app.DisplaySnapshot())
}

func dump(title string, values map[string]string) {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	fmt.Printf("%s:\n", title)
	for _, k := range keys {
		fmt.Printf("  %-28s %s\n", k, values[k])
	}
}
