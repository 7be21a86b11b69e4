// Command strusdump dumps the raw contents of a storage client's
// underlying key-value store to stdout, one line per record, grouped
// and counted by key family -- spec.md §6's "dump <store-config-string>
// [what]" operation.
//
// It intentionally bypasses package storage and reads the KeyValue
// store directly, the same way original_source's strusDumpStorage.cpp
// opens the leveldb::DB itself rather than going through the Storage
// class: a dump tool has to be able to inspect a store no higher-level
// API call can reach (an unreadable or partially written family, for
// instance), so it only depends on package kvstore and the wire codec.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
)

func usage() {
	fmt.Fprintln(os.Stderr, "usage: strusdump <store-config-string> [what]")
	fmt.Fprintln(os.Stderr, "  <store-config-string>: \"path=<dir>;engine=<name>;...\" (see package kvstore)")
	fmt.Fprintln(os.Stderr, "  [what]: optional name of the single key family to dump:")
	for _, f := range keyFamilies {
		fmt.Fprintf(os.Stderr, "    %-10s %s\n", f.name, f.doc)
	}
}

func main() {
	flag.Usage = usage
	flag.Parse()
	args := flag.Args()
	if len(args) < 1 || len(args) > 2 {
		usage()
		os.Exit(1)
	}

	var prefix byte
	if len(args) == 2 {
		f, ok := familyByName(args[1])
		if !ok {
			exitf("unknown key family %q", args[1])
		}
		prefix = f.prefix
	}

	if err := run(os.Stdout, args[0], prefix); err != nil {
		exitf("%v", err)
	}
}

func exitf(format string, args ...interface{}) {
	if !strings.HasSuffix(format, "\n") {
		format += "\n"
	}
	fmt.Fprintf(os.Stderr, format, args...)
	os.Exit(1)
}

func logStartFamily(name string) {
	fmt.Fprintf(os.Stderr, "dumping entries of type %q:\n", name)
}

func logProgress(cnt uint) {
	fmt.Fprintf(os.Stderr, "... dumped %d entries\n", cnt)
}

func logError(msg string) {
	fmt.Fprintf(os.Stderr, "error: %s\n", msg)
}
