// Licensed to the Apache Software Foundation (ASF) under one
// or more contributor license agreements.  See the NOTICE file
// distributed with this work for additional information
// regarding copyright ownership.  The ASF licenses this file
// to you under the Apache License, Version 2.0 (the
// "License"); you may not use this file except in compliance
// with the License.  You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Command arrowcol-cat displays the content of a columnar stream or file.
//
// Examples:
//
//	$> arrowcol-cat ./testdata/primitives.data
//	record 1...
//	  col[0] "bools": [true <nil> false]
//	  col[1] "int64s": [-1 <nil> -3]
//	record 2...
//	  col[0] "bools": [false <nil> true]
//	  col[1] "int64s": [4 <nil> 6]
//
//	$> gen-stream | arrowcol-cat
//	record 1...
//	  col[0] "bools": [true <nil> false]
//	[...]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/columnlab/arrowcol/array"
	"github.com/columnlab/arrowcol/ipc"
	"github.com/columnlab/arrowcol/memory"
)

func main() {
	log.SetPrefix("arrowcol-cat: ")
	log.SetFlags(0)

	fileMode := flag.Bool("file", false, "treat inputs as files even without a name")
	flag.Parse()

	var err error
	switch flag.NArg() {
	case 0:
		if *fileMode {
			err = errors.New("-file needs at least one file name")
		} else {
			err = processStream(os.Stdout, os.Stdin)
		}
	default:
		err = processFiles(os.Stdout, flag.Args())
	}
	if err != nil {
		log.Fatal(err)
	}
}

func processStream(w io.Writer, rin io.Reader) error {
	mem := memory.NewGoAllocator()

	r, err := ipc.NewReader(rin, ipc.WithAllocator(mem))
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil
		}
		return err
	}
	defer r.Release()

	n := 0
	for r.Next() {
		n++
		fmt.Fprintf(w, "record %d...\n", n)
		printRecord(w, r.Record())
	}
	return r.Err()
}

func processFiles(w io.Writer, names []string) error {
	for _, name := range names {
		if err := processFile(w, name); err != nil {
			return err
		}
	}
	return nil
}

func processFile(w io.Writer, fname string) error {
	f, err := os.Open(fname)
	if err != nil {
		return err
	}
	defer f.Close()

	mem := memory.NewGoAllocator()

	r, err := ipc.NewFileReader(f, ipc.WithAllocator(mem))
	if err != nil {
		return err
	}
	defer r.Release()

	n := 0
	for r.Next() {
		n++
		fmt.Fprintf(w, "record %d...\n", n)
		printRecord(w, r.Record())
	}
	return r.Err()
}

func printRecord(w io.Writer, rec *array.Record) {
	for i := 0; i < rec.NumCols(); i++ {
		col := array.NewColumn(rec.Column(i))
		fmt.Fprintf(w, "  col[%d] %q: %v\n", i, rec.ColumnName(i), col.Values())
	}
}
