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

// Command arrowcol-ls displays the schema and record count of a columnar
// stream or file.
//
// Examples:
//
//	$> arrowcol-ls ./testdata/primitives.data
//	schema:
//	  fields: 2
//	    - id: type=int64
//	    - name: type=utf8, nullable
//	records: 3
//
//	$> gen-stream | arrowcol-ls
//	schema:
//	  fields: 2
//	    - id: type=int64
//	    - name: type=utf8, nullable
//	records: 3
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/columnlab/arrowcol/ipc"
	"github.com/columnlab/arrowcol/memory"
)

func main() {
	log.SetPrefix("arrowcol-ls: ")
	log.SetFlags(0)

	flag.Parse()

	var err error
	switch flag.NArg() {
	case 0:
		err = processStream(os.Stdout, os.Stdin)
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

	fmt.Fprintf(w, "%v\n", r.Schema())

	nrecs := 0
	for r.Next() {
		nrecs++
	}
	if r.Err() != nil {
		return r.Err()
	}
	fmt.Fprintf(w, "records: %d\n", nrecs)
	return nil
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

	fmt.Fprintf(w, "%v\n", r.Schema())

	nrecs := 0
	for r.Next() {
		nrecs++
	}
	if r.Err() != nil {
		return r.Err()
	}
	fmt.Fprintf(w, "records: %d\n", nrecs)
	return nil
}
