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

package ipc

import "golang.org/x/xerrors"

var (
	// ErrFormat reports a structurally invalid stream: bad continuation
	// marker, truncated frame, unknown header kind, malformed metadata.
	ErrFormat = xerrors.New("arrowcol/ipc: invalid format")

	// ErrLayout reports a record batch body that contradicts its schema:
	// wrong node or buffer counts, out-of-bounds buffer regions, or a type
	// the planner does not lay out.
	ErrLayout = xerrors.New("arrowcol/ipc: invalid layout")

	// ErrDictionary reports dictionary protocol violations: unknown ids,
	// a delta before its base, out-of-range keys.
	ErrDictionary = xerrors.New("arrowcol/ipc: invalid dictionary")
)
