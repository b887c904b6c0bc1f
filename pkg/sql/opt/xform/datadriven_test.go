// Copyright 2024 The Silo Authors.
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

package xform_test

import (
	"testing"

	"github.com/cockroachdb/datadriven"

	"github.com/silodb/silo/pkg/sql/opt/testutils"
)

func TestOptimizer(t *testing.T) {
	datadriven.Walk(t, "testdata", func(t *testing.T, path string) {
		ot := testutils.NewOptTester(newTestCatalog())
		datadriven.RunTest(t, path, ot.RunCommand)
	})
}
