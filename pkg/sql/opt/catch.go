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

package opt

import (
	"runtime"

	"github.com/cockroachdb/errors"
)

// CatchOptimizerError catches any runtime panics from optimizer functions and
// returns them as errors. This allows the optimizer to propagate errors
// internally as panics without adding error checks everywhere. This is only
// possible because the optimizer code does not update shared state and does
// not manipulate locks.
//
// Usage:
//
//	defer func() {
//		if r := opt.CatchOptimizerError(recover()); r != nil {
//			err = r
//		}
//	}()
func CatchOptimizerError(r interface{}) error {
	if r == nil {
		return nil
	}
	err, ok := r.(error)
	if !ok {
		// Not an error object. For serious internal errors the go runtime throws
		// a string which does not implement error. In that case we suspect we
		// are not able to recover, and must crash.
		panic(r)
	}
	if errors.HasInterface(err, (*runtime.Error)(nil)) {
		// Convert runtime errors to assertion failures, which include stacks.
		return errors.HandleAsAssertionFailure(err)
	}
	return err
}
