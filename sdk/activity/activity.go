// Copyright 2025 The Canopy Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package activity

import (
	"context"

	"github.com/canopy-run/canopy/sdk/internal"
)

// Info describes the invocation an activity handler is serving: the
// hosting execution, the journal operation, and the registered name.
type Info = internal.ActivityInfo

// GetInfo extracts invocation metadata from an activity handler context.
// It reports false when ctx does not belong to a dispatched activity,
// for example when the handler is called directly from a test.
func GetInfo(ctx context.Context) (Info, bool) {
	return internal.ActivityInfoFrom(ctx)
}
