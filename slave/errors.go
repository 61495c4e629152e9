// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import "errors"

// Protocol and configuration errors.
var (
	// ErrNadReassignUnsupported is the only fatal error: the master tried
	// to move this node to a different address, the impersonation
	// identity is contested and continuing would corrupt the master's
	// view.
	ErrNadReassignUnsupported = errors.New("slave: master assigned a foreign node address")

	ErrUnknownSID   = errors.New("slave: unknown service identifier")
	ErrUnknownField = errors.New("slave: unknown field")
	ErrReadOnly     = errors.New("slave: field is read only")
	ErrNotPresent   = errors.New("slave: field not yet received")
)
