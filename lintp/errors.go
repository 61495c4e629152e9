// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lintp

import "errors"

// Transport level errors. All are recovered locally by discarding the
// frame or the request in flight.
var (
	ErrTruncated         = errors.New("lintp: truncated transport frame")
	ErrLengthMismatch    = errors.New("lintp: length field mismatch")
	ErrOrphanConsecutive = errors.New("lintp: consecutive frame without first frame")
	ErrReservedPCI       = errors.New("lintp: reserved PCI type")
)
