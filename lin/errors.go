// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package lin

import "errors"

// Frame level errors. None of them is fatal, the reader resynchronizes by
// scanning forward to the next sync sequence.
var (
	ErrParity    = errors.New("lin: PID parity mismatch")
	ErrChecksum  = errors.New("lin: checksum mismatch")
	ErrTruncated = errors.New("lin: truncated frame")
)
