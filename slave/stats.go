// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package slave

import "sync/atomic"

// Stats counts bus loop activity. Safe for concurrent reads while the
// loop runs; exporters sample these.
type Stats struct {
	Frames      atomic.Uint64 // frames with a valid PID seen
	FrameErrors atomic.Uint64 // parity or checksum failures
	Records     atomic.Uint64 // status buffers ingested
	Uploads     atomic.Uint64 // write records queued for upload
	Answers     atomic.Uint64 // response segments written to the bus
}
