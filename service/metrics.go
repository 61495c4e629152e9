// Copyright 2020 thinkgos (thinkgo@aliyun.com).  All rights reserved.
// Use of this source code is governed by a version 3 of the GNU General
// Public License, license that can be found in the LICENSE file.

package service

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/roamkit/go-inetbox/slave"
)

// RegisterMetrics exposes the bus loop counters on reg.
func RegisterMetrics(reg prometheus.Registerer, st *slave.Stats) {
	counter := func(name, help string, f func() uint64) prometheus.CounterFunc {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: "inetbox",
			Subsystem: "lin",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(f()) })
	}
	reg.MustRegister(
		counter("frames_total", "Frames with a valid PID seen on the bus.", st.Frames.Load),
		counter("frame_errors_total", "Parity and checksum failures.", st.FrameErrors.Load),
		counter("records_ingested_total", "Status buffers ingested from the CP Plus.", st.Records.Load),
		counter("uploads_total", "Write records materialized for upload.", st.Uploads.Load),
		counter("answers_total", "Response segments written to the bus.", st.Answers.Load),
	)
}
