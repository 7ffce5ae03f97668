// Package mono provides a monotonic nanosecond clock relative to process
// start, used for the endpoints' idle-data accounting (epstate.Endpoint and
// rxengine's housekeeping sweep).
/*
 * Copyright (c) 2018-2021, NVIDIA CORPORATION. All rights reserved.
 */
package mono

import "time"

var start = time.Now()

// NanoTime returns a monotonic nanosecond counter relative to process start.
// The teacher's build uses a go:linkname into runtime.nanotime for this;
// time.Since already reads the monotonic clock reading stashed in a
// time.Time, so a linkname hack buys nothing extra here and would add an
// unsafe dependency on runtime internals for no measurable benefit.
func NanoTime() int64 { return int64(time.Since(start)) }
