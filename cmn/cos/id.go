// ID generation - adapted from the teacher's cmn/cos/uuid.go, trimmed to
// two helpers: a short collision-resistant ID (GenUUID, used by
// rxengine.EPInitAuto), and the teacher's fast tie-breaker (GenTie, which
// nothing in rxstream currently calls).
/*
 * Copyright (c) 2018-2024, NVIDIA CORPORATION. All rights reserved.
 */
package cos

import (
	"sync/atomic"

	"github.com/teris-io/shortid"
)

const uuidABC = "-5nZJDft6LuzsjGNpPwY7rQa39vehq4i1cV2FROo8yHSlC0BUEdWbIxMmTgKXAk_"

var (
	sid  *shortid.Shortid
	rtie atomic.Uint32
)

func init() {
	sid, _ = shortid.New(1 /*worker*/, uuidABC, 1)
}

// GenUUID returns a short, globally-unique-enough ID for a new endpoint or
// request, used where the caller doesn't already have a wire-level session
// identifier to key off of.
func GenUUID() string {
	id, err := sid.Generate()
	if err != nil {
		// shortid only fails on worker-id exhaustion, which a single fixed
		// worker id (see init) never hits - a failure here is a library
		// invariant violation, not a recoverable engine condition.
		Exitf("GenUUID: %v", err)
	}
	return id
}

// GenTie returns a 3-letter tie-breaker, fast enough to call per descriptor
// fingerprint without measurable overhead.
func GenTie() string {
	tie := rtie.Add(1)
	b0 := uuidABC[tie&0x3f]
	b1 := uuidABC[-tie&0x3f]
	b2 := uuidABC[(tie>>2)&0x3f]
	return string([]byte{b0, b1, b2})
}
