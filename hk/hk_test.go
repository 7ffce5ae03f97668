package hk_test

import (
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/aistorerx/rxstream/hk"
)

var _ = Describe("Housekeeper", func() {
	It("should invoke a registered job on its period", func() {
		h := hk.New(5 * time.Millisecond)
		go h.Run()
		h.WaitStarted()
		defer h.Stop()

		ticks := make(chan struct{}, 16)
		h.Reg("probe", 5*time.Millisecond, func() {
			select {
			case ticks <- struct{}{}:
			default:
			}
		})

		Eventually(ticks, 2*time.Second).Should(Receive())
	})

	It("should stop invoking a job once unregistered", func() {
		h := hk.New(5 * time.Millisecond)
		go h.Run()
		h.WaitStarted()
		defer h.Stop()

		var n atomic.Int64
		h.Reg("counter", 5*time.Millisecond, func() { n.Add(1) })
		time.Sleep(30 * time.Millisecond)
		h.Unreg("counter")
		after := n.Load()
		time.Sleep(30 * time.Millisecond)

		Expect(n.Load()).To(Equal(after))
	})
})
