package register

import (
	"math"
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/snapbench/hooking"
)

var _ = Describe("Array", func() {
	var (
		a *Array
	)

	BeforeEach(func() {
		a = NewArray("Registers", 3)
	})

	It("should start with all zeros", func() {
		Expect(a.Size()).To(Equal(3))
		Expect(a.ReadAll()).To(Equal(Snapshot{0, 0, 0}))
	})

	It("should refuse an empty array", func() {
		Expect(func() { NewArray("Empty", 0) }).To(Panic())
	})

	It("should store and load values", func() {
		a.Write(0, 7)
		a.Write(2, 99)

		Expect(a.Read(0)).To(Equal(7))
		Expect(a.Read(1)).To(Equal(0))
		Expect(a.ReadAll()).To(Equal(Snapshot{7, 0, 99}))
	})

	It("should panic on out-of-range indices", func() {
		Expect(func() { a.Write(3, 1) }).To(Panic())
		Expect(func() { a.Write(-1, 1) }).To(Panic())
		Expect(func() { a.Read(3) }).To(Panic())
	})

	It("should keep negative values intact", func() {
		a.Write(1, -5)

		Expect(a.Read(1)).To(Equal(-5))
	})

	It("should refuse values wider than 32 bits", func() {
		Expect(func() { a.Write(0, 1<<40+7) }).To(Panic())
		Expect(func() { a.Write(0, 3000000000) }).To(Panic())
		Expect(func() { a.Write(0, -3000000000) }).To(Panic())
		Expect(a.Read(0)).To(Equal(0))

		a.Write(0, math.MaxInt32)
		a.Write(1, math.MinInt32)
		Expect(a.Read(0)).To(Equal(math.MaxInt32))
		Expect(a.Read(1)).To(Equal(math.MinInt32))
	})

	It("should return a fresh snapshot each time", func() {
		s1 := a.ReadAll()
		a.Write(1, 42)
		s2 := a.ReadAll()

		Expect(s1[1]).To(Equal(0))
		Expect(s2[1]).To(Equal(42))
	})

	It("should observe a settled write in every later snapshot", func() {
		a.Write(1, 42)

		var wg sync.WaitGroup
		for i := 0; i < 4; i++ {
			wg.Add(1)
			go func() {
				defer GinkgoRecover()
				defer wg.Done()

				for j := 0; j < 100; j++ {
					Expect(a.ReadAll()[1]).To(Equal(42))
				}
			}()
		}
		wg.Wait()
	})

	It("should only hold written values under concurrent writers", func() {
		var wg sync.WaitGroup
		for w := 0; w < 4; w++ {
			wg.Add(1)
			go func(w int) {
				defer wg.Done()

				for j := 0; j < 1000; j++ {
					a.Write(j%3, w*10+j%10)
				}
			}(w)
		}
		wg.Wait()

		for _, v := range a.ReadAll() {
			Expect(v).To(BeNumerically(">=", 0))
			Expect(v).To(BeNumerically("<", 40))
		}
	})

	It("should invoke hooks on write", func() {
		var got []hooking.HookCtx
		a.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			got = append(got, ctx)
		}))

		a.Write(2, 5)

		Expect(got).To(HaveLen(1))
		Expect(got[0].Pos).To(Equal(HookPosWrite))
		Expect(got[0].Item).To(Equal(2))
		Expect(got[0].Detail).To(Equal(5))
	})

	It("should format snapshots with one-based locations", func() {
		Expect(Snapshot{4, 0, 17}.String()).To(Equal("L1-4 L2-0 L3-17"))
		Expect(Snapshot{}.String()).To(Equal(""))
	})
})

var _ = Describe("DoubleCollect", func() {
	var (
		a *Array
	)

	BeforeEach(func() {
		a = NewArray("Registers", 4)
	})

	It("should succeed in two collects without interference", func() {
		a.Write(3, 8)

		snapshot, attempts, clean := a.DoubleCollect(0)

		Expect(clean).To(BeTrue())
		Expect(attempts).To(Equal(2))
		Expect(snapshot).To(Equal(Snapshot{0, 0, 0, 8}))
	})

	It("should notice a rewrite of the same value", func() {
		values, stamps := make(Snapshot, 4), make([]uint32, 4)
		a.collect(values, stamps)

		a.Write(0, 0)

		values2, stamps2 := make(Snapshot, 4), make([]uint32, 4)
		a.collect(values2, stamps2)

		Expect(values2).To(Equal(values))
		Expect(sameStamps(stamps, stamps2)).To(BeFalse())
	})

	It("should give up after the attempt bound", func() {
		_, attempts, clean := a.DoubleCollect(1)

		Expect(clean).To(BeFalse())
		Expect(attempts).To(Equal(1))
	})

	It("should return a consistent view under contention", func() {
		stop := make(chan struct{})
		var wg sync.WaitGroup

		wg.Add(1)
		go func() {
			defer wg.Done()

			for v := 1; ; v++ {
				select {
				case <-stop:
					return
				default:
				}

				for i := 0; i < 4; i++ {
					a.Write(i, v)
				}
				time.Sleep(time.Microsecond)
			}
		}()

		for i := 0; i < 20; i++ {
			snapshot, _, clean := a.DoubleCollect(100000)
			Expect(clean).To(BeTrue())

			// Rounds write indices in order, so a consistent view is a
			// prefix of round v followed by a suffix of round v-1.
			for j := 1; j < len(snapshot); j++ {
				diff := snapshot[j-1] - snapshot[j]
				Expect(diff).To(BeNumerically(">=", 0))
				Expect(diff).To(BeNumerically("<=", 1))
			}
		}

		close(stop)
		wg.Wait()
	})
})
