package timing

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Exponential", func() {
	It("should average close to the mean", func() {
		e := NewExponential(NewRand(7), time.Millisecond)

		n := 20000
		var total time.Duration
		for i := 0; i < n; i++ {
			d := e.Sample(100)
			Expect(d).To(BeNumerically(">=", 0))
			total += d
		}

		avg := float64(total) / float64(n) / float64(time.Millisecond)
		Expect(avg).To(BeNumerically("~", 100, 5))
	})

	It("should truncate to milliseconds", func() {
		e := NewExponential(NewRand(3), time.Second)

		for i := 0; i < 100; i++ {
			d := e.Sample(0.5)
			Expect(d % time.Millisecond).To(BeZero())
		}
	})

	It("should return zero for a non-positive mean", func() {
		e := NewExponential(NewRand(1), time.Second)

		Expect(e.Sample(0)).To(BeZero())
		Expect(e.Sample(-1)).To(BeZero())
	})

	It("should repeat the sequence for the same seed", func() {
		a := NewExponential(NewRand(11), time.Millisecond)
		b := NewExponential(NewRand(11), time.Millisecond)

		for i := 0; i < 10; i++ {
			Expect(a.Sample(10)).To(Equal(b.Sample(10)))
		}
	})

	It("should refuse a zero unit", func() {
		Expect(func() { NewExponential(NewRand(1), 0) }).To(Panic())
	})
})

var _ = Describe("Seeds", func() {
	It("should derive distinct streams", func() {
		seen := make(map[uint64]bool)
		for i := uint64(0); i < 64; i++ {
			s := SeedFor(42, i)
			Expect(seen[s]).To(BeFalse())
			seen[s] = true
		}
	})

	It("should keep an explicit base seed", func() {
		Expect(BaseSeed(5)).To(Equal(uint64(5)))
		Expect(BaseSeed(0)).NotTo(BeZero())
	})
})
