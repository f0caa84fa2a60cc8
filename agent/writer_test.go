package agent

import (
	"regexp"
	"strconv"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/sarchlab/snapbench/eventlog"
	"github.com/sarchlab/snapbench/hooking"
	"github.com/sarchlab/snapbench/register"
	"go.uber.org/mock/gomock"
)

var writeLine = regexp.MustCompile(
	`^Thread 3 wrote (\d+) on location (\d+) at \d{2}:\d{2}:\d{2}:\d{3}$`)

var _ = Describe("Writer", func() {
	var (
		mockCtrl  *gomock.Controller
		clock     *MockClock
		sampler   *MockSampler
		registers *register.Array
		log       *eventlog.Log
		stop      *atomic.Bool
		writer    *Writer
		now       time.Time
	)

	BeforeEach(func() {
		mockCtrl = gomock.NewController(GinkgoT())
		clock = NewMockClock(mockCtrl)
		sampler = NewMockSampler(mockCtrl)
		registers = register.NewArray("Registers", 3)
		log = eventlog.New("Log", 100, eventlog.Drop)
		stop = &atomic.Bool{}
		now = time.Date(2024, 1, 1, 12, 0, 0, 0, time.Local)

		clock.EXPECT().Now().DoAndReturn(func() time.Time {
			now = now.Add(time.Millisecond)
			return now
		}).AnyTimes()

		writer = MakeWriterBuilder().
			WithID(3).
			WithMeanDelay(0.25).
			WithSeed(99).
			WithRegisters(registers).
			WithLog(log).
			WithClock(clock).
			WithSampler(sampler).
			Build("Writer[3]")
	})

	AfterEach(func() {
		mockCtrl.Finish()
	})

	It("should not write if already stopped", func() {
		stop.Store(true)

		writer.Run(stop)

		Expect(writer.Writes()).To(BeZero())
		Expect(log.Len()).To(BeZero())
	})

	It("should write, log and sleep until stopped", func() {
		sampler.EXPECT().Sample(0.25).Return(5 * time.Millisecond).Times(4)

		sleeps := 0
		clock.EXPECT().Sleep(5 * time.Millisecond).Do(func(time.Duration) {
			sleeps++
			if sleeps == 4 {
				stop.Store(true)
			}
		}).Times(4)

		writer.Run(stop)

		Expect(writer.Writes()).To(Equal(uint64(4)))
		Expect(writer.Status()).To(Equal(WriterStatus{
			Name:      "Writer[3]",
			ID:        3,
			MeanDelay: 0.25,
			Writes:    4,
		}))

		lines := log.DrainSorted()
		Expect(lines).To(HaveLen(4))

		expected := register.Snapshot{0, 0, 0}
		for _, line := range lines {
			m := writeLine.FindStringSubmatch(line)
			Expect(m).NotTo(BeNil(), line)

			value, _ := strconv.Atoi(m[1])
			index, _ := strconv.Atoi(m[2])
			Expect(value).To(BeNumerically("<", ValueRange))
			Expect(index).To(BeNumerically("<", 3))

			expected[index] = value
		}

		Expect(registers.ReadAll()).To(Equal(expected))
	})

	It("should report each write to hooks", func() {
		sampler.EXPECT().Sample(gomock.Any()).Return(time.Duration(0)).Times(2)

		var records []WriteRecord
		writer.AcceptHook(hooking.HookFunc(func(ctx hooking.HookCtx) {
			records = append(records, ctx.Item.(WriteRecord))
		}))

		calls := 0
		clock.EXPECT().Sleep(gomock.Any()).Do(func(time.Duration) {
			calls++
			if calls == 2 {
				stop.Store(true)
			}
		}).Times(2)

		writer.Run(stop)

		Expect(records).To(HaveLen(2))
		Expect(records[0].Writer).To(Equal(3))
	})

	It("should keep running when the log is full", func() {
		log = eventlog.New("Log", 1, eventlog.Drop)
		writer = MakeWriterBuilder().
			WithID(3).
			WithRegisters(registers).
			WithLog(log).
			WithClock(clock).
			WithSampler(sampler).
			Build("Writer[3]")

		sampler.EXPECT().Sample(gomock.Any()).Return(time.Duration(0)).Times(3)

		calls := 0
		clock.EXPECT().Sleep(gomock.Any()).Do(func(time.Duration) {
			calls++
			if calls == 3 {
				stop.Store(true)
			}
		}).Times(3)

		writer.Run(stop)

		Expect(writer.Writes()).To(Equal(uint64(3)))
		Expect(log.Len()).To(Equal(1))
		Expect(log.Dropped()).To(Equal(uint64(2)))
	})

	It("should refuse to build without registers", func() {
		Expect(func() {
			MakeWriterBuilder().WithLog(log).Build("Writer")
		}).To(Panic())
	})
})
