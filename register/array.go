// Package register implements the shared multi-reader multi-writer register
// array that writer agents mutate and snapshot agents collect.
package register

import (
	"log"
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/sarchlab/snapbench/hooking"
)

// HookPosWrite marks a completed register write. The item is the index and the
// detail is the value.
var HookPosWrite = &hooking.HookPos{Name: "Register Write"}

// A Snapshot holds one value per register, in index order.
type Snapshot []int

// String renders the snapshot as "L1-v1 L2-v2 ... LM-vM", with 1-based
// locations.
func (s Snapshot) String() string {
	var b strings.Builder

	for i, v := range s {
		if i > 0 {
			b.WriteByte(' ')
		}

		b.WriteByte('L')
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('-')
		b.WriteString(strconv.Itoa(v))
	}

	return b.String()
}

// An Array is a fixed-length collection of registers. Every register is an
// independent atomic cell; there is no lock and reading the whole array is not
// atomic across registers.
//
// Each cell packs the value in its low 32 bits and a write stamp in the high
// 32 bits. Stamps come from a shared counter, so no two writes ever leave the
// same stamp behind.
type Array struct {
	hooking.HookableBase

	name  string
	cells []atomic.Uint64
	stamp atomic.Uint32
}

// NewArray creates an array of size registers, all holding 0.
func NewArray(name string, size int) *Array {
	if size <= 0 {
		log.Panicf("register array size must be positive, got %d", size)
	}

	return &Array{
		name:  name,
		cells: make([]atomic.Uint64, size),
	}
}

// Name returns the name of the array.
func (a *Array) Name() string {
	return a.name
}

// Size returns the number of registers.
func (a *Array) Size() int {
	return len(a.cells)
}

// Write stores value into register index with a single atomic store. The
// value must fit in 32 bits.
func (a *Array) Write(index, value int) {
	a.indexMustBeValid(index)
	valueMustFit(value)

	stamp := a.stamp.Add(1)
	a.cells[index].Store(pack(value, stamp))

	if a.NumHooks() > 0 {
		a.InvokeHook(hooking.HookCtx{
			Domain: a,
			Pos:    HookPosWrite,
			Item:   index,
			Detail: value,
		})
	}
}

// Read loads a single register.
func (a *Array) Read(index int) int {
	a.indexMustBeValid(index)

	value, _ := unpack(a.cells[index].Load())

	return value
}

// ReadAll loads every register in increasing index order. Writes that land
// between two loads are visible, so the result may be a torn view.
func (a *Array) ReadAll() Snapshot {
	snapshot := make(Snapshot, len(a.cells))

	for i := range a.cells {
		snapshot[i], _ = unpack(a.cells[i].Load())
	}

	return snapshot
}

func (a *Array) indexMustBeValid(index int) {
	if index < 0 || index >= len(a.cells) {
		log.Panicf("register index %d out of range [0, %d)", index, len(a.cells))
	}
}

func valueMustFit(value int) {
	if value < math.MinInt32 || value > math.MaxInt32 {
		log.Panicf("register value %d does not fit in 32 bits", value)
	}
}

func pack(value int, stamp uint32) uint64 {
	return uint64(stamp)<<32 | uint64(uint32(int32(value)))
}

func unpack(cell uint64) (value int, stamp uint32) {
	return int(int32(uint32(cell))), uint32(cell >> 32)
}
