package hooking

import (
	"bytes"
	"log"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var hookPosTest = &HookPos{Name: "Test"}

type countingHook struct {
	lock  sync.Mutex
	items []interface{}
}

func (h *countingHook) Func(ctx HookCtx) {
	h.lock.Lock()
	defer h.lock.Unlock()

	h.items = append(h.items, ctx.Item)
}

type namedDomain struct {
	HookableBase
}

func (d *namedDomain) Name() string {
	return "Domain"
}

var _ = Describe("HookableBase", func() {
	var (
		domain *namedDomain
	)

	BeforeEach(func() {
		domain = &namedDomain{}
	})

	It("should invoke registered hooks in order", func() {
		var order []int
		domain.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 1) }))
		domain.AcceptHook(HookFunc(func(HookCtx) { order = append(order, 2) }))

		domain.InvokeHook(HookCtx{Domain: domain, Pos: hookPosTest})

		Expect(domain.NumHooks()).To(Equal(2))
		Expect(order).To(Equal([]int{1, 2}))
	})

	It("should reject the same hook twice", func() {
		hook := &countingHook{}
		domain.AcceptHook(hook)

		Expect(func() { domain.AcceptHook(hook) }).To(Panic())
	})

	It("should allow concurrent invocation", func() {
		hook := &countingHook{}
		domain.AcceptHook(hook)

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				domain.InvokeHook(HookCtx{Domain: domain, Pos: hookPosTest, Item: i})
			}(i)
		}
		wg.Wait()

		Expect(hook.items).To(HaveLen(8))
	})

	It("should print through a LogHook", func() {
		buf := new(bytes.Buffer)
		domain.AcceptHook(NewLogHook(log.New(buf, "", 0)))

		domain.InvokeHook(HookCtx{
			Domain: domain,
			Pos:    hookPosTest,
			Item:   42,
			Detail: "detail",
		})

		Expect(buf.String()).To(Equal("Test Domain 42 detail\n"))
	})
})
