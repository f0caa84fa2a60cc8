package hooking

import "log"

// Named is implemented by hookable domains that can tell their name.
type Named interface {
	Name() string
}

// A LogHook is a hook that is responsible for recording information from the
// simulation into a logger, one line per invocation.
type LogHook struct {
	*log.Logger
}

// NewLogHook creates a LogHook that writes to the given logger.
func NewLogHook(logger *log.Logger) *LogHook {
	return &LogHook{Logger: logger}
}

// Func prints the hook position, the domain, and the item.
func (h *LogHook) Func(ctx HookCtx) {
	domain := "-"
	if named, ok := ctx.Domain.(Named); ok {
		domain = named.Name()
	}

	if ctx.Detail != nil {
		h.Printf("%s %s %v %v", ctx.Pos.Name, domain, ctx.Item, ctx.Detail)
		return
	}

	h.Printf("%s %s %v", ctx.Pos.Name, domain, ctx.Item)
}
