package sim

// HookPos names a point at which hooks fire.
type HookPos struct {
	Name string
}

// Positions at which the engine invokes its hooks.
var (
	HookPosBeforeEvent = &HookPos{Name: "BeforeEvent"}
	HookPosAfterEvent  = &HookPos{Name: "AfterEvent"}
)

// HookCtx describes the site where a hook fires. For engine hooks, Item is
// the Event being handled.
type HookCtx struct {
	Domain Hookable
	Pos    *HookPos
	Item   any
}

// Hook observes a Hookable without changing its behavior.
type Hook interface {
	Func(ctx HookCtx)
}

// Hookable accepts hooks.
type Hookable interface {
	AcceptHook(hook Hook)
}

// HookableBase keeps a list of hooks and invokes them in registration order.
type HookableBase struct {
	hooks []Hook
}

// AcceptHook registers a hook.
func (h *HookableBase) AcceptHook(hook Hook) {
	h.hooks = append(h.hooks, hook)
}

// NumHooks returns how many hooks are registered.
func (h *HookableBase) NumHooks() int {
	return len(h.hooks)
}

// InvokeHook calls every registered hook with ctx.
func (h *HookableBase) InvokeHook(ctx HookCtx) {
	for _, hook := range h.hooks {
		hook.Func(ctx)
	}
}
