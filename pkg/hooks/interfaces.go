package hooks

// HookManager manages hook scripts.
type HookManager interface {
	// Execute runs the script for hookType, if any.
	Execute(hookType HookType, ctx HookContext) error

	// Evaluate runs the script for hookType and returns its wanted variable.
	// It returns true when there is no script.
	Evaluate(hookType HookType, ctx HookContext) (bool, error)

	// AddHook adds or replaces a hook.
	AddHook(hook Hook) error

	// RemoveHook removes the hook of the given type.
	RemoveHook(hookType HookType) error

	// HasHook checks if a hook of the given type exists.
	HasHook(hookType HookType) bool
}
