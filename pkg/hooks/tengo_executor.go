// Package hooks runs user supplied Tengo scripts at fixed points of a sync.
package hooks

import (
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"

	"github.com/cperrin88/beatsync/pkg/errors"
)

// WantedVar is the variable a song-filter script assigns.
const WantedVar = "wanted"

// TengoExecutor runs hook scripts written in Tengo. It implements HookManager.
type TengoExecutor struct {
	scripts map[HookType]string
	mutex   sync.RWMutex
}

// NewTengoExecutor creates an executor without scripts.
func NewTengoExecutor() *TengoExecutor {
	return &TengoExecutor{
		scripts: make(map[HookType]string),
	}
}

// Execute runs the script for hookType with ctx. A missing script is not an error.
func (e *TengoExecutor) Execute(hookType HookType, ctx HookContext) error {
	_, err := e.run(hookType, ctx)
	return err
}

// Evaluate runs the script for hookType and reports the final value of its
// wanted variable.
func (e *TengoExecutor) Evaluate(hookType HookType, ctx HookContext) (bool, error) {
	compiled, err := e.run(hookType, ctx)
	if err != nil || compiled == nil {
		return true, err
	}
	return compiled.Get(WantedVar).Bool(), nil
}

func (e *TengoExecutor) run(hookType HookType, ctx HookContext) (*tengo.Compiled, error) {
	e.mutex.RLock()
	script, exists := e.scripts[hookType]
	e.mutex.RUnlock()
	if !exists {
		return nil, nil
	}

	scriptInstance := tengo.NewScript([]byte(script))
	scriptInstance.SetImports(stdlib.GetModuleMap("fmt", "os", "strings", "text", "times"))

	vars := map[string]interface{}{
		"songHash":   ctx.SongHash,
		"songKey":    ctx.SongKey,
		"songName":   ctx.SongName,
		"mapper":     ctx.Mapper,
		"source":     ctx.Source,
		"targetName": ctx.TargetName,
		"songDir":    ctx.SongDir,
		WantedVar:    true,
	}
	for k, v := range ctx.Vars {
		vars[k] = v
	}
	for k, v := range vars {
		if err := scriptInstance.Add(k, v); err != nil {
			return nil, fmt.Errorf("failed to add variable '%s' to script: %w", k, err)
		}
	}

	compiled, err := scriptInstance.Run()
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookExecution, err)
	}

	if errVar := compiled.Get("err"); errVar != nil {
		switch v := errVar.Value().(type) {
		case error:
			return nil, fmt.Errorf("%s: %w: %w", hookType, errors.ErrHookScript, v)
		case string:
			if v != "" {
				return nil, fmt.Errorf("%s: %w: %s", hookType, errors.ErrHookScript, v)
			}
		}
	}
	return compiled, nil
}

// AddHook adds or replaces the script for hook.Type.
func (e *TengoExecutor) AddHook(hook Hook) error {
	if hook.Type == "" {
		return errors.ErrHookTypeEmpty
	}
	e.AddScript(hook.Type, hook.Content)
	return nil
}

// RemoveHook removes the script for hookType.
func (e *TengoExecutor) RemoveHook(hookType HookType) error {
	if hookType == "" {
		return errors.ErrHookTypeEmpty
	}
	e.RemoveScript(hookType)
	return nil
}

// HasHook reports whether a script is registered for hookType.
func (e *TengoExecutor) HasHook(hookType HookType) bool {
	return e.HasScript(hookType)
}

// AddScript adds or updates a script for the specified hook type.
func (e *TengoExecutor) AddScript(hookType HookType, script string) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	e.scripts[hookType] = script
}

// RemoveScript removes the script for the specified hook type.
func (e *TengoExecutor) RemoveScript(hookType HookType) {
	e.mutex.Lock()
	defer e.mutex.Unlock()
	delete(e.scripts, hookType)
}

// HasScript checks if a script exists for the specified hook type.
func (e *TengoExecutor) HasScript(hookType HookType) bool {
	e.mutex.RLock()
	defer e.mutex.RUnlock()
	_, exists := e.scripts[hookType]
	return exists
}
