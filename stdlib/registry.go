// File: stdlib/registry.go
package stdlib

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/lguibr/dflow/actor"
	"github.com/lguibr/dflow/kernel"
	"github.com/lguibr/dflow/value"
)

// Registry holds named modules: records of exported natives, closures and
// actor images that kernel code reaches by qualified name, such as
// "Str.concat" or "Actors.Calculator".
type Registry struct {
	mu      sync.RWMutex
	modules map[string]*value.CompleteRec
}

// NewRegistry returns a registry with the built-in modules Int, Str and
// Actors registered.
func NewRegistry() *Registry {
	r := &Registry{modules: make(map[string]*value.CompleteRec)}
	number := NumberImage()
	r.mustRegister("Actors", map[string]value.Complete{
		"Number":     number,
		"Cell":       CellImage(),
		"Calculator": CalculatorImage(number),
	})
	r.mustRegister("Int", map[string]value.Complete{
		"toStr": kernel.NativeFunc("Int.toStr", 1, intToStr),
	})
	r.mustRegister("Str", map[string]value.Complete{
		"concat": kernel.NativeFunc("Str.concat", 2, strConcat),
		"size":   kernel.NativeFunc("Str.size", 1, strSize),
	})
	return r
}

// Register adds or replaces the module name with the given exports.
func (r *Registry) Register(name string, exports map[string]value.Complete) error {
	names := make([]string, 0, len(exports))
	for k := range exports {
		names = append(names, k)
	}
	sort.Strings(names)
	fields := make([]value.CompleteField, 0, len(names))
	for _, k := range names {
		fields = append(fields, value.CompleteField{Feature: value.Str(k), Value: exports[k]})
	}
	rec, err := value.NewCompleteRec(value.Str(name), fields)
	if err != nil {
		return fmt.Errorf("module %s: %w", name, err)
	}
	r.mu.Lock()
	r.modules[name] = rec
	r.mu.Unlock()
	return nil
}

func (r *Registry) mustRegister(name string, exports map[string]value.Complete) {
	if err := r.Register(name, exports); err != nil {
		panic(err)
	}
}

// Module returns the record of the named module.
func (r *Registry) Module(name string) (*value.CompleteRec, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, ok := r.modules[name]
	return rec, ok
}

// Modules lists registered module names in order.
func (r *Registry) Modules() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.modules))
	for name := range r.modules {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// Lookup resolves a qualified name "Module.export".
func (r *Registry) Lookup(qualified string) (value.Complete, error) {
	mod, export, ok := strings.Cut(qualified, ".")
	if !ok {
		return nil, fmt.Errorf("%q is not a qualified name", qualified)
	}
	rec, ok := r.Module(mod)
	if !ok {
		return nil, fmt.Errorf("no module %q", mod)
	}
	v, ok := rec.Select(value.Str(export))
	if !ok {
		return nil, &kernel.NoSuchFeatureError{Rec: rec, Feature: value.Str(export)}
	}
	return v.(value.Complete), nil
}

// Env returns a root environment binding every module name to its record,
// for kernel code that selects exports at run time.
func (r *Registry) Env() *kernel.Env {
	var entries []kernel.EnvEntry
	for _, name := range r.Modules() {
		rec, _ := r.Module(name)
		entries = append(entries, kernel.EnvEntry{Ident: kernel.Id(name), Var: value.NewBoundVar(rec)})
	}
	return kernel.NewEnv(nil, entries...)
}

// Image resolves a qualified name to an actor image.
func (r *Registry) Image(qualified string) (*actor.Image, error) {
	v, err := r.Lookup(qualified)
	if err != nil {
		return nil, err
	}
	img, ok := v.(*actor.Image)
	if !ok {
		return nil, fmt.Errorf("%s is %s, not an actor image", qualified, value.TypeName(v))
	}
	return img, nil
}

// Spawn starts an actor from the image at qualified.
func (r *Registry) Spawn(engine *actor.Engine, qualified string, args ...value.Complete) (*actor.PID, error) {
	img, err := r.Image(qualified)
	if err != nil {
		return nil, err
	}
	return engine.SpawnImage(img, args...)
}

func intToStr(args []value.Value) (value.Value, error) {
	switch n := args[0].(type) {
	case value.Int32:
		return value.Str(strconv.FormatInt(int64(n), 10)), nil
	case value.Int64:
		return value.Str(strconv.FormatInt(int64(n), 10)), nil
	case value.BigInt:
		return value.Str(n.Big().String()), nil
	}
	return nil, &kernel.TypeMismatchError{Instr: "Int.toStr", Expected: "integer", Actual: args[0]}
}

func strConcat(args []value.Value) (value.Value, error) {
	a, ok := args[0].(value.Str)
	if !ok {
		return nil, &kernel.TypeMismatchError{Instr: "Str.concat", Expected: "Str", Actual: args[0]}
	}
	b, ok := args[1].(value.Str)
	if !ok {
		return nil, &kernel.TypeMismatchError{Instr: "Str.concat", Expected: "Str", Actual: args[1]}
	}
	return a + b, nil
}

func strSize(args []value.Value) (value.Value, error) {
	s, ok := args[0].(value.Str)
	if !ok {
		return nil, &kernel.TypeMismatchError{Instr: "Str.size", Expected: "Str", Actual: args[0]}
	}
	return value.Int64(len([]rune(string(s)))), nil
}
