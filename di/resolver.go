package di

import (
	"fmt"
	"reflect"
)

// factory 构造一个新实例，返回值类型为绑定的实例类型
type factory interface {
	DependencyProvider
	build(ctx *resolvingContext) (reflect.Value, error)
}

// funcFactory 调用构造函数，参数由容器注入
type funcFactory struct {
	fn   reflect.Value
	deps []Dependency
}

func newFuncFactory(fn any) (*funcFactory, reflect.Type, error) {
	fnVal := reflect.ValueOf(fn)
	if !fnVal.IsValid() || fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return nil, nil, fmt.Errorf("factory must be a function, got %T", fn)
	}
	fnType := fnVal.Type()
	out, err := resultType(fnType)
	if err != nil {
		return nil, nil, err
	}
	deps, err := analyzeFunction(fnType)
	if err != nil {
		return nil, nil, err
	}
	return &funcFactory{fn: fnVal, deps: deps}, out, nil
}

// resultType 校验函数返回 (T) 或 (T, error)
func resultType(fnType reflect.Type) (reflect.Type, error) {
	switch fnType.NumOut() {
	case 1:
		if fnType.Out(0) == errorType {
			return nil, fmt.Errorf("factory %v returns only an error", fnType)
		}
		return fnType.Out(0), nil
	case 2:
		if fnType.Out(1) != errorType {
			return nil, fmt.Errorf("factory %v: second result must be error", fnType)
		}
		return fnType.Out(0), nil
	}
	return nil, fmt.Errorf("factory %v must return (T) or (T, error)", fnType)
}

func (f *funcFactory) Dependencies() []Dependency { return f.deps }

func (f *funcFactory) build(ctx *resolvingContext) (reflect.Value, error) {
	results, err := invokeFunction(ctx, f.fn, f.deps)
	if err != nil {
		return reflect.Value{}, err
	}
	return results[0], nil
}

// invokeFunction 解析参数并调用函数；最后一个返回值为非空 error 时返回该错误
func invokeFunction(ctx *resolvingContext, fn reflect.Value, deps []Dependency) ([]reflect.Value, error) {
	args := make([]reflect.Value, len(deps))
	for i, dep := range deps {
		v, err := ctx.resolveDependency(dep, true)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}

	results := fn.Call(args)
	if n := len(results); n > 0 && results[n-1].Type() == errorType {
		if last := results[n-1]; !last.IsNil() {
			return nil, last.Interface().(error)
		}
		results = results[:n-1]
	}
	return results, nil
}

// structFactory 创建结构体（或结构体指针）并注入带 di 标签的字段
type structFactory struct {
	typ    reflect.Type
	fields []fieldDependency
}

func newStructFactory(typ reflect.Type) (*structFactory, error) {
	fields, err := analyzeStruct(typ)
	if err != nil {
		return nil, err
	}
	return &structFactory{typ: typ, fields: fields}, nil
}

func (f *structFactory) Dependencies() []Dependency {
	deps := make([]Dependency, len(f.fields))
	for i, fd := range f.fields {
		deps[i] = fd.Dependency
	}
	return deps
}

func (f *structFactory) build(ctx *resolvingContext) (reflect.Value, error) {
	var val reflect.Value
	if f.typ.Kind() == reflect.Pointer {
		val = reflect.New(f.typ.Elem())
	} else {
		val = reflect.New(f.typ)
	}
	if err := injectFields(ctx, val.Elem(), f.fields); err != nil {
		return reflect.Value{}, err
	}
	if f.typ.Kind() == reflect.Pointer {
		return val, nil
	}
	return val.Elem(), nil
}

func injectFields(ctx *resolvingContext, structVal reflect.Value, fields []fieldDependency) error {
	for _, fd := range fields {
		v, err := ctx.resolveDependency(fd.Dependency, true)
		if err != nil {
			return err
		}
		structVal.Field(fd.field).Set(v)
	}
	return nil
}

// closureFactory 调用 Provide 注册的闭包，依赖在闭包内部通过 Injector 解析
type closureFactory struct {
	fn func(*Injector) (reflect.Value, error)
}

func (f *closureFactory) Dependencies() []Dependency { return nil }

func (f *closureFactory) build(ctx *resolvingContext) (reflect.Value, error) {
	return f.fn(&Injector{ctx: ctx})
}
