package di

import (
	"fmt"
	"reflect"
)

// Construct 调用 factory 构造一个不受容器管理的 T，参数由容器注入。
// factory 的签名为 func(deps...) T 或 func(deps...) (T, error)。
func Construct[T any](r Resolver, factory any) (T, error) {
	var zero T
	f, out, err := newFuncFactory(factory)
	if err != nil {
		return zero, newError(ErrInvalidBinding, KeyOf[T](), err)
	}
	if !out.AssignableTo(TypeOf[T]()) {
		return zero, newError(ErrNotConvertible, KeyOf[T](), fmt.Errorf("factory returns %v", out))
	}
	v, err := r.resolving(f.build)
	if err != nil {
		return zero, err
	}
	return as[T](v), nil
}

// Invoke 调用 fn 并返回其第一个结果，参数由容器注入。
// fn 的签名为 func(deps...) R 或 func(deps...) (R, error)。
func Invoke[R any](r Resolver, fn any) (R, error) {
	return Construct[R](r, fn)
}

// Call 调用 fn，参数由容器注入。fn 可以没有返回值或只返回 error。
func Call(r Resolver, fn any) error {
	fnVal := reflect.ValueOf(fn)
	if fnVal.Kind() != reflect.Func || fnVal.IsNil() {
		return newError(ErrInvalidBinding, Key{}, fmt.Errorf("expected function, got %T", fn))
	}
	fnType := fnVal.Type()
	switch {
	case fnType.NumOut() == 0:
	case fnType.NumOut() == 1 && fnType.Out(0) == errorType:
	default:
		return newError(ErrInvalidBinding, Key{}, fmt.Errorf("function %v must return nothing or error", fnType))
	}
	deps, err := analyzeFunction(fnType)
	if err != nil {
		return newError(ErrInvalidBinding, Key{}, err)
	}
	_, err = r.resolving(func(ctx *resolvingContext) (reflect.Value, error) {
		_, err := invokeFunction(ctx, fnVal, deps)
		return reflect.Value{}, err
	})
	return err
}
