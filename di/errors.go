package di

import (
	"errors"
	"fmt"
	"strings"
)

// 错误类别。使用 errors.Is 判断 ResolveError 的类别。
var (
	ErrNotFound               = errors.New("di: binding not found")
	ErrNotConvertible         = errors.New("di: not convertible")
	ErrAmbiguous              = errors.New("di: ambiguous binding")
	ErrRecursionDetected      = errors.New("di: recursion detected")
	ErrAlreadyRegistered      = errors.New("di: already registered")
	ErrIndexAlreadyRegistered = errors.New("di: index already registered")
	ErrIndexOutOfRange        = errors.New("di: index out of range")
	ErrContextOverflow        = errors.New("di: resolving context overflow")
	ErrInvalidBinding         = errors.New("di: invalid binding")
	ErrNotConstructed         = errors.New("di: instance not constructed")
	ErrClosed                 = errors.New("di: container closed")
	ErrFactoryFailed          = errors.New("di: factory failed")
	ErrCollectorRejected      = errors.New("di: collector rejected item")
)

// ResolveError 描述一次注册或解析失败。
// Path 记录失败时正在构造的依赖链（由外到内）。
type ResolveError struct {
	Kind  error
	Key   Key
	Index any
	Path  []Key
	Cause error
}

func (e *ResolveError) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if !e.Key.IsZero() {
		b.WriteString(": ")
		b.WriteString(e.Key.String())
	}
	if e.Index != nil {
		fmt.Fprintf(&b, " (index=%v)", e.Index)
	}
	if len(e.Path) > 0 {
		parts := make([]string, len(e.Path))
		for i, k := range e.Path {
			parts[i] = k.String()
		}
		b.WriteString(" [")
		b.WriteString(strings.Join(parts, " -> "))
		b.WriteString("]")
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ResolveError) Unwrap() []error {
	if e.Cause == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Cause}
}

func newError(kind error, key Key, cause error) *ResolveError {
	return &ResolveError{Kind: kind, Key: key, Cause: cause}
}

func newIndexError(kind error, key Key, index any) *ResolveError {
	return &ResolveError{Kind: kind, Key: key, Index: index}
}

// wrapCause 把工厂或收集器返回的普通错误包装为 kind 类别，已是 ResolveError 的原样返回
func wrapCause(kind error, key Key, err error) error {
	var re *ResolveError
	if errors.As(err, &re) {
		return err
	}
	return newError(kind, key, err)
}

// withPath 为尚未记录路径的错误补充依赖链
func withPath(err error, path []Key) error {
	var re *ResolveError
	if errors.As(err, &re) && re.Path == nil && len(path) > 0 {
		re.Path = append([]Key(nil), path...)
	}
	return err
}

// isNotFound 报告 err 是否为 key 本身未注册（而非其传递依赖缺失）
func isNotFound(err error, key Key) bool {
	var re *ResolveError
	return errors.As(err, &re) && re.Kind == ErrNotFound && re.Key == key
}
