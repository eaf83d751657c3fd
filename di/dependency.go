package di

import (
	"fmt"
	"reflect"
	"strings"
)

// Dependency 描述一次依赖请求。
type Dependency struct {
	// Type 为请求的 Go 类型，决定键与结果形态（见 Resolve）
	Type reflect.Type
	// Index 为可选的索引，HasIndex 为 false 时忽略
	Index    any
	HasIndex bool
	// Optional 为 true 时，依赖未注册则注入零值
	Optional bool
	// Name 用于错误信息（字段名或参数位置）
	Name string
}

func (d Dependency) String() string {
	s := d.Type.String()
	if d.HasIndex {
		s += fmt.Sprintf("[%v]", d.Index)
	}
	if d.Optional {
		s += "?"
	}
	return s
}

// DependencyProvider 由工厂实现，用于在不构造实例的情况下列出其依赖。
// 没有任何依赖的绑定是叶子绑定，解析时无需递归检测。
type DependencyProvider interface {
	Dependencies() []Dependency
}

var errorType = TypeOf[error]()

// analyzeFunction 分析函数参数，每个参数都是一个依赖
func analyzeFunction(fnType reflect.Type) ([]Dependency, error) {
	if fnType.Kind() != reflect.Func {
		return nil, fmt.Errorf("expected function, got %v", fnType)
	}
	if fnType.IsVariadic() {
		return nil, fmt.Errorf("variadic function %v is not supported", fnType)
	}
	deps := make([]Dependency, fnType.NumIn())
	for i := range deps {
		deps[i] = Dependency{Type: fnType.In(i), Name: fmt.Sprintf("arg %d", i)}
	}
	return deps, nil
}

// fieldDependency 是带 di 标签的结构体字段
type fieldDependency struct {
	Dependency
	field int
}

// analyzeStruct 分析结构体中带 `di` 标签的字段。
// 标签格式为 "index,option"：index 为字符串索引，"?" 或 "optional" 表示可选。
func analyzeStruct(typ reflect.Type) ([]fieldDependency, error) {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil, nil
	}

	var fields []fieldDependency
	for i := 0; i < typ.NumField(); i++ {
		field := typ.Field(i)
		tag, ok := field.Tag.Lookup("di")
		if !ok {
			continue
		}
		if !field.IsExported() {
			return nil, fmt.Errorf("field %s.%s has a di tag but is not exported", typ, field.Name)
		}

		parts := strings.Split(tag, ",")
		name := strings.TrimSpace(parts[0])
		optional := false
		if name == "?" || name == "optional" {
			name = ""
			optional = true
		}
		for _, part := range parts[1:] {
			part = strings.TrimSpace(part)
			if part == "optional" || part == "?" {
				optional = true
			}
		}

		fields = append(fields, fieldDependency{
			Dependency: Dependency{
				Type:     field.Type,
				Index:    name,
				HasIndex: name != "",
				Optional: optional,
				Name:     field.Name,
			},
			field: i,
		})
	}
	return fields, nil
}

// hasInjectTags 报告类型是否含有 di 标签字段
func hasInjectTags(typ reflect.Type) bool {
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return false
	}
	for i := 0; i < typ.NumField(); i++ {
		if _, ok := typ.Field(i).Tag.Lookup("di"); ok {
			return true
		}
	}
	return false
}
