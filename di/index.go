package di

import (
	"cmp"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/google/btree"
)

// IndexBackend 决定带索引绑定的存储方式。
type IndexBackend interface {
	newStore() indexStore
	String() string
}

type indexStore interface {
	// emplace 插入索引，已存在时返回 false
	emplace(index any, b *binding) (bool, error)
	find(index any) (*binding, bool, error)
	remove(index any)
	len() int
}

// HashIndex 使用哈希表，索引必须可比较（默认）
func HashIndex() IndexBackend { return hashBackend{} }

// OrderedIndex 使用 B 树按索引排序，支持整数、浮点数与字符串
func OrderedIndex() IndexBackend { return orderedBackend{} }

// ArrayIndex 使用定长数组，索引必须是 [0, size) 内的整数
func ArrayIndex(size int) IndexBackend { return arrayBackend{size: size} }

// ParseIndexBackend 解析 "hash"、"ordered"、"array:N" 形式的配置
func ParseIndexBackend(s string) (IndexBackend, error) {
	switch {
	case s == "" || s == "hash":
		return HashIndex(), nil
	case s == "ordered":
		return OrderedIndex(), nil
	case strings.HasPrefix(s, "array:"):
		n, err := strconv.Atoi(strings.TrimPrefix(s, "array:"))
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("di: invalid array index size in %q", s)
		}
		return ArrayIndex(n), nil
	}
	return nil, fmt.Errorf("di: unknown index backend %q", s)
}

// ---------- hash ----------

type hashBackend struct{}

func (hashBackend) newStore() indexStore { return hashStore{} }
func (hashBackend) String() string       { return "hash" }

type hashStore map[any]*binding

func (s hashStore) emplace(index any, b *binding) (bool, error) {
	if err := comparableIndex(index); err != nil {
		return false, err
	}
	if _, ok := s[index]; ok {
		return false, nil
	}
	s[index] = b
	return true, nil
}

func (s hashStore) find(index any) (*binding, bool, error) {
	if err := comparableIndex(index); err != nil {
		return nil, false, err
	}
	b, ok := s[index]
	return b, ok, nil
}

func (s hashStore) remove(index any) { delete(s, index) }
func (s hashStore) len() int         { return len(s) }

func comparableIndex(index any) error {
	if index == nil || !reflect.TypeOf(index).Comparable() {
		return fmt.Errorf("index of type %T is not comparable", index)
	}
	return nil
}

// ---------- ordered ----------

type orderedBackend struct{}

func (orderedBackend) newStore() indexStore {
	return &orderedStore{tree: btree.NewG[orderedEntry](8, func(a, b orderedEntry) bool {
		return compareIndex(a.index, b.index) < 0
	})}
}
func (orderedBackend) String() string { return "ordered" }

type orderedEntry struct {
	index any
	b     *binding
}

type orderedStore struct {
	tree *btree.BTreeG[orderedEntry]
}

func (s *orderedStore) emplace(index any, b *binding) (bool, error) {
	if err := orderable(index); err != nil {
		return false, err
	}
	if s.tree.Has(orderedEntry{index: index}) {
		return false, nil
	}
	s.tree.ReplaceOrInsert(orderedEntry{index: index, b: b})
	return true, nil
}

func (s *orderedStore) find(index any) (*binding, bool, error) {
	if err := orderable(index); err != nil {
		return nil, false, err
	}
	e, ok := s.tree.Get(orderedEntry{index: index})
	return e.b, ok, nil
}

func (s *orderedStore) remove(index any) { s.tree.Delete(orderedEntry{index: index}) }
func (s *orderedStore) len() int         { return s.tree.Len() }

func orderable(index any) error {
	if index == nil {
		return fmt.Errorf("nil index")
	}
	switch reflect.ValueOf(index).Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
		return nil
	}
	return fmt.Errorf("index of type %T is not ordered", index)
}

// compareIndex 比较两个可排序索引；不同种类之间按种类排序
func compareIndex(a, b any) int {
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	ka, kb := indexClass(va.Kind()), indexClass(vb.Kind())
	if ka != kb {
		return cmp.Compare(ka, kb)
	}
	switch ka {
	case 0:
		return cmp.Compare(va.Int(), vb.Int())
	case 1:
		return cmp.Compare(va.Uint(), vb.Uint())
	case 2:
		return cmp.Compare(va.Float(), vb.Float())
	}
	return cmp.Compare(va.String(), vb.String())
}

func indexClass(k reflect.Kind) int {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return 1
	case reflect.Float32, reflect.Float64:
		return 2
	}
	return 3
}

// ---------- array ----------

type arrayBackend struct {
	size int
}

func (a arrayBackend) newStore() indexStore { return &arrayStore{slots: make([]*binding, a.size)} }
func (a arrayBackend) String() string       { return "array:" + strconv.Itoa(a.size) }

// rangeError 表示整数索引超出数组后端的容量
type rangeError struct {
	index any
	size  int
}

func (e *rangeError) Error() string {
	return fmt.Sprintf("index %v exceeds array size %d", e.index, e.size)
}

type arrayStore struct {
	slots []*binding
	n     int
}

func (s *arrayStore) position(index any) (int, error) {
	if index == nil {
		return 0, fmt.Errorf("nil index")
	}
	v := reflect.ValueOf(index)
	var i int64
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		i = v.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > uint64(len(s.slots)) {
			return 0, &rangeError{index: index, size: len(s.slots)}
		}
		i = int64(u)
	default:
		return 0, fmt.Errorf("index of type %T is not an integer", index)
	}
	if i < 0 || i >= int64(len(s.slots)) {
		return 0, &rangeError{index: index, size: len(s.slots)}
	}
	return int(i), nil
}

func (s *arrayStore) emplace(index any, b *binding) (bool, error) {
	i, err := s.position(index)
	if err != nil {
		return false, err
	}
	if s.slots[i] != nil {
		return false, nil
	}
	s.slots[i] = b
	s.n++
	return true, nil
}

func (s *arrayStore) find(index any) (*binding, bool, error) {
	i, err := s.position(index)
	if err != nil {
		return nil, false, err
	}
	return s.slots[i], s.slots[i] != nil, nil
}

func (s *arrayStore) remove(index any) {
	if i, err := s.position(index); err == nil && s.slots[i] != nil {
		s.slots[i] = nil
		s.n--
	}
}

func (s *arrayStore) len() int { return s.n }
