package di

import "errors"

// indexedRegistry 保存同一键下带索引的绑定
type indexedRegistry struct {
	backend IndexBackend
	store   indexStore
}

// registry 保存容器自身的绑定（不含父容器）
type registry struct {
	bindings map[Key][]*binding
	indexes  map[Key]*indexedRegistry
	seq      int
}

func newRegistry() *registry {
	return &registry{
		bindings: make(map[Key][]*binding),
		indexes:  make(map[Key]*indexedRegistry),
	}
}

// add 登记绑定；失败时注册表保持不变
func (r *registry) add(b *binding, backend IndexBackend) error {
	if !b.hasIndex {
		for _, existing := range r.bindings[b.key] {
			if existing.key == b.key && !existing.hasIndex {
				return newError(ErrAlreadyRegistered, b.key, nil)
			}
		}
	}

	keys := b.keys()
	if b.hasIndex {
		for i, k := range keys {
			ir, ok := r.indexes[k]
			if !ok {
				if backend == nil {
					backend = HashIndex()
				}
				ir = &indexedRegistry{backend: backend, store: backend.newStore()}
				r.indexes[k] = ir
			}
			inserted, err := ir.store.emplace(b.index, b)
			if err == nil && !inserted {
				err = newIndexError(ErrIndexAlreadyRegistered, k, b.index)
			} else if err != nil {
				err = indexFailure(k, b.index, err)
			}
			if err != nil {
				r.unindex(b, keys[:i])
				if ir.store.len() == 0 {
					delete(r.indexes, k)
				}
				return err
			}
		}
	}

	r.seq++
	b.id = r.seq
	for _, k := range keys {
		r.bindings[k] = append(r.bindings[k], b)
	}
	return nil
}

// indexFailure 区分越界的整数索引与后端不支持的索引
func indexFailure(key Key, index any, err error) *ResolveError {
	kind := ErrInvalidBinding
	var re *rangeError
	if errors.As(err, &re) {
		kind = ErrIndexOutOfRange
	}
	return &ResolveError{Kind: kind, Key: key, Index: index, Cause: err}
}

func (r *registry) unindex(b *binding, keys []Key) {
	for _, k := range keys {
		ir := r.indexes[k]
		ir.store.remove(b.index)
		if ir.store.len() == 0 {
			delete(r.indexes, k)
		}
	}
}

func (r *registry) has(key Key) bool {
	return len(r.bindings[key]) > 0
}

// lookup 在本注册表中查找绑定；found 为 false 表示应继续查找父容器
func (r *registry) lookup(key Key, index any, hasIndex bool) (*binding, bool, error) {
	if hasIndex {
		ir, ok := r.indexes[key]
		if !ok {
			return nil, false, nil
		}
		b, found, err := ir.store.find(index)
		if err != nil {
			return nil, false, indexFailure(key, index, err)
		}
		return b, found, nil
	}

	bs := r.bindings[key]
	switch len(bs) {
	case 0:
		return nil, false, nil
	case 1:
		return bs[0], true, nil
	}
	// 主键上唯一的非索引绑定优先于带索引的绑定
	var primary *binding
	for _, b := range bs {
		if !b.hasIndex && b.key == key {
			if primary != nil {
				primary = nil
				break
			}
			primary = b
		}
	}
	if primary != nil {
		return primary, true, nil
	}
	return nil, false, &ResolveError{Kind: ErrAmbiguous, Key: key, Cause: ambiguity(bs)}
}

func (r *registry) all(key Key) []*binding {
	return r.bindings[key]
}

type ambiguity []*binding

func (a ambiguity) Error() string {
	s := "candidates:"
	for _, b := range a {
		s += " " + b.String()
	}
	return s
}
