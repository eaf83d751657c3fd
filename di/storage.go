package di

// scopeStorage 保存一个绑定的实例，按作用域实现不同的生命周期。
type scopeStorage interface {
	// resolve 返回实例槽位，必要时构造实例
	resolve(ctx *resolvingContext, b *binding) (*cell, error)
	// ready 报告是否已有可直接返回的实例
	ready() bool
	// root 返回以 StoreHandle 保存时容器持有的句柄
	root() *handleCore
	// reset 释放实例并回到空状态
	reset() error
	// rollback 撤销本次调用中未完成的构造
	rollback() error
}

func newStorage(b *binding) scopeStorage {
	switch b.scope {
	case ScopeUnique:
		return uniqueStorage{}
	case ScopeSharedCyclical:
		return &cyclicalStorage{}
	case ScopeExternal:
		// external 在注册时即已就绪，见 newExternalStorage
		return nil
	default:
		return &sharedStorage{}
	}
}

// uniqueStorage 每次解析都构造新实例
type uniqueStorage struct{}

func (uniqueStorage) resolve(ctx *resolvingContext, b *binding) (*cell, error) {
	v, err := b.build(ctx)
	if err != nil {
		return nil, err
	}
	c := constructedCell(b.key, v)
	c.dispose = b.dispose
	return c, nil
}

func (uniqueStorage) ready() bool       { return false }
func (uniqueStorage) root() *handleCore { return nil }
func (uniqueStorage) reset() error      { return nil }
func (uniqueStorage) rollback() error   { return nil }

// sharedStorage 首次解析时构造，之后一直返回同一实例
type sharedStorage struct {
	c    *cell
	hold *handleCore
}

func (s *sharedStorage) resolve(ctx *resolvingContext, b *binding) (*cell, error) {
	if s.c != nil {
		return s.c, nil
	}
	// 先登记，失败时由上下文回滚
	if err := ctx.addResettable(b); err != nil {
		return nil, err
	}
	v, err := b.build(ctx)
	if err != nil {
		return nil, err
	}
	c := constructedCell(b.key, v)
	c.dispose = b.dispose
	s.c = c
	if b.storeAs == StoreHandle {
		s.hold = newHandleCore(c)
	}
	return c, nil
}

func (s *sharedStorage) ready() bool       { return s.c.ready() }
func (s *sharedStorage) root() *handleCore { return s.hold }

func (s *sharedStorage) reset() error {
	c, hold := s.c, s.hold
	s.c, s.hold = nil, nil
	if c == nil {
		return nil
	}
	if hold != nil {
		return hold.release()
	}
	return c.destroy()
}

func (s *sharedStorage) rollback() error {
	return s.reset()
}

// externalStorage 包装调用方提供的实例，始终就绪，从不释放
type externalStorage struct {
	c    *cell
	hold *handleCore
}

func newExternalStorage(c *cell, hold *handleCore) *externalStorage {
	return &externalStorage{c: c, hold: hold}
}

func (s *externalStorage) resolve(*resolvingContext, *binding) (*cell, error) {
	return s.c, nil
}

func (s *externalStorage) ready() bool       { return true }
func (s *externalStorage) root() *handleCore { return s.hold }
func (s *externalStorage) reset() error      { return nil }
func (s *externalStorage) rollback() error   { return nil }

// cyclicalStorage 分两阶段构造：先预留槽位使依赖方可以拿到指针，
// 再在上下文结束前执行工厂并写入槽位。
type cyclicalStorage struct {
	c    *cell
	hold *handleCore
	// spare 为回滚时释放的预留槽位，重新构造时复用
	spare *cell
}

func (s *cyclicalStorage) resolve(ctx *resolvingContext, b *binding) (*cell, error) {
	if s.c != nil {
		return s.c, nil
	}
	if err := ctx.addResettable(b); err != nil {
		return nil, err
	}
	c := s.spare
	if c == nil {
		c = newCell(b.key, b.typ)
	}
	c.state = cellReserved
	c.dispose = b.dispose
	err := ctx.deferConstruct(func(ctx *resolvingContext) error {
		if c.state != cellReserved {
			return nil
		}
		ctx.push(b.key)
		v, err := b.build(ctx)
		if err != nil {
			return withPath(err, ctx.path)
		}
		ctx.pop()
		c.ptr.Elem().Set(v)
		c.state = cellConstructed
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.c, s.spare = c, nil
	if b.storeAs == StoreHandle {
		s.hold = newHandleCore(c)
	}
	return c, nil
}

func (s *cyclicalStorage) ready() bool       { return s.c.ready() }
func (s *cyclicalStorage) root() *handleCore { return s.hold }

func (s *cyclicalStorage) reset() error {
	c, hold := s.c, s.hold
	s.c, s.hold = nil, nil
	if c == nil {
		return nil
	}
	if hold != nil {
		return hold.release()
	}
	return c.destroy()
}

// rollback 只释放仍处于预留状态的槽位，已构造的实例保持不变
func (s *cyclicalStorage) rollback() error {
	if s.c == nil || s.c.state != cellReserved {
		return nil
	}
	s.c.state = cellExpired
	s.spare = s.c
	s.c, s.hold = nil, nil
	return nil
}
