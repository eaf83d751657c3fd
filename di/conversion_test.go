package di_test

import (
	"sync"
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Guarded struct {
	mu sync.Mutex
	n  int
}

func (g *Guarded) Inc() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return g.n
}

type Settings struct {
	Level string
}

type Scratch struct {
	rec *recorder
	V   int
}

func (s *Scratch) Dispose() error {
	s.rec.disposed = append(s.rec.disposed, "scratch")
	return nil
}

type Owner struct {
	Seen int
}

func TestValueRequiresCopyable(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Guarded](c))

	_, err := di.Resolve[Guarded](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)

	g, err := di.ResolvePointer[Guarded](c)
	require.NoError(t, err)
	assert.Equal(t, 1, g.Inc())
}

func TestConversionCheckedAtRegistration(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Guarded](c))

	err := di.Register[Owner](c, di.WithFactory(func(g Guarded) Owner { return Owner{Seen: g.n} }))
	assert.ErrorIs(t, err, di.ErrNotConvertible)
	assert.False(t, di.Has[Owner](c))

	// 依赖尚未注册时只能在解析时发现
	c = di.New()
	require.NoError(t, di.Register[Owner](c, di.WithFactory(func(g Guarded) Owner { return Owner{Seen: g.n} })))
	require.NoError(t, di.Register[Guarded](c))
	_, err = di.Resolve[Owner](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)
}

func TestNoCopyBinding(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Settings](c, di.WithNoCopy(), di.WithFactory(func() Settings {
		return Settings{Level: "info"}
	})))

	_, err := di.Resolve[Settings](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)

	s, err := di.ResolvePointer[Settings](c)
	require.NoError(t, err)
	assert.Equal(t, "info", s.Level)
}

func TestUniquePointerOnlyWhileNested(t *testing.T) {
	rec := &recorder{}
	c := di.New()
	require.NoError(t, di.Register[Scratch](c, di.WithUnique(), di.WithFactory(func() Scratch {
		return Scratch{rec: rec, V: 3}
	})))
	require.NoError(t, di.Register[Owner](c, di.WithFactory(func(s *Scratch) Owner {
		return Owner{Seen: s.V}
	})))

	// 顶层调用无法保证临时对象存活
	_, err := di.ResolvePointer[Scratch](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)
	_, err = di.ResolveRef[Scratch](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)

	o, err := di.Resolve[Owner](c)
	require.NoError(t, err)
	assert.Equal(t, 3, o.Seen)
	assert.Equal(t, []string{"scratch"}, rec.disposed, "temporary released when the call ends")
}

func TestMoveOnlyFromUnique(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Settings](c, di.WithFactory(func() Settings { return Settings{Level: "shared"} })))
	require.NoError(t, di.Register[Owner](c, di.WithUnique(), di.WithFactory(func() Owner { return Owner{Seen: 1} })))

	_, err := di.ResolveMove[Settings](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)

	o, err := di.ResolveMove[Owner](c)
	require.NoError(t, err)
	assert.Equal(t, 1, o.Seen)
}

type Greeter interface {
	Greet() string
}

type EnglishGreeter struct{}

func (EnglishGreeter) Greet() string { return "hello" }

type ChineseGreeter struct {
	Suffix string
}

func (g *ChineseGreeter) Greet() string { return "你好" + g.Suffix }

func TestInterfaceViews(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Greeter](c, di.Use[EnglishGreeter]()))

	g, err := di.Resolve[Greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "hello", g.Greet())

	// 指针与引用需要具体类型的键
	_, err = di.Resolve[di.Ref[Greeter]](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)
}

func TestInterfaceAliasOfCyclical(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[ChineseGreeter](c, di.WithSharedCyclical(), di.As[Greeter](),
		di.WithFactory(func() ChineseGreeter { return ChineseGreeter{Suffix: "!"} })))

	g, err := di.Resolve[Greeter](c)
	require.NoError(t, err)
	assert.Equal(t, "你好!", g.Greet())

	p, err := di.ResolvePointer[ChineseGreeter](c)
	require.NoError(t, err)
	assert.Same(t, p, g.(*ChineseGreeter), "interface aliases the shared slot")
}

type Pool struct {
	rec  *recorder
	Size int
}

func (p *Pool) Dispose() error {
	p.rec.disposed = append(p.rec.disposed, "pool")
	return nil
}

func TestSharedHandleOutlivesContainer(t *testing.T) {
	rec := &recorder{}
	c := di.New()
	require.NoError(t, di.Register[Pool](c, di.WithHandleStorage(), di.WithFactory(func() Pool {
		return Pool{rec: rec, Size: 4}
	})))

	h1, err := di.ResolveHandle[Pool](c)
	require.NoError(t, err)
	assert.Equal(t, 2, h1.Refs(), "container and caller")

	h2 := h1.Share()
	assert.Same(t, h1.Get(), h2.Get())
	assert.Equal(t, 3, h1.Refs())

	require.NoError(t, c.Close())
	assert.Empty(t, rec.disposed)
	assert.Equal(t, 4, h2.Get().Size)

	require.NoError(t, h1.Release())
	require.NoError(t, h1.Release())
	assert.Empty(t, rec.disposed)
	_, err = h1.TryGet()
	assert.ErrorIs(t, err, di.ErrNotConstructed)

	require.NoError(t, h2.Release())
	assert.Equal(t, []string{"pool"}, rec.disposed)
}

func TestHandleRequiresHandleStorage(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Settings](c, di.WithFactory(func() Settings { return Settings{} })))

	_, err := di.ResolveHandle[Settings](c)
	assert.ErrorIs(t, err, di.ErrNotConvertible)
}

func TestUniqueHandleOwnsInstance(t *testing.T) {
	rec := &recorder{}
	c := di.New()
	require.NoError(t, di.Register[Pool](c, di.WithUnique(), di.WithFactory(func() Pool {
		return Pool{rec: rec}
	})))

	h, err := di.ResolveHandle[Pool](c)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Refs())
	require.NoError(t, h.Release())
	assert.Equal(t, []string{"pool"}, rec.disposed)
}

func TestExternalHandle(t *testing.T) {
	rec := &recorder{}
	own := di.NewHandle(Pool{rec: rec, Size: 8})
	c := di.New()
	require.NoError(t, di.Register[Pool](c, di.WithHandle(own)))

	h, err := di.ResolveHandle[Pool](c)
	require.NoError(t, err)
	assert.Same(t, own.Get(), h.Get())

	p, err := di.ResolvePointer[Pool](c)
	require.NoError(t, err)
	assert.Same(t, own.Get(), p)

	require.NoError(t, c.Close())
	require.NoError(t, own.Release())
	assert.Empty(t, rec.disposed)
	require.NoError(t, h.Release())
	assert.Equal(t, []string{"pool"}, rec.disposed)
}

func TestResolveAllHandles(t *testing.T) {
	rec := &recorder{}
	c := di.New()
	for i, size := range []int{1, 2} {
		require.NoError(t, di.Register[Pool](c, di.WithIndex(i), di.WithHandleStorage(), di.WithFactory(func() Pool {
			return Pool{rec: rec, Size: size}
		})))
	}

	hs, err := di.ResolveAllHandles[Pool](c)
	require.NoError(t, err)
	require.Len(t, hs, 2)
	assert.Equal(t, 1, hs[0].Get().Size)
	assert.Equal(t, 2, hs[1].Get().Size)

	require.NoError(t, c.Close())
	for _, h := range hs {
		require.NoError(t, h.Release())
	}
	assert.Equal(t, []string{"pool", "pool"}, rec.disposed)
}

type Speaker interface {
	Speak() string
}

type Parrot struct {
	Word   string
	Mirror *Mirror
}

func (p Parrot) Speak() string { return p.Word + "/" + p.Mirror.Word }

type Mirror struct {
	Word   string
	Parrot *Parrot
}

func TestInterfaceHandleAliasesCyclicalSlot(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Parrot](c, di.WithSharedCyclical(), di.WithHandleStorage(), di.As[Speaker](),
		di.WithFactory(func(m *Mirror) Parrot { return Parrot{Word: "hi", Mirror: m} })))
	require.NoError(t, di.Register[Mirror](c, di.WithSharedCyclical(),
		di.WithFactory(func(p *Parrot) Mirror { return Mirror{Word: "42", Parrot: p} })))

	h, err := di.ResolveHandle[Speaker](c)
	require.NoError(t, err)
	assert.Equal(t, "hi/42", (*h.Get()).Speak())

	p, err := di.ResolvePointer[Parrot](c)
	require.NoError(t, err)
	assert.Same(t, p, (*h.Get()).(*Parrot), "handle wraps the stored slot")
	assert.Same(t, p, p.Mirror.Parrot)
	require.NoError(t, h.Release())
}

type Tally struct {
	N int
}

func (t Tally) Total() int { return t.N }

type Totaler interface {
	Total() int
}

func TestInterfaceHandleOfSharedIsNotACopy(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[Tally](c, di.WithHandleStorage(), di.As[Totaler](),
		di.WithFactory(func() Tally { return Tally{N: 1} })))

	h, err := di.ResolveHandle[Totaler](c)
	require.NoError(t, err)

	p, err := di.ResolvePointer[Tally](c)
	require.NoError(t, err)
	p.N = 5
	assert.Equal(t, 5, (*h.Get()).Total(), "both views share one instance")
	assert.Same(t, p, (*h.Get()).(*Tally))
	require.NoError(t, h.Release())
}
