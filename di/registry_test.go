package di_test

import (
	"testing"

	"github.com/gocrud/inject/di"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuplicateRegistration(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[*Database](c, di.WithValue(&Database{DSN: "a"})))

	err := di.Register[*Database](c, di.WithValue(&Database{DSN: "b"}))
	assert.ErrorIs(t, err, di.ErrAlreadyRegistered)

	db, err := di.Resolve[*Database](c)
	require.NoError(t, err)
	assert.Equal(t, "a", db.DSN)
}

func TestIndexedBindings(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[*Database](c, di.WithName("master"), di.WithValue(&Database{DSN: "m"})))
	require.NoError(t, di.Register[*Database](c, di.WithName("slave"), di.WithValue(&Database{DSN: "s"})))

	err := di.Register[*Database](c, di.WithName("master"), di.WithValue(&Database{DSN: "dup"}))
	require.ErrorIs(t, err, di.ErrIndexAlreadyRegistered)

	m, err := di.ResolveNamed[*Database](c, "master")
	require.NoError(t, err)
	assert.Equal(t, "m", m.DSN)

	// 多个带索引的绑定，无索引解析有歧义
	_, err = di.Resolve[*Database](c)
	require.ErrorIs(t, err, di.ErrAmbiguous)

	// 主键上唯一的无索引绑定优先
	require.NoError(t, di.Register[*Database](c, di.WithValue(&Database{DSN: "default"})))
	d, err := di.Resolve[*Database](c)
	require.NoError(t, err)
	assert.Equal(t, "default", d.DSN)

	all, err := di.ResolveAll[*Database](c)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"m", "s", "default"}, []string{all[0].DSN, all[1].DSN, all[2].DSN})
}

func TestSingleIndexedBindingResolvesUnindexed(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[*Database](c, di.WithName("only"), di.WithValue(&Database{DSN: "only"})))

	db, err := di.Resolve[*Database](c)
	require.NoError(t, err)
	assert.Equal(t, "only", db.DSN)
}

func TestIndexedNotFound(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[*Database](c, di.WithName("a"), di.WithValue(&Database{})))

	_, err := di.ResolveNamed[*Database](c, "b")
	require.ErrorIs(t, err, di.ErrNotFound)

	var re *di.ResolveError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "b", re.Index)
	assert.Equal(t, di.KeyOf[*Database](), re.Key)
	assert.Contains(t, err.Error(), "(index=b)")
}

func TestArrayIndexBackend(t *testing.T) {
	c := di.New()
	reg := func(i any) error {
		return di.Register[*Database](c, di.WithIndexBackend(di.ArrayIndex(2)), di.WithIndex(i),
			di.WithValue(&Database{DSN: "shard"}))
	}
	require.NoError(t, reg(0))
	require.NoError(t, reg(1))
	assert.ErrorIs(t, reg(1), di.ErrIndexAlreadyRegistered)
	assert.ErrorIs(t, reg(2), di.ErrIndexOutOfRange)
	assert.ErrorIs(t, reg("x"), di.ErrInvalidBinding)
	assert.NotErrorIs(t, reg("x"), di.ErrIndexOutOfRange)

	_, err := di.ResolveIndexed[*Database](c, 1)
	require.NoError(t, err)
	_, err = di.ResolveIndexed[*Database](c, 5)
	assert.ErrorIs(t, err, di.ErrIndexOutOfRange)

	all, err := di.ResolveAll[*Database](c)
	require.NoError(t, err)
	assert.Len(t, all, 2, "failed registrations leave no binding behind")
}

func TestOrderedIndexBackend(t *testing.T) {
	c := di.New(di.WithDefaultIndexBackend(di.OrderedIndex()))
	for _, v := range []int{30, 10, 20} {
		require.NoError(t, di.Register[*Counter](c, di.WithIndex(v), di.WithValue(&Counter{ID: v})))
	}
	assert.ErrorIs(t, di.Register[*Counter](c, di.WithIndex(10), di.WithValue(&Counter{})), di.ErrIndexAlreadyRegistered)
	assert.ErrorIs(t, di.Register[*Counter](c, di.WithIndex([]int{1}), di.WithValue(&Counter{})), di.ErrInvalidBinding)

	got, err := di.ResolveIndexed[*Counter](c, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, got.ID)

	_, err = di.ResolveIndexed[*Counter](c, 40)
	assert.ErrorIs(t, err, di.ErrNotFound)
}

func TestHashIndexRejectsUncomparable(t *testing.T) {
	c := di.New()
	err := di.Register[*Counter](c, di.WithIndex(map[string]int{}), di.WithValue(&Counter{}))
	assert.ErrorIs(t, err, di.ErrInvalidBinding)
	assert.NotErrorIs(t, err, di.ErrIndexOutOfRange)

	_, err = di.ResolveIndexed[*Counter](c, []int{1})
	assert.ErrorIs(t, err, di.ErrNotFound, "no hash index table exists yet")
	assert.False(t, di.Has[*Counter](c))
}

func TestTokens(t *testing.T) {
	primary := di.NewToken[*Database]("primary")
	replica := di.NewToken[*Database]("replica")

	c := di.New()
	require.NoError(t, primary.Register(c, di.WithValue(&Database{DSN: "p"})))
	require.NoError(t, di.Register[*Database](c, replica.Option(), di.WithValue(&Database{DSN: "r"})))

	p, err := di.ResolveToken(c, primary)
	require.NoError(t, err)
	assert.Equal(t, "p", p.DSN)

	r, err := di.ResolveToken(c, replica)
	require.NoError(t, err)
	assert.Equal(t, "r", r.DSN)

	assert.Equal(t, di.KeyOf[*Database](), primary.Key())
	assert.Equal(t, "primary", primary.Index())
	assert.Equal(t, "Token[*di_test.Database](primary)", primary.String())
}

type Plugin interface {
	Name() string
}

type alphaPlugin struct{}

func (alphaPlugin) Name() string { return "alpha" }

type betaPlugin struct{}

func (*betaPlugin) Name() string { return "beta" }

func TestCollections(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[alphaPlugin](c, di.As[Plugin]()))
	require.NoError(t, di.Register[*betaPlugin](c, di.As[Plugin]()))

	plugins, err := di.ResolveAll[Plugin](c)
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "alpha", plugins[0].Name())
	assert.Equal(t, "beta", plugins[1].Name())

	// []Plugin 未注册，按集合解析
	viaSlice, err := di.Resolve[[]Plugin](c)
	require.NoError(t, err)
	assert.Equal(t, plugins, viaSlice)

	_, err = di.Resolve[Plugin](c)
	assert.ErrorIs(t, err, di.ErrAmbiguous)

	names := di.SetCollector[string]{}
	require.NoError(t, di.Collect[Plugin](c, collectNames(names)))
	assert.Len(t, names, 2)

	byName := &di.MapCollector[string, Plugin]{KeyOf: Plugin.Name}
	require.NoError(t, di.Collect[Plugin](c, byName))
	assert.Contains(t, byName.Items, "beta")

	type consumer struct {
		Plugins []Plugin
	}
	got, err := di.Construct[consumer](c, func(ps []Plugin) consumer { return consumer{Plugins: ps} })
	require.NoError(t, err)
	assert.Len(t, got.Plugins, 2)
}

// collectNames 把插件名称加入集合
type collectNames di.SetCollector[string]

func (s collectNames) Add(p Plugin) error {
	s[p.Name()] = struct{}{}
	return nil
}

func TestMapCollectorRejectsDuplicates(t *testing.T) {
	c := di.New()
	require.NoError(t, di.Register[alphaPlugin](c, di.As[Plugin]()))
	require.NoError(t, di.Register[alphaPlugin](c, di.WithName("again"), di.As[Plugin]()))

	err := di.Collect[Plugin](c, &di.MapCollector[string, Plugin]{KeyOf: Plugin.Name})
	assert.ErrorIs(t, err, di.ErrCollectorRejected)
	assert.ErrorContains(t, err, "duplicate collection key alpha")
}

func TestChildContainer(t *testing.T) {
	rec := &recorder{}
	parent := di.New()
	require.NoError(t, di.Register[*Database](parent, di.WithValue(&Database{DSN: "parent"})))
	require.NoError(t, di.Register[*stepA](parent, di.WithFactory(func() *stepA {
		return &stepA{tracked{"a", rec}}
	})))
	require.NoError(t, di.Register[alphaPlugin](parent, di.As[Plugin]()))

	child := parent.Child()
	assert.Same(t, parent, child.Parent())
	require.NoError(t, di.Register[*Database](child, di.WithValue(&Database{DSN: "child"})))
	require.NoError(t, di.Register[*betaPlugin](child, di.As[Plugin]()))

	db, err := di.Resolve[*Database](child)
	require.NoError(t, err)
	assert.Equal(t, "child", db.DSN)
	db, err = di.Resolve[*Database](parent)
	require.NoError(t, err)
	assert.Equal(t, "parent", db.DSN)

	// 父容器的绑定在前
	plugins, err := di.ResolveAll[Plugin](child)
	require.NoError(t, err)
	require.Len(t, plugins, 2)
	assert.Equal(t, "alpha", plugins[0].Name())

	// 通过子容器构造的父容器共享实例由父容器持有
	a, err := di.Resolve[*stepA](child)
	require.NoError(t, err)
	require.NoError(t, child.Close())
	assert.Empty(t, rec.disposed)

	b, err := di.Resolve[*stepA](parent)
	require.NoError(t, err)
	assert.Same(t, a, b)
	require.NoError(t, parent.Close())
	assert.Equal(t, []string{"a"}, rec.disposed)
}
