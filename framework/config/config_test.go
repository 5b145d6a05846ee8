package config_test

import (
	"bytes"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/km-arc/go-ioc/framework/config"
	"github.com/km-arc/go-ioc/framework/container"
	"github.com/km-arc/go-ioc/framework/logging"
)

// ── fixtures ──────────────────────────────────────────────────────────────────

type MovieFinder interface {
	FindAll() []string
}

type ColonMovieFinder struct {
	Filename string
}

func (f *ColonMovieFinder) FindAll() []string { return []string{f.Filename} }

type MovieLister struct {
	Finder      MovieFinder `ioc:"finder"`
	Description string
	Count       int
	Tags        []string
	Extra       map[string]any
}

func newTypes(t *testing.T) *container.TypeRegistry {
	t.Helper()
	types := container.NewTypeRegistry()
	require.NoError(t, container.RegisterBuiltins(types))
	require.NoError(t, types.RegisterStruct("movies.MovieLister", (*MovieLister)(nil)))
	require.NoError(t, types.RegisterStruct("movies.ColonMovieFinder", (*ColonMovieFinder)(nil)))
	return types
}

func ids(defs []*container.ObjectDef) []string {
	out := make([]string, len(defs))
	for i, d := range defs {
		out[i] = d.ID
	}
	return out
}

func find(t *testing.T, defs []*container.ObjectDef, id string) *container.ObjectDef {
	t.Helper()
	for _, d := range defs {
		if d.ID == id {
			return d
		}
	}
	t.Fatalf("no definition %q in %v", id, ids(defs))
	return nil
}

func newContainer(t *testing.T, cfg container.Config) *container.Container {
	t.Helper()
	c, err := container.New([]container.Config{cfg}, container.WithLogger(logging.Discard()))
	require.NoError(t, err)
	return c
}

func lister(t *testing.T, c *container.Container, id string) *MovieLister {
	t.Helper()
	l, err := container.Get[*MovieLister](c, id)
	require.NoError(t, err)
	return l
}

// ── XMLConfig ─────────────────────────────────────────────────────────────────

func TestXMLConfig_ReadObjectDefs(t *testing.T) {
	t.Parallel()
	cfg := config.NewXMLConfig([]string{"testdata/movies.xml"}, config.WithTypeRegistry(newTypes(t)), config.WithLogger(logging.Discard()))

	defs, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"MovieFinder",
		"MovieLister",
		"NestedLister.finder.<anonymous>",
		"NestedLister",
		"greeting",
		"timeout",
	}, ids(defs))

	l := find(t, defs, "MovieLister")
	assert.True(t, l.LazyInit)
	assert.Equal(t, "movies.MovieLister", l.Class)
	require.Len(t, l.Props, 4)
	ref, ok := l.Props[0].(*container.Reference)
	require.True(t, ok)
	assert.Equal(t, "MovieFinder", ref.Ref())

	nested := find(t, defs, "NestedLister")
	assert.Equal(t, container.Prototype, nested.Scope)
	inner, ok := nested.Props[0].(*container.InnerObject)
	require.True(t, ok)
	assert.Equal(t, "NestedLister.finder.<anonymous>", inner.Def().ID)

	greeting := find(t, defs, "greeting")
	assert.Equal(t, "builtin.str", greeting.Class)
	require.Len(t, greeting.PosConstr, 1)
	assert.Equal(t, "hello", greeting.PosConstr[0].(*container.Literal).Value())
}

func TestXMLConfig_BuildsObjects(t *testing.T) {
	t.Parallel()
	c := newContainer(t, config.NewXMLConfig([]string{"testdata/movies.xml"}, config.WithTypeRegistry(newTypes(t))))

	l := lister(t, c, "MovieLister")
	assert.Equal(t, []string{"movies1.txt"}, l.Finder.FindAll())
	assert.Equal(t, "Classic films", l.Description)
	assert.Equal(t, []string{"noir", "western"}, l.Tags)
	assert.Equal(t, "1959", l.Extra["year"])
	assert.Equal(t, true, l.Extra["restored"])

	finder, err := c.GetObject("MovieFinder")
	require.NoError(t, err)
	assert.Same(t, finder, l.Extra["backup"])

	nested := lister(t, c, "NestedLister")
	assert.Equal(t, []string{"nested.txt"}, nested.Finder.FindAll())

	greeting, err := container.Get[string](c, "greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello", greeting)
	timeout, err := container.Get[int](c, "timeout")
	require.NoError(t, err)
	assert.Equal(t, 30, timeout)
}

func TestXMLConfig_RereadsFromScratch(t *testing.T) {
	t.Parallel()
	cfg := config.NewXMLConfig([]string{"testdata/movies.xml"}, config.WithTypeRegistry(newTypes(t)))

	first, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	second, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, ids(first), ids(second))
	assert.NotSame(t, first[0], second[0])
}

func TestXMLConfig_Collections(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"app.xml": {Data: []byte(`
<objects xmlns="http://www.springframework.org/springpython/schema/objects">
    <object id="holder" class="holder">
        <constructor-arg><tuple><value>a</value><ref object="other"/></tuple></constructor-arg>
        <constructor-arg name="flags"><frozenset><value>x</value><value>x</value></frozenset></constructor-arg>
        <property name="settings"><props><prop key="mode">fast</prop></props></property>
        <property name="children">
            <list>
                <object id="first" class="child"/>
                <object class="child"/>
            </list>
        </property>
    </object>
</objects>`)}}
	types := container.NewTypeRegistry()
	types.MustRegister("holder", func(args container.Args) (any, error) { return map[string]any{"args": args}, nil })
	types.MustRegister("child", func(container.Args) (any, error) { return map[string]any{}, nil })

	defs, err := config.NewXMLConfig([]string{"app.xml"}, config.WithFS(fsys), config.WithTypeRegistry(types)).ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"holder.children.list[0].first",
		"holder.children.list[1].<anonymous>",
		"holder",
	}, ids(defs))

	holder := find(t, defs, "holder")
	require.Len(t, holder.PosConstr, 1)
	tuple := holder.PosConstr[0].(*container.Collection)
	assert.Equal(t, container.KindTuple, tuple.Kind())
	items := tuple.Items()
	assert.Equal(t, "holder.constr.tuple(1)", items[1].Name())
	assert.Equal(t, container.KindFrozenSet, holder.NamedConstr["flags"].(*container.Collection).Kind())
	assert.Equal(t, container.KindProps, holder.Props[0].(*container.Collection).Kind())
}

func TestXMLConfig_InnerConstructorArgsKeepTheirOwnIDs(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"app.xml": {Data: []byte(`
<objects>
    <object id="pair" class="pair">
        <constructor-arg><object class="movies.ColonMovieFinder"><property name="Filename" value="first"/></object></constructor-arg>
        <constructor-arg><object class="movies.ColonMovieFinder"><property name="Filename" value="second"/></object></constructor-arg>
        <constructor-arg name="spare"><object class="movies.ColonMovieFinder"><property name="Filename" value="third"/></object></constructor-arg>
    </object>
</objects>`)}}
	types := newTypes(t)
	types.MustRegister("pair", func(args container.Args) (any, error) { return args, nil })
	cfg := config.NewXMLConfig([]string{"app.xml"}, config.WithFS(fsys), config.WithTypeRegistry(types))

	defs, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"pair.constr[0].<anonymous>",
		"pair.constr[1].<anonymous>",
		"pair.constr.spare.<anonymous>",
		"pair",
	}, ids(defs))

	args, err := container.Get[container.Args](newContainer(t, cfg), "pair")
	require.NoError(t, err)
	require.Len(t, args.Positional, 2)
	assert.Equal(t, "first", args.Positional[0].(*ColonMovieFinder).Filename)
	assert.Equal(t, "second", args.Positional[1].(*ColonMovieFinder).Filename)
	assert.NotSame(t, args.Positional[0], args.Positional[1])
	assert.Equal(t, "third", args.Named["spare"].(*ColonMovieFinder).Filename)
}

func TestXMLConfig_UnmappedTagWarns(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", "json")
	require.NoError(t, err)
	fsys := fstest.MapFS{"app.xml": {Data: []byte(`<objects><widget id="w">x</widget></objects>`)}}

	defs, err := config.NewXMLConfig([]string{"app.xml"}, config.WithFS(fsys), config.WithLogger(logger)).ReadObjectDefs()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Nil(t, defs[0].Factory)
	assert.Contains(t, buf.String(), "no matching type")
	assert.Equal(t, 1, strings.Count(buf.String(), `"level":"WARN"`), buf.String())
}

func TestXMLConfig_CustomTypeMapping(t *testing.T) {
	t.Parallel()
	types := newTypes(t)
	types.MustRegister("shop.Money", func(args container.Args) (any, error) {
		v, _ := args.Arg(0)
		return "EUR " + v.(string), nil
	})
	fsys := fstest.MapFS{"app.xml": {Data: []byte(`<objects><money id="price">9.99</money></objects>`)}}
	cfg := config.NewXMLConfig([]string{"app.xml"}, config.WithFS(fsys), config.WithTypeRegistry(types),
		config.WithTypeMappings(map[string]string{"money": "shop.Money"}))

	c := newContainer(t, cfg)
	price, err := container.Get[string](c, "price")
	require.NoError(t, err)
	assert.Equal(t, "EUR 9.99", price)
}

func TestXMLConfig_Errors(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"beans.xml":   {Data: []byte(`<beans/>`)},
		"broken.xml":  {Data: []byte(`<objects><object id="a"`)},
		"scope.xml":   {Data: []byte(`<objects><object id="a" class="x" scope="session"/></objects>`)},
		"element.xml": {Data: []byte(`<objects><object id="a" class="x"><property name="p"><bogus/></property></object></objects>`)},
	}
	for _, name := range []string{"beans.xml", "broken.xml", "scope.xml", "element.xml", "missing.xml"} {
		_, err := config.NewXMLConfig([]string{name}, config.WithFS(fsys), config.WithLogger(logging.Discard())).ReadObjectDefs()
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "reading "+name)
	}

	_, err := config.NewXMLConfig([]string{"scope.xml"}, config.WithFS(fsys)).ReadObjectDefs()
	require.ErrorIs(t, err, container.ErrInvalidObjectScope)
}

// ── BeansXMLConfig / LegacyXMLConfig ─────────────────────────────────────────

func TestBeansXMLConfig(t *testing.T) {
	t.Parallel()
	c := newContainer(t, config.NewBeansXMLConfig([]string{"testdata/beans.xml"}, config.WithTypeRegistry(newTypes(t))))

	l := lister(t, c, "MovieLister")
	assert.Equal(t, []string{"beans.txt"}, l.Finder.FindAll())
	assert.Equal(t, []string{"a", "b"}, l.Tags)
	assert.Equal(t, "drama", l.Extra["genre"])
	assert.Same(t, l.Finder, l.Extra["finder"])
}

func TestLegacyXMLConfig(t *testing.T) {
	t.Parallel()
	cfg := config.NewLegacyXMLConfig([]string{"testdata/components.xml"}, config.WithTypeRegistry(newTypes(t)))
	c := newContainer(t, cfg)

	l := lister(t, c, "MovieLister")
	assert.Equal(t, []string{"legacy.txt"}, l.Finder.FindAll())
	assert.Equal(t, 3, l.Count)
	assert.Empty(t, l.Description)

	_, err := config.NewLegacyXMLConfig([]string{"testdata/movies.xml"}).ReadObjectDefs()
	require.Error(t, err)
}

// ── YAMLConfig ────────────────────────────────────────────────────────────────

func TestYAMLConfig_ReadObjectDefs(t *testing.T) {
	t.Parallel()
	defs, err := config.NewYAMLConfig([]string{"testdata/movies.yaml"}, config.WithTypeRegistry(newTypes(t))).ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{
		"MovieFinder",
		"BaseLister",
		"MovieLister.extra.dict['inner'].helper",
		"MovieLister",
		"timeout",
	}, ids(defs))

	child := find(t, defs, "MovieLister")
	assert.Equal(t, "BaseLister", child.Parent)
	assert.Nil(t, child.Factory)
	assert.True(t, find(t, defs, "BaseLister").Abstract)
	assert.Contains(t, find(t, defs, "MovieFinder").NamedConstr, "Filename")
}

func TestYAMLConfig_BuildsInheritedObjects(t *testing.T) {
	t.Parallel()
	c := newContainer(t, config.NewYAMLConfig([]string{"testdata/movies.yaml"}, config.WithTypeRegistry(newTypes(t))))

	l := lister(t, c, "MovieLister")
	assert.Equal(t, []string{"yaml.txt"}, l.Finder.FindAll())
	assert.Equal(t, "child", l.Description)
	assert.Equal(t, 7, l.Count)
	assert.Equal(t, []string{"x", "y"}, l.Tags)
	inner, ok := l.Extra["inner"].(*ColonMovieFinder)
	require.True(t, ok)
	assert.Equal(t, "inner.txt", inner.Filename)

	_, err := c.GetObject("BaseLister")
	require.ErrorIs(t, err, container.ErrAbstractObject)
}

func TestYAMLConfig_ValueForms(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"app.yaml": {Data: []byte(`
objects:
  - object: holder
    class: holder
    constructor-args: [~, 2, {ref: {object: other}}]
    properties:
      plain: [1, two]
      flags: {set: [a, a, b]}
      nothing: ~
      mode: False
      settings: {props: {level: 3}}
`)}}
	types := container.NewTypeRegistry()
	types.MustRegister("holder", func(container.Args) (any, error) { return map[string]any{}, nil })

	defs, err := config.NewYAMLConfig([]string{"app.yaml"}, config.WithFS(fsys), config.WithTypeRegistry(types)).ReadObjectDefs()
	require.NoError(t, err)
	holder := defs[0]

	require.Len(t, holder.PosConstr, 3)
	assert.Nil(t, holder.PosConstr[0])
	assert.Equal(t, 2, holder.PosConstr[1].(*container.Literal).Value())
	assert.Equal(t, "other", holder.PosConstr[2].(*container.Reference).Ref())

	kinds := map[string]container.CollectionKind{}
	for _, p := range holder.Props {
		if coll, ok := p.(*container.Collection); ok {
			kinds[p.Name()] = coll.Kind()
		}
	}
	assert.Equal(t, map[string]container.CollectionKind{
		"plain":    container.KindList,
		"flags":    container.KindSet,
		"settings": container.KindProps,
	}, kinds)

	nothing, _ := holder.Prop("nothing")
	assert.Nil(t, nothing.(*container.Literal).Value())
	mode, _ := holder.Prop("mode")
	assert.Equal(t, false, mode.(*container.Literal).Value())
}

func TestYAMLConfig_InnerConstructorArgsKeepTheirOwnIDs(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"app.yaml": {Data: []byte(`
objects:
  - object: pair
    class: pair
    constructor-args:
      - {object: finder, class: movies.ColonMovieFinder, properties: {Filename: first}}
      - {object: finder, class: movies.ColonMovieFinder, properties: {Filename: second}}
`)}}
	types := newTypes(t)
	types.MustRegister("pair", func(args container.Args) (any, error) { return args, nil })
	cfg := config.NewYAMLConfig([]string{"app.yaml"}, config.WithFS(fsys), config.WithTypeRegistry(types))

	defs, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{"pair.constr[0].finder", "pair.constr[1].finder", "pair"}, ids(defs))

	args, err := container.Get[container.Args](newContainer(t, cfg), "pair")
	require.NoError(t, err)
	require.Len(t, args.Positional, 2)
	assert.Equal(t, "first", args.Positional[0].(*ColonMovieFinder).Filename)
	assert.Equal(t, "second", args.Positional[1].(*ColonMovieFinder).Filename)
}

func TestYAMLConfig_NullNamedArgInheritsParentValue(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"app.yaml": {Data: []byte(`
objects:
  - object: base
    class: named
    abstract: true
    constructor-args: {x: fromparent}
  - object: child
    parent: base
    constructor-args: {x: ~}
`)}}
	types := container.NewTypeRegistry()
	types.MustRegister("named", func(args container.Args) (any, error) {
		x, _ := args.Lookup("x")
		return x, nil
	})
	cfg := config.NewYAMLConfig([]string{"app.yaml"}, config.WithFS(fsys), config.WithTypeRegistry(types))

	defs, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.NotContains(t, find(t, defs, "child").NamedConstr, "x")

	x, err := newContainer(t, cfg).GetObject("child")
	require.NoError(t, err)
	assert.Equal(t, "fromparent", x)
}

func TestYAMLConfig_UntypedObjectWarnsOnce(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	logger, err := logging.New(&buf, "warn", "json")
	require.NoError(t, err)
	fsys := fstest.MapFS{"app.yaml": {Data: []byte("objects:\n  - object: w\n")}}

	defs, err := config.NewYAMLConfig([]string{"app.yaml"}, config.WithFS(fsys), config.WithLogger(logger)).ReadObjectDefs()
	require.NoError(t, err)
	require.Len(t, defs, 1)
	assert.Nil(t, defs[0].Factory)
	assert.Equal(t, 1, strings.Count(buf.String(), `"level":"WARN"`), buf.String())
}

func TestYAMLConfig_Errors(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{
		"mixed.yaml":  {Data: []byte("objects:\n  - object: a\n    class: x\n    int: 3\n")},
		"args.yaml":   {Data: []byte("objects:\n  - object: a\n    class: x\n    constructor-args: 3\n")},
		"list.yaml":   {Data: []byte("objects: {a: b}\n")},
		"lazy.yaml":   {Data: []byte("objects:\n  - object: a\n    class: x\n    lazy-init: sometimes\n")},
		"broken.yaml": {Data: []byte("objects: [\n")},
	}
	for _, name := range []string{"mixed.yaml", "args.yaml", "list.yaml", "lazy.yaml", "broken.yaml"} {
		_, err := config.NewYAMLConfig([]string{name}, config.WithFS(fsys), config.WithLogger(logging.Discard())).ReadObjectDefs()
		require.Error(t, err, name)
		assert.Contains(t, err.Error(), "reading "+name)
	}

	fsys["empty.yaml"] = &fstest.MapFile{Data: []byte("")}
	defs, err := config.NewYAMLConfig([]string{"empty.yaml"}, config.WithFS(fsys)).ReadObjectDefs()
	require.NoError(t, err)
	assert.Empty(t, defs)
}

// ── CodeConfig ────────────────────────────────────────────────────────────────

func TestCodeConfig(t *testing.T) {
	t.Parallel()
	cfg := config.NewCodeConfig().
		Register("MovieFinder", func(container.Resolver) (any, error) {
			return &ColonMovieFinder{Filename: "code.txt"}, nil
		}).
		Register("MovieLister", func(r container.Resolver) (any, error) {
			finder, err := container.Get[MovieFinder](r, "MovieFinder")
			if err != nil {
				return nil, err
			}
			return &MovieLister{Finder: finder}, nil
		}, config.LazyInit(), config.WithProperty("description", "from code")).
		Register("Prototype", func(container.Resolver) (any, error) { return &MovieLister{}, nil },
			config.WithScope(container.Prototype), config.WithDestroyMethod("Close")).
		RegisterValue("answer", 42)

	assert.True(t, cfg.Has("answer"))
	c := newContainer(t, cfg)

	l := lister(t, c, "MovieLister")
	assert.Equal(t, []string{"code.txt"}, l.Finder.FindAll())
	assert.Equal(t, "from code", l.Description)

	a, b := lister(t, c, "Prototype"), lister(t, c, "Prototype")
	assert.NotSame(t, a, b)

	answer, err := container.Get[int](c, "answer")
	require.NoError(t, err)
	assert.Equal(t, 42, answer)
}

func TestCodeConfig_ChildInheritsFactory(t *testing.T) {
	t.Parallel()
	cfg := config.NewCodeConfig().
		Register("base", func(container.Resolver) (any, error) { return &MovieLister{}, nil },
			config.Abstract(), config.WithProperty("count", 5)).
		Register("child", nil, config.WithParent("base"), config.WithProperty("description", "child"))

	c := newContainer(t, cfg)
	l := lister(t, c, "child")
	assert.Equal(t, 5, l.Count)
	assert.Equal(t, "child", l.Description)
}

func TestCodeConfig_CollectsErrors(t *testing.T) {
	t.Parallel()
	noop := func(container.Resolver) (any, error) { return nil, nil }
	cfg := config.NewCodeConfig().
		Register("a", noop).
		Register("a", noop).
		Register("", noop).
		Register("b", nil)

	_, err := cfg.ReadObjectDefs()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `object "a" registered twice`)
	assert.Contains(t, err.Error(), "empty id")
	require.ErrorIs(t, err, container.ErrNoFactory)

	_, err = container.New([]container.Config{cfg})
	require.Error(t, err)
}

func TestCodeConfig_ReturnsCopies(t *testing.T) {
	t.Parallel()
	cfg := config.NewCodeConfig().RegisterValue("a", 1)
	defs, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	defs[0].Props = append(defs[0].Props, container.NewLiteral("x", 1))

	again, err := cfg.ReadObjectDefs()
	require.NoError(t, err)
	assert.Empty(t, again[0].Props)
}

// ── Open ──────────────────────────────────────────────────────────────────────

func TestOpen_PicksReaderByContent(t *testing.T) {
	t.Parallel()
	configs, err := config.Open([]string{
		"testdata/movies.xml",
		"testdata/beans.xml",
		" testdata/components.xml ",
		"testdata/movies.yaml",
		"",
	}, config.WithTypeRegistry(newTypes(t)))
	require.NoError(t, err)
	require.Len(t, configs, 4)

	assert.IsType(t, &config.XMLConfig{}, configs[0])
	assert.IsType(t, &config.XMLConfig{}, configs[1])
	assert.IsType(t, &config.LegacyXMLConfig{}, configs[2])
	assert.IsType(t, &config.YAMLConfig{}, configs[3])
	assert.Equal(t, []string{"testdata/components.xml"}, configs[2].(*config.LegacyXMLConfig).Paths())

	defs, err := configs[1].ReadObjectDefs()
	require.NoError(t, err)
	assert.Equal(t, []string{"MovieFinder", "MovieLister"}, ids(defs))
}

func TestOpen_Errors(t *testing.T) {
	t.Parallel()
	fsys := fstest.MapFS{"odd.xml": {Data: []byte(`<config/>`)}}

	_, err := config.Open([]string{"testdata/notes.txt"})
	require.ErrorContains(t, err, "unsupported file type")

	_, err = config.Open([]string{"odd.xml"}, config.WithFS(fsys))
	require.ErrorContains(t, err, "unknown root element <config>")

	_, err = config.Open([]string{"testdata/absent.xml"})
	require.Error(t, err)
}
