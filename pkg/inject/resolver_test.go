package inject

import (
	"bytes"
	"context"
	stderrors "errors"
	"maps"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/autowire/pkg/cache"
	"github.com/matzehuels/autowire/pkg/errors"
	"github.com/matzehuels/autowire/pkg/introspect"
	"github.com/matzehuels/autowire/pkg/observability"
)

func TestResolveDefaults(t *testing.T) {
	r := newTestResolver()

	v, err := r.Resolve(context.Background(), testClass02ID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	obj, ok := v.(*testClass02)
	if !ok {
		t.Fatalf("Resolve returned %T, want *testClass02", v)
	}
	if obj.Test == nil {
		t.Error("test should be a freshly constructed testClass01")
	}
	if obj.Foo != "empty" || obj.Bar != 12 {
		t.Errorf("foo = %q, bar = %d; want empty, 12", obj.Foo, obj.Bar)
	}
}

func TestResolveLiteralOverrides(t *testing.T) {
	r := newTestResolver()

	v, err := r.Resolve(context.Background(), testClass02ID, Overrides{"foo": "x", "bar": 23})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	obj := v.(*testClass02)
	if obj.Foo != "x" || obj.Bar != 23 {
		t.Errorf("foo = %q, bar = %d; want x, 23", obj.Foo, obj.Bar)
	}

	v, err = r.Resolve(context.Background(), testClass02ID, Overrides{"foo": "not empty"})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*testClass02).Foo; got != "not empty" {
		t.Errorf("literal override should be used verbatim, got %q", got)
	}
}

func TestResolveNilOverrideIsIgnored(t *testing.T) {
	r := newTestResolver()
	v, err := r.Resolve(context.Background(), testClass02ID, Overrides{"foo": nil})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*testClass02).Foo; got != "empty" {
		t.Errorf("nil override should fall back to the default, got %q", got)
	}
}

func TestResolveLiteralConversion(t *testing.T) {
	r := newTestResolver()

	v, err := r.Resolve(context.Background(), testClass02ID, Overrides{"bar": 23.0})
	if err != nil {
		t.Fatalf("numeric literal should convert: %v", err)
	}
	if got := v.(*testClass02).Bar; got != 23 {
		t.Errorf("bar = %d, want 23", got)
	}

	_, err = r.Resolve(context.Background(), testClass02ID, Overrides{"bar": "many"})
	var invErr *errors.InvocationError
	if !stderrors.As(err, &invErr) {
		t.Errorf("incompatible literal should surface as InvocationError, got %v", err)
	}
}

func TestResolveFreshInstances(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	a, _ := r.Resolve(ctx, testClass01ID, nil)
	b, _ := r.Resolve(ctx, testClass01ID, nil)
	if a.(*testClass01) == b.(*testClass01) {
		t.Error("unshared types should be constructed on every resolve")
	}
}

func TestResolveSiblingsOfSameType(t *testing.T) {
	r := newTestResolver()

	v, err := r.Resolve(context.Background(), pairID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	p := v.(*pair)
	if p.Left == nil || p.Right == nil || p.Left == p.Right {
		t.Errorf("siblings should be distinct instances: %+v", p)
	}
}

func TestShare(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	first := &testClass01{n: 1}
	r.Share(first)
	for range 3 {
		v, err := r.Resolve(ctx, testClass01ID, nil)
		if err != nil {
			t.Fatal(err)
		}
		if v != any(first) {
			t.Fatal("shared instance should be returned on every resolve")
		}
	}

	second := &testClass01{n: 2}
	r.Share(second)
	if v, _ := r.Resolve(ctx, testClass01ID, nil); v != any(second) {
		t.Error("sharing again should replace the instance")
	}

	// Dependencies receive the shared instance too.
	v, _ := r.Resolve(ctx, testClass02ID, nil)
	if v.(*testClass02).Test != second {
		t.Error("dependency should be the shared instance")
	}
}

func TestShareWithAlias(t *testing.T) {
	r := newTestResolver()
	g := &englishGreeter{Name: "alias"}
	r.Share(g, greeterID)

	v, err := r.Resolve(context.Background(), greeterUserID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if v.(*greeterUser).Greeter != greeter(g) {
		t.Error("alias should resolve to the shared instance")
	}
}

func TestShareBypassesCycleDetection(t *testing.T) {
	r := newTestResolver()
	inst := &selfRef{}
	r.Share(inst)

	v, err := r.Resolve(context.Background(), selfRefID, nil)
	if err != nil {
		t.Fatalf("shared instance should short-circuit construction: %v", err)
	}
	if v != any(inst) {
		t.Error("expected the shared instance")
	}
}

func TestResolverSharesItself(t *testing.T) {
	r := newTestResolver()

	v, err := r.Resolve(context.Background(), ResolverID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v != any(r) {
		t.Error("resolver should resolve to itself")
	}

	v, err = r.Resolve(context.Background(), resolverUserID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if v.(*resolverUser).Resolver != r {
		t.Error("dependents should receive the resolver itself")
	}
}

func TestResolversDoNotShareRegistries(t *testing.T) {
	a := newTestResolver()
	b := newTestResolver()
	a.Share(&testClass01{n: 1})

	v, _ := b.Resolve(context.Background(), testClass01ID, nil)
	if v.(*testClass01).n == 1 {
		t.Error("shared instances must be scoped to one resolver")
	}
}

func TestAlias(t *testing.T) {
	r := newTestResolver()
	r.Alias(greeterID, englishGreeterID)

	v, err := r.Resolve(context.Background(), greeterID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := v.(*englishGreeter); !ok {
		t.Errorf("alias should construct the target type, got %T", v)
	}

	v, err = r.Resolve(context.Background(), greeterUserID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*greeterUser).Greeter.Greet(); got != "hello world" {
		t.Errorf("Greet() = %q", got)
	}
}

func TestAliasIsSingleHop(t *testing.T) {
	r := newTestResolver()
	r.Alias(greeterID, englishGreeterID)
	r.Alias(englishGreeterID, frenchGreeterID)

	v, err := r.Resolve(context.Background(), greeterID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := v.(*englishGreeter); !ok {
		t.Errorf("aliases should not be followed transitively, got %T", v)
	}

	v, _ = r.Resolve(context.Background(), englishGreeterID, nil)
	if _, ok := v.(*frenchGreeter); !ok {
		t.Errorf("second alias should apply on its own, got %T", v)
	}
}

func TestUnresolvedInterfaceIsLookupError(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), greeterUserID, nil)
	var lookupErr *errors.LookupError
	if !stderrors.As(err, &lookupErr) {
		t.Fatalf("want LookupError, got %v", err)
	}
	if lookupErr.TypeID != greeterID {
		t.Errorf("TypeID = %s", lookupErr.TypeID)
	}
}

func TestResolveUnknownType(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), "missing.Type", nil)
	if !errors.Is(err, errors.ErrCodeLookupFailed) {
		t.Errorf("want LOOKUP_FAILED, got %v", err)
	}
}

func TestCircularDependency(t *testing.T) {
	tests := []struct {
		name      string
		typeID    string
		wantStack []string
	}{
		{"self reference", selfRefID, []string{selfRefID}},
		{"two types", cycleAID, []string{cycleAID, cycleBID}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver()
			_, err := r.Resolve(context.Background(), tt.typeID, nil)

			var cycleErr *errors.CircularDependencyError
			if !stderrors.As(err, &cycleErr) {
				t.Fatalf("want CircularDependencyError, got %v", err)
			}
			if cycleErr.TypeID != tt.typeID {
				t.Errorf("TypeID = %s, want %s", cycleErr.TypeID, tt.typeID)
			}
			if got := cycleErr.Stack(); !slices.Equal(got, tt.wantStack) {
				t.Errorf("Stack() = %v, want %v", got, tt.wantStack)
			}
		})
	}
}

func TestCycleStateResetsBetweenCalls(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	if _, err := r.Resolve(ctx, selfRefID, nil); err == nil {
		t.Fatal("expected cycle")
	}
	// The failed call leaves selfRef marked; a new call starts clean.
	if _, err := r.Resolve(ctx, testClass02ID, nil); err != nil {
		t.Fatalf("new call should not inherit in-progress markers: %v", err)
	}
}

func TestDeepGraphReceivesOverrides(t *testing.T) {
	r := newTestResolver()
	var seen Overrides
	r.Delegate(chainZID, Fn(func(typeID string, overrides Overrides) *chainZ {
		seen = overrides
		return &chainZ{Name: typeID}
	}, DelegateTypeID, DelegateOverrides))

	given := Overrides{"name": "n"}
	v, err := r.Resolve(context.Background(), chainXID, given)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	x := v.(*chainX)
	if x.Name != "n" || x.Y.Name != "n" {
		t.Errorf("overrides should cascade: x=%q y=%q", x.Name, x.Y.Name)
	}
	if x.Y.Z.Name != chainZID {
		t.Errorf("delegate should receive the type id, got %q", x.Y.Z.Name)
	}
	if !maps.Equal(seen, given) {
		t.Errorf("delegate saw overrides %v, want %v", seen, given)
	}
}

func TestConfigure(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name      string
		configure Overrides
		call      Overrides
		wantFoo   string
	}{
		{"configured default", Overrides{"foo": "configured"}, nil, "configured"},
		{"call overrides plain", Overrides{"foo": "configured"}, Overrides{"foo": "call"}, "call"},
		{"unrelated call key", Overrides{"foo": "configured"}, Overrides{"bar": 1}, "configured"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver().Configure(testClass02ID, tt.configure)
			v, err := r.Resolve(ctx, testClass02ID, tt.call)
			if err != nil {
				t.Fatal(err)
			}
			if got := v.(*testClass02).Foo; got != tt.wantFoo {
				t.Errorf("foo = %q, want %q", got, tt.wantFoo)
			}
		})
	}
}

func TestConfigureReference(t *testing.T) {
	ctx := context.Background()
	french := &frenchGreeter{n: 7}

	tests := []struct {
		name string
		call Overrides
		want string
	}{
		{"configured reference", nil, "hello world"},
		{"call reference wins", Overrides{":greeter": frenchGreeterID}, "bonjour"},
		{"call literal wins over configured reference", Overrides{"greeter": french}, "bonjour"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newTestResolver().Configure(greeterUserID, Overrides{":greeter": englishGreeterID})
			v, err := r.Resolve(ctx, greeterUserID, tt.call)
			if err != nil {
				t.Fatal(err)
			}
			if got := v.(*greeterUser).Greeter.Greet(); got != tt.want {
				t.Errorf("Greet() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestConfigureDoesNotMutateCallOverrides(t *testing.T) {
	r := newTestResolver().Configure(testClass02ID, Overrides{"foo": "configured"})
	call := Overrides{"bar": 1}
	if _, err := r.Resolve(context.Background(), testClass02ID, call); err != nil {
		t.Fatal(err)
	}
	if _, ok := call["foo"]; ok {
		t.Error("configured values must not leak into the caller's map")
	}
}

func TestReferenceOverride(t *testing.T) {
	r := newTestResolver()
	ctx := context.Background()

	v, err := r.Resolve(ctx, greeterUserID, Overrides{":greeter": frenchGreeterID})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if _, ok := v.(*greeterUser).Greeter.(*frenchGreeter); !ok {
		t.Errorf("reference should resolve the named type, got %T", v.(*greeterUser).Greeter)
	}

	v, err = r.Resolve(ctx, greeterUserID, Overrides{":greeter": func() greeter { return &frenchGreeter{n: 9} }})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if g, ok := v.(*greeterUser).Greeter.(*frenchGreeter); !ok || g.n != 9 {
		t.Errorf("callable reference should be invoked, got %#v", v.(*greeterUser).Greeter)
	}
}

func TestReferenceOverrideIsNeverLiteral(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), testClass02ID, Overrides{":foo": "not empty"})
	if !errors.Is(err, errors.ErrCodeLookupFailed) {
		t.Errorf("\":foo\" should be resolved as a type id, got %v", err)
	}

	_, err = r.Resolve(context.Background(), testClass02ID, Overrides{":foo": 42})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("non-string, non-callable reference should be rejected, got %v", err)
	}
}

func TestMissingArgument(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), needsPortID, nil)

	var missing *errors.MissingArgumentError
	if !stderrors.As(err, &missing) {
		t.Fatalf("want MissingArgumentError, got %v", err)
	}
	want := errors.MissingArgumentError{TypeID: needsPortID, Method: introspect.Constructor, Param: "port", DeclaredType: "int"}
	if *missing != want {
		t.Errorf("got %+v, want %+v", *missing, want)
	}
	if !strings.Contains(err.Error(), `argument "port" of type "int" was not provided`) {
		t.Errorf("message = %s", err)
	}

	if _, err := r.Resolve(context.Background(), needsPortID, Overrides{"port": 80}); err != nil {
		t.Errorf("override should satisfy the argument: %v", err)
	}
}

func TestDelegate(t *testing.T) {
	r := newTestResolver()
	calls := 0
	r.Delegate(greeterID, Fn(func(typeID string, r *Resolver) (greeter, error) {
		calls++
		g, err := r.Resolve(context.Background(), frenchGreeterID, nil)
		if err != nil {
			return nil, err
		}
		return g.(greeter), nil
	}, DelegateTypeID, "resolver"))

	v, err := r.Resolve(context.Background(), greeterUserID, nil)
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := v.(*greeterUser).Greeter.Greet(); got != "bonjour" {
		t.Errorf("Greet() = %q", got)
	}
	if calls != 1 {
		t.Errorf("delegate calls = %d, want 1", calls)
	}
}

func TestDelegateIsNotCycleGuarded(t *testing.T) {
	r := newTestResolver()
	r.Delegate(selfRefID, func() *selfRef { return &selfRef{} })

	if _, err := r.Resolve(context.Background(), selfRefID, nil); err != nil {
		t.Fatalf("delegate should replace construction: %v", err)
	}
}

func TestDelegateError(t *testing.T) {
	r := newTestResolver()
	errBroken := stderrors.New("broken factory")
	r.Delegate(greeterID, func() (greeter, error) { return nil, errBroken })

	_, err := r.Resolve(context.Background(), greeterUserID, nil)
	if !stderrors.Is(err, errBroken) {
		t.Errorf("delegate error should propagate, got %v", err)
	}
}

func TestContextParameter(t *testing.T) {
	r := newTestResolver()
	ctx := context.WithValue(context.Background(), ctxKey{}, "value")

	v, err := r.Resolve(ctx, ctxUserID, nil)
	if err != nil {
		t.Fatal(err)
	}
	if got := v.(*ctxUser).ctx.Value(ctxKey{}); got != "value" {
		t.Errorf("context parameter should receive the call's context, got %v", got)
	}
}

func TestGet(t *testing.T) {
	r := newTestResolver()

	obj, err := Get[*testClass02](context.Background(), r, Overrides{"bar": 5})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if obj.Bar != 5 {
		t.Errorf("bar = %d", obj.Bar)
	}

	r.Alias(greeterID, englishGreeterID)
	g, err := Get[greeter](context.Background(), r, nil)
	if err != nil {
		t.Fatalf("Get[greeter]: %v", err)
	}
	if g.Greet() != "hello world" {
		t.Errorf("Greet() = %q", g.Greet())
	}
}

func TestInvalidOverrideKey(t *testing.T) {
	r := newTestResolver()
	_, err := r.Resolve(context.Background(), testClass02ID, Overrides{"::foo": 1})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("want INVALID_INPUT, got %v", err)
	}
}

func TestResolveWithCachedReflector(t *testing.T) {
	pool := introspect.NewMemoryPool()
	in := introspect.NewCachedReflector(introspect.NewReflector(newTestCatalog()), pool)
	r := New(in)
	ctx := context.Background()

	for range 2 {
		v, err := r.Resolve(ctx, testClass02ID, Overrides{"bar": 1})
		if err != nil {
			t.Fatal(err)
		}
		if v.(*testClass02).Bar != 1 {
			t.Error("unexpected bar")
		}
	}
	if pool.Len() != 2 {
		t.Errorf("pool should hold testClass02 and testClass01, has %d", pool.Len())
	}
}

func TestResolveThroughPersistedCache(t *testing.T) {
	tests := []struct {
		name  string
		id    string
		alias string
		check func(t *testing.T, v any)
	}{
		{"field defaults", testClass02ID, "", func(t *testing.T, v any) {
			got := v.(*testClass02)
			if got.Test == nil || got.Foo != "empty" || got.Bar != 12 {
				t.Errorf("got %+v", got)
			}
		}},
		{"slice map time and pointer defaults", tuningID, "", func(t *testing.T, v any) {
			got := v.(*tuning)
			if !slices.Equal(got.Ratios, []float64{0.5, 1}) {
				t.Errorf("Ratios = %v", got.Ratios)
			}
			if !maps.Equal(got.Flags, map[string]bool{"a": true}) {
				t.Errorf("Flags = %v", got.Flags)
			}
			if !got.Since.Equal(windowStart) {
				t.Errorf("Since = %v", got.Since)
			}
			if got.Limit == nil || *got.Limit != 7 {
				t.Errorf("Limit = %v", got.Limit)
			}
		}},
		{"constructor defaults", windowID, "", func(t *testing.T, v any) {
			got := v.(*window)
			if !got.start.Equal(windowStart) {
				t.Errorf("start = %v", got.start)
			}
			if !maps.Equal(got.weights, map[string]float64{"cpu": 0.75}) {
				t.Errorf("weights = %v", got.weights)
			}
		}},
		{"unregistered dependency", rootServiceID, "", func(t *testing.T, v any) {
			if got := v.(*rootService); got.Leaf == nil || got.Leaf.Name != "leaf" {
				t.Errorf("Leaf = %+v", got.Leaf)
			}
		}},
		{"unregistered chain", chainXID, "", func(t *testing.T, v any) {
			if got := v.(*chainX); got.Y == nil || got.Y.Z == nil {
				t.Errorf("chain not wired: %+v", got)
			}
		}},
		{"alias", greeterID, englishGreeterID, func(t *testing.T, v any) {
			if got := v.(greeter).Greet(); got != "hello world" {
				t.Errorf("Greet() = %q", got)
			}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			pool := introspect.NewCachePool(cache.NewMemoryCache(), nil)

			for run := range 2 {
				in := introspect.NewCachedReflector(introspect.NewReflector(newTestCatalog()), pool)
				r := New(in)
				if tt.alias != "" {
					r.Alias(tt.id, tt.alias)
				}
				v, err := r.Resolve(ctx, tt.id, nil)
				if err != nil {
					t.Fatalf("run %d: Resolve(%s) = %v", run, tt.id, err)
				}
				tt.check(t, v)

				stored := tt.id
				if tt.alias != "" {
					stored = tt.alias
				}
				if item, _ := pool.GetItem(ctx, stored); !item.IsHit() {
					t.Fatalf("run %d: %s not persisted", run, stored)
				}
			}
		})
	}
}

func TestResolverLogging(t *testing.T) {
	var buf bytes.Buffer
	logger := log.NewWithOptions(&buf, log.Options{Level: log.DebugLevel})
	r := New(introspect.NewReflector(newTestCatalog()), WithLogger(logger))
	r.Alias(greeterID, englishGreeterID)

	if _, err := r.Resolve(context.Background(), greeterID, nil); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"typeId=", "alias=", "call="} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q:\n%s", want, out)
		}
	}
}

type edge struct{ parent, child, via string }

type recordingResolverHooks struct {
	observability.NoopResolverHooks
	mu      sync.Mutex
	starts  []string
	ends    []error
	edges   []edge
	callIDs []string
}

func (h *recordingResolverHooks) OnResolveStart(_ context.Context, callID, target string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.starts = append(h.starts, target)
	h.callIDs = append(h.callIDs, callID)
}

func (h *recordingResolverHooks) OnResolveComplete(_ context.Context, _, _ string, _ time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ends = append(h.ends, err)
}

func (h *recordingResolverHooks) OnConstruct(_ context.Context, parent, child, via string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.edges = append(h.edges, edge{parent, child, via})
}

func TestResolverHooks(t *testing.T) {
	hooks := &recordingResolverHooks{}
	observability.SetResolverHooks(hooks)
	t.Cleanup(observability.Reset)

	r := newTestResolver()
	shared := &testClass01{}
	r.Share(shared)
	if _, err := r.Resolve(context.Background(), testClass02ID, nil); err != nil {
		t.Fatal(err)
	}

	if !slices.Equal(hooks.starts, []string{testClass02ID}) || len(hooks.ends) != 1 || hooks.ends[0] != nil {
		t.Errorf("starts %v, ends %v", hooks.starts, hooks.ends)
	}
	if hooks.callIDs[0] == "" {
		t.Error("call id should be set")
	}
	want := []edge{
		{testClass02ID, testClass01ID, observability.ViaShared},
		{"", testClass02ID, observability.ViaNew},
	}
	if !slices.Equal(hooks.edges, want) {
		t.Errorf("edges = %v, want %v", hooks.edges, want)
	}
}
