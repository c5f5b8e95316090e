package inject

import (
	"context"
	"time"

	"github.com/matzehuels/autowire/pkg/introspect"
)

const pkgPrefix = "github.com/matzehuels/autowire/pkg/inject."

type testClass01 struct{ n int }

type testClass02 struct {
	Test *testClass01 `inject:"test"`
	Foo  string       `inject:"foo" default:"empty"`
	Bar  int          `inject:"bar" default:"12"`
}

type selfRef struct {
	Self *selfRef `inject:"self"`
}

type cycleA struct {
	B *cycleB `inject:"b"`
}

type cycleB struct {
	A *cycleA `inject:"a"`
}

type chainX struct {
	Y    *chainY `inject:"y"`
	Name string  `inject:"name,optional"`
}

type chainY struct {
	Z    *chainZ `inject:"z"`
	Name string  `inject:"name,optional"`
}

type chainZ struct {
	Name string `inject:"name,optional"`
}

type greeter interface {
	Greet() string
}

type englishGreeter struct {
	Name string `inject:"name" default:"world"`
}

func (g *englishGreeter) Greet() string { return "hello " + g.Name }

type frenchGreeter struct{ n int }

func (g *frenchGreeter) Greet() string { return "bonjour" }

type greeterUser struct {
	Greeter greeter `inject:"greeter"`
}

type needsPort struct {
	Port int `inject:"port"`
}

type pair struct {
	Left  *testClass01 `inject:"left"`
	Right *testClass01 `inject:"right"`
}

type resolverUser struct {
	Resolver *Resolver `inject:"resolver"`
}

type ctxUser struct {
	ctx context.Context
}

func newCtxUser(ctx context.Context) *ctxUser { return &ctxUser{ctx: ctx} }

type greetCommand struct {
	Greeter *englishGreeter `inject:"greeter"`
}

func (c *greetCommand) Invoke(name string) string {
	return c.Greeter.Greet() + " and " + name
}

type tuning struct {
	Ratios []float64       `inject:"ratios" default:"[0.5, 1]"`
	Flags  map[string]bool `inject:"flags" default:"{a: true}"`
	Since  time.Time       `inject:"since" default:"2024-01-02T03:04:05Z"`
	Limit  *int            `inject:"limit" default:"7"`
}

type window struct {
	start   time.Time
	weights map[string]float64
}

func newWindow(start time.Time, weights map[string]float64) *window {
	return &window{start: start, weights: weights}
}

var windowStart = time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)

type rootService struct {
	Leaf *leafService `inject:"leaf"`
}

type leafService struct {
	Name string `inject:"name" default:"leaf"`
}

type ctxKey struct{}

var (
	testClass01ID    = pkgPrefix + "testClass01"
	testClass02ID    = pkgPrefix + "testClass02"
	selfRefID        = pkgPrefix + "selfRef"
	cycleAID         = pkgPrefix + "cycleA"
	cycleBID         = pkgPrefix + "cycleB"
	chainXID         = pkgPrefix + "chainX"
	chainZID         = pkgPrefix + "chainZ"
	greeterID        = pkgPrefix + "greeter"
	englishGreeterID = pkgPrefix + "englishGreeter"
	frenchGreeterID  = pkgPrefix + "frenchGreeter"
	greeterUserID    = pkgPrefix + "greeterUser"
	needsPortID      = pkgPrefix + "needsPort"
	pairID           = pkgPrefix + "pair"
	resolverUserID   = pkgPrefix + "resolverUser"
	ctxUserID        = pkgPrefix + "ctxUser"
	greetCommandID   = pkgPrefix + "greetCommand"
	tuningID         = pkgPrefix + "tuning"
	windowID         = pkgPrefix + "window"
	rootServiceID    = pkgPrefix + "rootService"
)

func newTestCatalog() *introspect.Catalog {
	cat := introspect.NewCatalog()
	cat.MustRegister(&testClass01{})
	cat.MustRegister(&testClass02{})
	cat.MustRegister(&selfRef{})
	cat.MustRegister(&cycleA{})
	cat.MustRegister(&chainX{})
	cat.MustRegister((*greeter)(nil))
	cat.MustRegister(&englishGreeter{}, introspect.WithMethod("Greet"))
	cat.MustRegister(&frenchGreeter{})
	cat.MustRegister(&greeterUser{})
	cat.MustRegister(&needsPort{})
	cat.MustRegister(&pair{})
	cat.MustRegister(&resolverUser{})
	cat.MustRegister(&ctxUser{}, introspect.WithConstructor(newCtxUser, "ctx"))
	cat.MustRegister(&greetCommand{}, introspect.WithMethod(introspect.InvokeMethod, "name"))
	cat.MustRegister(&tuning{})
	cat.MustRegister(&window{},
		introspect.WithConstructor(newWindow, "start", "weights"),
		introspect.WithDefaults(map[string]any{"start": windowStart, "weights": map[string]float64{"cpu": 0.75}}),
	)
	cat.MustRegister(&rootService{})
	return cat
}

func newTestResolver() *Resolver {
	return New(introspect.NewReflector(newTestCatalog()))
}
