package introspect

import (
	"errors"
	"fmt"
	"time"
)

type testClass01 struct{}

func (c *testClass01) TypeTest(self *testClass01, list []string, fn func(), flag bool, ratio float64, count int, name string, value any, rest ...int) {
}

func (c *testClass01) DefaultTest(count int, ratio float64, name string, flag bool) {}

func (c *testClass01) NoArgs() {}

func (c *testClass01) Greet(name string) string { return "hello " + name }

type testClass02 struct {
	Test *testClass01 `inject:"test"`
	Foo  string       `inject:"foo" default:"empty"`
	Bar  int          `inject:"bar" default:"12"`
	Skip string       `inject:"-"`
}

type testLogger struct {
	Prefix string   `inject:"prefix" default:"app"`
	Levels []string `inject:"levels" default:"[info, warn]"`
}

type testLevel int

type testTuning struct {
	Ratios []float64       `inject:"ratios" default:"[0.5, 1]"`
	Flags  map[string]bool `inject:"flags" default:"{a: true}"`
	Since  time.Time       `inject:"since" default:"2024-01-02T03:04:05Z"`
	Limit  *int            `inject:"limit" default:"7"`
	Level  testLevel       `inject:"level" default:"2"`
}

type testService struct {
	logger  *testLogger
	addr    string
	timeout time.Duration
}

func newTestService(logger *testLogger, addr string, timeout time.Duration) (*testService, error) {
	if addr == "" {
		return nil, errors.New("empty address")
	}
	return &testService{logger: logger, addr: addr, timeout: timeout}, nil
}

type testStore interface {
	Load(key string) (string, error)
}

type testParams struct {
	In
	Name    string `inject:"name"`
	Retries int    `inject:"retries" default:"3"`
}

func testWithParams(p testParams) string {
	return fmt.Sprintf("%s/%d", p.Name, p.Retries)
}

func testSum(base int, rest ...int) int {
	for _, r := range rest {
		base += r
	}
	return base
}

type testInvoker struct{ greeting string }

func (i testInvoker) Invoke(name string) string { return i.greeting + " " + name }

func newTestCatalog() *Catalog {
	cat := NewCatalog()
	cat.MustRegister(&testClass01{},
		WithMethod("TypeTest", "self", "list", "fn", "flag", "ratio", "count", "name", "value", "rest"),
		WithMethod("DefaultTest", "count", "ratio", "name", "flag"),
		WithMethodDefaults("DefaultTest", map[string]any{"count": 1, "ratio": 10.2, "name": "string", "flag": false}),
		WithMethod("Greet", "name"),
	)
	cat.MustRegister(&testClass02{})
	cat.MustRegister(&testService{},
		WithConstructor(newTestService, "logger", "addr", "timeout"),
		WithDefaults(map[string]any{"timeout": 5 * time.Second}),
	)
	cat.MustRegister((*testStore)(nil))
	return cat
}
