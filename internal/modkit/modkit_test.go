package modkit

import (
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	phttp "churnops/internal/platform/net/http"
	"churnops/internal/platform/store"

	"github.com/go-chi/chi/v5"
)

type stubModule struct{ path string }

func (s stubModule) MountRoutes(r phttp.Router) {
	r.Get(s.path, func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) })
}
func (s stubModule) Ports() any   { return nil }
func (s stubModule) Name() string { return "stub" }

func TestMountAll(t *testing.T) {
	mux := chi.NewRouter()
	MountAll(phttp.AdaptChi(mux), stubModule{"/a"}, nil, stubModule{"/b"})
	for _, p := range []string{"/a", "/b"} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, p, nil))
		if rec.Code != http.StatusNoContent {
			t.Fatalf("%s status = %d", p, rec.Code)
		}
	}
}

func TestBuildDefaultsAndOverrides(t *testing.T) {
	def := Built{Name: "registry", Prefix: "/models"}

	b := Build(def)
	if b.Name != "registry" || b.Prefix != "/models" || b.Ports != nil {
		t.Fatalf("defaults = %+v", b)
	}

	mwA := func(next http.Handler) http.Handler { return next }
	src := []func(http.Handler) http.Handler{mwA}
	type ports struct{ N int }

	b = Build(def, WithName("x"), WithPrefix("/y"), WithMiddlewares(src...), WithPorts(ports{N: 7}))
	if b.Name != "x" || b.Prefix != "/y" || len(b.Mw) != 1 {
		t.Fatalf("overrides = %+v", b)
	}
	src[0] = nil
	if reflect.ValueOf(b.Mw[0]).Pointer() != reflect.ValueOf(mwA).Pointer() {
		t.Fatal("middleware slice aliased to caller")
	}
	if p, ok := PortsAs[ports](b); !ok || p.N != 7 {
		t.Fatalf("ports = %+v, %v", p, ok)
	}
	if _, ok := PortsAs[string](b); ok {
		t.Fatal("wrong port type should not match")
	}
}

func TestDepsFromStore(t *testing.T) {
	var d Deps
	if got := d.FromStore(nil); got.SQL != nil {
		t.Fatal("nil store should leave deps empty")
	}
	s := &store.Store{}
	if got := d.FromStore(s); got.SQL != nil || got.CH != nil || got.Cache != nil {
		t.Fatalf("empty store deps = %+v", got)
	}
}
