package tool

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

type namedTool struct {
	meta Metadata
}

func (n *namedTool) Meta() Metadata { return n.meta }

func (n *namedTool) Execute(_ context.Context, _ Params) Result {
	return Success(n.meta.Name)
}

func ctorFor(meta Metadata) Constructor {
	return func(_ Config) (Tool, error) {
		return &namedTool{meta: meta}, nil
	}
}

func TestRegistry_GetUnknownFailsFast(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	reg.Register("web_discovery", ctorFor(Metadata{Name: "web_discovery"}))

	_, err := reg.Get("nope", Config{})
	if err == nil {
		t.Fatal("expected error for unknown tool")
	}
	if !strings.Contains(err.Error(), "web_discovery") {
		t.Errorf("expected available tools in error, got %q", err.Error())
	}
}

func TestRegistry_LastRegistrationWins(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	reg.Register("executor", ctorFor(Metadata{Name: "executor", Version: "1.0.0"}))
	reg.Register("executor", ctorFor(Metadata{Name: "executor", Version: "2.0.0"}))

	got, err := reg.Get("executor", Config{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Meta().Version != "2.0.0" {
		t.Errorf("expected last registration to win, got version %q", got.Meta().Version)
	}
}

func TestRegistry_ListFiltersByTag(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	reg.Register("a", ctorFor(Metadata{Name: "a", Tags: []string{"discovery"}}))
	reg.Register("b", ctorFor(Metadata{Name: "b", Tags: []string{"execution"}}))
	reg.Register("c", ctorFor(Metadata{Name: "c", Tags: []string{"execution", "parsing"}}))

	all := reg.List()
	if len(all) != 3 {
		t.Fatalf("expected 3 tools, got %d", len(all))
	}

	exec := reg.List("execution")
	if len(exec) != 2 {
		t.Fatalf("expected 2 execution tools, got %d", len(exec))
	}
	// Names() is sorted, so List output is deterministic.
	if exec[0].Name != "b" || exec[1].Name != "c" {
		t.Errorf("unexpected listing order: %q, %q", exec[0].Name, exec[1].Name)
	}
}

func TestRegistry_ListSkipsUnconstructible(t *testing.T) {
	reg := NewRegistry(zerolog.Nop())
	reg.Register("ok", ctorFor(Metadata{Name: "ok"}))
	reg.Register("strict", func(cfg Config) (Tool, error) {
		if cfg.String("required") == "" {
			return nil, strictErr{}
		}
		return &namedTool{meta: Metadata{Name: "strict"}}, nil
	})

	metas := reg.List()
	if len(metas) != 1 || metas[0].Name != "ok" {
		t.Fatalf("expected only constructible tools listed, got %v", metas)
	}
}

type strictErr struct{}

func (strictErr) Error() string { return "required config missing" }
