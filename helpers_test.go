package thermo

import (
	"context"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/goliatone/go-thermo/eos/eostest"
	"github.com/goliatone/go-thermo/quantity"
	"github.com/goliatone/go-thermo/registry"
)

type fixtureInput struct {
	Symbol    string  `json:"symbol"`
	Magnitude float64 `json:"magnitude"`
	Unit      string  `json:"unit"`
}

func (in fixtureInput) option(t *testing.T) Option {
	t.Helper()
	q, err := quantity.New(in.Magnitude, in.Unit)
	if err != nil {
		t.Fatalf("fixture quantity %v %q: %v", in.Magnitude, in.Unit, err)
	}
	return With(registry.Symbol(in.Symbol), q)
}

// stubState builds an ideal-gas-like state at T kelvin and 1 atm against a
// stub backend and private settings.
func stubState(t *testing.T, kelvin float64, opts ...Option) *State {
	t.Helper()
	base := []Option{
		With(registry.T, quantity.Must(kelvin, "K")),
		With(registry.P, quantity.Must(101325, "Pa")),
		WithBackend(&eostest.Backend{}),
		WithSettings(NewSettings()),
	}
	st, err := New(context.Background(), Air, append(base, opts...)...)
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return st
}

func closeTo(a, b, rel float64) bool {
	return math.Abs(a-b) <= rel*math.Max(math.Abs(a), math.Abs(b))
}

func loadFixture[T any](t *testing.T, name string) T {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join("testdata", name))
	if err != nil {
		t.Fatalf("failed to read fixture %q: %v", name, err)
	}
	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("failed to unmarshal fixture %q: %v", name, err)
	}
	return out
}
