package thermo

import (
	"sync"

	"github.com/goliatone/go-thermo/eos"
	"github.com/goliatone/go-thermo/eos/iapws"
	"github.com/goliatone/go-thermo/eos/idealgas"
)

var defaultBackend = sync.OnceValue(func() eos.Backend {
	mux := eos.NewMux()
	mux.Handle(iapws.New(), string(Water))
	mux.Handle(idealgas.New(), string(Air), string(Nitrogen), string(Oxygen), string(CarbonDioxide))
	return mux
})

// DefaultBackend routes water to the IAPWS-IF97 backend and air, nitrogen,
// oxygen and carbon dioxide to the ideal-gas backend. Other substances are
// recognised but fail with eos.ErrUnsupportedSubstance.
func DefaultBackend() eos.Backend {
	return defaultBackend()
}
