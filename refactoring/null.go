// This file defines the Null refactoring, kept close to refactoring/null.go
// (a no-op refactoring used as a template and smoke test).
package refactoring

// A Null refactoring validates its selection like any other refactoring but
// emits no changes. Useful as a template for new orchestrators and as a
// smoke test of Base's Validate step in isolation.
type Null struct {
	Base
}

func (r *Null) Description() *Description {
	return &Description{Name: "Null"}
}

func (r *Null) Run(config *Config) *Result {
	r.Base.Run(config)
	return &r.Result
}
