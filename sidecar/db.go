// Package sidecar implements component H, the persistence sidecar: an
// optional, opaque type-observation database that orchestrators may consult
// as a hint (never authoritative — spec.md §3) when resolving a dynamically
// typed receiver's class. SaveToProject serializes it to the project's
// metadata folder and LoadFromProject reads it back.
package sidecar

// A ScopeKey identifies one scope within a module (a function or the module
// body itself) that observations are recorded against.
type ScopeKey string

// ScopeInfo accumulates what the engine has observed about a scope: which
// concrete values a name has held, and which callables have been seen
// invoked through it. Both maps are opaque hints; an orchestrator is never
// required to act differently because of them, but may use them to narrow an
// otherwise-ambiguous resolution (e.g., "self.logger" looks like a Logger
// because every observed assignment and call site agrees).
type ScopeInfo struct {
	ObservedValues map[string][]string // name -> observed literal/class-name values
	CallInfo       map[string][]string // name -> observed callee signatures
}

func newScopeInfo() *ScopeInfo {
	return &ScopeInfo{ObservedValues: map[string][]string{}, CallInfo: map[string][]string{}}
}

// DB is the in-memory type-observation database: module path -> scope key ->
// ScopeInfo.
type DB struct {
	modules map[string]map[ScopeKey]*ScopeInfo
	dirty   bool
}

// NewDB returns an empty database.
func NewDB() *DB {
	return &DB{modules: map[string]map[ScopeKey]*ScopeInfo{}}
}

// Observe records that name held value within the given module/scope,
// appending to that name's observed-values history.
func (db *DB) Observe(module string, scope ScopeKey, name, value string) {
	info := db.scopeInfo(module, scope)
	info.ObservedValues[name] = append(info.ObservedValues[name], value)
	db.dirty = true
}

// ObserveCall records that name was seen called with the given signature
// description within the given module/scope.
func (db *DB) ObserveCall(module string, scope ScopeKey, name, signature string) {
	info := db.scopeInfo(module, scope)
	info.CallInfo[name] = append(info.CallInfo[name], signature)
	db.dirty = true
}

// Lookup returns the recorded ScopeInfo for module/scope, or nil if nothing
// has been observed there.
func (db *DB) Lookup(module string, scope ScopeKey) *ScopeInfo {
	scopes, ok := db.modules[module]
	if !ok {
		return nil
	}
	return scopes[scope]
}

// Dirty reports whether any observation has been recorded since the last
// successful SaveToProject.
func (db *DB) Dirty() bool { return db.dirty }

func (db *DB) scopeInfo(module string, scope ScopeKey) *ScopeInfo {
	scopes, ok := db.modules[module]
	if !ok {
		scopes = map[ScopeKey]*ScopeInfo{}
		db.modules[module] = scopes
	}
	info, ok := scopes[scope]
	if !ok {
		info = newScopeInfo()
		scopes[scope] = info
	}
	return info
}

// Forget discards every observation and clears the dirty flag. (On a version
// mismatch, LoadFromProject returns a fresh DB from NewDB instead.)
func (db *DB) Forget() {
	db.modules = map[string]map[ScopeKey]*ScopeInfo{}
	db.dirty = false
}
