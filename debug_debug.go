//go:build debug

package pagealloc

// debugAssert panics with err when cond is false. Only compiled into
// -tags debug builds; production builds use the no-op in debug.go.
func debugAssert(cond bool, err error) {
	if !cond {
		panic(err)
	}
}
