//go:build !release

package runtime

// debugAssertions gates CheckForMemoryLeak, mirroring the original static
// runtime gating its analogous check behind NDEBUG: a debug build pays for
// the invariant walk, a release build (`-tags release`) does not.
const debugAssertions = true
