//go:build release

package runtime

const debugAssertions = false
