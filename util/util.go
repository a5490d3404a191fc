// Package util holds small generic helpers shared by the engine packages.
package util

import (
	"cmp"
	"fmt"
	"os"
	"runtime/debug"
	"slices"
)

// AssertsPanic makes a failed assertion panic instead of exiting. Tests set it
// to observe invariant violations.
var AssertsPanic = false

func assertionFailed(msg string) {
	if AssertsPanic {
		panic(msg)
	}
	debug.PrintStack()
	fmt.Fprintln(os.Stderr, "Invariant violated:", msg)
	os.Exit(1)
}

// Assert checks an internal invariant. It is not for validating user input.
func Assert(cond bool, o ...interface{}) {
	if !cond {
		assertionFailed(fmt.Sprint(o...))
	}
}

func Assertf(cond bool, format string, o ...interface{}) {
	if !cond {
		assertionFailed(fmt.Sprintf(format, o...))
	}
}

// Tern is the conditional operator, cond ? a : b.
func Tern[T any](cond bool, a, b T) T {
	if cond {
		return a
	}
	return b
}

// SortedMapKeys returns the keys of m in ascending order.
func SortedMapKeys[K cmp.Ordered, V any](m map[K]V) []K {
	var keys []K
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
