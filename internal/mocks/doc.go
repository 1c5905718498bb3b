// Package mocks provides centralized mock implementations for testing.
//
// Every mock follows the same shape: a function field per interface method
// that, when set, takes over the call, and a default behavior used when it is
// nil. Mocks record their calls and are safe for concurrent use, since the
// pipeline handlers fan work out across goroutines.
//
// Usage:
//
//	gen := &mocks.MockGenerator{
//	    Replies: []string{`{"search_term": "go developer"}`},
//	}
//	users := mocks.NewMockUserStore()
//
// When adding a new mock to this package:
//  1. Create a new file named after the interface being mocked
//  2. Implement the mock struct with function fields for each interface method
//  3. Keep the default behavior close to what the real implementation does
package mocks
