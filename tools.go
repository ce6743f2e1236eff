//go:build tools

// Developer tool dependencies, pinned so `go build ./...` never needs
// them but `go tool benchstat` always resolves to the version this
// module was benchmarked against.
//
// Use benchstat to compare testing.B runs taken on either side of the
// 8-stripe -> 16-stripe growth boundary, e.g.:
//
//	go test ./internal/engine -bench BenchmarkCore_Accumulate -count 10 > old.txt
//	go test ./internal/engine -bench BenchmarkCore_Accumulate -count 10 > new.txt
//	go tool benchstat old.txt new.txt
package striped64

import _ "golang.org/x/perf/cmd/benchstat"
