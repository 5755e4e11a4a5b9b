// Command scorectl scores referral fixtures offline.
//
//	go run ./cmd/scorectl score --fixture testdata/bundle.json --no-semantic
//	go run ./cmd/scorectl rank --fixture testdata/job.json
package main

import "os"

func main() {
	if err := Execute(); err != nil {
		os.Exit(1)
	}
}
