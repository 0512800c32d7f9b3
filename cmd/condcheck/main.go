// Command condcheck compiles and evaluates conditions outside the host
// application.
//
//	condcheck check definitions/*.yaml
//	condcheck members Site
//	condcheck eval --var Subject=Site --seed 7 '(Subject.Health + Subject.Fear) / 2'
//	echo '{"text":"Subject.Health > 0","variables":{"Subject":"Site"}}' | condcheck pipe
//
// Settings are read from condcheck.yaml in the working directory and from
// CONDCHECK_* environment variables; flags take precedence.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
