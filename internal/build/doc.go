// Package build provides the canonical build execution pipeline for sitegen.
// All execution paths (build, watch, daemon, tests) route through Service.
//
// A build moves through a fixed set of states:
//
//	idle -> cleaning -> populating -> done
//	  \________\____________\-------> failed
//
// Populating runs the named stages in order; per-post problems are recorded
// as skips while build-level problems abort with a classified error.
package build
