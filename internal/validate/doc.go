// Package validate provides pure, side-effect-free integrity analysis
// of trace chains.
//
// Unlike the tracer, which swallows every fault to protect the
// instrumented application, the validator surfaces every structural
// problem it finds as data. Hard errors (broken links, orphaned nodes,
// timestamp inversions) make a chain invalid; soft warnings (backward
// layer flow) never affect validity.
package validate
