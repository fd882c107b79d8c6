package domain

import "errors"

// Failure taxonomy. File- and rule-local failures never abort a batch;
// only ErrPolicyConflict is fatal, and only at startup.
var (
	// ErrParseFailure marks a file that could not be structurally parsed.
	// The engine degrades to text-only rules for that file.
	ErrParseFailure = errors.New("parse failure")

	// ErrRuleExecution marks a single rule fault. The rule's contribution
	// is dropped; the scan continues with the remaining rules.
	ErrRuleExecution = errors.New("rule execution failure")

	// ErrValidationFailed marks a rejected candidate fix. The on-disk
	// file is untouched.
	ErrValidationFailed = errors.New("validation failed")

	// ErrIOFailure marks a file that is missing, unreadable or
	// unwritable. The attempt is aborted; the batch continues.
	ErrIOFailure = errors.New("io failure")

	// ErrTestTimeout marks an external test run that exceeded its bound.
	// The outcome is inconclusive, not successful.
	ErrTestTimeout = errors.New("test run timed out")

	// ErrPolicyConflict marks a pattern appearing in more than one
	// exclusive safety list. Fatal at startup.
	ErrPolicyConflict = errors.New("safety policy conflict")
)
