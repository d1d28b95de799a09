// Package ingest runs a submitted workbook through the whole pipeline:
// pre-transformation checks, round-specific transformation, validation and,
// unless the caller asked for a dry run, a transactional load.
//
// # Pipeline
//
// Service.Ingest picks the Transformer for the requested round, runs its
// pre-transformation checks and transforms the workbook into canonical
// tables. The registry checks and the round's own rules then run over the
// whole set, and their failures are returned together. Only a set with no
// failures reaches the loader.
//
// # Loading
//
// A load is one transaction. The controller decides whether the programme
// is new, already reported for this round, or reported for another round,
// removes what the new submission replaces, and writes every table in
// registry order. Unique and foreign key violations mean another ingest got
// there first; the whole transaction is retried after a short delay. Any
// other database error ends the ingest.
//
// # Errors
//
// Failures come back in three shapes. *precheck.Error and *ValidationError
// are data problems the submitter can fix. *InternalError is everything
// else; its ID is logged with the cause and the original file is kept in the
// failed-files store under the same ID.
//
// # Stored files
//
// The original file of every loaded submission is kept in the files store,
// keyed by fund and submission ID. SubmissionFile returns it by submission
// code and Reingest loads it again under the submitter it was first
// recorded with.
package ingest
