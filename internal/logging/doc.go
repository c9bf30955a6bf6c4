// Package logging sets up structured logging for bibsearch.
//
// With --debug (or logging.file set) JSON logs are written to a size-rotated
// file under ~/.bibsearch/logs/. Otherwise only warnings reach stderr.
package logging
