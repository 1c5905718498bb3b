// Package testutils provides helpers shared by the test suites: discard and
// capturing loggers, and generated PDF résumés.
//
//	log := testutils.DiscardLogger()
//	pdf := testutils.ResumePDF("Ada Lovelace", "Senior Go Engineer")
package testutils
