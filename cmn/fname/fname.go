// Package fname contains filename constants and conventions shared by the
// journal, the FDB sink, and the CLI front-ends.
/*
 * Copyright (c) 2024, tweska/multio contributors.
 */
package fname

const (
	HomeConfigsDir = ".config"
	HomeMultio     = "multio"
)

const (
	// process config
	GlobalConfig   = ".multio.conf"
	OverrideConfig = ".multio.override_config"

	// journal: base name of the active (being-appended-to) file and the
	// glob pattern used by the recovery scan to find rotated files
	JournalActive     = "journal.active"
	JournalRotatedFmt = "journal.%06d" // journal.000001, journal.000002, ...
	JournalGlob       = "journal.*"

	// FDB sink embedded KV file
	FDBStore = "fdb.db"

	// CLI config
	CliConfig = "hammer-cli.json"
)
