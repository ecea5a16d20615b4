// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package backup takes scheduled snapshots of the BadgerDB store and prunes
old ones by a retention policy.

Each snapshot is a gzip-compressed Badger backup stream written next to a
SHA-256 checksum file:

	/data/backups/
	├── newsrec-20260510T090000Z.bak.gz
	└── newsrec-20260510T090000Z.bak.gz.sha256

Files are written under a temporary name and renamed once complete, so a
crash never leaves a partial snapshot that List would report.

# Retention

Prune applies three rules in order:

 1. The newest MinCount snapshots are always kept.
 2. Snapshots older than MaxAge are deleted.
 3. If more than MaxCount remain, the oldest are deleted.

A zero MaxAge or MaxCount disables that rule.

# Restore

Restore verifies the checksum and streams the snapshot into a Loader.
Badger can only load into a database that holds no conflicting keys, so
restores target a fresh store.
*/
package backup
