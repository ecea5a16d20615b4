// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package importer loads news dumps into the item corpus.

A dump is a JSON array of records:

	[
	  {
	    "title": "Parliament passes the budget bill",
	    "content": "Lawmakers approved ...",
	    "category": "politics",
	    "confidence": 0.93,
	    "link": "https://example.com/budget",
	    "published_at": "2026-05-10T09:00:00Z"
	  }
	]

The array is streamed, so dumps larger than memory can be loaded. Records
are read in batches. Each record is validated by the Mapper: unknown
categories, confidences outside [0,1] and records without any text are
skipped and logged, never fatal. Valid records are handed to an ItemSink,
normally recommend.Engine, which assigns sequential ids.

# Usage

	imp := importer.New(engine, importer.Config{BatchSize: 500})
	stats, err := imp.Import(ctx, file)

Stats reports processed, imported, skipped and failed counts. With
Config.DryRun set, records are validated but nothing is written.
*/
package importer
