// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

// Package logging provides the process-wide zerolog logger for Newsrec.
//
// # Overview
//
// The package provides:
//   - a global logger configured once from main via Init
//   - JSON output for production and console output for development
//   - request and correlation ids carried through context.Context
//   - an slog adapter for libraries that only speak log/slog (suture,
//     watermill)
//
// # Quick Start
//
//	if err := logging.Init(logging.Config{Level: "info", Format: "json"}); err != nil {
//	    return err
//	}
//
//	logging.Info().Str("addr", addr).Msg("API listening")
//	logging.Ctx(ctx).Warn().Err(err).Int64("user_id", id).Msg("Reaction rejected")
//
// Components receive a zerolog.Logger and tag it with a component field:
//
//	logger := logging.Component("scheduler")
//
// # Configuration
//
// Level is one of trace, debug, info, warn, error or disabled. Format is
// json or console. Both are loaded by the config package (LOG_LEVEL,
// LOG_FORMAT).
//
// # Testing
//
// Tests pass zerolog.Nop() to components, or NewTestLogger(&buf) when the
// output itself is asserted.
package logging
