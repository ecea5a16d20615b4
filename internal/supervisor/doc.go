// Newsrec - Personalized News Recommendation and Retrieval Engine
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/newsrec

/*
Package supervisor runs the service's long-lived components under a
suture v4 supervisor tree.

	newsrec (root)
	├── maintenance-layer
	│   ├── scheduler          (index rebuild, refresh-all, storage GC)
	│   └── refresh-consumer   (Watermill router for cache refreshes)
	└── api-layer
	    └── http-server

Failing services are restarted with backoff. Supervisor events are
logged through sutureslog on an slog logger bridged to zerolog.

# Usage

	tree, err := supervisor.NewSupervisorTree(logging.NewSlogLogger("supervisor"),
	    supervisor.DefaultTreeConfig())
	tree.AddMaintenanceService(schedulerSvc)
	tree.AddAPIService(services.NewHTTPServerService(srv, 10*time.Second))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err = tree.Serve(ctx)

Service wrappers live in the services subpackage.
*/
package supervisor
