// NDIS Gate - Request Authorization for Care Provider Platforms
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ndisgate

/*
Package supervisor runs the gate's long-lived components under suture v4.

	RootSupervisor ("ndisgate")
	├── BackgroundSupervisor ("background-layer")
	│   └── CacheGCService (when IDENTITY_CACHE=badger)
	└── APISupervisor ("api-layer")
	    └── HTTPServerService

The layers restart independently: a crashing GC loop never takes the HTTP
listener down with it. Supervisor events are logged through zerolog via the
sutureslog handler.

The audit sink is not a supervised service. It is closed by the caller once
the tree has stopped, so events from requests drained during HTTP shutdown
still reach the store.
*/
package supervisor
