// Package ws implements the WebSocket hub for clinicstats-server.
//
// Every connection is one dashboard session with its own filter and a uuid
// session id. On connect the hub sends the session id and the default view
// (all clinics, full year span). The client changes its selection by sending
// a filter:
//
//	{"clinics": ["Clinic 1"], "from": 1841, "to": 1849}
//
// and receives the recomputed view:
//
//	{"event": "view", "data": { /* same schema as GET /api/v1/view */ }}
//
// An invalid filter yields {"event": "error", "error": "..."} and the previous
// filter stays active. Hub.Run(ctx) checks the store on every tick and pushes
// new views to sessions when the dataset has been reloaded or the default
// threshold has changed. Slow clients are disconnected.
//
// The upgrader accepts all origins. Apply CORS restrictions at the reverse
// proxy level. The endpoint is mounted at /ws/stream by the server.
package ws
