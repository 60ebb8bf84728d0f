package rest

const (
	// api
	RouteApi = "/api"

	RouteUpload = RouteApi + "/upload"
	RouteFiles  = RouteApi + "/files"
	RouteEvents = RouteApi + "/events"
	RouteIP     = RouteApi + "/ip"

	// blobs
	RouteUploads = "/uploads/:identifier"

	// ops
	RouteHealth  = RouteApi + "/healthz"
	RouteMetrics = RouteApi + "/metrics"
)
