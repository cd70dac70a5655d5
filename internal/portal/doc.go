// Package portal provides an HTTP client for a map portal's sharing REST API.
//
// # Overview
//
// Explore shows a single published web map and its preplanned offline areas.
// This package is the only place that talks to the portal. Everything else in
// the application sees the portal through the DataSource interface.
//
// # Files
//
//   - client.go: Client, DataSource and request handling
//   - types.go: Item and Area descriptors mirroring the portal JSON
//   - job.go: Job, the background download of one area package
//
// # Endpoints
//
// Paths are resolved against the configured portal URL, which may carry a
// path prefix (for example https://host/portal/):
//
//   - GET sharing/rest/content/items/{mapID}?f=json: web map summary
//   - GET sharing/rest/content/items/{mapID}/relatedItems?relationshipType=Map2Area&direction=forward&f=json:
//     preplanned areas, in portal order
//   - GET sharing/rest/content/items/{id}/info/{thumbnail}: raw thumbnail bytes
//   - GET sharing/rest/content/items/{areaID}/data: gzip-compressed tar package
//
// Portals report some failures as HTTP 200 with an {"error":{...}} body; those
// are returned as errors just like HTTP status codes of 400 and above.
//
// # Download Jobs
//
// DownloadArea returns a Job without doing any I/O. Start launches it once:
//
//	job := client.DownloadArea(area, store)
//	job.Start(ctx)
//	status, err := job.Wait(ctx)
//	if status != portal.JobSucceeded {
//		log.Printf("download failed: %v", job.Err())
//	}
//
// The package body is streamed to a temporary file and then passed to the
// Materializer, which owns the on-disk layout. Package requests have no
// client-side timeout; they are bound only by the job's context. Metadata and
// thumbnail requests use the configured request timeout.
//
// Thumbnails are returned as bytes. Decoding them is left to callers.
package portal
