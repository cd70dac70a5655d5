// Package areas implements the area repository: the blocking operations the
// explore controller composes to load a web map, list its preplanned offline
// areas, and download or delete those areas in the local cache.
//
// # Operations
//
// FetchMap loads the configured map summary and its thumbnail. FetchAreas
// lists the map's offline areas, tags each one Downloaded when its package
// path exists at call time, then fetches every thumbnail concurrently and
// returns once all of them have settled. DownloadArea runs one package job to
// completion and reports success as a bool. DeleteArea removes an area's
// package from the cache.
//
// # Failures
//
// Thumbnail failures are absorbed: the area keeps a nil thumbnail. Each
// thumbnail fetch is bounded by the configured timeout; a zero timeout leaves
// it bounded only by the caller's context. Download failures are logged and
// reported as false. Delete failures are logged and returned.
package areas
