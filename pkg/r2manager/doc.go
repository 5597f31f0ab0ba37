// Package r2manager provides the core services of the R2 Manager console:
// user accounts, linked Cloudflare R2 storage accounts with encrypted
// credentials, bucket and object browsing, single-shot and multipart
// uploads, and time-limited public upload links.
//
// The package is storage- and persistence-agnostic. Implementations of the
// Repository interface live under repo/ (memory, postgres) and
// implementations of the ObjectStore interface under storage/ (s3, memory).
// HTTP handlers are provided by the api subpackage and a client-side
// chunked upload driver by the uploader subpackage.
package r2manager
