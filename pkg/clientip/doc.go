// Package clientip extracts the client IP address from an HTTP request.
//
// Headers are checked in this order, and the first valid address wins:
//  1. CF-Connecting-IP (Cloudflare)
//  2. DO-Connecting-IP (DigitalOcean)
//  3. X-Forwarded-For (leftmost entry)
//  4. X-Real-IP
//  5. RemoteAddr
//
// Addresses are parsed and normalized. Unparseable values and the
// unspecified address are skipped. When nothing valid is found the raw
// RemoteAddr is returned, so GetIP never returns an error.
//
//	ip := clientip.GetIP(r)
//
// Headers are trusted as sent. Deploy behind a proxy that overwrites them.
package clientip
