// Package cache defines the key/value store that sits in front of content
// providers. A Store keeps string values with an absolute expiration; reads
// return mo.Option so that an empty string stays distinguishable from a miss.
// Backends are a closed set chosen once at startup (redis, memory, file) and a
// single Store instance is shared by every request, so implementations must be
// safe for concurrent use. Transport failures surface as *Error and callers
// decide whether to degrade.
package cache
