// Package redis builds go-redis clients shared by the Redis-backed artifact
// store and transaction journal.
package redis
