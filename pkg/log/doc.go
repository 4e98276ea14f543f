// Package log is a small named-logger layer over the standard library logger.
//
// Each component asks for its own logger and writes leveled lines with a
// grep-friendly service marker:
//
//	l := log.ForService("bootstrap")
//	l.Infof("mounted %d widgets", n)
//	l.Warnf("widget %s: %v", id, err)
//	l.Debugf("api base %s", base) // only when debug is on
//
// Debug output can be enabled for everything with SetGlobalDebug or for a
// single service with EnableDebugFor. SetOutput swaps the destination of
// every logger, which tests use to capture output in a bytes.Buffer.
//
// The package name collides with the standard library "log"; alias one of
// them when both are needed in the same file.
//
// All exported functions are safe for concurrent use.
package log
