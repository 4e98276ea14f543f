// Package dom models the host page a widget is embedded into.
//
// The tree is golang.org/x/net/html. On top of it the package adds the
// pieces of a browser the widget runtime relies on: element queries,
// open isolation roots (serialized as declarative shadow DOM), child-list
// mutation observers, click-style event listeners and a Window whose single
// loop goroutine owns every DOM access, plus interval timers that post back
// onto that loop.
package dom
