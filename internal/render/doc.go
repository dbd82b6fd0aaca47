// Package render dispatches widget renders and tracks tile states.
//
// Every tile moves through loading, then success or error. Inline renderers
// (pure layout of resolved properties) settle during Dispatch and are never
// observed loading. Asynchronous renderers run on their own goroutine with a
// context that is cancelled when the tile is re-dispatched or released.
//
// Stale results:
//   - Each dispatch gets a dispatcher-wide generation number
//   - A render result is applied only if its generation is still current
//   - Dispatching unchanged properties (same fingerprint) is a no-op
//
// Timeouts are optional (Options.Timeout); a render that exceeds one settles
// as an error wrapping ErrRenderTimeout.
//
// Example Usage:
//
//	d := render.NewDispatcher(render.Options{Logger: logger, Timeout: 15 * time.Second})
//	defer d.Close()
//
//	key := render.Key{Dashboard: "home", Tile: "prayer"}
//	d.Dispatch(key, inst)          // loading
//	state, err := d.Wait(ctx, key) // success or error
package render
