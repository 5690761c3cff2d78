// Package plcache memoizes functions that return tabular datasets onto
// disk.
//
// Each wrapped call is canonicalized into a deterministic cache key. On a
// hit the stored columnar blob is returned — eagerly materialized or as a
// lazy plan, per policy — without invoking the function; on a miss the
// function runs once, its result is persisted atomically, registered in a
// metadata store with a byte budget, and mirrored into a human-browsable
// symlink tree:
//
//	<cache_dir>/metadata/                  metadata store files
//	<cache_dir>/blobs/<key>.<ext>          content-addressed results
//	<cache_dir>/functions/<module>/<function>/<arg0=...>/data.<ext>
//
// # Quick Start
//
//	c, err := plcache.New[*memframe.Frame, *memframe.Plan](memframe.Engine{},
//	    plcache.WithCacheDir("./cache"),
//	    plcache.WithSizeLimit("500MB"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	buildTable := c.Wrap(plcache.Ident{Module: "etl", Function: "buildTable"},
//	    func(args plcache.Args) (table.Dataset[*memframe.Frame, *memframe.Plan], error) {
//	        // expensive work here
//	        return table.Eager[*memframe.Frame, *memframe.Plan](frame), nil
//	    })
//
//	ds, err := buildTable(plcache.Positional(plcache.Int(5)))
//
// The second identical call returns the persisted result without running
// the function body. The readable tree under functions/ is derived,
// rebuildable state: browsing aid only, never consulted for lookups.
package plcache
