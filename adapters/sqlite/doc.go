// Package exportsqlite reads and writes SQLite catalogs for go-bookshelf.
//
// Source selects the marked rows of a Bookpedia-style Listing table and hands
// them out as export entries in ascending inventoryId order:
//
//	src := exportsqlite.Source{Marker: "LIST"}
//	_ = runner.Sources.Register(export.DefaultSourceKey, exportsqlite.SourceFactory(src))
//
// Renderer copies the selected entries into a standalone SQLite snapshot. It is
// disabled by default; set Renderer.Enabled to true and register it explicitly:
//
//	renderer := exportsqlite.Renderer{Enabled: true}
//	_ = runner.Renderers.Register(export.FormatSQLite, renderer)
//
// The snapshot table name defaults to "books" and can be changed per request
// via RenderOptions.SQLite.TableName.
package exportsqlite
