// Package exporttemplate renders the HTML book report with pongo2.
//
// The report layout is fixed (ReportTemplate) and compiled once. Entries are
// buffered before the template runs, unbounded unless Renderer.MaxEntries or
// RenderOptions.Template.MaxEntries sets a cap, and exposed to the template as
// snake_case maps under "entries". Entry fields are not HTML escaped.
//
// PDF output is produced by adapters/pdf, which renders this report and hands
// the HTML to a headless engine.
package exporttemplate
