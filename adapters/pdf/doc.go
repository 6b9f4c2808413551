// Package exportpdf renders the book report as PDF.
//
// Renderer produces the report HTML (the book report by default) and converts
// it with a pluggable engine: headless Chromium via chromedp, or wkhtmltopdf.
// Rendering is gated by Renderer.Enabled.
package exportpdf
