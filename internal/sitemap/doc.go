// Package sitemap reads the page locations listed in an XML sitemap.
//
// Only <url><loc> entries of a urlset are returned. The namespace is
// ignored, so both the sitemaps.org schema and unqualified documents work.
package sitemap
