// Package space stores pages and attachments in a directory tree.
//
// Names are slash-separated paths relative to the space root, such as
// "notes/a.md" or "notes/pic.png". Pages are files ending in ".md"; a page's
// name omits the extension. The store keeps an in-memory index of every
// file, refreshed by Reindex and kept current by Write and Delete.
package space
