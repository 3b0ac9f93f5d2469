// Package paths resolves links written inside notes against the space.
//
// All space paths are slash-separated and relative to the space root:
//
//	notes/a          page "notes/a", stored as notes/a.md
//	notes/pic.png    attachment next to it
//
// # Usage
//
//	import "github.com/GriffinCanCode/notebook/internal/shared/paths"
//
//	target := paths.Resolve("notes/a", "./pic.png") // "notes/pic.png"
//	ref := paths.ParseRef("folder/page#Intro")       // {Page: "folder/page", Header: "Intro"}
//	if paths.IsLocalPath(url) {
//	    url = paths.EncodeColons(url)
//	}
package paths
