// Package scripts bundles the Risor reports shipped with zopescan.
package scripts

import (
	"embed"
	"io/fs"
	"path"
	"sort"
	"strings"
)

//go:embed reports/*.risor
var embedded embed.FS

// Reports is the bundled report scripts, one "<name>.risor" per report.
var Reports fs.FS = mustSub(embedded, "reports")

// Names lists the bundled reports, sorted.
func Names() []string {
	entries, err := fs.ReadDir(Reports, ".")
	if err != nil {
		return nil
	}
	var names []string
	for _, e := range entries {
		if !e.IsDir() && path.Ext(e.Name()) == ".risor" {
			names = append(names, strings.TrimSuffix(e.Name(), ".risor"))
		}
	}
	sort.Strings(names)
	return names
}

func mustSub(fsys fs.FS, dir string) fs.FS {
	sub, err := fs.Sub(fsys, dir)
	if err != nil {
		panic(err)
	}
	return sub
}
