// Package comicinfo reads the best-effort ComicInfo.xml sidecar metadata
// some archive sources carry, trimmed down to the fields SeriesMeta needs.
package comicinfo

import (
	"encoding/xml"
	"io"

	"github.com/localcomicreader/readerd/pkg/coretypes"
	"github.com/localcomicreader/readerd/pkg/fileutils"
)

// comicInfo mirrors the subset of the ComicInfo.xml schema this reader
// cares about. Unrecognized elements are ignored by encoding/xml.
type comicInfo struct {
	XMLName   xml.Name `xml:"ComicInfo"`
	Title     string   `xml:"Title"`
	Series    string   `xml:"Series"`
	Number    string   `xml:"Number"`
	Writer    string   `xml:"Writer"`
	Penciller string   `xml:"Penciller"`
	Inker     string   `xml:"Inker"`
	Colorist  string   `xml:"Colorist"`
	Letterer  string   `xml:"Letterer"`
	Publisher string   `xml:"Publisher"`
}

// Parse reads a ComicInfo.xml document and maps it onto SeriesMeta. It
// never hard-fails on malformed input beyond what encoding/xml itself
// rejects; a present-but-empty field is simply omitted from the result.
func Parse(r io.Reader) (coretypes.SeriesMeta, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return coretypes.SeriesMeta{}, err
	}

	var info comicInfo
	if err := xml.Unmarshal(data, &info); err != nil {
		return coretypes.SeriesMeta{}, err
	}

	meta := coretypes.SeriesMeta{
		Title:     info.Title,
		Series:    info.Series,
		Number:    info.Number,
		Publisher: info.Publisher,
	}
	meta.Creators = collectCreators(info)
	return meta, nil
}

// collectCreators flattens the role-specific creator fields into a
// single deduplicated list, preserving first-seen order.
func collectCreators(info comicInfo) []string {
	seen := make(map[string]bool)
	var creators []string

	for _, field := range []string{info.Writer, info.Penciller, info.Inker, info.Colorist, info.Letterer} {
		for _, name := range fileutils.SplitNames(field) {
			if !seen[name] {
				seen[name] = true
				creators = append(creators, name)
			}
		}
	}
	return creators
}
