// Package pdb covers reading structures and getting them from a
// pdb website.
// The main point of the download is to visit the web page and return
// a reader that can be used like the file readers.
package pdb

import (
	"errors"
	"io"
	"net/http"

	"github.com/andrew-torda/afprep/pdb/zwrap"
)

// Mirror is one download site. A file is at Base + code + Suffix.
type Mirror struct {
	Base    string
	Suffix  string
	Gzipped bool
}

// Mirrors are the sites we know. Tests replace them.
var Mirrors = []Mirror{
	{"https://files.rcsb.org/download/", ".cif.gz", true},
	{"https://www.ebi.ac.uk/pdbe/entry-files/download/", ".cif", false},
	{"https://pdbj.org/rest/newweb/fetch/file?cat=pdb&type=mmcif&id=", "", false},
}

// getHTTP is given a four letter pdb code. It goes to the protein data
// bank and should return a reader.
// You can pick which site you want with siteNum. If you give a value
// that is too big, we use a modulo to wrap it around, rather than
// generate an error. This makes it easier to cycle through them.
// If it is a gzipping site, we call zwrap to decompress and return that
// as the reader.
func getHTTP(acqCode string, siteNum int) (io.ReadCloser, error) {
	if len(acqCode) != 4 {
		return nil, errors.New("acq code should be four char, not " + acqCode)
	}
	if len(Mirrors) == 0 {
		return nil, errors.New("no download sites")
	}
	if siteNum < 0 {
		siteNum = -siteNum
	}
	m := Mirrors[siteNum%len(Mirrors)]
	url := m.Base + acqCode + m.Suffix

	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.New("Wanted " + acqCode + " using " + url + ", got " + resp.Status)
	}
	if m.Gzipped {
		r, err := zwrap.Wrap(resp.Body)
		if err != nil {
			resp.Body.Close()
			return nil, err
		}
		return r, nil
	}
	return resp.Body, nil
}
