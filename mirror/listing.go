package mirror

import (
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Link is a file entry found in a directory listing.
type Link struct {
	// Href is the attribute value as written in the page.
	Href string
	// URL is Href resolved against the listing's URL.
	URL string
	// Name is the final path segment, used as the object name.
	Name string
}

// skipHref reports whether href is a link the mirror never follows: empty
// links, the current and parent directory, sort/query links, in-page
// fragments, and subdirectories.
func skipHref(href string) bool {
	switch {
	case href == "", href == ".", href == "..", href == "../":
		return true
	case strings.HasPrefix(href, "?"), strings.HasPrefix(href, "#"):
		return true
	case strings.HasSuffix(href, "/"):
		return true
	}
	return false
}

// ParseListing extracts the file links from an HTML directory listing.
func ParseListing(base *url.URL, r io.Reader) ([]Link, error) {
	var links []Link
	z := html.NewTokenizer(r)
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() == io.EOF {
				return links, nil
			}
			return nil, errors.Wrap(z.Err(), "tokenizing listing")
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			if tok.DataAtom != atom.A {
				continue
			}
			for _, attr := range tok.Attr {
				if attr.Key != "href" {
					continue
				}
				href := strings.TrimSpace(attr.Val)
				if skipHref(href) {
					continue
				}
				u, err := base.Parse(href)
				if err != nil {
					continue
				}
				// Whatever the href looked like, a link that lands on a
				// directory or on the listing itself is not a file.
				if strings.HasSuffix(u.Path, "/") || path.Clean(u.Path) == path.Clean(base.Path) {
					continue
				}
				name := path.Base(u.Path)
				if name == "." || name == "/" || name == "" {
					continue
				}
				links = append(links, Link{Href: href, URL: u.String(), Name: name})
			}
		}
	}
}
