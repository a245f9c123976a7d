package static

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/youpower/greenbutton/internal/browser"
	"github.com/youpower/greenbutton/internal/selector"
)

// blankPage is served for URLs that have no page.
const blankPage = "<html><head></head><body></body></html>"

// pngSignature is returned by Screenshot.
var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

// errNoElement is returned when a locator matches nothing.
var errNoElement = errors.New("no element matches")

// Driver is a browser.Driver over in-memory pages.
type Driver struct {
	mu          sync.Mutex
	pages       map[string]string
	downloadDir string

	url  string
	doc  *html.Node
	seen []string

	inputs  map[string]string
	clicks  []string
	scrolls int
	closes  int
}

var _ browser.Driver = (*Driver)(nil)

// New creates a Driver serving pages, starting on a blank page.
func New(pages map[string]string, downloadDir string) *Driver {
	d := &Driver{
		pages:       pages,
		downloadDir: downloadDir,
		inputs:      make(map[string]string),
	}
	d.doc, _ = htmlquery.Parse(strings.NewReader(blankPage))
	d.url = "about:blank"
	return d
}

// Navigate loads the page for rawURL, or a blank page if there is none.
func (d *Driver) Navigate(ctx context.Context, rawURL string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closes > 0 {
		return browser.ErrSessionClosed
	}
	return d.load(rawURL)
}

func (d *Driver) load(rawURL string) error {
	src, ok := d.pages[rawURL]
	if !ok {
		src = blankPage
	}
	doc, err := htmlquery.Parse(strings.NewReader(src))
	if err != nil {
		return fmt.Errorf("failed to parse page %s: %w", rawURL, err)
	}
	d.url = rawURL
	d.doc = doc
	d.seen = append(d.seen, rawURL)
	return nil
}

// CurrentURL returns the URL of the loaded page.
func (d *Driver) CurrentURL(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.url, nil
}

// WaitFor reports immediately whether loc matches an element that
// satisfies cond.
func (d *Driver) WaitFor(ctx context.Context, loc selector.Locator, cond selector.Condition) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.find(loc)
	if err != nil {
		return err
	}
	if cond == selector.Clickable && !clickable(n) {
		return fmt.Errorf("%s is not clickable", loc)
	}
	return nil
}

// Click clicks the first element matching loc.
func (d *Driver) Click(ctx context.Context, loc selector.Locator) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.find(loc)
	if err != nil {
		return err
	}
	if !clickable(n) {
		return fmt.Errorf("%s is not clickable", loc)
	}
	d.clicks = append(d.clicks, loc.String())

	if name := attr(n, "data-download"); name != "" {
		if err := d.writeDownload(name, attr(n, "data-content")); err != nil {
			return err
		}
	}

	if n.Data == "input" {
		switch strings.ToLower(attr(n, "type")) {
		case "radio", "checkbox":
			setAttr(n, "checked", "checked")
			d.inputs[key(n)] = attr(n, "value")
			return nil
		}
	}

	if target := d.clickTarget(n); target != "" {
		return d.load(d.resolve(target))
	}
	return nil
}

// clickTarget returns the URL a click on n navigates to, if any.
func (d *Driver) clickTarget(n *html.Node) string {
	if href := attr(n, "data-href"); href != "" {
		return href
	}
	for p := n; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Data == "a" {
			if href := attr(p, "href"); href != "" {
				return href
			}
		}
	}
	if isSubmit(n) {
		for p := n.Parent; p != nil; p = p.Parent {
			if p.Type == html.ElementNode && p.Data == "form" {
				return attr(p, "action")
			}
		}
	}
	return ""
}

func (d *Driver) resolve(ref string) string {
	base, err := url.Parse(d.url)
	if err != nil {
		return ref
	}
	u, err := base.Parse(ref)
	if err != nil {
		return ref
	}
	return u.String()
}

func (d *Driver) writeDownload(name, content string) error {
	if content == "" {
		content = "<feed xmlns=\"http://www.w3.org/2005/Atom\"></feed>\n"
	}
	path := filepath.Join(d.downloadDir, filepath.Base(name))
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write download %s: %w", path, err)
	}
	return nil
}

// Type replaces the value of the first element matching loc.
func (d *Driver) Type(ctx context.Context, loc selector.Locator, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	n, err := d.find(loc)
	if err != nil {
		return err
	}
	if n.Data != "input" && n.Data != "textarea" {
		return fmt.Errorf("%s is a <%s>, not a text field", loc, n.Data)
	}
	setAttr(n, "value", text)
	d.inputs[key(n)] = text
	return nil
}

// ScrollToBottom counts the scroll.
func (d *Driver) ScrollToBottom(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	d.mu.Lock()
	d.scrolls++
	d.mu.Unlock()
	return nil
}

// WaitLoad returns immediately; pages load synchronously.
func (d *Driver) WaitLoad(ctx context.Context) error {
	return ctx.Err()
}

// Screenshot returns a PNG signature.
func (d *Driver) Screenshot(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]byte(nil), pngSignature...), nil
}

// DownloadDir returns the download directory.
func (d *Driver) DownloadDir() string {
	return d.downloadDir
}

// Close counts the call. Navigate fails once the driver is closed.
func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return nil
}

// Closes returns how many times Close was called.
func (d *Driver) Closes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// Input returns the value typed or selected into the element whose id
// (or, without an id, name) is k.
func (d *Driver) Input(k string) (string, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	v, ok := d.inputs[k]
	return v, ok
}

// Clicks returns the locators clicked, in order.
func (d *Driver) Clicks() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.clicks...)
}

// Visited returns every URL loaded, in order.
func (d *Driver) Visited() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.seen...)
}

// Scrolls returns how many times the page was scrolled.
func (d *Driver) Scrolls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.scrolls
}

// find returns the first element matching loc in the current document.
func (d *Driver) find(loc selector.Locator) (*html.Node, error) {
	if err := loc.Validate(); err != nil {
		return nil, err
	}

	var n *html.Node
	switch loc.By {
	case selector.ByXPath:
		found, err := htmlquery.Query(d.doc, loc.Value)
		if err != nil {
			return nil, fmt.Errorf("invalid xpath %q: %w", loc.Value, err)
		}
		n = found
	default:
		sel := goquery.NewDocumentFromNode(d.doc).Find(css(loc)).First()
		if sel.Length() > 0 {
			n = sel.Get(0)
		}
	}

	if n == nil {
		return nil, fmt.Errorf("%w: %s", errNoElement, loc)
	}
	return n, nil
}

func css(loc selector.Locator) string {
	switch loc.By {
	case selector.ByID:
		return fmt.Sprintf(`[id=%q]`, loc.Value)
	case selector.ByName:
		return fmt.Sprintf(`[name=%q]`, loc.Value)
	default:
		return loc.Value
	}
}

func clickable(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p.Type != html.ElementNode {
			continue
		}
		if hasAttr(p, "hidden") {
			return false
		}
	}
	return !hasAttr(n, "disabled")
}

func isSubmit(n *html.Node) bool {
	switch n.Data {
	case "button":
		t := strings.ToLower(attr(n, "type"))
		return t == "" || t == "submit"
	case "input":
		return strings.ToLower(attr(n, "type")) == "submit"
	}
	return false
}

func key(n *html.Node) string {
	if id := attr(n, "id"); id != "" {
		return id
	}
	return attr(n, "name")
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if a.Key == name {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, name, val string) {
	for i, a := range n.Attr {
		if a.Key == name {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: name, Val: val})
}
