package portal

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/youpower/greenbutton/internal/selector"
)

// Flow selects the login entry point.
type Flow string

const (
	// FlowDesktop logs in through the full site.
	FlowDesktop Flow = "desktop"

	// FlowMobile logs in through the mobile site and then switches to the
	// full site.
	FlowMobile Flow = "mobile"
)

// Portal URLs.
const (
	DesktopLoginURL = "https://www.pge.com/en/login"
	MobileLoginURL  = "https://m.pge.com/?WT.mc_id=Vanity_myaccount#login"
	DashboardURL    = "https://www.pge.com/myaccount/dashboard"
	UsageURL        = "https://www.pge.com/myaccount/usage"
	DetailsURL      = "https://www.pge.com/myaccount/usage/details"
)

// ErrUnknownFlow is returned for a flow name other than desktop or mobile.
var ErrUnknownFlow = errors.New("unknown login flow")

// ErrUnknownElement is returned for an element name with no definition.
var ErrUnknownElement = errors.New("unknown portal element")

// ParseFlow converts a flow name to a Flow. Empty means FlowDesktop.
func ParseFlow(s string) (Flow, error) {
	switch f := Flow(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FlowDesktop, nil
	case FlowDesktop, FlowMobile:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q (use desktop or mobile)", ErrUnknownFlow, s)
	}
}

// Element names a page element the automation looks for.
type Element string

// Elements, in the order the workflow meets them.
const (
	Username         Element = "username"
	Password         Element = "password"
	LoginButton      Element = "login button"
	SuccessIndicator Element = "login indicator"
	MFAPrompt        Element = "verification prompt"
	LoginError       Element = "login error"
	DesktopLink      Element = "desktop link"
	EnergyUsage      Element = "energy usage link"
	UsageDetails     Element = "usage details link"
	GreenButton      Element = "green button"
	RangeOption      Element = "date range option"
	FromDate         Element = "from date"
	ToDate           Element = "to date"
	DownloadButton   Element = "download button"
)

// Elements returns every element name.
func Elements() []Element {
	return []Element{
		Username, Password, LoginButton, SuccessIndicator, MFAPrompt, LoginError,
		DesktopLink, EnergyUsage, UsageDetails, GreenButton, RangeOption,
		FromDate, ToDate, DownloadButton,
	}
}

// ParseElement accepts an element name with spaces, dashes or
// underscores, e.g. "login_button".
func ParseElement(s string) (Element, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.NewReplacer("_", " ", "-", " ").Replace(norm)
	for _, e := range Elements() {
		if string(e) == norm {
			return e, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownElement, s)
}

// Portal is one configured view of the portal.
type Portal struct {
	// Flow is the login flow.
	Flow Flow

	// LoginURL is where the login form lives.
	LoginURL string

	// DashboardURL, UsageURL and DetailsURL are direct navigation
	// fallbacks.
	DashboardURL string
	UsageURL     string
	DetailsURL   string

	candidates map[Element][]selector.Locator
}

// New returns the built-in definition for flow.
func New(flow Flow) *Portal {
	login := DesktopLoginURL
	if flow == FlowMobile {
		login = MobileLoginURL
	}
	return &Portal{
		Flow:         flow,
		LoginURL:     login,
		DashboardURL: DashboardURL,
		UsageURL:     UsageURL,
		DetailsURL:   DetailsURL,
		candidates:   defaultCandidates(),
	}
}

// Override puts locs ahead of the built-in candidates for el.
func (p *Portal) Override(el Element, locs ...selector.Locator) {
	if len(locs) == 0 {
		return
	}
	merged := make([]selector.Locator, 0, len(locs)+len(p.candidates[el]))
	merged = append(merged, locs...)
	merged = append(merged, p.candidates[el]...)
	p.candidates[el] = merged
}

// Candidates returns a copy of el's candidate list.
func (p *Portal) Candidates(el Element) []selector.Locator {
	return append([]selector.Locator(nil), p.candidates[el]...)
}

// Target builds a resolvable target for el.
func (p *Portal) Target(el Element, cond selector.Condition, timeout time.Duration) selector.Target {
	return selector.Target{
		Name:       string(el),
		Candidates: p.Candidates(el),
		Condition:  cond,
		Timeout:    timeout,
	}
}

// IsMobile reports whether rawURL is on the mobile site.
func (p *Portal) IsMobile(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return strings.HasPrefix(u.Hostname(), "m.")
}

// OnUsagePage reports whether rawURL looks like a usage page.
func OnUsagePage(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "usage")
}

// OnDetailsPage reports whether rawURL looks like the usage details page.
func OnDetailsPage(rawURL string) bool {
	return strings.Contains(strings.ToLower(rawURL), "details")
}
