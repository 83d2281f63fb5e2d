package fetch

import (
	"net/url"
	"strings"
)

// Platform represents a known applicant tracking system.
type Platform string

const (
	// PlatformGreenhouse is the Greenhouse ATS platform
	PlatformGreenhouse Platform = "greenhouse"
	// PlatformLever is the Lever ATS platform
	PlatformLever Platform = "lever"
	// PlatformWorkday is the Workday ATS platform
	PlatformWorkday Platform = "workday"
	// PlatformAshby is the Ashby ATS platform
	PlatformAshby Platform = "ashby"
	// PlatformUnknown is an unrecognized platform
	PlatformUnknown Platform = "unknown"
)

var platformHosts = []struct {
	suffix   string
	platform Platform
}{
	{"greenhouse.io", PlatformGreenhouse},
	{"lever.co", PlatformLever},
	{"myworkdayjobs.com", PlatformWorkday},
	{"workday.com", PlatformWorkday},
	{"ashbyhq.com", PlatformAshby},
}

// DetectPlatform identifies the ATS behind a careers URL from its host.
func DetectPlatform(urlStr string) Platform {
	parsed, err := url.Parse(urlStr)
	if err != nil {
		return PlatformUnknown
	}
	host := strings.ToLower(parsed.Hostname())
	for _, p := range platformHosts {
		if host == p.suffix || strings.HasSuffix(host, "."+p.suffix) {
			return p.platform
		}
	}
	return PlatformUnknown
}

// ListingSelectors returns selectors for the job links of a platform's listing page.
// Unknown platforms return nil, meaning every link on the page is a candidate.
func ListingSelectors(platform Platform) []string {
	switch platform {
	case PlatformGreenhouse:
		return []string{".opening a", "tr.job-post a", "a[href*='/jobs/']"}
	case PlatformLever:
		return []string{"a.posting-title", ".posting a"}
	case PlatformWorkday:
		return []string{"a[data-automation-id='jobTitle']"}
	case PlatformAshby:
		return []string{"a[href*='/jobs/']", "a[class*='JobPosting']"}
	default:
		return nil
	}
}
