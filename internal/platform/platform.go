// Package platform classifies source URLs into the closed set of supported
// platforms and extracts their video identifiers. Classification is by host
// substring; each platform carries its own id parse rule.
package platform

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Platform identifies where a source URL points.
type Platform int

const (
	Unsupported Platform = iota
	YouTube
	TwitterX
)

// String returns the platform name for logs and error messages.
func (p Platform) String() string {
	switch p {
	case YouTube:
		return "youtube"
	case TwitterX:
		return "twitter"
	default:
		return "unsupported"
	}
}

// ErrInvalidURL indicates a URL matched a supported platform but carried no
// extractable video identifier.
var ErrInvalidURL = errors.New("invalid URL format")

// Classify maps a URL to its platform by host substring.
func Classify(url string) Platform {
	switch {
	case strings.Contains(url, "youtube.com"), strings.Contains(url, "youtu.be"):
		return YouTube
	case strings.Contains(url, "twitter.com"), strings.Contains(url, "x.com"):
		return TwitterX
	default:
		return Unsupported
	}
}

// youtubeIDRe matches the fixed set of YouTube URL shapes:
// watch?v=, youtu.be/, embed/, v/, u/*/, and &v= query parameters.
var youtubeIDRe = regexp.MustCompile(`^.*(youtu\.be/|v/|u/\w/|embed/|watch\?v=|&v=)([^#&?]*).*`)

// ExtractYouTubeID returns the 11-character video id embedded in a YouTube
// URL, or ErrInvalidURL if no id of exactly that length is found.
func ExtractYouTubeID(url string) (string, error) {
	m := youtubeIDRe.FindStringSubmatch(url)
	if m == nil || len(m[2]) != 11 {
		return "", fmt.Errorf("%w: no YouTube video id in %q", ErrInvalidURL, url)
	}
	return m[2], nil
}

// TwitterKind distinguishes the two supported Twitter/X URL shapes.
type TwitterKind int

const (
	TwitterBroadcast TwitterKind = iota
	TwitterStatus
)

// TwitterRef is a parsed Twitter/X video reference.
type TwitterRef struct {
	Kind TwitterKind
	ID   string
}

// Filename returns the deterministic artifact base name for this reference.
func (r TwitterRef) Filename() string {
	if r.Kind == TwitterBroadcast {
		return "twitter_broadcast_" + r.ID
	}
	return "twitter_status_" + r.ID
}

var (
	broadcastIDRe = regexp.MustCompile(`/broadcasts/([^/?]+)`)
	statusIDRe    = regexp.MustCompile(`/status/(\d+)`)
)

// ParseTwitterURL classifies a Twitter/X URL as a broadcast or a status and
// extracts its id segment. URLs matching neither shape, or with an absent id,
// fail with ErrInvalidURL.
func ParseTwitterURL(url string) (TwitterRef, error) {
	switch {
	case strings.Contains(url, "/broadcasts/"):
		m := broadcastIDRe.FindStringSubmatch(url)
		if m == nil || m[1] == "" {
			return TwitterRef{}, fmt.Errorf("%w: no broadcast id in %q", ErrInvalidURL, url)
		}
		return TwitterRef{Kind: TwitterBroadcast, ID: m[1]}, nil
	case strings.Contains(url, "/status/"):
		m := statusIDRe.FindStringSubmatch(url)
		if m == nil || m[1] == "" {
			return TwitterRef{}, fmt.Errorf("%w: no status id in %q", ErrInvalidURL, url)
		}
		return TwitterRef{Kind: TwitterStatus, ID: m[1]}, nil
	default:
		return TwitterRef{}, fmt.Errorf("%w: %q must contain /broadcasts/ or /status/", ErrInvalidURL, url)
	}
}
