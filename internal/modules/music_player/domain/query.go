package domain

import (
	"net/url"
	"strings"
)

// QueryKind distinguishes the two kinds of user requests.
type QueryKind int

const (
	// QuerySearch is free-text search.
	QuerySearch QueryKind = iota
	// QueryURL is a direct link to a source.
	QueryURL
)

func (k QueryKind) String() string {
	switch k {
	case QuerySearch:
		return "search"
	case QueryURL:
		return "url"
	default:
		return "unknown"
	}
}

// youtubeSearchPrefix makes Lavalink search YouTube instead of treating the text as an identifier.
const youtubeSearchPrefix = "ytsearch:"

// Query is a user request to play something. It is immutable once created.
type Query struct {
	kind  QueryKind
	value string
}

// Search creates a free-text search query.
func Search(text string) Query {
	return Query{kind: QuerySearch, value: strings.TrimSpace(text)}
}

// URL creates a direct URL query.
func URL(u string) Query {
	return Query{kind: QueryURL, value: strings.TrimSpace(u)}
}

// ParseQuery creates a URL query if input parses as an absolute http(s) URL,
// and a search query otherwise.
func ParseQuery(input string) Query {
	input = strings.TrimSpace(input)
	if IsURL(input) {
		return URL(input)
	}
	return Search(input)
}

// IsURL reports whether input is an absolute http or https URL.
func IsURL(input string) bool {
	u, err := url.Parse(input)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}

// Kind returns the query kind.
func (q Query) Kind() QueryKind {
	return q.kind
}

// Value returns the search text or URL.
func (q Query) Value() string {
	return q.value
}

// IsValid returns true if the query is not empty.
func (q Query) IsValid() bool {
	return q.value != ""
}

// LavalinkIdentifier returns the identifier to hand to a Lavalink track load.
func (q Query) LavalinkIdentifier() string {
	if q.kind == QueryURL {
		return q.value
	}
	return youtubeSearchPrefix + q.value
}

func (q Query) String() string {
	return q.kind.String() + "(" + q.value + ")"
}
