package models

import (
	"encoding/json"
	"fmt"
)

// SpaceRef identifies the space a page or search result belongs to. Backends
// return it either as an object with key and name fields or as a bare string;
// the string form carries no key and cannot be used to resolve a page fetch.
type SpaceRef struct {
	Key  string `json:"key,omitempty"`
	Name string `json:"name,omitempty"`

	// Raw holds the stringified value when the backend returned something
	// other than an object, so display output can still show it.
	Raw string `json:"-"`
}

// UnmarshalJSON accepts both the object form {"key": ..., "name": ...} and a
// bare string or other scalar.
func (s *SpaceRef) UnmarshalJSON(data []byte) error {
	var obj struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &obj); err == nil {
		s.Key = obj.Key
		s.Name = obj.Name
		return nil
	}

	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decoding space reference: %w", err)
	}
	if str, ok := raw.(string); ok {
		s.Raw = str
	} else if raw != nil {
		s.Raw = fmt.Sprint(raw)
	}
	return nil
}

// DisplayName returns the space name for display, preferring the name field,
// then the key, then the stringified raw value.
func (s SpaceRef) DisplayName() string {
	switch {
	case s.Name != "":
		return s.Name
	case s.Key != "":
		return s.Key
	case s.Raw != "":
		return s.Raw
	default:
		return "Unknown"
	}
}

// SearchResultItem is one entry of a search response. Items live only for the
// duration of a single request; ordering is whatever the store returned.
type SearchResultItem struct {
	ID      string   `json:"id"`
	Title   string   `json:"title"`
	Space   SpaceRef `json:"space"`
	Excerpt string   `json:"excerpt,omitempty"`
	URL     string   `json:"url,omitempty"`
}

// PageContent is the normalized form of a get-page response, built at the
// bridge boundary from either the flat shape or the nested metadata shape.
type PageContent struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Space    SpaceRef `json:"space"`
	BodyHTML string   `json:"content,omitempty"`
	WebURL   string   `json:"url,omitempty"`
}
