package loam

import (
	"fmt"
	"time"
)

// GreetingMetadata is the frontmatter of a greeting document.
// The message itself is the document body.
type GreetingMetadata struct {
	ID   string `json:"id" mapstructure:"id"`
	Name string `json:"name" mapstructure:"name"`

	// CreatedAt holds an RFC 3339 string. Frontmatter decoders may hand back a time.Time
	// for unquoted timestamps, so both are accepted on read.
	CreatedAt any `json:"created_at" mapstructure:"created_at"`
}

func parseCreatedAt(raw any) (time.Time, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		return time.Parse(time.RFC3339Nano, v)
	default:
		return time.Time{}, fmt.Errorf("unexpected created_at type %T", raw)
	}
}
