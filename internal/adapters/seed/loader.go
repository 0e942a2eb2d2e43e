// Package seed imports event catalogues from YAML or JSON files.
//
// A file holds either a list of events or a mapping with an "events" list.
// Dates use RFC 3339 or the form "2006-01-02T15:04". Events without an id
// get a stable one derived from their title and date, so re-importing a
// file does not duplicate them.
package seed

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/valyala/fastjson"
	"gopkg.in/yaml.v3"

	"github.com/womenconnect/platform/internal/domain/calendar"
	"github.com/womenconnect/platform/internal/domain/model"
)

// namespace for ids derived from seed content.
var namespace = uuid.MustParse("6f1c1a52-5d0e-4a8e-9f3b-2b7f0c6a9d11")

// record is the on-disk shape of one event.
type record struct {
	ID          string   `yaml:"id,omitempty"`
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Type        string   `yaml:"type,omitempty"`
	Location    string   `yaml:"location"`
	Description string   `yaml:"description,omitempty"`
	Category    string   `yaml:"category,omitempty"`
	CreatedBy   string   `yaml:"created_by,omitempty"`
	CreatorName string   `yaml:"creator_name,omitempty"`
	Attendees   []string `yaml:"attendees,omitempty"`
}

type document struct {
	Events []record `yaml:"events"`
}

// Supported reports whether path has a seed file extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return true
	}
	return false
}

// LoadFile reads and parses one seed file.
func LoadFile(path string, loc *time.Location) ([]model.Event, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed %s: %w", path, err)
	}
	var recs []record
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		recs, err = parseYAML(data)
	case ".json":
		recs, err = parseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return toEvents(recs, loc)
}

func parseYAML(data []byte) ([]record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}
	root := node.Content[0]

	switch root.Kind {
	case yaml.SequenceNode:
		var recs []record
		if err := root.Decode(&recs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return recs, nil
	case yaml.MappingNode:
		var doc document
		if err := root.Decode(&doc); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		return doc.Events, nil
	default:
		return nil, fmt.Errorf("%w: expected a list or an events mapping", ErrMalformed)
	}
}

func parseJSON(data []byte) ([]record, error) {
	var p fastjson.Parser
	v, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}

	var items []*fastjson.Value
	switch v.Type() {
	case fastjson.TypeArray:
		items, _ = v.Array()
	case fastjson.TypeObject:
		if ev := v.Get("events"); ev != nil {
			if items, err = ev.Array(); err != nil {
				return nil, fmt.Errorf("%w: events: %v", ErrMalformed, err)
			}
		} else {
			items = []*fastjson.Value{v}
		}
	default:
		return nil, fmt.Errorf("%w: expected an array or object", ErrMalformed)
	}

	recs := make([]record, 0, len(items))
	for i, it := range items {
		if it.Type() != fastjson.TypeObject {
			return nil, fmt.Errorf("%w: item %d is not an object", ErrMalformed, i)
		}
		r := record{
			ID:          string(it.GetStringBytes("id")),
			Title:       string(it.GetStringBytes("title")),
			Date:        string(it.GetStringBytes("date")),
			Type:        string(it.GetStringBytes("type")),
			Location:    string(it.GetStringBytes("location")),
			Description: string(it.GetStringBytes("description")),
			Category:    string(it.GetStringBytes("category")),
			CreatedBy:   string(it.GetStringBytes("created_by")),
			CreatorName: string(it.GetStringBytes("creator_name")),
		}
		for _, a := range it.GetArray("attendees") {
			r.Attendees = append(r.Attendees, string(a.GetStringBytes()))
		}
		recs = append(recs, r)
	}
	return recs, nil
}

func toEvents(recs []record, loc *time.Location) ([]model.Event, error) {
	events := make([]model.Event, 0, len(recs))
	for i, r := range recs {
		date, err := calendar.ParseDate(r.Date, loc)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d (%q): %v", ErrMalformed, i, r.Title, err)
		}
		e := model.Event{
			ID:          strings.TrimSpace(r.ID),
			Title:       strings.TrimSpace(r.Title),
			Date:        date,
			Type:        strings.TrimSpace(r.Type),
			Location:    strings.TrimSpace(r.Location),
			Description: strings.TrimSpace(r.Description),
			Category:    strings.TrimSpace(r.Category),
			CreatedBy:   r.CreatedBy,
			CreatorName: r.CreatorName,
			Attendees:   r.Attendees,
		}
		e.ApplyDefaults()
		if e.ID == "" {
			e.ID = uuid.NewSHA1(namespace, []byte(e.Title+"\x00"+date.UTC().Format(time.RFC3339))).String()
		}
		if err := e.Validate(); err != nil {
			return nil, fmt.Errorf("event %d (%q): %w", i, r.Title, err)
		}
		events = append(events, e)
	}
	return events, nil
}
