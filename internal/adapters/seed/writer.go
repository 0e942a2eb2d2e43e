package seed

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/valyala/fastjson"
	"gopkg.in/yaml.v3"

	"github.com/womenconnect/platform/internal/domain/model"
)

// WriteFile writes events to path in the format named by its extension.
func WriteFile(path string, events []model.Event) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create seed %s: %w", path, err)
	}
	if err := Write(f, strings.ToLower(filepath.Ext(path)), events); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// Write encodes events as ext, one of ".yaml", ".yml" or ".json". The
// output reads back with LoadFile.
func Write(w io.Writer, ext string, events []model.Event) error {
	switch ext {
	case ".yaml", ".yml":
		return writeYAML(w, events)
	case ".json":
		return writeJSON(w, events)
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func toRecord(e model.Event) record {
	return record{
		ID:          e.ID,
		Title:       e.Title,
		Date:        e.Date.Format(time.RFC3339),
		Type:        e.Type,
		Location:    e.Location,
		Description: e.Description,
		Category:    e.Category,
		CreatedBy:   e.CreatedBy,
		CreatorName: e.CreatorName,
		Attendees:   e.Attendees,
	}
}

func writeYAML(w io.Writer, events []model.Event) error {
	doc := document{Events: make([]record, len(events))}
	for i, e := range events {
		doc.Events[i] = toRecord(e)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode yaml: %w", err)
	}
	return enc.Close()
}

func writeJSON(w io.Writer, events []model.Event) error {
	var a fastjson.Arena
	list := a.NewArray()
	for i, e := range events {
		r := toRecord(e)
		obj := a.NewObject()
		set := func(k, v string) {
			if v != "" {
				obj.Set(k, a.NewString(v))
			}
		}
		set("id", r.ID)
		set("title", r.Title)
		set("date", r.Date)
		set("type", r.Type)
		set("location", r.Location)
		set("description", r.Description)
		set("category", r.Category)
		set("created_by", r.CreatedBy)
		set("creator_name", r.CreatorName)
		if len(r.Attendees) > 0 {
			att := a.NewArray()
			for j, id := range r.Attendees {
				att.SetArrayItem(j, a.NewString(id))
			}
			obj.Set("attendees", att)
		}
		list.SetArrayItem(i, obj)
	}
	if _, err := w.Write(list.MarshalTo(nil)); err != nil {
		return fmt.Errorf("write json: %w", err)
	}
	_, err := io.WriteString(w, "\n")
	return err
}
