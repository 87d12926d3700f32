// Package export decodes news-event export files.
//
// Exports come from an upstream event registry and are only loosely
// structured, so every field is read defensively: a field of the wrong type
// reads as absent rather than failing the whole file.
package export

import (
	"github.com/rotisserie/eris"
	"github.com/tidwall/gjson"

	"github.com/sells-group/coverage-cli/internal/model"
)

// ErrMalformed is returned when a file is not a decodable export document.
var ErrMalformed = eris.New("export: malformed document")

// Decode parses an export document. Both the wrapped form
// {"events":{"results":[...]}} and a bare array of events are accepted.
// Non-object events and stories are ignored.
func Decode(raw []byte) ([]model.Event, error) {
	if !gjson.ValidBytes(raw) {
		return nil, eris.Wrap(ErrMalformed, "invalid JSON")
	}

	root := gjson.ParseBytes(raw)
	var results []gjson.Result
	switch {
	case root.IsArray():
		results = root.Array()
	case root.IsObject():
		results = root.Get("events.results").Array()
	default:
		return nil, eris.Wrapf(ErrMalformed, "unexpected root type %s", root.Type)
	}

	events := make([]model.Event, 0, len(results))
	for _, r := range results {
		if !r.IsObject() {
			continue
		}
		events = append(events, decodeEvent(r))
	}
	return events, nil
}

func decodeEvent(r gjson.Result) model.Event {
	ev := model.Event{URI: str(r.Get("uri"))}
	for _, s := range r.Get("stories").Array() {
		if !s.IsObject() {
			continue
		}
		ev.Stories = append(ev.Stories, decodeStory(s))
	}
	return ev
}

func decodeStory(r gjson.Result) model.Story {
	st := model.Story{ArticleCount: 1}
	if ac := r.Get("articleCount"); ac.Type == gjson.Number {
		st.ArticleCount = max(int(ac.Int()), 0)
	}

	medoid := r.Get("medoidArticle")
	if !medoid.IsObject() {
		return st
	}
	st.Medoid = &model.Article{
		Title:       str(medoid.Get("title")),
		Body:        str(medoid.Get("body")),
		DateTimePub: str(medoid.Get("dateTimePub")),
		URL:         str(medoid.Get("url")),
		Lang:        str(medoid.Get("lang")),
		Source: model.Source{
			Title:   str(medoid.Get("source.title")),
			URI:     str(medoid.Get("source.uri")),
			Country: str(medoid.Get("source.location.country.label.eng")),
		},
	}
	return st
}

// str returns the value only when it is a JSON string.
func str(r gjson.Result) string {
	if r.Type != gjson.String {
		return ""
	}
	return r.Str
}
