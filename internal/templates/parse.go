package templates

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ayusman/signcoach/internal/gesture"
	"github.com/ayusman/signcoach/internal/landmark"
)

// ErrMalformedTemplate is wrapped by every ParseError.
var ErrMalformedTemplate = errors.New("malformed template")

// ParseError describes why a template file could not be parsed.
type ParseError struct {
	Symbol     string
	TemplateID string
	Reason     string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("template %s for symbol %s: %s", e.TemplateID, e.Symbol, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return ErrMalformedTemplate
}

// ParseTemplateJSON decodes one stored template. Two shapes are accepted,
// optionally wrapped in {"frames": ...}:
//
//	static:  [[[p0, ..., p20]]]
//	dynamic: [[p0, ..., p20], ...] where each frame may also be [[p0, ..., p20]]
//
// null at any nesting level, and frames with a point count other than 21,
// are rejected with a *ParseError.
func ParseTemplateJSON(raw []byte, symbol string, typ gesture.SignType, id string) (*gesture.Template, error) {
	p := parser{symbol: symbol, id: id}

	data, err := p.unwrap(raw)
	if err != nil {
		return nil, err
	}

	var frames landmark.Sequence
	switch typ {
	case gesture.TypeStatic:
		frames, err = p.static(data)
	case gesture.TypeDynamic:
		frames, err = p.dynamic(data)
	default:
		return nil, p.fail("unknown sign type %q", typ)
	}
	if err != nil {
		return nil, err
	}

	tpl := &gesture.Template{
		ID:     id,
		Symbol: symbol,
		Type:   typ,
		Frames: frames,
	}
	if err := tpl.Validate(); err != nil {
		return nil, p.fail("%v", err)
	}
	return tpl, nil
}

type parser struct {
	symbol, id string
}

func (p parser) fail(format string, args ...any) error {
	return &ParseError{
		Symbol:     p.symbol,
		TemplateID: p.id,
		Reason:     fmt.Sprintf(format, args...),
	}
}

var jsonNull = []byte("null")

func isNull(raw json.RawMessage) bool {
	return len(raw) == 0 || bytes.Equal(bytes.TrimSpace(raw), jsonNull)
}

// firstByte returns the first non-space byte of raw.
func firstByte(raw json.RawMessage) byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

// unwrap strips the optional {"frames": ...} metadata wrapper.
func (p parser) unwrap(raw []byte) (json.RawMessage, error) {
	if isNull(raw) {
		return nil, p.fail("document is null")
	}
	if firstByte(raw) != '{' {
		return raw, nil
	}

	var wrapper struct {
		Frames json.RawMessage `json:"frames"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, p.fail("invalid JSON: %v", err)
	}
	if isNull(wrapper.Frames) {
		return nil, p.fail("frames field is missing or null")
	}
	return wrapper.Frames, nil
}

// list decodes a non-empty, non-null JSON array.
func (p parser) list(raw json.RawMessage, what string) ([]json.RawMessage, error) {
	if isNull(raw) {
		return nil, p.fail("%s is null", what)
	}
	if firstByte(raw) != '[' {
		return nil, p.fail("%s is not an array", what)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, p.fail("%s: invalid JSON: %v", what, err)
	}
	if len(items) == 0 {
		return nil, p.fail("%s is empty", what)
	}
	return items, nil
}

func (p parser) static(raw json.RawMessage) (landmark.Sequence, error) {
	outer, err := p.list(raw, "frame list")
	if err != nil {
		return nil, err
	}
	inner, err := p.list(outer[0], "frame")
	if err != nil {
		return nil, err
	}
	f, err := p.points(inner[0], "landmarks")
	if err != nil {
		return nil, err
	}
	return landmark.Sequence{f}, nil
}

func (p parser) dynamic(raw json.RawMessage) (landmark.Sequence, error) {
	frames, err := p.list(raw, "frame list")
	if err != nil {
		return nil, err
	}

	seq := make(landmark.Sequence, 0, len(frames))
	for i, frameRaw := range frames {
		name := fmt.Sprintf("frame %d", i)
		items, err := p.list(frameRaw, name)
		if err != nil {
			return nil, err
		}

		// A frame is either the point list itself or a list wrapping it.
		pointsRaw := frameRaw
		switch firstByte(items[0]) {
		case '{':
		case '[':
			pointsRaw = items[0]
		default:
			return nil, p.fail("%s has invalid format", name)
		}

		f, err := p.points(pointsRaw, name)
		if err != nil {
			return nil, err
		}
		seq = append(seq, f)
	}
	return seq, nil
}

// point is a stored landmark. X and Y are required; Z defaults to 0.
type point struct {
	X *float64 `json:"x"`
	Y *float64 `json:"y"`
	Z *float64 `json:"z"`
}

func (p parser) points(raw json.RawMessage, what string) (landmark.Frame, error) {
	items, err := p.list(raw, what)
	if err != nil {
		return landmark.Frame{}, err
	}
	if len(items) != landmark.NumLandmarks {
		return landmark.Frame{}, p.fail("%s: expected %d points, found %d", what, landmark.NumLandmarks, len(items))
	}

	rawPoints := make([]landmark.RawPoint, len(items))
	for i, item := range items {
		if isNull(item) {
			return landmark.Frame{}, p.fail("%s: point %d is null", what, i)
		}
		var pt point
		if err := json.Unmarshal(item, &pt); err != nil {
			return landmark.Frame{}, p.fail("%s: point %d: %v", what, i, err)
		}
		if pt.X == nil || pt.Y == nil {
			return landmark.Frame{}, p.fail("%s: point %d is missing coordinates", what, i)
		}
		rawPoints[i] = landmark.RawPoint{X: *pt.X, Y: *pt.Y, Z: pt.Z}
	}

	f, err := landmark.ParseLandmarks(rawPoints)
	if err != nil {
		return landmark.Frame{}, p.fail("%s: %v", what, err)
	}
	return f, nil
}

// EncodeTemplateJSON writes a template in the shape ParseTemplateJSON reads:
// triple-nested for static templates, a frame list for dynamic ones.
func EncodeTemplateJSON(t *gesture.Template) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	if t.Type == gesture.TypeStatic {
		return json.Marshal([][]landmark.Frame{{t.Frames[0]}})
	}
	return json.Marshal(t.Frames)
}
