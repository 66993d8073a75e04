// Package hydrate turns stored state-record payloads into typed values. Pre
// hooks rewrite older payload layouts before decoding; post hooks validate
// the decoded record.
package hydrate

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNilPayload is reported when there is nothing to decode.
var ErrNilPayload = errors.New("payload is nil")

// Stages reported by Error.
const (
	StagePayload       = "payload"
	StagePreHook       = "pre-hook"
	StageDecode        = "decode"
	StageCustomDecoder = "custom decoder"
	StagePostHook      = "post-hook"
)

// Context identifies the stored payload being decoded.
type Context struct {
	// Key is the storage key, e.g. "rankine/1".
	Key string
	// Source names the store the payload came from.
	Source string
}

// Error reports which stage of Decode failed for which key.
type Error struct {
	Stage  string
	Key    string
	Source string
	Err    error
}

func (e *Error) Error() string {
	if e.Source != "" {
		return fmt.Sprintf("hydrate: %s failed for %q from %s: %v", e.Stage, e.Key, e.Source, e.Err)
	}
	return fmt.Sprintf("hydrate: %s failed for %q: %v", e.Stage, e.Key, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// PreHook rewrites the payload before decoding. Returning nil keeps the
// payload passed in, which the hook may have modified in place.
type PreHook func(Context, map[string]any) (map[string]any, error)

// PostHook adjusts or validates the decoded value.
type PostHook[T any] func(Context, *T) error

// CustomDecoder replaces JSON decoding of the payload.
type CustomDecoder[T any] func(Context, map[string]any) (T, error)

// DecoderOption configures a Decoder.
type DecoderOption[T any] func(*Decoder[T])

// Decoder runs pre hooks, decoding and post hooks in that order.
type Decoder[T any] struct {
	pre             []PreHook
	post            []PostHook[T]
	custom          CustomDecoder[T]
	useNumber       bool
	disallowUnknown bool
	configure       []func(*json.Decoder)
}

// WithPreHook appends a pre hook. Hooks run in the order they were added.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.pre = append(d.pre, hook)
		}
	}
}

// WithPostHook appends a post hook.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if hook != nil {
			d.post = append(d.post, hook)
		}
	}
}

// WithUseNumber decodes numbers into json.Number where T holds interface
// values.
func WithUseNumber[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.useNumber = true }
}

// WithDisallowUnknownFields rejects payload keys T has no field for.
func WithDisallowUnknownFields[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) { d.disallowUnknown = true }
}

// WithDecoderConfig configures the json.Decoder directly.
func WithDecoderConfig[T any](configure func(*json.Decoder)) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if configure != nil {
			d.configure = append(d.configure, configure)
		}
	}
}

// WithCustomDecoder replaces JSON decoding.
func WithCustomDecoder[T any](decoder CustomDecoder[T]) DecoderOption[T] {
	return func(d *Decoder[T]) { d.custom = decoder }
}

// NewDecoder builds a Decoder from opts.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// DecodeJSON decodes a raw JSON object, as read from a database column.
func (d *Decoder[T]) DecodeJSON(ctx Context, raw []byte) (T, error) {
	var zero T
	if len(bytes.TrimSpace(raw)) == 0 {
		return zero, d.fail(ctx, StagePayload, ErrNilPayload)
	}
	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		return zero, d.fail(ctx, StagePayload, err)
	}
	if payload == nil {
		return zero, d.fail(ctx, StagePayload, ErrNilPayload)
	}
	return d.decode(ctx, payload)
}

// Decode works on a copy of payload; the caller's map is never modified.
func (d *Decoder[T]) Decode(ctx Context, payload map[string]any) (T, error) {
	if payload == nil {
		var zero T
		return zero, d.fail(ctx, StagePayload, ErrNilPayload)
	}
	return d.decode(ctx, cloneValue(payload).(map[string]any))
}

func (d *Decoder[T]) decode(ctx Context, payload map[string]any) (T, error) {
	var zero T
	for _, hook := range d.pre {
		next, err := hook(ctx, payload)
		if err != nil {
			return zero, d.fail(ctx, StagePreHook, err)
		}
		if next != nil {
			payload = next
		}
	}

	var (
		out T
		err error
	)
	if d.custom != nil {
		if out, err = d.custom(ctx, payload); err != nil {
			return zero, d.fail(ctx, StageCustomDecoder, err)
		}
	} else if out, err = d.decodeJSON(payload); err != nil {
		return zero, d.fail(ctx, StageDecode, err)
	}

	for _, hook := range d.post {
		if err := hook(ctx, &out); err != nil {
			return zero, d.fail(ctx, StagePostHook, err)
		}
	}
	return out, nil
}

func (d *Decoder[T]) decodeJSON(payload map[string]any) (T, error) {
	var out T
	buf, err := json.Marshal(payload)
	if err != nil {
		return out, err
	}
	dec := json.NewDecoder(bytes.NewReader(buf))
	if d.useNumber {
		dec.UseNumber()
	}
	if d.disallowUnknown {
		dec.DisallowUnknownFields()
	}
	for _, configure := range d.configure {
		configure(dec)
	}
	err = dec.Decode(&out)
	return out, err
}

func (d *Decoder[T]) fail(ctx Context, stage string, err error) error {
	return &Error{Stage: stage, Key: ctx.Key, Source: ctx.Source, Err: err}
}

// cloneValue deep-copies the maps and slices encoding/json produces.
func cloneValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, item := range t {
			out[k] = cloneValue(item)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}
