package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"io"

	"github.com/rotisserie/eris"
)

// MaxPayloadBytes caps how much of a response body DecodePayload reads.
const MaxPayloadBytes = 64 << 20

// DecodeJSONArray decodes a JSON array streaming, sending each element to a channel.
// Expects input in the form [{...},{...}].
// Both channels are closed when processing completes.
func DecodeJSONArray[T any](ctx context.Context, r io.Reader) (<-chan T, <-chan error) {
	outCh := make(chan T, 64)
	errCh := make(chan error, 1)

	go func() {
		defer close(outCh)
		defer close(errCh)

		decoder := json.NewDecoder(r)

		tok, err := decoder.Token()
		if err != nil {
			if err == io.EOF {
				return
			}
			errCh <- eris.Wrap(err, "json: read opening token")
			return
		}

		delim, ok := tok.(json.Delim)
		if !ok || delim != '[' {
			errCh <- eris.Errorf("json: expected '[', got %v", tok)
			return
		}

		for decoder.More() {
			if ctx.Err() != nil {
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}

			var item T
			if err := decoder.Decode(&item); err != nil {
				errCh <- eris.Wrap(err, "json: decode element")
				return
			}

			select {
			case outCh <- item:
			case <-ctx.Done():
				errCh <- eris.Wrap(ctx.Err(), "json: context cancelled")
				return
			}
		}

		if _, err := decoder.Token(); err != nil && err != io.EOF {
			errCh <- eris.Wrap(err, "json: read closing token")
		}
	}()

	return outCh, errCh
}

// CollectJSONArray drains DecodeJSONArray into a slice.
func CollectJSONArray[T any](ctx context.Context, r io.Reader) ([]T, error) {
	ch, errCh := DecodeJSONArray[T](ctx, r)

	out := make([]T, 0)
	for item := range ch {
		out = append(out, item)
	}
	for err := range errCh {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// DecodePayload reads a response body holding either a bare JSON array or an
// envelope object whose "data" field holds the array. A missing or null
// "data" field yields an empty result. Elements are returned undecoded.
func DecodePayload(ctx context.Context, r io.Reader) ([]json.RawMessage, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxPayloadBytes))
	if err != nil {
		return nil, eris.Wrap(err, "json: read payload")
	}

	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, eris.New("json: empty payload")
	}

	switch trimmed[0] {
	case '[':
		return CollectJSONArray[json.RawMessage](ctx, bytes.NewReader(trimmed))
	case '{':
		var envelope struct {
			Data json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(trimmed, &envelope); err != nil {
			return nil, eris.Wrap(err, "json: decode envelope")
		}
		inner := bytes.TrimSpace(envelope.Data)
		if len(inner) == 0 || bytes.Equal(inner, []byte("null")) {
			return []json.RawMessage{}, nil
		}
		if inner[0] != '[' {
			return nil, eris.New("json: envelope data is not an array")
		}
		return CollectJSONArray[json.RawMessage](ctx, bytes.NewReader(inner))
	}

	return nil, eris.Errorf("json: unexpected payload starting with %q", trimmed[0])
}
