package jwtgate

import (
	"context"
	"errors"
	"fmt"
)

// registry is the immutable entity-descriptor table built once by
// [Builder.Build]. Resolution never mutates it; all per-request values flow
// through arguments and return values.
type registry struct {
	descriptors   []Descriptor
	byTag         map[string]int
	entityKeyName string
}

func newRegistry(descriptors []Descriptor, entityKeyName string) (*registry, error) {
	r := &registry{
		descriptors:   descriptors,
		byTag:         make(map[string]int, len(descriptors)),
		entityKeyName: entityKeyName,
	}
	for i, d := range descriptors {
		if d.TypeTag == "" {
			return nil, fmt.Errorf("descriptor %d: empty type tag", i)
		}
		if d.Lookup == nil {
			return nil, fmt.Errorf("descriptor %q: nil lookup", d.TypeTag)
		}
		if _, exists := r.byTag[d.TypeTag]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateTypeTag, d.TypeTag)
		}
		r.byTag[d.TypeTag] = i
	}
	return r, nil
}

func (r *registry) descriptor(tag string) (Descriptor, error) {
	i, ok := r.byTag[tag]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrNoSuchType, tag)
	}
	return r.descriptors[i], nil
}

// primaryKeyName returns the key attribute name for tag: the descriptor's own
// KeyName when set, otherwise the globally configured entity key name. Lets
// different entity types use different primary-key column names transparently.
func (r *registry) primaryKeyName(tag string) (string, error) {
	d, err := r.descriptor(tag)
	if err != nil {
		return "", err
	}
	if d.KeyName != "" {
		return d.KeyName, nil
	}
	return r.entityKeyName, nil
}

// resolveByTag looks up an entity by its type tag and primary-key value, as
// carried in a decoded token. An unknown tag is a configuration error
// (ErrNoSuchType); a missing row is a routine runtime failure
// (ErrEntityNotFound).
func (r *registry) resolveByTag(ctx context.Context, tag string, keyValue any) (any, error) {
	d, err := r.descriptor(tag)
	if err != nil {
		return nil, err
	}
	keyName := d.KeyName
	if keyName == "" {
		keyName = r.entityKeyName
	}
	return r.lookup(ctx, d, keyName, keyValue)
}

// resolveByIdentity looks up an entity by a strategy-verified external
// identity value (e.g. an email), keyed on the descriptor's identity field.
func (r *registry) resolveByIdentity(ctx context.Context, tag string, identityValue string) (any, error) {
	d, err := r.descriptor(tag)
	if err != nil {
		return nil, err
	}
	keyName := d.IdentityKeyName
	if keyName == "" {
		keyName = "email"
	}
	return r.lookup(ctx, d, keyName, identityValue)
}

func (r *registry) lookup(ctx context.Context, d Descriptor, keyName string, keyValue any) (any, error) {
	entity, err := d.Lookup(ctx, keyName, keyValue)
	if err != nil {
		if errors.Is(err, ErrEntityNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("lookup %q by %s: %w", d.TypeTag, keyName, err)
	}
	if entity == nil {
		return nil, fmt.Errorf("%w: %q", ErrEntityNotFound, d.TypeTag)
	}
	return entity, nil
}

// StaticLookup builds a LookupFunc over an in-memory slice of rows, matching
// on a field extractor. Useful for tests and small fixed entity sets.
func StaticLookup[T any](rows []T, field func(row T, keyName string) (any, bool)) LookupFunc {
	return func(_ context.Context, keyName string, keyValue any) (any, error) {
		for _, row := range rows {
			v, ok := field(row, keyName)
			if !ok {
				continue
			}
			if equalKey(v, keyValue) {
				return row, nil
			}
		}
		return nil, ErrEntityNotFound
	}
}

// equalKey compares a stored key against a token-carried one. JSON decoding
// turns numeric claims into float64, so numeric kinds compare by value.
func equalKey(a, b any) bool {
	if a == b {
		return true
	}
	af, aok := toFloat(a)
	bf, bok := toFloat(b)
	return aok && bok && af == bf
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
