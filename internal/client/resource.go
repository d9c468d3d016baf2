package client

import (
	"context"
	"fmt"
	"net/url"
)

// Resource is one REST collection such as /categories
type Resource[T any] struct {
	client     BackendClient
	collection string
	normalize  func(*T)
}

type ResourceOption[T any] func(*Resource[T])

// WithNormalizer runs fn on every item after it is decoded
func WithNormalizer[T any](fn func(*T)) ResourceOption[T] {
	return func(r *Resource[T]) {
		r.normalize = fn
	}
}

func NewResource[T any](client BackendClient, collection string, opts ...ResourceOption[T]) *Resource[T] {
	r := &Resource[T]{
		client:     client,
		collection: collection,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Resource[T]) Collection() string {
	return r.collection
}

// List issues GET /<collection>
func (r *Resource[T]) List(ctx context.Context) ([]T, error) {
	var items []T
	if err := r.client.Get(ctx, "/"+r.collection, &items); err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", r.collection, err)
	}

	if items == nil {
		items = []T{}
	}
	if r.normalize != nil {
		for i := range items {
			r.normalize(&items[i])
		}
	}
	return items, nil
}

// Delete issues DELETE /<collection>/<id>
func (r *Resource[T]) Delete(ctx context.Context, id string) error {
	if err := r.client.Delete(ctx, r.itemPath(id)); err != nil {
		return fmt.Errorf("failed to delete %s %s: %w", r.collection, id, err)
	}
	return nil
}

// Detach clears the parent reference of one item. The parent is sent as an
// explicit JSON null, never omitted.
func (r *Resource[T]) Detach(ctx context.Context, id string) error {
	body := map[string]any{"parent": nil}
	if err := r.client.Patch(ctx, r.itemPath(id), body, nil); err != nil {
		return fmt.Errorf("failed to detach %s %s: %w", r.collection, id, err)
	}
	return nil
}

func (r *Resource[T]) itemPath(id string) string {
	return "/" + r.collection + "/" + url.PathEscape(id)
}
