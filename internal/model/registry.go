package model

import (
	"context"
	"fmt"

	"feed_triage/internal/domain"
)

type variant struct {
	name    string
	aliases []string
	build   func(*domain.Corpus, Options) Model
}

var variants = []variant{
	{
		name:    NameNone,
		aliases: []string{"EmptyModel"},
		build:   func(c *domain.Corpus, o Options) Model { return newEmpty(c, o) },
	},
	{
		name:    NameTags,
		aliases: []string{"TagModel", "tagsubscriber"},
		build:   func(c *domain.Corpus, o Options) Model { return newTagAffinity(c, o) },
	},
	{
		name:    NameLinear,
		aliases: []string{"LinearModel"},
		build:   func(c *domain.Corpus, o Options) Model { return newLinear(c, o) },
	},
}

// Names lists the canonical model names.
func Names() []string {
	names := make([]string, len(variants))
	for i, v := range variants {
		names[i] = v.name
	}
	return names
}

// Canonical resolves a model name or one of its legacy aliases.
func Canonical(name string) (string, error) {
	for _, v := range variants {
		if v.name == name {
			return v.name, nil
		}
		for _, a := range v.aliases {
			if a == name {
				return v.name, nil
			}
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// New constructs an unanalyzed model over c. Models whose minimum data
// requirement c does not meet start out Invalid.
func New(name string, c *domain.Corpus, opts Options) (Model, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if v.name == canonical {
			return v.build(c, opts), nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}

// All constructs every model over c.
func All(c *domain.Corpus, opts Options) []Model {
	out := make([]Model, len(variants))
	for i, v := range variants {
		out[i] = v.build(c, opts)
	}
	return out
}

// FromParameters rebuilds an analyzed model from a saved selection. c may be
// nil; the baseline then reports zero precision.
func FromParameters(ctx context.Context, name string, p Parameters, c *domain.Corpus, loader ArtifactLoader, opts Options) (Model, error) {
	canonical, err := Canonical(name)
	if err != nil {
		return nil, err
	}
	switch canonical {
	case NameNone:
		return newEmpty(c, opts), nil
	case NameTags:
		return loadTagAffinity(c, p, opts), nil
	case NameLinear:
		return loadLinear(ctx, c, p, loader, opts)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownModel, name)
}
