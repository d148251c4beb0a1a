package subscribe

import (
	persistence "github.com/goliatone/go-persistence-bun"
)

// RegisterModels registers the package models with go-persistence-bun so
// applications using its migration and fixture bootstrap pick up the
// subscribers schema.
func RegisterModels() {
	persistence.RegisterModel((*Subscriber)(nil))
}
