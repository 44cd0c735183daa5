// Package appfs embeds the files the binaries need at runtime.
package appfs

import "embed"

//go:embed migrations/*.sql templates/email/* documents.yaml catalog.yaml
var FS embed.FS

const (
	EmailTemplatesDir = "templates/email"
	DocumentCatalogue = "documents.yaml"
	CatalogFixtures   = "catalog.yaml"
	MigrationsDir     = "migrations"
)
