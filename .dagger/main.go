// clickweb CI/CD
//
// Package main provides reproducible builds and tests locally and in GitHub actions.
package main

import (
	"context"

	"dagger/clickweb/internal/dagger"
)

// Clickweb is the main module for the clickweb CI/CD pipeline
type Clickweb struct {
	// Project source directory
	//
	// +private
	Source *dagger.Directory
}

// New creates a new Clickweb CI/CD module instance
func New(
	// Project source directory.
	//
	// +defaultPath="/"
	// +ignore=[".git", ".direnv", "build", "tmp", "clickweb-output.html"]
	source *dagger.Directory,
) *Clickweb {
	return &Clickweb{
		Source: source,
	}
}

// goContainer returns a Go container with module and build caches and the
// project source mounted. clickweb is pure Go, so CGO stays off.
func (c *Clickweb) goContainer() *dagger.Container {
	return dag.Container().
		From("golang:1.25-alpine").
		WithEnvVariable("CGO_ENABLED", "0").
		WithEnvVariable("PATH", "/go/bin:$PATH", dagger.ContainerWithEnvVariableOpts{Expand: true}).
		WithMountedCache("/go/pkg/mod", dag.CacheVolume("go-mod")).
		WithMountedCache("/root/.cache/go-build", dag.CacheVolume("go-build")).
		WithWorkdir("/src").
		WithDirectory("/src", c.Source)
}

// Test runs the clickweb unit tests via "go test"
func (c *Clickweb) Test(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{"go", "test", "-v", "./..."}).
		Stdout(ctx)
}

// Vet runs "go vet" across the module
func (c *Clickweb) Vet(ctx context.Context) (string, error) {
	return c.goContainer().
		WithExec([]string{"go", "vet", "./..."}).
		Stdout(ctx)
}
