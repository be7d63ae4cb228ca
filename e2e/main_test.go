//go:build e2e

package e2e

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/docker/docker/api/types/build"
	"github.com/testcontainers/testcontainers-go"
)

func TestMain(m *testing.M) {
	if err := buildImage(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build image: %v\n", err)
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// findRoot walks up from the working directory to the directory holding go.mod
func findRoot() (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	rootDir := wd
	for {
		if _, err := os.Stat(filepath.Join(rootDir, "go.mod")); err == nil {
			return rootDir, nil
		}
		parent := filepath.Dir(rootDir)
		if parent == rootDir {
			return "", fmt.Errorf("could not find project root")
		}
		rootDir = parent
	}
}

func buildImage() error {
	ctx := context.Background()
	rootDir, err := findRoot()
	if err != nil {
		return err
	}

	fmt.Printf("Pre-building %s image...\n", ImageName)
	req := testcontainers.ContainerRequest{
		FromDockerfile: testcontainers.FromDockerfile{
			Context:    rootDir,
			Dockerfile: "Dockerfile",
			KeepImage:  true,
			Repo:       "routesim-debug",
			Tag:        "latest",
			BuildOptionsModifier: func(buildOptions *build.ImageBuildOptions) {
				buildOptions.Target = "debug"
			},
		},
	}

	// creating the container triggers the build
	c, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          false,
	})
	if err != nil {
		return fmt.Errorf("failed to build image: %v", err)
	}

	// only the image is needed
	if err := c.Terminate(ctx); err != nil {
		fmt.Printf("Warning: failed to terminate builder container: %v\n", err)
	}
	return nil
}
