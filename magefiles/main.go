//go:build mage

package main

import (
	"context"

	"github.com/aexvir/deploy"
)

// ensure go mod download is run before building
func download(ctx context.Context) error {
	return deploy.Run(ctx, "go", deploy.WithArgs("mod", "download"))
}

// build shelf from the current directory and install it
func Deploy(ctx context.Context) error {
	_, err := deploy.New(
		deploy.WithPreDeployFunc(download),
	).Deploy(ctx)
	return err
}

// same as deploy but aborting on build failures and unknown platforms
func DeployStrict(ctx context.Context) error {
	_, err := deploy.New(
		deploy.WithPreDeployFunc(download),
		deploy.WithStrictBuild(),
		deploy.WithStrictPlatform(),
	).Deploy(ctx)
	return err
}

// run unit tests
func Test(ctx context.Context) error {
	return deploy.NewPipeline(
		deploy.WithPreExecFunc(download),
	).Execute(
		ctx,
		deploy.Stage{
			Name: "go test",
			Run: func(ctx context.Context) error {
				return deploy.Run(ctx, "go", deploy.WithArgs("test", "-race", "-cover", "./..."))
			},
		},
	)
}
