package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lastvoidtemplar/luadecomp"
)

func main() {
	ctx := context.Background()
	args := os.Args[1:]
	for _, arg := range args {
		if err := decompileFile(ctx, arg); err != nil {
			fmt.Println(err.Error())
			continue
		}
	}
}

func decompileFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	out, err := os.Create(path + ".lua")
	if err != nil {
		return fmt.Errorf("failed to create output for %s: %w", path, err)
	}
	defer out.Close()

	if err := luadecomp.Decompile(ctx, out, data, os.Stderr); err != nil {
		return fmt.Errorf("failed to decompile %s: %w", path, err)
	}
	return nil
}
