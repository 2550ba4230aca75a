package taproot_test

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/aretw0/taproot"
	"github.com/aretw0/taproot/pkg/adapters/file"
	"github.com/aretw0/taproot/pkg/tree"
	"github.com/aretw0/taproot/pkg/value"
)

// Example shows the full lifecycle: build a tree, open a keeper on a file
// store, mutate, and shut down. Close flushes the pending write, so the
// document on disk reflects the final state.
func Example() {
	dir, err := os.MkdirTemp("", "taproot-example-*")
	if err != nil {
		log.Fatal(err)
	}
	defer os.RemoveAll(dir)
	path := filepath.Join(dir, "state.json")

	rig := tree.NewBranch()
	if err := rig.Add("freq", tree.NewCell(value.Int(7_100_000))); err != nil {
		log.Fatal(err)
	}
	root := tree.NewBranch()
	if err := root.Add("rig", rig); err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	k, err := taproot.Open(ctx, root, taproot.WithStore(file.New(path)))
	if err != nil {
		log.Fatal(err)
	}

	if err := k.Set(ctx, "rig.freq", value.Int(14_200_000)); err != nil {
		log.Fatal(err)
	}
	if err := k.Close(ctx); err != nil {
		log.Fatal(err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(string(data))
	// Output: {"rig":{"freq":14200000}}
}
