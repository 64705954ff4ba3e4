// Command protocolgen drives internal/schema end to end: parse a
// minecraft-data-style protocol.json for one version into a TypeModel,
// then emit one Go source file per ConnectionState, matching what
// dune_data_gen's build.rs step does for the Rust side (there invoked from
// a build script; here a standalone CLI since this module has no codegen
// build-script equivalent).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"duneproxy/internal/schema"
)

func main() {
	if len(os.Args) != 4 {
		fmt.Fprintln(os.Stderr, "usage: protocolgen <protocol.json> <output-dir> <package-prefix>")
		os.Exit(1)
	}
	inputPath, outDir, pkgPrefix := os.Args[1], os.Args[2], os.Args[3]

	doc, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "protocolgen: read %s: %v\n", inputPath, err)
		os.Exit(1)
	}

	parser := schema.NewParser()
	states, err := parser.ParseSchema(doc)
	if err != nil {
		fmt.Fprintf(os.Stderr, "protocolgen: parse schema: %v\n", err)
		os.Exit(1)
	}

	stateDirNames := [4]string{"handshaking", "status", "login", "play"}
	for i, st := range states {
		dirName := stateDirNames[i]
		pkgDir := filepath.Join(outDir, dirName)
		if err := os.MkdirAll(pkgDir, 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "protocolgen: mkdir %s: %v\n", pkgDir, err)
			os.Exit(1)
		}

		emitter := schema.NewEmitter(parser.Store, dirName)
		src := emitter.EmitState(st)

		outPath := filepath.Join(pkgDir, dirName+".go")
		if err := os.WriteFile(outPath, []byte(src), 0o644); err != nil {
			fmt.Fprintf(os.Stderr, "protocolgen: write %s: %v\n", outPath, err)
			os.Exit(1)
		}
		fmt.Printf("wrote %s\n", outPath)
	}

	if report := parser.Unknown(); len(report) > 0 {
		fmt.Fprintln(os.Stderr, "protocolgen: unrecognized types encountered:")
		for ty, packets := range report {
			fmt.Fprintf(os.Stderr, "  %s: referenced by %v\n", ty, packets)
		}
	}

	fmt.Printf("generated package prefix: %s\n", pkgPrefix)
}
