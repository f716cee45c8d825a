package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"anotherworld/internal/script"
)

func main() {
	flag.Parse()
	if flag.NArg() < 2 {
		fmt.Fprintf(os.Stderr, "Usage: %s <input.asm> <output.bin>\n", os.Args[0])
		os.Exit(1)
	}
	in := flag.Arg(0)
	out := flag.Arg(1)

	res, err := script.AssembleFile(in, &script.Options{OutputPath: out})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Assembler error: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Assembled %s -> %s\n", filepath.Base(in), filepath.Base(out))
	fmt.Printf("Bytecode bytes: %d\n", len(res.Bytecode))
	fmt.Printf("Labels: %d\n", len(res.Labels))
}
