package main

import (
	"flag"
	"fmt"
	"os"

	"chosenoffset.com/avatarstage/internal/placeholders"
)

func main() {
	dir := flag.String("dir", "assets/avatars/3d", "output directory for the primitive models")
	flag.Parse()

	fmt.Println("Avatarstage Placeholder Model Generator")
	fmt.Println("=======================================")
	fmt.Println()

	if err := placeholders.GenerateAndSave(*dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	fmt.Println()
	fmt.Println("Done! Primitive models are ready to use.")
	fmt.Println("They serve as the static stage until real assets are added.")
}
