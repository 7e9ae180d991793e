package main

import (
	"log"
	"os"

	"github.com/bpetok/bpetok/internal/envconfig"
	"github.com/bpetok/bpetok/internal/lookuptable"
	"github.com/bpetok/bpetok/internal/vocab"
)

func main() {
	path := envconfig.LookupTable()
	if len(os.Args) > 1 {
		path = os.Args[1]
	}

	table, err := lookuptable.ReadFile(path)
	if err != nil {
		log.Fatalf("failed to load lookup table: %v", err)
	}

	v := table.Vocabulary
	broken := 0
	for id := range v.Len() {
		if _, err := v.Expand(vocab.TokenID(id)); err != nil {
			log.Printf("token %d: %v", id, err)
			broken++
		}
	}

	if len(table.Malformed) > 0 || broken > 0 {
		log.Fatalf("%s: %d entries, %d malformed lines, %d tokens do not expand", path, v.Len(), len(table.Malformed), broken)
	}
	log.Printf("%s: %d entries, %d merges, every token expands", path, v.Len(), v.Merges())
}
