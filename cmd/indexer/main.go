package main

import (
	"fmt"
	"os"

	"github.com/futig/traffic-law-assistant/internal/builder"
)

func main() {
	root := newRootCmd(func(environment string) (*session, error) {
		indexer, err := builder.BuildIndexer(environment)
		if err != nil {
			return nil, err
		}
		return &session{
			collection: indexer.Usecase,
			corpusPath: indexer.CorpusPath,
			close:      indexer.Close,
		}, nil
	})

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
