// Command seed fills the configured journal with sample entries.
package main

import (
	"context"
	"fmt"
	"log"

	"tableflip.dev/declist/pkg/entry"
	"tableflip.dev/declist/pkg/store"
)

var demo = map[string][]string{
	"Inbox":  {"call the plumber", "renew passport", "book dentist"},
	"Work":   {"review the reconcile change", "write release notes"},
	"Garden": {"water the tomatoes", "order seeds"},
}

func main() {
	p, err := store.Load(nil)
	if err != nil {
		log.Fatal(err)
	}

	for collection, messages := range demo {
		for i, m := range messages {
			e := entry.New(collection, m)
			e.Done = i == 0
			if err := p.Store(e); err != nil {
				log.Fatal(err)
			}
		}
	}

	for _, e := range p.ListAll(context.Background()) {
		fmt.Println(e.String())
	}
}
