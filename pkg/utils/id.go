package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// ShortID returns a random lowercase alphanumeric id of length n.
func ShortID(n int) string {
	id, err := gonanoid.Generate(idAlphabet, n)
	if err != nil {
		// only fails on invalid alphabet/length, both fixed here
		panic(err)
	}
	return id
}
