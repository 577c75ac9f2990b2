// Package util provides content hashing and front matter parsing.
package util

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/gomarkdown/markdown"
)

var ErrNoFrontMatter = errors.New("invalid front matter format")

var frontMatterDelimiter = []byte("+++")

func ContentHash(content []byte) string {
	hash := sha256.Sum256(content)
	return hex.EncodeToString(hash[:])
}

func ContentHashString(content string) string {
	return ContentHash([]byte(content))
}

// GetFrontMatter decodes the TOML block between the leading "+++" delimiters into v
// and returns the markdown that follows it.
func GetFrontMatter(md []byte, v any) ([]byte, error) {
	md = markdown.NormalizeNewlines(md)
	md = bytes.TrimLeft(md, "\n \t\r")

	if !bytes.HasPrefix(md, frontMatterDelimiter) {
		return nil, ErrNoFrontMatter
	}

	rest := md[len(frontMatterDelimiter):]
	end := bytes.Index(rest, frontMatterDelimiter)
	if end == -1 {
		return nil, ErrNoFrontMatter
	}

	if _, err := toml.Decode(string(rest[:end]), v); err != nil {
		return nil, fmt.Errorf("failed to decode front matter: %w", err)
	}

	body := rest[end+len(frontMatterDelimiter):]
	return bytes.TrimLeft(body, "\n"), nil
}
